package cmd

import (
	"log/slog"
	"os"

	"github.com/Alia5/gobjgen/internal/log"
)

type Generate struct {
	Pipeline `embed:""`
	DryRun   bool `help:"Render without writing files; combine with --log.raw-file to see the output" env:"GOBJGEN_DRY_RUN"`
}

// Run is called by Kong when the generate command is executed.
func (g *Generate) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	logger.Info("Starting gobjgen code generation", "paths", g.Paths, "lang", g.Lang)

	res, gen, err := g.compile(logger, true)
	if err != nil {
		return err
	}
	if err := g.report(os.Stderr, res); err != nil {
		return err
	}

	files := res.Files()
	for _, f := range files {
		rawLogger.Log(f.Path, f.Content)
	}
	if g.DryRun {
		logger.Info("Dry run, nothing written", "files", len(files))
		return nil
	}
	if err := gen.Write(files); err != nil {
		return err
	}
	logger.Info("Code generation complete", "units", len(res.Units), "files", len(files))
	return nil
}
