package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
)

type Verify struct {
	Pipeline `embed:""`
}

// Run checks that every generated file on disk matches its input and the
// current tool version.
func (v *Verify) Run(logger *slog.Logger) error {
	res, gen, err := v.compile(logger, true)
	if err != nil {
		return err
	}
	if err := v.report(os.Stderr, res); err != nil {
		return err
	}

	var errs []error
	for _, f := range res.Files() {
		if err := gen.Verify(f); err != nil {
			logger.Error("Generated file out of date", "path", f.Path, "error", err)
			errs = append(errs, err)
			continue
		}
		logger.Debug("Generated file up to date", "path", f.Path)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d generated file(s) out of date: %w", len(errs), errors.Join(errs...))
	}
	logger.Info("Generated files are up to date", "files", len(res.Files()))
	return nil
}
