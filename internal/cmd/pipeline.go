package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Alia5/gobjgen/internal/codegen/common"
	"github.com/Alia5/gobjgen/internal/codegen/compiler"
	"github.com/Alia5/gobjgen/internal/codegen/diag"
	"github.com/Alia5/gobjgen/internal/codegen/generator"
	"github.com/Alia5/gobjgen/internal/codegen/hooks"
)

// Pipeline holds the options shared by the commands that run the compiler.
type Pipeline struct {
	Paths []string `arg:"" optional:"" name:"path" help:"Go files or package directories to compile" type:"path" default:"."`
	Hooks []string `help:"Extension hooks to run (default: all registered)" env:"GOBJGEN_HOOKS"`
	Lang  string   `help:"Target language" default:"go" enum:"go" env:"GOBJGEN_LANG"`
	Color string   `help:"Colour diagnostics: auto, always or never" default:"auto" enum:"auto,always,never" env:"GOBJGEN_COLOR"`
}

// compile runs the pipeline over p.Paths. With emit unset the units are only
// analyzed.
func (p *Pipeline) compile(logger *slog.Logger, emit bool) (*compiler.Result, *generator.Generator, error) {
	hs, err := hooks.Resolve(p.Hooks)
	if err != nil {
		return nil, nil, err
	}
	var gen *generator.Generator
	if emit {
		version, err := common.GetVersion()
		if err != nil {
			return nil, nil, err
		}
		if gen, err = generator.New(p.Lang, version, logger); err != nil {
			return nil, nil, err
		}
	}
	res, err := compiler.New(gen, hs, logger).CompilePaths(p.Paths)
	if err != nil {
		return nil, nil, err
	}
	return res, gen, nil
}

// report renders the diagnostics of res to w and returns an error when there
// are any.
func (p *Pipeline) report(w io.Writer, res *compiler.Result) error {
	if res.Diagnostics.Len() == 0 {
		return nil
	}
	color, width := false, uint(0)
	if f, ok := w.(*os.File); ok {
		color, width = diag.TerminalStyle(f)
	}
	switch p.Color {
	case "always":
		color = true
	case "never":
		color = false
	}
	if err := diag.Render(w, res.Sources, res.Diagnostics.Sorted(), color, width); err != nil {
		return fmt.Errorf("failed to render diagnostics: %w", err)
	}
	return fmt.Errorf("%d problem(s) found", res.Diagnostics.Len())
}
