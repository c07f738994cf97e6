// Package compiler drives the pipeline for each compilation unit: scan,
// assemble, build, run hooks and, when no diagnostic was reported, emit.
package compiler

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/Alia5/gobjgen/internal/codegen/definition"
	"github.com/Alia5/gobjgen/internal/codegen/diag"
	"github.com/Alia5/gobjgen/internal/codegen/generator"
	"github.com/Alia5/gobjgen/internal/codegen/hooks"
	"github.com/Alia5/gobjgen/internal/codegen/meta"
	"github.com/Alia5/gobjgen/internal/codegen/scanner"
)

// Unit is the outcome of compiling one tagged struct.
type Unit struct {
	Struct      string
	Definition  *meta.ClassDefinition
	Diagnostics *diag.List
	// File is nil unless the unit compiled without diagnostics.
	File *generator.File
}

// Result collects the units of every scanned package.
type Result struct {
	Units []*Unit
	// Diagnostics holds source errors and the diagnostics of every unit.
	Diagnostics *diag.List
	// Sources maps file names to contents for rendering diagnostics.
	Sources map[string][]byte
}

// Files returns the generated files of all units in input order.
func (r *Result) Files() []generator.File {
	var out []generator.File
	for _, u := range r.Units {
		if u.File != nil {
			out = append(out, *u.File)
		}
	}
	return out
}

func (r *Result) HasErrors() bool { return r.Diagnostics.HasErrors() }

type Compiler struct {
	gen    *generator.Generator
	hooks  []hooks.Hook
	logger *slog.Logger
}

// New returns a compiler emitting with gen. A nil gen only analyzes.
func New(gen *generator.Generator, hs []hooks.Hook, logger *slog.Logger) *Compiler {
	return &Compiler{gen: gen, hooks: hs, logger: logger}
}

// CompileUnit runs the pipeline on u. Nothing is emitted when any stage or
// hook reported a diagnostic.
func (c *Compiler) CompileUnit(u *scanner.Unit) *Unit {
	diags := &diag.List{}
	out := &Unit{Struct: u.Struct, Diagnostics: diags}

	a := definition.Assemble(u, diags)
	def := definition.Build(a, diags)
	out.Definition = def
	if !diags.HasErrors() {
		hooks.Run(c.hooks, meta.NewHandle(def, diags))
	}
	c.logger.Debug("Analyzed unit", "struct", u.Struct, "type", def.Name, "kind", def.BaseKind,
		"properties", len(def.Properties), "signals", len(def.Signals), "virtuals", len(def.Virtuals),
		"diagnostics", diags.Len())

	if diags.Len() > 0 || c.gen == nil {
		return out
	}
	f, err := c.gen.Emit(def, u.Source)
	if err != nil {
		// generated code that does not format is a bug in the emitter
		diags.Add(diag.SourceError, def.Range, "Cannot generate code", err.Error())
		return out
	}
	out.File = &f
	return out
}

// CompilePackage compiles every unit of pkg. Units of a package with source
// errors are analyzed but not emitted.
func (c *Compiler) CompilePackage(pkg *scanner.Package, scanDiags *diag.List) *Result {
	res := &Result{Diagnostics: &diag.List{}, Sources: pkg.Sources}
	res.Diagnostics.Merge(scanDiags)
	for _, u := range pkg.Units {
		cu := c.CompileUnit(u)
		if scanDiags.HasErrors() {
			cu.File = nil
		}
		res.Units = append(res.Units, cu)
		res.Diagnostics.Merge(cu.Diagnostics)
	}
	c.logger.Info("Compiled package", "package", pkg.Name, "dir", pkg.Dir, "units", len(pkg.Units),
		"diagnostics", res.Diagnostics.Len())
	return res
}

// CompilePaths compiles files and directories. Files are grouped by
// directory; each directory is one package.
func (c *Compiler) CompilePaths(paths []string) (*Result, error) {
	groups := make(map[string][]string)
	whole := make(map[string]bool)
	var dirs []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		dir := p
		if !info.IsDir() {
			dir = filepath.Dir(p)
		}
		if _, seen := groups[dir]; !seen {
			dirs = append(dirs, dir)
			groups[dir] = nil
		}
		if info.IsDir() {
			whole[dir] = true
		} else {
			groups[dir] = append(groups[dir], p)
		}
	}
	sort.Strings(dirs)

	res := &Result{Diagnostics: &diag.List{}, Sources: make(map[string][]byte)}
	for _, dir := range dirs {
		scanDiags := &diag.List{}
		var pkg *scanner.Package
		var err error
		if whole[dir] {
			pkg, err = scanner.ScanDir(dir, scanDiags)
		} else {
			pkg, err = scanner.ScanFiles(groups[dir], scanDiags)
		}
		if err != nil {
			return nil, err
		}
		if len(pkg.Units) == 0 && !scanDiags.HasErrors() {
			c.logger.Debug("No tagged types", "dir", dir)
		}
		pr := c.CompilePackage(pkg, scanDiags)
		res.Units = append(res.Units, pr.Units...)
		res.Diagnostics.Merge(pr.Diagnostics)
		for name, src := range pr.Sources {
			res.Sources[name] = src
		}
	}
	return res, nil
}
