package generator

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/Alia5/gobjgen/internal/codegen/common"
	"github.com/Alia5/gobjgen/internal/codegen/generator/golang"
	"github.com/Alia5/gobjgen/internal/codegen/meta"
)

// File is one generated artifact.
type File struct {
	Path    string
	Content []byte
	// Source is the input file the content was generated from.
	Source string
}

// LanguageGenerator renders one definition. It must be deterministic.
type LanguageGenerator struct {
	FileName func(def *meta.ClassDefinition) string
	Generate func(def *meta.ClassDefinition, source []byte, version string) ([]byte, error)
}

var generators = map[string]LanguageGenerator{
	"go": {FileName: golang.FileName, Generate: golang.Generate},
}

// Languages returns the supported target languages.
func Languages() []string {
	langs := make([]string, 0, len(generators))
	for k := range generators {
		langs = append(langs, k)
	}
	sort.Strings(langs)
	return langs
}

type Generator struct {
	lang    string
	gen     LanguageGenerator
	version string
	logger  *slog.Logger
}

func New(lang, version string, logger *slog.Logger) (*Generator, error) {
	gen, ok := generators[lang]
	if !ok {
		return nil, fmt.Errorf("unsupported language '%s' (supported: %v)", lang, Languages())
	}
	return &Generator{lang: lang, gen: gen, version: version, logger: logger}, nil
}

// Emit renders def into a file placed next to its input file.
func (g *Generator) Emit(def *meta.ClassDefinition, source []byte) (File, error) {
	content, err := g.gen.Generate(def, source, g.version)
	if err != nil {
		return File{}, fmt.Errorf("generate %s: %w", def.Name, err)
	}
	path := filepath.Join(filepath.Dir(def.File), g.gen.FileName(def))
	g.logger.Debug("Rendered definition", "type", def.TypeName, "language", g.lang, "path", path, "bytes", len(content))
	return File{Path: path, Content: content, Source: def.File}, nil
}

// Write stores files, skipping those whose content is unchanged.
func (g *Generator) Write(files []File) error {
	for _, f := range files {
		if old, err := os.ReadFile(f.Path); err == nil && bytes.Equal(old, f.Content) {
			g.logger.Debug("Generated file is up to date", "path", f.Path)
			continue
		}
		if err := os.WriteFile(f.Path, f.Content, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Path, err)
		}
		g.logger.Info("Wrote generated file", "path", f.Path)
	}
	return nil
}

// ErrStale reports a generated file that does not match its input.
var ErrStale = errors.New("generated file is stale")

// Verify checks that the file on disk at f.Path carries the digest f was
// generated with.
func (g *Generator) Verify(f File) error {
	onDisk, err := os.ReadFile(f.Path)
	if err != nil {
		return fmt.Errorf("%s: %w", f.Path, err)
	}
	have, err := common.ReadDigest(onDisk)
	if err != nil {
		return fmt.Errorf("%s: %w", f.Path, err)
	}
	want, err := common.ReadDigest(f.Content)
	if err != nil {
		return fmt.Errorf("%s: %w", f.Path, err)
	}
	if have != want {
		return fmt.Errorf("%s: %w: regenerate from %s", f.Path, ErrStale, f.Source)
	}
	return nil
}
