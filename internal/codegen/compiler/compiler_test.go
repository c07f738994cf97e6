package compiler_test

import (
	"encoding/json"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/gobjgen/internal/codegen/compiler"
	"github.com/Alia5/gobjgen/internal/codegen/diag"
	"github.com/Alia5/gobjgen/internal/codegen/generator"
	"github.com/Alia5/gobjgen/internal/codegen/hooks"
	_ "github.com/Alia5/gobjgen/internal/registry"
)

const counterFile = `package counter

import "github.com/Alia5/gobjgen/gobject"

//gobject:class
type counterImpl struct {
	count gobject.Cell[int] 'gobject:"get,set"'
}

//gobject:signal
func (c *counterImpl) changed(delta int) {}
`

const windowFile = `package counter

import "github.com/Alia5/gobjgen/gobject"

//gobject:class
//template:resource path="/org/example/window.ui"
type windowImpl struct {
	title gobject.Cell[string] 'gobject:"get,set"'
}

//template:callback
func (w *windowImpl) onClicked() {}
`

const brokenFile = `package counter

//gobject:class final, abstract
type gaugeImpl struct{}
`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(strings.ReplaceAll(src, "'", "`")), 0o644))
	}
	return dir
}

func newCompiler(t *testing.T) (*compiler.Compiler, *generator.Generator) {
	t.Helper()
	gen, err := generator.New("go", "v0.0.0-test", slog.Default())
	require.NoError(t, err)
	hs, err := hooks.Resolve(nil)
	require.NoError(t, err)
	return compiler.New(gen, hs, slog.Default()), gen
}

func TestCompileDirectory(t *testing.T) {
	dir := writeFiles(t, map[string]string{"counter.go": counterFile, "window.go": windowFile})
	c, gen := newCompiler(t)

	res, err := c.CompilePaths([]string{dir})
	require.NoError(t, err)
	require.False(t, res.HasErrors(), "%v", res.Diagnostics.Diagnostics())
	require.Len(t, res.Units, 2)

	files := res.Files()
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dir, "counter_gobject.go"), files[0].Path)
	assert.Equal(t, filepath.Join(dir, "window_gobject.go"), files[1].Path)
	assert.Contains(t, string(files[1].Content), `"onClicked": (*windowImpl).onClicked,`)
	assert.Contains(t, string(files[1].Content), `t.SetData("template.resource", "/org/example/window.ui")`)

	require.NoError(t, gen.Write(files))
	for _, f := range files {
		assert.NoError(t, gen.Verify(f))
	}

	// generated files are skipped on the next scan
	again, err := c.CompilePaths([]string{dir})
	require.NoError(t, err)
	assert.Len(t, again.Units, 2)
	assert.Equal(t, files, again.Files(), "output is deterministic")
}

func TestVerifyStale(t *testing.T) {
	dir := writeFiles(t, map[string]string{"counter.go": counterFile})
	c, gen := newCompiler(t)

	res, err := c.CompilePaths([]string{filepath.Join(dir, "counter.go")})
	require.NoError(t, err)
	require.NoError(t, gen.Write(res.Files()))

	edited := strings.Replace(counterFile, "changed(delta int)", "changed(delta int, reason string)", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "counter.go"), []byte(strings.ReplaceAll(edited, "'", "`")), 0o644))

	res, err = c.CompilePaths([]string{dir})
	require.NoError(t, err)
	require.Len(t, res.Files(), 1)
	assert.ErrorIs(t, gen.Verify(res.Files()[0]), generator.ErrStale)
}

func TestErrorsSuppressEmission(t *testing.T) {
	dir := writeFiles(t, map[string]string{"counter.go": counterFile, "gauge.go": brokenFile})
	c, _ := newCompiler(t)

	res, err := c.CompilePaths([]string{dir})
	require.NoError(t, err)
	assert.True(t, res.HasErrors())
	assert.Equal(t, []diag.Kind{diag.DisallowedCombination}, res.Diagnostics.Kinds())

	require.Len(t, res.Units, 2)
	for _, u := range res.Units {
		if u.Struct == "gaugeImpl" {
			assert.Nil(t, u.File)
		} else {
			assert.NotNil(t, u.File, "independent units still compile")
		}
	}
}

func TestSourceErrorsSuppressPackage(t *testing.T) {
	dir := writeFiles(t, map[string]string{"counter.go": counterFile, "bad.go": "package counter\n\nfunc {\n"})
	c, _ := newCompiler(t)

	res, err := c.CompilePaths([]string{dir})
	require.NoError(t, err)
	assert.True(t, res.Diagnostics.Has(diag.SourceError))
	assert.Empty(t, res.Files())
	assert.Len(t, res.Units, 1)
}

func TestAnalyzeOnly(t *testing.T) {
	dir := writeFiles(t, map[string]string{"counter.go": counterFile})
	c := compiler.New(nil, nil, slog.Default())

	res, err := c.CompilePaths([]string{dir})
	require.NoError(t, err)
	require.Len(t, res.Units, 1)
	assert.Equal(t, "CounterCounter", res.Units[0].Definition.TypeName)
	assert.Empty(t, res.Files())
}

func TestMissingPath(t *testing.T) {
	c, _ := newCompiler(t)
	_, err := c.CompilePaths([]string{filepath.Join(t.TempDir(), "nope")})
	assert.Error(t, err)
}

// TestGeneratedPackageRuns compiles testdata/counter and runs its tests
// against the generated files through a go build overlay, so the source
// tree stays free of generated output.
func TestGeneratedPackageRuns(t *testing.T) {
	if testing.Short() {
		t.Skip("runs the go tool")
	}
	goBin, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go tool not found")
	}
	dir, err := filepath.Abs(filepath.Join("testdata", "counter"))
	require.NoError(t, err)

	c, _ := newCompiler(t)
	res, err := c.CompilePaths([]string{dir})
	require.NoError(t, err)
	require.False(t, res.HasErrors(), "%v", res.Diagnostics.Diagnostics())

	files := res.Files()
	require.Len(t, files, 3)

	out := t.TempDir()
	overlay := struct{ Replace map[string]string }{Replace: map[string]string{}}
	for _, f := range files {
		backing := filepath.Join(out, filepath.Base(f.Path))
		require.NoError(t, os.WriteFile(backing, f.Content, 0o644))
		overlay.Replace[f.Path] = backing
	}
	data, err := json.Marshal(overlay)
	require.NoError(t, err)
	overlayPath := filepath.Join(out, "overlay.json")
	require.NoError(t, os.WriteFile(overlayPath, data, 0o644))

	cmd := exec.Command(goBin, "test", "-count=1", "-overlay="+overlayPath, ".")
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "%s", output)
}
