package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/gobjgen/internal/codegen/diag"
)

const widgetSource = "package widgets\n" +
	"\n" +
	"import (\n" +
	"\t\"github.com/Alia5/gobjgen/gobject\"\n" +
	"\tyml \"gopkg.in/yaml.v3\"\n" +
	")\n" +
	"\n" +
	"// buttonImpl is a clickable widget.\n" +
	"//gobject:class final\n" +
	"type buttonImpl struct {\n" +
	"\tlabel gobject.Cell[string] `json:\"label\" gobject:\"get,set\"`\n" +
	"\tx, y  int\n" +
	"\t*gobject.Object\n" +
	"}\n" +
	"\n" +
	"type plain struct{}\n" +
	"\n" +
	"//gobject:signal run_first\n" +
	"func (b *buttonImpl) clicked(times int, names ...string) (handled bool) { return false }\n" +
	"\n" +
	"func (b buttonImpl) String() string { return \"\" }\n" +
	"\n" +
	"func helper() {}\n" +
	"\n" +
	"var _ = yml.Marshal\n"

func scan(t *testing.T, sources map[string]string) (*Package, *diag.List) {
	t.Helper()
	diags := &diag.List{}
	in := make(map[string][]byte, len(sources))
	for k, v := range sources {
		in[k] = []byte(v)
	}
	return ScanSources(in, diags), diags
}

func TestScanUnit(t *testing.T) {
	pkg, diags := scan(t, map[string]string{"widgets/button.go": widgetSource})
	require.Empty(t, diags.Diagnostics())
	assert.Equal(t, "widgets", pkg.Name)
	assert.Equal(t, "widgets", pkg.Dir)
	require.Len(t, pkg.Units, 1, "untagged structs are skipped")

	u := pkg.Units[0]
	assert.Equal(t, "buttonImpl", u.Struct)
	assert.Equal(t, "widgets", u.Package)
	assert.Equal(t, "widgets/button.go", u.File)
	assert.Equal(t, map[string]string{
		"gobject": "github.com/Alia5/gobjgen/gobject",
		"yml":     "gopkg.in/yaml.v3",
	}, u.Imports)

	require.Len(t, u.Directives, 1)
	assert.True(t, u.Directives[0].Is("gobject", "class"))
	assert.Equal(t, "final", u.Directives[0].Args.Text)

	require.Len(t, u.Fields, 4)
	label := u.Fields[0]
	assert.Equal(t, "label", label.Name)
	assert.Equal(t, "gobject.Cell[string]", label.Type)
	assert.True(t, label.HasTag)
	assert.Equal(t, "get,set", label.Tag.Text)
	assert.Equal(t, "label", label.Tags.Get("json"))

	assert.Equal(t, "x", u.Fields[1].Name)
	assert.Equal(t, "y", u.Fields[2].Name)
	assert.False(t, u.Fields[1].HasTag)

	embedded := u.Fields[3]
	assert.True(t, embedded.Embedded)
	assert.Equal(t, "Object", embedded.Name)
	assert.Equal(t, "*gobject.Object", embedded.Type)
}

func TestScanMethods(t *testing.T) {
	pkg, _ := scan(t, map[string]string{"button.go": widgetSource})
	u := pkg.Units[0]

	cols := u.Collections("buttonImpl")
	require.Len(t, cols, 1)
	require.Len(t, cols[0].Methods, 2, "functions without receiver are skipped")

	clicked := cols[0].Methods[0]
	assert.Equal(t, "clicked", clicked.Name)
	assert.True(t, clicked.PtrRecv)
	assert.Equal(t, []Param{{Name: "times", Type: "int"}, {Name: "names", Type: "string", Ellipsis: true}}, clicked.Params)
	assert.Equal(t, []Param{{Name: "handled", Type: "bool"}}, clicked.Results)
	require.Len(t, clicked.Directives, 1)
	assert.True(t, clicked.Directives[0].Is("gobject", "signal"))
	assert.Equal(t, "run_first", clicked.Directives[0].Args.Text)

	str := cols[0].Methods[1]
	assert.Equal(t, "String", str.Name)
	assert.False(t, str.PtrRecv)
	assert.Empty(t, str.Directives)

	assert.Nil(t, u.Collections("plain"))
}

func TestCollectionsOrderedByFile(t *testing.T) {
	pkg, diags := scan(t, map[string]string{
		"b.go": "package p\n\nfunc (c *counterImpl) second() {}\n",
		"a.go": "package p\n\n//gobject:class\ntype counterImpl struct{}\n\nfunc (c *counterImpl) first() {}\n",
	})
	require.Empty(t, diags.Diagnostics())
	require.Len(t, pkg.Units, 1)

	cols := pkg.Units[0].Collections("counterImpl")
	require.Len(t, cols, 2)
	assert.Equal(t, "a.go", cols[0].File)
	assert.Equal(t, "first", cols[0].Methods[0].Name)
	assert.Equal(t, "b.go", cols[1].File)
	assert.Equal(t, "second", cols[1].Methods[0].Name)
}

func TestDirectiveRanges(t *testing.T) {
	src := "package p\n\n//gobject:class\ntype counterImpl struct {\n\tcount int `gobject:\"get\"`\n}\n\n" +
		"//gobject:signal run_first\nfunc (c *counterImpl) changed() {}\n"
	pkg, _ := scan(t, map[string]string{"p.go": src})
	u := pkg.Units[0]

	tag := u.Fields[0].Tag.Range
	assert.Equal(t, 5, tag.Start.Line)
	assert.Equal(t, 22, tag.Start.Column)
	assert.Equal(t, 25, tag.End.Column)

	d := u.Collections("counterImpl")[0].Methods[0].Directives[0]
	assert.Equal(t, 8, d.Range.Start.Line)
	assert.Equal(t, 1, d.Range.Start.Column)
	assert.Equal(t, 18, d.Args.Range.Start.Column)
}

func TestInterfaceAndElementDirectives(t *testing.T) {
	pkg, _ := scan(t, map[string]string{"p.go": "package p\n\n" +
		"//gobject:interface\ntype shapeIface struct{}\n\n" +
		"//gobject:element\ntype sourceImpl struct{}\n\n" +
		"//other:class\ntype ignored struct{}\n"})
	require.Len(t, pkg.Units, 2)
	assert.Equal(t, "shapeIface", pkg.Units[0].Struct)
	assert.Equal(t, "sourceImpl", pkg.Units[1].Struct)
}

func TestSourceErrors(t *testing.T) {
	pkg, diags := scan(t, map[string]string{
		"a.go": "package p\n\n//gobject:class\ntype counterImpl struct{}\n",
		"b.go": "package p\n\nfunc {\n",
		"c.go": "package q\n",
	})
	assert.True(t, diags.HasErrors())
	for _, k := range diags.Kinds() {
		assert.Equal(t, diag.SourceError, k)
	}
	assert.Len(t, pkg.Units, 1)
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"counter.go":         "package p\n\n//gobject:class\ntype counterImpl struct{}\n",
		"counter_test.go":    "package p\n\n//gobject:class\ntype fakeImpl struct{}\n",
		"counter_gobject.go": "package p\n\n//gobject:class\ntype generatedImpl struct{}\n",
		"notes.txt":          "//gobject:class\n",
	}
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.go"), 0o755))

	diags := &diag.List{}
	pkg, err := ScanDir(dir, diags)
	require.NoError(t, err)
	assert.Empty(t, diags.Diagnostics())
	assert.Equal(t, dir, pkg.Dir)
	require.Len(t, pkg.Units, 1)
	assert.Equal(t, "counterImpl", pkg.Units[0].Struct)
	assert.Len(t, pkg.Sources, 1)

	_, err = ScanDir(filepath.Join(dir, "missing"), diags)
	assert.Error(t, err)
}

func TestImportName(t *testing.T) {
	assert.Equal(t, "yaml", importName("gopkg.in/yaml"))
	assert.Equal(t, "hcl", importName("github.com/hashicorp/hcl/v2"))
	assert.Equal(t, "v", importName("example.com/v"))
	assert.Equal(t, "fmt", importName("fmt"))
}
