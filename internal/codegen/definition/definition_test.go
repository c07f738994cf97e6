package definition_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/gobjgen/internal/codegen/definition"
	"github.com/Alia5/gobjgen/internal/codegen/diag"
	"github.com/Alia5/gobjgen/internal/codegen/meta"
	"github.com/Alia5/gobjgen/internal/codegen/scanner"
)

func build(t *testing.T, src string) (*meta.ClassDefinition, *diag.List) {
	t.Helper()
	diags := &diag.List{}
	src = "package counter\n\nimport \"github.com/Alia5/gobjgen/gobject\"\n\n" + strings.ReplaceAll(src, "'", "`")
	pkg := scanner.ScanSources(map[string][]byte{"counter.go": []byte(src)}, diags)
	require.False(t, diags.HasErrors(), "source errors: %v", diags.Diagnostics())
	require.Len(t, pkg.Units, 1)
	a := definition.Assemble(pkg.Units[0], diags)
	return definition.Build(a, diags), diags
}

func TestMinimalClass(t *testing.T) {
	def, diags := build(t, `//gobject:class
type counterImpl struct {
	count gobject.Cell[int] 'gobject:"get,set"'
}

//gobject:signal
func (c *counterImpl) changed() {}
`)
	require.Empty(t, diags.Diagnostics())

	assert.Equal(t, "Counter", def.Name)
	assert.Equal(t, "CounterCounter", def.TypeName)
	assert.Equal(t, meta.Class, def.BaseKind)
	assert.True(t, def.Wrapper)
	assert.Nil(t, def.Parent)
	assert.Equal(t, "CounterExt", def.ExtTrait)
	assert.False(t, def.Concurrent, "Cell storage is not thread safe")

	require.Len(t, def.Properties, 1)
	p := def.Properties[0]
	assert.Equal(t, meta.StorageOwned, p.Storage)
	assert.True(t, p.Get && p.Set)

	require.Len(t, def.Signals, 1)
	assert.Equal(t, meta.RunLast, def.Signals[0].Timing)
	assert.Empty(t, def.Signals[0].Accumulator)
}

func TestNameResolution(t *testing.T) {
	tests := []struct {
		src  string
		name string
	}{
		{"//gobject:class\ntype counterImpl struct{}\n", "Counter"},
		{"//gobject:class\ntype counterPrivate struct{}\n", "Counter"},
		{"//gobject:class\ntype counterImp struct{}\n", "Counter"},
		{"//gobject:class\ntype counter struct{}\n", "Counter"},
		{"//gobject:class name=Tally\ntype counterImpl struct{}\n", "Tally"},
	}
	for _, tt := range tests {
		def, diags := build(t, tt.src)
		assert.Empty(t, diags.Diagnostics(), tt.src)
		assert.Equal(t, tt.name, def.Name, tt.src)
	}
}

func TestMissingName(t *testing.T) {
	tests := []string{
		"//gobject:class\ntype impl struct{}\n",
		"//gobject:class\ntype Impl struct{}\n",
		"//gobject:class\ntype private struct{}\n",
		"//gobject:class\ntype Counter struct{}\n",
		"//gobject:class name=counter\ntype counterImpl struct{}\n",
		"//gobject:class name=CounterImpl\ntype CounterImpl struct{}\n",
	}
	for _, src := range tests {
		def, diags := build(t, src)
		assert.Equal(t, []diag.Kind{diag.MissingName}, diags.Kinds(), src)
		assert.Empty(t, def.Name)
	}
}

func TestAbstractPropertyPlacement(t *testing.T) {
	tests := []struct {
		name    string
		options string
		summary string
	}{
		{"final type", "final", "abstract property on final type"},
		{"concrete type", "", "abstract property on concrete type"},
		{"abstract type", "abstract", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, diags := build(t, strings.TrimSpace("//gobject:class "+tt.options)+`
type shapeImpl struct {
	area gobject.Computed[float64] 'gobject:"get,abstract"'
}
`)
			if tt.summary == "" {
				assert.Empty(t, diags.Diagnostics())
				require.Len(t, def.Properties, 1)
				assert.True(t, def.Properties[0].Abstract)
				return
			}
			require.Equal(t, []diag.Kind{diag.DisallowedCombination}, diags.Kinds())
			d := diags.Diagnostics()[0]
			assert.Equal(t, tt.summary, d.Summary)
			assert.Equal(t, 7, d.Subject.Start.Line)
		})
	}
}

func TestFinalTypes(t *testing.T) {
	def, diags := build(t, `//gobject:class final, extends=Shape
type squareImpl struct {
	side gobject.Cell[float64] 'gobject:"get,set"'
}

//gobject:virtual override
func (s *squareImpl) area() float64 { return 0 }

//gobject:virtual
func (s *squareImpl) corners() int { return 4 }
`)
	assert.Equal(t, []diag.Kind{diag.DisallowedCombination}, diags.Kinds())
	assert.Empty(t, def.ExtTrait)
	require.NotNil(t, def.Parent)
	assert.Equal(t, "Shape", def.Parent.String())
}

func TestClassOptions(t *testing.T) {
	def, diags := build(t, `//gobject:class name=Gauge, ns=Test, ext_trait=Measured, wrapper=false, concurrent, extends=[widgets.Widget]
type gaugeImpl struct {
	level  gobject.Synced[int] 'gobject:"get,set"'
	serial gobject.OnceCell[string] 'gobject:"get,set,construct_only"'
	mu     sync.Mutex
}
`)
	require.Empty(t, diags.Diagnostics())
	assert.Equal(t, "TestGauge", def.TypeName)
	assert.Equal(t, "Measured", def.ExtTrait)
	assert.False(t, def.Wrapper)
	assert.True(t, def.Concurrent)
	require.NotNil(t, def.Parent)
	assert.Equal(t, "widgets", def.Parent.Qualifier())
}

func TestBuilderErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want diag.Kind
	}{
		{
			name: "final and abstract",
			src:  "//gobject:class final, abstract\ntype counterImpl struct{}\n",
			want: diag.DisallowedCombination,
		},
		{
			name: "two parents",
			src:  "//gobject:class extends=[Base, Other]\ntype counterImpl struct{}\n",
			want: diag.DisallowedCombination,
		},
		{
			name: "concurrent with cell storage",
			src:  "//gobject:class concurrent\ntype counterImpl struct {\n\tv gobject.Cell[int] 'gobject:\"get\"'\n}\n",
			want: diag.DisallowedCombination,
		},
		{
			name: "concurrent with plain field",
			src:  "//gobject:class concurrent\ntype counterImpl struct {\n\tcache map[string]int\n}\n",
			want: diag.DisallowedCombination,
		},
		{
			name: "unmet capability",
			src:  "//gobject:class implements=[gio.Resettable]\ntype counterImpl struct{}\n",
			want: diag.UnmetCapability,
		},
		{
			name: "signal on pod",
			src:  "//gobject:class pod\ntype pointImpl struct{ x int }\n\n//gobject:signal\nfunc (p *pointImpl) moved() {}\n",
			want: diag.DisallowedCombination,
		},
		{
			name: "constructor on abstract type",
			src:  "//gobject:class abstract\ntype shapeImpl struct{}\n\n//gobject:constructor\nfunc (s *shapeImpl) new() {}\n",
			want: diag.DisallowedCombination,
		},
		{
			name: "reserved property name",
			src:  "//gobject:class\ntype counterImpl struct {\n\tkind gobject.Cell[string] 'gobject:\"get,name=type\"'\n}\n",
			want: diag.DuplicateName,
		},
		{
			name: "signal connect collides",
			src:  "//gobject:class\ntype counterImpl struct{}\n\n//gobject:signal\nfunc (c *counterImpl) after() {}\n",
			want: diag.DuplicateName,
		},
		{
			name: "wrapper method collides with getter",
			src:  "//gobject:class\ntype counterImpl struct {\n\tcount gobject.Cell[int] 'gobject:\"get\"'\n}\n\nfunc (c *Counter) Count() int { return 0 }\n",
			want: diag.DuplicateName,
		},
		{
			name: "second type directive",
			src:  "//gobject:class\n//gobject:interface\ntype counterImpl struct{}\n",
			want: diag.DuplicateRoleTag,
		},
		{
			name: "unknown type option",
			src:  "//gobject:class sealed\ntype counterImpl struct{}\n",
			want: diag.UnknownOption,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := build(t, tt.src)
			assert.True(t, diags.Has(tt.want), "got %v", diags.Kinds())
		})
	}
}

func TestImplementsSatisfied(t *testing.T) {
	_, diags := build(t, `//gobject:class implements=[gio.Resettable, Named]
type counterImpl struct {
	name gobject.Cell[string] 'gobject:"get,override_iface=Named"'
}

//gobject:virtual override_iface=gio.Resettable
func (c *counterImpl) reset() {}
`)
	assert.Empty(t, diags.Diagnostics())
}

func TestInterface(t *testing.T) {
	def, diags := build(t, `//gobject:interface extends=[Named]
type resettableImpl struct {
	dirty gobject.Computed[bool] 'gobject:"get"'
}

//gobject:virtual
func (r *resettableImpl) reset() {}
`)
	require.Empty(t, diags.Diagnostics())
	assert.Equal(t, meta.Interface, def.BaseKind)
	assert.Equal(t, "Resettable", def.Name)
	assert.Nil(t, def.Parent)
	assert.Empty(t, def.ExtTrait)
	require.Len(t, def.Extends, 1)
	assert.Equal(t, "Named", def.Extends[0].String())
}

func TestInterfaceRestrictions(t *testing.T) {
	_, diags := build(t, `//gobject:interface final, pod, implements=[Other], concurrent
type resettableImpl struct {
	count gobject.Cell[int] 'gobject:"get"'
}

//gobject:constructor
func (r *resettableImpl) new() {}

func (r *resettableImpl) init() {}
`)
	kinds := diags.Kinds()
	assert.Len(t, kinds, 7)
	assert.Contains(t, kinds, diag.TypeShapeMismatch)
	assert.NotContains(t, kinds, diag.UnmetCapability, "implements is dropped on interfaces")
}
