package golang_test

import (
	"go/parser"
	"go/token"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/gobjgen/internal/codegen/common"
	"github.com/Alia5/gobjgen/internal/codegen/definition"
	"github.com/Alia5/gobjgen/internal/codegen/diag"
	"github.com/Alia5/gobjgen/internal/codegen/generator/golang"
	"github.com/Alia5/gobjgen/internal/codegen/meta"
	"github.com/Alia5/gobjgen/internal/codegen/scanner"
)

const counterSource = `package counter

import (
	"time"

	"github.com/Alia5/gobjgen/gobject"
)

//gobject:class ns=Demo
type counterImpl struct {
	count   gobject.Cell[int] 'gobject:"get,set,minimum=0,maximum=100,default=3,blurb=\"Current count\""'
	label   gobject.OnceCell[string] 'gobject:"get,set,construct_only,default=\"idle\""'
	started gobject.Synced[time.Time] 'gobject:"get"'
	total   gobject.Computed[int] 'gobject:"get"'
}

//gobject:accessor get=total
func (c *counterImpl) totalValue() int { return c.count.Get() }

//gobject:constructor
func (c *counterImpl) new(count int) {}

//gobject:signal detailed, accumulator=sum
func (c *counterImpl) changed(delta int) int { return delta }

func (c *counterImpl) sum(acc int, value int) (int, bool) { return acc + value, true }

//gobject:signal action, run_first
func (c *counterImpl) reset(o *Counter) {}

//gobject:virtual
func (c *counterImpl) describe(verbose bool) string { return "" }

func (c *counterImpl) init() {}
`

const resettableSource = `package counter

import "github.com/Alia5/gobjgen/gobject"

//gobject:interface
type resettableImpl struct {
	dirty gobject.Computed[bool] 'gobject:"get"'
}

//gobject:virtual
func (r *resettableImpl) reset(hard bool) error { return nil }
`

func define(t *testing.T, src string) (*meta.ClassDefinition, []byte) {
	t.Helper()
	diags := &diag.List{}
	source := []byte(strings.ReplaceAll(src, "'", "`"))
	pkg := scanner.ScanSources(map[string][]byte{"counter.go": source}, diags)
	require.Len(t, pkg.Units, 1)
	def := definition.Build(definition.Assemble(pkg.Units[0], diags), diags)
	require.False(t, diags.HasErrors(), "unexpected diagnostics: %v", diags.Diagnostics())
	return def, source
}

func generate(t *testing.T, src string) string {
	t.Helper()
	def, source := define(t, src)
	out, err := golang.Generate(def, source, "v1.2.3")
	require.NoError(t, err)
	_, err = parser.ParseFile(token.NewFileSet(), golang.FileName(def), out, parser.AllErrors)
	require.NoError(t, err, "generated source:\n%s", out)
	return string(out)
}

// spaceRun matches the padding gofmt inserts to align keys and comments.
var spaceRun = regexp.MustCompile(`(\S)[ \t]+`)

// squeeze collapses alignment padding so expectations do not depend on the
// width of neighbouring lines. Leading indentation is kept.
func squeeze(s string) string { return spaceRun.ReplaceAllString(s, "$1 ") }

func TestSqueeze(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"aligned key", "\t\tBounds:  &gobject.Bounds{Min: 0, Max: 100},", "\t\tBounds: &gobject.Bounds{Min: 0, Max: 100},"},
		{"aligned field", "\tcount   gobject.Cell[int]\n\tlabel\tstring", "\tcount gobject.Cell[int]\n\tlabel string"},
		{"trailing comment", "Final: true,    // sealed", "Final: true, // sealed"},
		{"unchanged", "type Counter struct {\n\tgobject.Object\n}", "type Counter struct {\n\tgobject.Object\n}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, squeeze(tt.in))
		})
	}
}

func TestFileName(t *testing.T) {
	def, _ := define(t, counterSource)
	assert.Equal(t, "counter_gobject.go", golang.FileName(def))
}

func TestGenerateDeterministic(t *testing.T) {
	def, source := define(t, counterSource)
	first, err := golang.Generate(def, source, "v1.2.3")
	require.NoError(t, err)
	for range 5 {
		again, err := golang.Generate(def, source, "v1.2.3")
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}

	other, err := golang.Generate(def, source, "v1.2.4")
	require.NoError(t, err)
	assert.NotEqual(t, string(first), string(other), "the digest covers the version")
}

func TestGenerateHeader(t *testing.T) {
	def, source := define(t, counterSource)
	out := generate(t, counterSource)

	lines := strings.SplitN(out, "\n", 3)
	assert.Equal(t, common.GeneratedHeader, lines[0])
	assert.Equal(t, common.DigestLine(common.Digest(source, "v1.2.3")), lines[1])

	digest, err := common.ReadDigest([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, common.Digest(source, "v1.2.3"), digest)
	assert.Equal(t, "counter", def.Package)
}

func TestGenerateClass(t *testing.T) {
	out := squeeze(generate(t, counterSource))

	for _, want := range []string{
		`"time"`,
		"type Counter struct {\n\tgobject.Object\n\timp counterImpl\n}",
		"var counterType = gobject.Register(gobject.TypeInfo{",
		`Name: "DemoCounter",`,
		"func CounterType() *gobject.Type { return counterType }",
		"func NewCounter(count int) *Counter {",
		"func NewCounterWith(props ...gobject.Prop) (*Counter, error) {",
		"func (o *Counter) Count() int {",
		"func (o *Counter) SetCount(v int) error {",
		"func (o *Counter) NotifyCount() {",
		"func (o *Counter) ConnectCountNotify(f func(*Counter)) gobject.HandlerID {",
		"// Current count",
		"Bounds: &gobject.Bounds{Min: 0, Max: 100},",
		"Default: int(3),",
		"o.imp.count.Set(3)",
		`_ = o.imp.label.Set("idle")`,
		"o.imp.init()",
		"func (o *Counter) Label() string {",
		"func (o *Counter) Started() time.Time {",
		"counterOf(inst).imp.totalValue()",
		"func (o *Counter) ConnectChanged(detail string, f func(*Counter, int) int) gobject.HandlerID {",
		"func (o *Counter) emitChanged(detail string, delta int) int {",
		"gobject.SignalRunLast | gobject.SignalDetailed",
		"Accumulator: func(inst gobject.Instance, hint *gobject.InvocationHint, acc, ret any) (any, bool) {",
		"func (o *Counter) EmitReset() {",
		"o.imp.reset(o)",
		"gobject.SignalRunFirst | gobject.SignalAction",
		"func (o *Counter) Describe(verbose bool) string {",
		`gobject.Virtual[func(gobject.Instance, bool) string](self, "describe")(self, verbose)`,
		"type CounterExt interface {",
		"var _ CounterExt = (*Counter)(nil)",
	} {
		assert.Contains(t, out, want)
	}

	assert.NotContains(t, out, "SetLabel", "construct-only properties have no setter")
	assert.NotContains(t, out, "SetTotal")
	assert.NotContains(t, out, "ConcurrentSafe")
}

func TestGenerateConcurrent(t *testing.T) {
	out := squeeze(generate(t, `package counter

import "github.com/Alia5/gobjgen/gobject"

//gobject:class concurrent, final
type gaugeImpl struct {
	level gobject.Synced[float64] 'gobject:"get,set,minimum=0,lax_validation"'
}
`))
	assert.Contains(t, out, "func (o *Gauge) ConcurrentSafe() {}")
	assert.Contains(t, out, "var _ gobject.Concurrent = (*Gauge)(nil)")
	assert.Contains(t, out, "Final: true,")
	assert.Contains(t, out, "gobject.AtLeast(0)")
	assert.Contains(t, out, "gobject.ParamLaxValidation")
	assert.Contains(t, out, "func (o *Gauge) SetLevel(v float64) {", "lax validation never fails")
	assert.NotContains(t, out, "GaugeExt", "final types have no extension trait")
}

func TestGenerateInterface(t *testing.T) {
	out := squeeze(generate(t, resettableSource))

	for _, want := range []string{
		"type Resettable struct {\n\tgobject.Instance\n}",
		"Kind: gobject.KindInterface,",
		"func AsResettable(inst gobject.Instance) (*Resettable, bool) {",
		"gobject.ParamReadable | gobject.ParamAbstract",
		"func (o *Resettable) Dirty() bool {",
		`gobject.InterfaceVirtual[func(gobject.Instance, bool) error](self, resettableType, "reset")(self, hard)`,
		"new(resettableImpl).reset(hard)",
	} {
		assert.Contains(t, out, want)
	}
	for _, unwanted := range []string{"NewResettable", "ResettableExt", "NotifyDirty", "InstanceInit"} {
		assert.NotContains(t, out, unwanted)
	}
}

func TestGenerateImportAliases(t *testing.T) {
	out := squeeze(generate(t, `package counter

import (
	rt "github.com/Alia5/gobjgen/gobject"
	yaml "gopkg.in/yaml.v3"
)

//gobject:class
type docImpl struct {
	node rt.Cell[yaml.Node] 'gobject:"get,set"'
}
`))
	assert.Contains(t, out, `"gopkg.in/yaml.v3"`)
	assert.NotContains(t, out, `yaml "gopkg.in/yaml.v3"`, "the alias matches the package name")
	assert.Contains(t, out, `"github.com/Alia5/gobjgen/gobject"`)
	assert.Contains(t, out, "func (o *Doc) Node() yaml.Node {")
}
