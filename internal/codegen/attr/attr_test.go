package attr

import (
	"math/big"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/gobjgen/internal/codegen/diag"
)

var testSchema = Schema{
	Context: "test",
	Options: []Option{
		{Name: "get", Kind: Flag},
		{Name: "wrapper", Kind: Bool},
		{Name: "minimum", Kind: Number},
		{Name: "nick", Kind: String},
		{Name: "accumulator", Kind: Ident},
		{Name: "extends", Kind: PathList},
		{Name: "override_class", Kind: TypePath},
		{Name: "default", Kind: Literal},
		{Name: "ext_trait", Kind: NameOrFalse},
	},
}

func source(text string) Source {
	return Source{
		Text: text,
		Range: hcl.Range{
			Filename: "counter.go",
			Start:    hcl.Pos{Line: 3, Column: 11, Byte: 40},
		},
	}
}

func TestParseValid(t *testing.T) {
	var diags diag.List
	v := Parse(source(`get, wrapper=false, minimum=-5, nick="Step size", accumulator=sumAll, `+
		`extends=[gobject.Object, Widget], override_class=widgets.Base, default="x", ext_trait=false`), testSchema, &diags)
	require.Zero(t, diags.Len(), diags.Diagnostics().Error())

	assert.True(t, v.On("get"))
	assert.True(t, v.Has("wrapper"))
	assert.False(t, v.On("wrapper"))
	assert.Equal(t, 0, v.Get("minimum").Val.AsBigFloat().Cmp(big.NewFloat(-5)))
	assert.Equal(t, "Step size", v.String("nick"))
	assert.Equal(t, "sumAll", v.String("accumulator"))

	paths := v.Paths("extends")
	require.Len(t, paths, 2)
	assert.Equal(t, "gobject.Object", paths[0].String())
	assert.Equal(t, "gobject", paths[0].Qualifier())
	assert.Equal(t, "Widget", paths[1].Name())
	assert.Equal(t, "", paths[1].Qualifier())

	assert.Equal(t, "widgets.Base", v.Paths("override_class")[0].String())
	assert.Equal(t, "x", v.Get("default").Val.AsString())
	assert.True(t, v.Has("ext_trait"))
	assert.False(t, v.On("ext_trait"))
	assert.Equal(t, []string{"get", "wrapper", "minimum", "nick", "accumulator", "extends", "override_class", "default", "ext_trait"}, v.Names())
}

func TestParseBareValues(t *testing.T) {
	var diags diag.List
	v := Parse(source("nick=my-step, extends=Widget, ext_trait=CounterExtension"), testSchema, &diags)
	require.Zero(t, diags.Len())
	assert.Equal(t, "my-step", v.String("nick"))
	assert.Equal(t, "Widget", v.Paths("extends")[0].String())
	assert.True(t, v.On("ext_trait"))
	assert.Equal(t, "CounterExtension", v.String("ext_trait"))
}

func TestParseEmpty(t *testing.T) {
	var diags diag.List
	v := Parse(source("   "), testSchema, &diags)
	assert.Zero(t, diags.Len())
	assert.Empty(t, v.Names())
	assert.False(t, v.Flag("get").Set())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		kind   diag.Kind
		column int
		keeps  []string
	}{
		{name: "unknown option at token", text: "get, bogus", kind: diag.UnknownOption, column: 16, keeps: []string{"get"}},
		{name: "flag with value", text: "get=1", kind: diag.MalformedAttribute, column: 15},
		{name: "missing value", text: "minimum", kind: diag.MalformedAttribute, column: 11},
		{name: "wrong value type", text: `minimum="low", get`, kind: diag.MalformedAttribute, column: 19, keeps: []string{"get"}},
		{name: "unterminated string", text: `nick="oops`, kind: diag.MalformedAttribute, column: 16},
		{name: "unbalanced bracket", text: "extends=[a, b", kind: diag.MalformedAttribute, column: 11},
		{name: "empty item", text: "get,,wrapper", kind: diag.MalformedAttribute, column: 15, keeps: []string{"get", "wrapper"}},
		{name: "duplicate option", text: "get, get", kind: diag.MalformedAttribute, column: 16, keeps: []string{"get"}},
		{name: "bad identifier", text: "accumulator=1x", kind: diag.MalformedAttribute, column: 23},
		{name: "indexed path", text: "override_class=a[0]", kind: diag.MalformedAttribute, column: 26},
		{name: "non constant literal", text: "default=foo", kind: diag.MalformedAttribute, column: 19},
		{name: "invalid option name", text: "9lives", kind: diag.MalformedAttribute, column: 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var diags diag.List
			v := Parse(source(tt.text), testSchema, &diags)
			require.Equal(t, 1, diags.Len(), diags.Diagnostics().Error())
			d := diags.Diagnostics()[0]
			assert.Equal(t, tt.kind, diag.KindOf(d))
			assert.Equal(t, 3, d.Subject.Start.Line)
			assert.Equal(t, tt.column, d.Subject.Start.Column)
			assert.Equal(t, tt.keeps, nilIfEmpty(v.Names()))
		})
	}
}

func TestParseErrorColumnsCountRunes(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		column int
		byte   int
	}{
		{name: "ascii", text: `nick="a", bogus`, column: 21, byte: 50},
		{name: "two byte runes", text: `nick="é", bogus`, column: 21, byte: 51},
		{name: "four byte runes", text: `nick="𝄞", bogus`, column: 21, byte: 53},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var diags diag.List
			Parse(source(tt.text), testSchema, &diags)
			require.Equal(t, 1, diags.Len(), diags.Diagnostics().Error())
			d := diags.Diagnostics()[0]
			assert.Equal(t, diag.UnknownOption, diag.KindOf(d))
			assert.Equal(t, tt.column, d.Subject.Start.Column)
			assert.Equal(t, tt.byte, d.Subject.Start.Byte)
		})
	}
}

func TestParseReportsEveryError(t *testing.T) {
	var diags diag.List
	Parse(source("bogus, get=2, minimum=true, other"), testSchema, &diags)
	assert.Equal(t, []diag.Kind{diag.UnknownOption, diag.MalformedAttribute, diag.MalformedAttribute, diag.UnknownOption}, diags.Kinds())
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}
