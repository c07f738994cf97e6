package derive

import (
	"strings"

	"github.com/Alia5/gobjgen/internal/codegen/attr"
	"github.com/Alia5/gobjgen/internal/codegen/common"
	"github.com/Alia5/gobjgen/internal/codegen/diag"
	"github.com/Alia5/gobjgen/internal/codegen/meta"
)

// SignalSchema lists the options of //gobject:signal.
var SignalSchema = attr.Schema{
	Context: "signal",
	Options: []attr.Option{
		{Name: "run_first", Kind: attr.Flag},
		{Name: "run_last", Kind: attr.Flag},
		{Name: "run_cleanup", Kind: attr.Flag},
		{Name: "detailed", Kind: attr.Flag},
		{Name: "action", Kind: attr.Flag},
		{Name: "override", Kind: attr.Flag},
		{Name: "accumulator", Kind: attr.Ident},
		{Name: "name", Kind: attr.String},
	},
}

// Signals derives the signal-tagged methods of every collection. Duplicate
// names are reported but both definitions are kept. Accumulator methods are
// resolved within the collection of the signal and marked with the
// accumulator role.
func Signals(ctx *Context, cols []*meta.Collection, diags *diag.List) []*meta.SignalDefinition {
	var out []*meta.SignalDefinition
	seen := make(map[string]*meta.SignalDefinition)
	for _, c := range cols {
		for _, m := range c.Methods {
			if m.Role != meta.RoleSignal {
				continue
			}
			s := deriveSignal(ctx, c, m, diags)
			if prev, dup := seen[s.Name]; dup {
				diags.Errorf(diag.DuplicateName, s.Range, "Duplicate signal",
					"Signal %q is already defined by method %s.", s.Name, prev.Method)
			} else {
				seen[s.Name] = s
			}
			out = append(out, s)
		}
	}
	return out
}

func deriveSignal(ctx *Context, c *meta.Collection, m *meta.Method, diags *diag.List) *meta.SignalDefinition {
	v := attr.Parse(m.Tag.Args, SignalSchema, diags)
	s := &meta.SignalDefinition{
		Method:   m.Name,
		Name:     common.ToKebabCase(m.Name),
		Detailed: v.On("detailed"),
		Action:   v.On("action"),
		Override: v.On("override"),
		Range:    m.Range,
	}
	if name := v.Get("name"); name != nil {
		if propertyNamePattern.MatchString(name.Str) {
			s.Name = name.Str
		} else {
			diags.Errorf(diag.MalformedAttribute, name.Range, "Invalid signal name",
				"%q is not a valid signal name; use lower-case words separated by dashes.", name.Str)
		}
	}
	switch {
	case v.On("run_first"):
		s.Timing = meta.RunFirst
	case v.On("run_cleanup"):
		s.Timing = meta.RunCleanup
	}
	diag.OnlyOneOf(diags, v.Flag("run_first"), v.Flag("run_last"), v.Flag("run_cleanup"))
	if s.Override {
		diag.Disallow(diags, "on signal overrides, which inherit them from the ancestor",
			v.Flag("run_first"), v.Flag("run_last"), v.Flag("run_cleanup"),
			v.Flag("detailed"), v.Flag("action"), v.Flag("accumulator"))
	}

	s.Receiver, s.Params = ctx.signature(m.Params, "signal", m.Range, diags)
	switch len(m.Results) {
	case 0:
	case 1:
		s.Return = m.Results[0].Type
	default:
		diags.Errorf(diag.TypeShapeMismatch, m.Range, "Too many results",
			"Signal %s returns %d values; signals return at most one.", m.Name, len(m.Results))
	}

	if acc := v.Get("accumulator"); acc != nil {
		s.Accumulator = acc.Str
		s.AccumulatorHint = linkAccumulator(ctx, c, s, acc, diags)
	}
	return s
}

// linkAccumulator resolves the accumulator of s among the siblings of the
// signal method. It reports whether the accumulator takes the invocation hint.
func linkAccumulator(ctx *Context, c *meta.Collection, s *meta.SignalDefinition, ref *attr.Value, diags *diag.List) bool {
	var target *meta.Method
	for _, m := range c.Methods {
		if m.Name == ref.Str {
			target = m
			break
		}
	}
	if target == nil {
		diags.Errorf(diag.UnresolvedAccumulator, ref.Range, "Unresolved accumulator",
			"No method %s is declared next to signal method %s.", ref.Str, s.Method)
		return false
	}
	if target.Role != meta.RolePlain && target.Role != meta.RoleAccumulator {
		diags.Errorf(diag.DisallowedCombination, ref.Range, "Accumulator has another role",
			"Method %s is a %s and cannot accumulate signal %q.", target.Name, target.Role, s.Name)
		return false
	}
	if s.Return == "" {
		diags.Errorf(diag.DisallowedCombination, ref.Range, "Accumulator without result",
			"Signal %q returns nothing, so there is nothing to accumulate.", s.Name)
		return false
	}
	target.Role = meta.RoleAccumulator

	params := target.Params
	hint := len(params) > 0 && isInvocationHint(ctx, params[0].Type)
	if hint {
		params = params[1:]
	}
	shape := "func(hint *" + ctx.runtimeQualifier() + ".InvocationHint, acc " + s.Return +
		", value " + s.Return + ") (" + s.Return + ", bool)"
	switch {
	case len(params) == 0 || params[0].Type != s.Return:
		diags.Errorf(diag.TypeShapeMismatch, target.Range, "Accumulator type mismatch",
			"The accumulated value of %s must have the result type %s of signal %q; expected %s.",
			target.Name, s.Return, s.Name, shape)
	case len(params) != 2 || params[1].Type != s.Return ||
		len(target.Results) != 2 || target.Results[0].Type != s.Return || target.Results[1].Type != "bool":
		diags.Errorf(diag.TypeShapeMismatch, target.Range, "Accumulator shape",
			"Accumulator %s must have the shape %s.", target.Name, shape)
	}
	return hint
}

func isInvocationHint(ctx *Context, typ string) bool {
	q, name, ok := strings.Cut(strings.TrimPrefix(typ, "*"), ".")
	return ok && strings.HasPrefix(typ, "*") && q == ctx.runtimeQualifier() && name == "InvocationHint"
}
