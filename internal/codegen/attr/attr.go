// Package attr parses the option lists carried by gobject directives and
// struct tags.
//
// An option list is a comma separated sequence of items. An item is either a
// bare flag or key=value, where value is an HCL literal: a number, a quoted
// string, a bool, a dotted path or a tuple of paths. Errors are appended to the
// diagnostic list at the offending token and the option keeps its default.
package attr

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/Alia5/gobjgen/internal/codegen/diag"
)

// Kind is the value shape an option accepts.
type Kind int

const (
	// Flag takes no value.
	Flag Kind = iota
	// Bool is a flag that also accepts =true or =false.
	Bool
	Number
	// String accepts a quoted string or a bare word.
	String
	Ident
	// TypePath accepts one dotted path.
	TypePath
	PathList
	// Literal accepts any constant HCL expression.
	Literal
	// NameOrFalse accepts an identifier or false.
	NameOrFalse
)

// Option is one entry of a Schema.
type Option struct {
	Name string
	Kind Kind
}

// Schema lists the options accepted in one context.
type Schema struct {
	// Context names the thing being configured in messages, e.g. "signal".
	Context string
	Options []Option
}

func (s Schema) lookup(name string) (Option, bool) {
	for _, o := range s.Options {
		if o.Name == name {
			return o, true
		}
	}
	return Option{}, false
}

// Source is raw option text and the position of its first byte.
type Source struct {
	Text  string
	Range hcl.Range
}

// at returns the range of Text[from:to], given as byte offsets. Columns count
// runes. Option text never spans lines.
func (s Source) at(from, to int) hcl.Range {
	st := s.Range.Start
	return hcl.Range{
		Filename: s.Range.Filename,
		Start:    hcl.Pos{Line: st.Line, Column: st.Column + utf8.RuneCountInString(s.Text[:from]), Byte: st.Byte + from},
		End:      hcl.Pos{Line: st.Line, Column: st.Column + utf8.RuneCountInString(s.Text[:to]), Byte: st.Byte + to},
	}
}

// Path is a dotted type path such as gobject.Object.
type Path struct {
	Segments []string
	Range    hcl.Range
}

func (p Path) String() string { return strings.Join(p.Segments, ".") }

// Name is the last segment.
func (p Path) Name() string { return p.Segments[len(p.Segments)-1] }

// Qualifier is the package qualifier, or "" for a local path.
func (p Path) Qualifier() string {
	if len(p.Segments) < 2 {
		return ""
	}
	return p.Segments[0]
}

// Value is a parsed option.
type Value struct {
	Option   Option
	KeyRange hcl.Range
	Range    hcl.Range

	Bool  bool
	Str   string
	Val   cty.Value
	Paths []Path
}

// Values holds the options present in one option list.
type Values struct {
	set   map[string]*Value
	order []string
}

func (v *Values) Get(name string) *Value {
	if v == nil {
		return nil
	}
	return v.set[name]
}

func (v *Values) Has(name string) bool { return v.Get(name) != nil }

// Flag returns the option as a diag.Flag for combination checks.
func (v *Values) Flag(name string) diag.Flag {
	if val := v.Get(name); val != nil {
		r := val.KeyRange
		return diag.F(name, &r)
	}
	return diag.F(name, nil)
}

// On reports whether a flag or bool option is set and true.
func (v *Values) On(name string) bool {
	val := v.Get(name)
	return val != nil && val.Bool
}

// String returns a String or Ident option, or "".
func (v *Values) String(name string) string {
	if val := v.Get(name); val != nil {
		return val.Str
	}
	return ""
}

func (v *Values) Paths(name string) []Path {
	if val := v.Get(name); val != nil {
		return val.Paths
	}
	return nil
}

// Names lists the given options in source order.
func (v *Values) Names() []string {
	if v == nil {
		return nil
	}
	return v.order
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Parse reads src against schema. The result is never nil.
func Parse(src Source, schema Schema, diags *diag.List) *Values {
	out := &Values{set: make(map[string]*Value)}
	items, ok := split(src, diags)
	if !ok {
		return out
	}
	if len(items) == 1 && items[0].from == items[0].to {
		return out
	}
	for _, it := range items {
		if it.from == it.to {
			diags.Add(diag.MalformedAttribute, src.at(it.from, it.from), "Empty option",
				"Options are separated by single commas.")
			continue
		}
		if val := parseItem(src, it, schema, diags); val != nil {
			name := val.Option.Name
			if _, dup := out.set[name]; dup {
				diags.Errorf(diag.MalformedAttribute, val.KeyRange, "Duplicate option",
					"Option %q was already given for this %s.", name, schema.Context)
				continue
			}
			out.set[name] = val
			out.order = append(out.order, name)
		}
	}
	return out
}

type span struct{ from, to int }

// split cuts src at top level commas, skipping brackets and quoted strings.
// Returned spans are trimmed of surrounding whitespace.
func split(src Source, diags *diag.List) ([]span, bool) {
	text := src.Text
	var spans []span
	var stack []byte
	inQuote, escaped := false, false
	quoteStart, start := 0, 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inQuote {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inQuote = false
			}
			continue
		}
		switch c {
		case '"':
			inQuote, quoteStart = true, i
		case '[', '(', '{':
			stack = append(stack, c)
		case ']', ')', '}':
			if len(stack) == 0 || !matches(stack[len(stack)-1], c) {
				diags.Errorf(diag.MalformedAttribute, src.at(i, i+1), "Unbalanced bracket",
					"Unexpected %q.", string(c))
				return nil, false
			}
			stack = stack[:len(stack)-1]
		case ',':
			if len(stack) == 0 {
				spans = append(spans, trim(text, start, i))
				start = i + 1
			}
		}
	}
	if inQuote {
		diags.Add(diag.MalformedAttribute, src.at(quoteStart, len(text)), "Unterminated string",
			"A quoted value is missing its closing quote.")
		return nil, false
	}
	if len(stack) > 0 {
		diags.Errorf(diag.MalformedAttribute, src.at(start, len(text)), "Unbalanced bracket",
			"Missing closing bracket for %q.", string(stack[len(stack)-1]))
		return nil, false
	}
	spans = append(spans, trim(text, start, len(text)))
	return spans, true
}

func matches(open, close byte) bool {
	return open == '[' && close == ']' || open == '(' && close == ')' || open == '{' && close == '}'
}

func trim(text string, from, to int) span {
	for from < to && isSpace(text[from]) {
		from++
	}
	for to > from && isSpace(text[to-1]) {
		to--
	}
	return span{from, to}
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }

// topLevelEquals finds the first '=' outside quotes and brackets.
func topLevelEquals(s string) int {
	depth, inQuote, escaped := 0, false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inQuote {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inQuote = false
			}
			continue
		}
		switch c {
		case '"':
			inQuote = true
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
		case '=':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func parseItem(src Source, it span, schema Schema, diags *diag.List) *Value {
	text := src.Text[it.from:it.to]
	key, hasValue := it, false
	var value span
	if eq := topLevelEquals(text); eq >= 0 {
		key = trim(src.Text, it.from, it.from+eq)
		value = trim(src.Text, it.from+eq+1, it.to)
		hasValue = true
	}
	keyText := src.Text[key.from:key.to]
	keyRange := src.at(key.from, key.to)
	if !identPattern.MatchString(keyText) {
		diags.Errorf(diag.MalformedAttribute, keyRange, "Invalid option name",
			"%q is not a valid option name.", keyText)
		return nil
	}
	opt, ok := schema.lookup(keyText)
	if !ok {
		diags.Errorf(diag.UnknownOption, keyRange, "Unknown option",
			"%q is not a %s option.", keyText, schema.Context)
		return nil
	}

	val := &Value{Option: opt, KeyRange: keyRange, Range: src.at(it.from, it.to)}
	if !hasValue {
		switch opt.Kind {
		case Flag, Bool:
			val.Bool = true
			return val
		default:
			diags.Errorf(diag.MalformedAttribute, keyRange, "Missing value",
				"Option %q requires a value, as in %s=...", opt.Name, opt.Name)
			return nil
		}
	}
	if opt.Kind == Flag {
		diags.Errorf(diag.MalformedAttribute, src.at(value.from, value.to), "Unexpected value",
			"Option %q is a flag and takes no value.", opt.Name)
		return nil
	}
	if value.from == value.to {
		diags.Errorf(diag.MalformedAttribute, val.Range, "Missing value",
			"Option %q has an empty value.", opt.Name)
		return nil
	}
	if !parseValue(src, value, val, diags) {
		return nil
	}
	return val
}

func parseValue(src Source, sp span, val *Value, diags *diag.List) bool {
	text := src.Text[sp.from:sp.to]
	rng := src.at(sp.from, sp.to)
	name := val.Option.Name

	switch val.Option.Kind {
	case Ident:
		if !identPattern.MatchString(text) {
			diags.Errorf(diag.MalformedAttribute, rng, "Invalid identifier",
				"Option %q expects an identifier, got %q.", name, text)
			return false
		}
		val.Str = text
		return true

	case NameOrFalse:
		switch {
		case text == "false":
			val.Bool = false
		case text == "true":
			val.Bool = true
		case identPattern.MatchString(text):
			val.Bool, val.Str = true, text
		default:
			diags.Errorf(diag.MalformedAttribute, rng, "Invalid value",
				"Option %q expects a name or false, got %q.", name, text)
			return false
		}
		return true

	case String:
		if !strings.HasPrefix(text, `"`) {
			if strings.ContainsAny(text, " \t\"") {
				diags.Errorf(diag.MalformedAttribute, rng, "Invalid value",
					"Option %q: values containing spaces must be quoted.", name)
				return false
			}
			val.Str = text
			return true
		}
	}

	expr, exprDiags := hclsyntax.ParseExpression([]byte(text), src.Range.Filename, rng.Start)
	if exprDiags.HasErrors() {
		diags.Append(exprDiags, diag.MalformedAttribute)
		return false
	}

	switch val.Option.Kind {
	case TypePath:
		p, ok := pathOf(expr, name, diags)
		if !ok {
			return false
		}
		val.Paths = []Path{p}
		return true

	case PathList:
		exprs := []hcl.Expression{expr}
		if _, isTuple := expr.(*hclsyntax.TupleConsExpr); isTuple {
			var listDiags hcl.Diagnostics
			exprs, listDiags = hcl.ExprList(expr)
			if listDiags.HasErrors() {
				diags.Append(listDiags, diag.MalformedAttribute)
				return false
			}
		}
		ok := true
		for _, e := range exprs {
			p, pathOK := pathOf(e, name, diags)
			if !pathOK {
				ok = false
				continue
			}
			val.Paths = append(val.Paths, p)
		}
		return ok
	}

	if len(expr.Variables()) > 0 {
		diags.Errorf(diag.MalformedAttribute, rng, "Value is not a constant",
			"Option %q requires a literal value.", name)
		return false
	}
	v, valDiags := expr.Value(nil)
	if valDiags.HasErrors() {
		diags.Append(valDiags, diag.MalformedAttribute)
		return false
	}
	if !v.IsWhollyKnown() || v.IsNull() {
		diags.Errorf(diag.MalformedAttribute, rng, "Invalid value", "Option %q requires a known value.", name)
		return false
	}

	switch val.Option.Kind {
	case Bool:
		if v.Type() != cty.Bool {
			diags.Errorf(diag.MalformedAttribute, rng, "Invalid value",
				"Option %q expects true or false.", name)
			return false
		}
		val.Bool = v.True()
	case Number:
		if v.Type() != cty.Number {
			diags.Errorf(diag.MalformedAttribute, rng, "Invalid value",
				"Option %q expects a number.", name)
			return false
		}
	case String:
		if v.Type() != cty.String {
			diags.Errorf(diag.MalformedAttribute, rng, "Invalid value",
				"Option %q expects a string.", name)
			return false
		}
		val.Str = v.AsString()
	}
	val.Val = v
	return true
}

func pathOf(expr hcl.Expression, name string, diags *diag.List) (Path, bool) {
	trav, travDiags := hcl.AbsTraversalForExpr(expr)
	if travDiags.HasErrors() {
		diags.Errorf(diag.MalformedAttribute, expr.Range(), "Invalid type path",
			"Option %q expects a type path such as pkg.Type.", name)
		return Path{}, false
	}
	p := Path{Range: trav.SourceRange()}
	for _, step := range trav {
		switch s := step.(type) {
		case hcl.TraverseRoot:
			p.Segments = append(p.Segments, s.Name)
		case hcl.TraverseAttr:
			p.Segments = append(p.Segments, s.Name)
		default:
			diags.Errorf(diag.MalformedAttribute, expr.Range(), "Invalid type path",
				"Option %q expects a dotted type path without indexes.", name)
			return Path{}, false
		}
	}
	if len(p.Segments) > 2 {
		diags.Errorf(diag.MalformedAttribute, expr.Range(), "Invalid type path",
			"%q has too many segments; use pkg.Type.", p.String())
		return Path{}, false
	}
	return p, true
}
