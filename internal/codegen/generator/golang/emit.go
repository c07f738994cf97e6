package golang

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Alia5/gobjgen/internal/codegen/attr"
	"github.com/Alia5/gobjgen/internal/codegen/common"
	"github.com/Alia5/gobjgen/internal/codegen/meta"
	"github.com/Alia5/gobjgen/internal/codegen/scanner"
)

// runtimeName is the name generated files import the runtime under.
const runtimeName = "gobject"

// locals are identifiers the generated bodies declare themselves; parameters
// with these names are renamed.
var locals = map[string]bool{
	"o": true, "inst": true, "args": true, "self": true, "detail": true, "f": true,
	"id": true, "err": true, "ret": true, "x": true, "v": true, "props": true,
}

type emitter struct {
	def   *meta.ClassDefinition
	iface bool
	// recv is the wrapper pointer type handed to callbacks.
	recv  string
	of    string
	quals map[string]bool
}

func newEmitter(def *meta.ClassDefinition) *emitter {
	return &emitter{
		def:   def,
		iface: def.BaseKind == meta.Interface,
		recv:  "*" + def.Name,
		of:    meta.OfFunc(def.Name),
		quals: map[string]bool{runtimeName: true},
	}
}

func (e *emitter) decls() []string {
	var out []string
	add := func(s string) {
		if s != "" {
			out = append(out, strings.TrimRight(s, "\n"))
		}
	}
	add(e.wrapper())
	add(e.casts())
	add(e.register())
	add(e.typeFunc())
	for _, c := range e.def.Constructors {
		add(e.constructor(c))
	}
	add(e.genericConstructor())
	for _, p := range e.def.Properties {
		add(e.propertyMethods(p))
	}
	for _, s := range e.def.Signals {
		if !s.Override {
			add(e.signalMethods(s))
		}
	}
	for _, v := range e.def.Virtuals {
		if !v.Override && v.OverrideIface == nil {
			add(e.dispatcher(v))
		}
	}
	add(e.extTrait())
	add(e.concurrent())
	add(e.packageInit())
	return out
}

// use records the package qualifiers of a rendered type and returns it.
func (e *emitter) use(goType string) string {
	for _, q := range common.Qualifiers(goType) {
		e.quals[q] = true
	}
	return goType
}

// typeExpr is the expression yielding the registered type behind path.
func (e *emitter) typeExpr(p attr.Path) string {
	if q := p.Qualifier(); q != "" {
		e.quals[q] = true
		return q + "." + meta.TypeFunc(p.Name()) + "()"
	}
	return meta.TypeFunc(p.Name()) + "()"
}

func (e *emitter) isRoot(p *attr.Path) bool {
	if p == nil {
		return true
	}
	q := p.Qualifier()
	return p.Name() == "Object" && (q == runtimeName || e.def.Imports[q] == common.RuntimePath)
}

func (e *emitter) wrapper() string {
	d := e.def
	if !d.Wrapper {
		return ""
	}
	var b strings.Builder
	if e.iface {
		fmt.Fprintf(&b, "// %s gives typed access to instances implementing %s.\n", d.Name, d.TypeName)
		fmt.Fprintf(&b, "type %s struct {\n\tgobject.Instance\n}\n", d.Name)
		return b.String()
	}
	embed := "gobject.Object"
	if !e.isRoot(d.Parent) {
		embed = d.Parent.String()
		if q := d.Parent.Qualifier(); q != "" {
			e.quals[q] = true
		}
	}
	fmt.Fprintf(&b, "// %s is the instance type of %s.\n", d.Name, d.TypeName)
	fmt.Fprintf(&b, "type %s struct {\n\t%s\n\timp %s\n}\n", d.Name, embed, d.Struct)
	return b.String()
}

func (e *emitter) casts() string {
	d := e.def
	as := meta.AsMethod(d.Name)
	var b strings.Builder
	if e.iface {
		fmt.Fprintf(&b, "// %s returns inst viewed as %s, or false when its type does not\n// implement %s.\n", as, d.Name, d.TypeName)
		fmt.Fprintf(&b, "func %s(inst gobject.Instance) (*%s, bool) {\n", as, d.Name)
		b.WriteString("\tt := inst.Base().Type()\n")
		fmt.Fprintf(&b, "\tif t == nil || !t.Implements(%s) {\n\t\treturn nil, false\n\t}\n", meta.TypeVar(d.Name))
		fmt.Fprintf(&b, "\treturn %s(inst), true\n}\n\n", e.of)
		fmt.Fprintf(&b, "func %s(inst gobject.Instance) *%s { return &%s{Instance: inst} }\n", e.of, d.Name, d.Name)
		return b.String()
	}
	fmt.Fprintf(&b, "// %s returns the %s part of o.\n", as, d.Name)
	fmt.Fprintf(&b, "func (o *%s) %s() *%s { return o }\n\n", d.Name, as, d.Name)
	fmt.Fprintf(&b, "func %s(inst gobject.Instance) *%s {\n", e.of, d.Name)
	fmt.Fprintf(&b, "\treturn inst.(interface{ %s() *%s }).%s()\n}\n", as, d.Name, as)
	return b.String()
}

func (e *emitter) typeFunc() string {
	name := e.def.Name
	return fmt.Sprintf("// %s returns the registered type of %s.\nfunc %s() *gobject.Type { return %s }\n",
		meta.TypeFunc(name), name, meta.TypeFunc(name), meta.TypeVar(name))
}

// implCall renders a call of an implementation method from inside a
// registration closure that has inst in scope. prelude declares o when the
// call needs it.
func (e *emitter) implCall(method string, recv bool, args []string) (prelude, call string) {
	if e.iface {
		all := args
		if recv {
			all = append([]string{e.of + "(inst)"}, args...)
		}
		return "", fmt.Sprintf("new(%s).%s(%s)", e.def.Struct, method, strings.Join(all, ", "))
	}
	all := args
	if recv {
		all = append([]string{"o"}, args...)
	}
	return fmt.Sprintf("o := %s(inst)\n", e.of), fmt.Sprintf("o.imp.%s(%s)", method, strings.Join(all, ", "))
}

func safeName(name string) string {
	if locals[name] {
		return name + "Arg"
	}
	return name
}

// paramList renders "a int, b string" and the matching argument list.
func (e *emitter) paramList(params []meta.Param) (decl string, args []string) {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		n := safeName(p.Name)
		parts = append(parts, n+" "+e.use(p.Type))
		args = append(args, n)
	}
	return strings.Join(parts, ", "), args
}

func resultList(results []string) string {
	switch len(results) {
	case 0:
		return ""
	case 1:
		return " " + results[0]
	default:
		return " (" + strings.Join(results, ", ") + ")"
	}
}

// slotType is the func type stored in a vtable slot.
func (e *emitter) slotType(v *meta.VirtualMethodDefinition) string {
	parts := []string{"gobject.Instance"}
	for _, p := range v.Params {
		parts = append(parts, e.use(p.Type))
	}
	for _, r := range v.Results {
		e.use(r)
	}
	return "func(" + strings.Join(parts, ", ") + ")" + resultList(v.Results)
}

func (e *emitter) constructor(c *meta.ConstructorDefinition) string {
	d := e.def
	decl, args := e.paramList(c.Params)
	props := make([]string, 0, len(c.Params))
	for i, p := range c.Params {
		name := p.Name
		if prop := meta.LookupProperty(d.Properties, p.Name); prop != nil {
			name = prop.Name
		}
		props = append(props, fmt.Sprintf("gobject.Prop{Name: %q, Value: %s}", name, args[i]))
	}
	construct := strings.Join(append([]string{"o", meta.TypeVar(d.Name)}, props...), ", ")

	var b strings.Builder
	fmt.Fprintf(&b, "// %s creates a %s.\n", c.Name, d.Name)
	if !c.Fallible {
		fmt.Fprintf(&b, "func %s(%s) *%s {\n", c.Name, decl, d.Name)
		fmt.Fprintf(&b, "\to := &%s{}\n", d.Name)
		fmt.Fprintf(&b, "\tgobject.MustConstruct(%s)\n", construct)
		fmt.Fprintf(&b, "\to.imp.%s(%s)\n", c.Method, strings.Join(args, ", "))
		b.WriteString("\treturn o\n}\n")
		return b.String()
	}
	fmt.Fprintf(&b, "func %s(%s) (*%s, error) {\n", c.Name, decl, d.Name)
	fmt.Fprintf(&b, "\to := &%s{}\n", d.Name)
	fmt.Fprintf(&b, "\tif err := gobject.Construct(%s); err != nil {\n\t\treturn nil, err\n\t}\n", construct)
	fmt.Fprintf(&b, "\tif err := o.imp.%s(%s); err != nil {\n\t\treturn nil, err\n\t}\n", c.Method, strings.Join(args, ", "))
	b.WriteString("\treturn o, nil\n}\n")
	return b.String()
}

// genericConstructor builds instances from generic property values; abstract
// types and interfaces have none.
func (e *emitter) genericConstructor() string {
	d := e.def
	if e.iface || d.Abstract {
		return ""
	}
	name := "New" + d.Name + "With"
	var b strings.Builder
	fmt.Fprintf(&b, "// %s creates a %s and applies props during construction.\n", name, d.Name)
	fmt.Fprintf(&b, "func %s(props ...gobject.Prop) (*%s, error) {\n", name, d.Name)
	fmt.Fprintf(&b, "\to := &%s{}\n", d.Name)
	fmt.Fprintf(&b, "\tif err := gobject.Construct(o, %s, props...); err != nil {\n\t\treturn nil, err\n\t}\n", meta.TypeVar(d.Name))
	b.WriteString("\treturn o, nil\n}\n")
	return b.String()
}

func (e *emitter) extTrait() string {
	d := e.def
	if d.ExtTrait == "" || e.iface {
		return ""
	}
	var members []string
	members = append(members, fmt.Sprintf("%s() *%s", meta.AsMethod(d.Name), d.Name))
	for _, p := range d.Properties {
		if !p.Abstract {
			members = append(members, e.propertySignatures(p)...)
		}
	}
	for _, s := range d.Signals {
		if !s.Override {
			members = append(members, e.signalSignatures(s)...)
		}
	}
	for _, v := range d.Virtuals {
		if !v.Override && v.OverrideIface == nil {
			decl, _ := e.paramList(v.Params)
			members = append(members, fmt.Sprintf("%s(%s)%s", v.GoName(), decl, resultList(v.Results)))
		}
	}
	for _, col := range d.CollectionsByMode(meta.ModeWrapper) {
		for _, m := range col.Methods {
			if m.Exported() && m.Role == meta.RolePlain {
				members = append(members, m.Name+e.methodSignature(m.Params, m.Results))
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "// %s is implemented by %s and every type derived from it.\n", d.ExtTrait, d.Name)
	fmt.Fprintf(&b, "type %s interface {\n\tgobject.Instance\n", d.ExtTrait)
	for _, m := range members {
		fmt.Fprintf(&b, "\t%s\n", m)
	}
	b.WriteString("}\n\n")
	fmt.Fprintf(&b, "var _ %s = (*%s)(nil)\n", d.ExtTrait, d.Name)
	return b.String()
}

// methodSignature renders scanned parameters and results as they were
// declared.
func (e *emitter) methodSignature(params, results []scanner.Param) string {
	render := func(ps []scanner.Param) []string {
		out := make([]string, 0, len(ps))
		for _, p := range ps {
			t := e.use(p.Type)
			if p.Ellipsis {
				t = "..." + t
			}
			if p.Name != "" {
				t = p.Name + " " + t
			}
			out = append(out, t)
		}
		return out
	}
	sig := "(" + strings.Join(render(params), ", ") + ")"
	res := render(results)
	switch {
	case len(res) == 0:
	case len(res) == 1 && results[0].Name == "":
		sig += " " + res[0]
	default:
		sig += " (" + strings.Join(res, ", ") + ")"
	}
	return sig
}

func (e *emitter) concurrent() string {
	d := e.def
	if !d.Concurrent || e.iface {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "// ConcurrentSafe marks %s as safe for use from several goroutines.\n", d.Name)
	fmt.Fprintf(&b, "func (o *%s) ConcurrentSafe() {}\n\n", d.Name)
	fmt.Fprintf(&b, "var _ gobject.Concurrent = (*%s)(nil)\n", d.Name)
	return b.String()
}

func (e *emitter) packageInit() string {
	d := e.def
	var body strings.Builder
	for _, stmt := range d.Statements[meta.PhasePackageInit] {
		body.WriteString(stmt + "\n")
	}
	for _, col := range d.Collections {
		if col.Open == "" {
			continue
		}
		recv := col.Receiver
		if col.Mode == meta.ModeSubclass {
			recv = d.Struct
		}
		body.WriteString(col.Open + "\n")
		for _, m := range col.Methods {
			if m.Role == meta.RolePlain {
				fmt.Fprintf(&body, "%q: (*%s).%s,\n", m.Name, recv, m.Name)
			}
		}
		body.WriteString(col.Close + "\n")
	}
	if body.Len() == 0 {
		return ""
	}
	return "func init() {\n" + body.String() + "}\n"
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }
