package golang

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Alia5/gobjgen/internal/codegen/common"
	"github.com/Alia5/gobjgen/internal/codegen/meta"
)

func (e *emitter) register() string {
	d := e.def
	var b strings.Builder
	fmt.Fprintf(&b, "var %s = gobject.Register(gobject.TypeInfo{\n", meta.TypeVar(d.Name))
	fmt.Fprintf(&b, "Name: %q,\n", d.TypeName)

	ifaces := d.Implements
	if e.iface {
		b.WriteString("Kind: gobject.KindInterface,\n")
		ifaces = d.Extends
	} else if !e.isRoot(d.Parent) {
		fmt.Fprintf(&b, "Parent: %s,\n", e.typeExpr(*d.Parent))
	}
	if len(ifaces) > 0 {
		exprs := make([]string, 0, len(ifaces))
		for _, p := range ifaces {
			exprs = append(exprs, e.typeExpr(p))
		}
		fmt.Fprintf(&b, "Interfaces: []*gobject.Type{%s},\n", strings.Join(exprs, ", "))
	}
	if d.Abstract {
		b.WriteString("Abstract: true,\n")
	}
	if d.Final {
		b.WriteString("Final: true,\n")
	}

	if len(d.Properties) > 0 {
		b.WriteString("Properties: []*gobject.ParamSpec{\n")
		for _, p := range d.Properties {
			b.WriteString(e.paramSpec(p) + ",\n")
		}
		b.WriteString("},\n")
	}
	var signals, overrides []string
	for _, s := range d.Signals {
		if s.Override {
			overrides = append(overrides, e.signalOverride(s))
		} else {
			signals = append(signals, e.signalSpec(s))
		}
	}
	writeList(&b, "Signals: []*gobject.SignalSpec", signals)
	writeList(&b, "SignalOverrides: []gobject.SignalOverride", overrides)

	var slots, slotOverrides []string
	for _, v := range d.Virtuals {
		if v.Override || v.OverrideIface != nil {
			slotOverrides = append(slotOverrides, e.virtualSlot(v))
		} else {
			slots = append(slots, e.virtualSlot(v))
		}
	}
	writeList(&b, "Virtuals: []gobject.VirtualSlot", slots)
	writeList(&b, "Overrides: []gobject.VirtualSlot", slotOverrides)

	if stmts := d.Statements[meta.PhaseClassInit]; len(stmts) > 0 {
		fmt.Fprintf(&b, "ClassInit: func(t *gobject.Type) {\n%s\n},\n", strings.Join(stmts, "\n"))
	}
	if !e.iface {
		b.WriteString(e.lifecycle())
	}
	b.WriteString("})\n")
	return b.String()
}

func writeList(b *strings.Builder, head string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(head + "{\n")
	for _, it := range items {
		b.WriteString(it + ",\n")
	}
	b.WriteString("},\n")
}

// lifecycle renders the instance hooks: defaults and instance_init
// statements before init, construct-only defaults before constructed.
func (e *emitter) lifecycle() string {
	d := e.def
	lc := d.Lifecycle
	var b strings.Builder

	var initLines []string
	for _, p := range d.Properties {
		if p.Default == "" {
			continue
		}
		switch p.Storage {
		case meta.StorageOwned, meta.StorageSynced, meta.StorageBorrowed:
			initLines = append(initLines, fmt.Sprintf("o.imp.%s.Set(%s)", p.Field, p.Default))
		case meta.StoragePlain:
			initLines = append(initLines, fmt.Sprintf("o.imp.%s = %s", p.Field, p.Default))
		}
	}
	usesO := len(initLines) > 0 || lc.Init != ""
	initLines = append(initLines, d.Statements[meta.PhaseInstanceInit]...)
	if lc.Init != "" {
		initLines = append(initLines, hookCall(lc.Init, lc.InitReceiver))
	}
	if len(initLines) > 0 {
		if !usesO {
			initLines = append([]string{"_ = o"}, initLines...)
		}
		e.hook(&b, "InstanceInit", initLines)
	}

	var constructed []string
	for _, p := range d.Properties {
		if p.Default != "" && p.Storage == meta.StorageConstructOnly {
			constructed = append(constructed, fmt.Sprintf("if !o.imp.%s.IsSet() {\n_ = o.imp.%s.Set(%s)\n}", p.Field, p.Field, p.Default))
		}
	}
	if lc.Constructed != "" {
		constructed = append(constructed, hookCall(lc.Constructed, lc.ConstructedReceiver))
	}
	if len(constructed) > 0 {
		e.hook(&b, "Constructed", constructed)
	}
	if lc.Dispose != "" {
		e.hook(&b, "Dispose", []string{hookCall(lc.Dispose, lc.DisposeReceiver)})
	}
	return b.String()
}

func (e *emitter) hook(b *strings.Builder, field string, lines []string) {
	fmt.Fprintf(b, "%s: func(inst gobject.Instance) {\no := %s(inst)\n%s\n},\n", field, e.of, strings.Join(lines, "\n"))
}

func hookCall(method string, recv bool) string {
	if recv {
		return fmt.Sprintf("o.imp.%s(o)", method)
	}
	return fmt.Sprintf("o.imp.%s()", method)
}

func (e *emitter) paramSpec(p *meta.PropertyDefinition) string {
	var b strings.Builder
	b.WriteString("{\n")
	fmt.Fprintf(&b, "Name: %q,\n", p.Name)
	if p.Nick != "" {
		fmt.Fprintf(&b, "Nick: %q,\n", p.Nick)
	}
	if p.Blurb != "" {
		fmt.Fprintf(&b, "Blurb: %q,\n", p.Blurb)
	}
	fmt.Fprintf(&b, "Flags: %s,\n", e.paramFlags(p))
	if bounds := boundsExpr(p); bounds != "" {
		fmt.Fprintf(&b, "Bounds: %s,\n", bounds)
	}
	if p.Default != "" {
		def := p.Default
		if common.IsNumeric(p.ValueType) {
			def = p.ValueType + "(" + def + ")"
		}
		fmt.Fprintf(&b, "Default: %s,\n", def)
	}
	if get := e.getExpr(p); get != "" {
		fmt.Fprintf(&b, "Get: func(inst gobject.Instance) any { return %s },\n", get)
	}
	if set := e.setBody(p); set != "" {
		fmt.Fprintf(&b, "Set: func(inst gobject.Instance, v any) error {\n%s},\n", set)
	}
	b.WriteString("}")
	return b.String()
}

func (e *emitter) paramFlags(p *meta.PropertyDefinition) string {
	var flags []string
	add := func(on bool, flag string) {
		if on {
			flags = append(flags, "gobject."+flag)
		}
	}
	add(p.Get, "ParamReadable")
	add(p.Set, "ParamWritable")
	add(p.ConstructOnly, "ParamConstructOnly")
	add(p.ExplicitNotify, "ParamExplicitNotify")
	add(p.LaxValidation, "ParamLaxValidation")
	add(e.abstract(p), "ParamAbstract")
	add(p.Override(), "ParamOverride")
	return strings.Join(flags, " | ")
}

// abstract reports properties without an implementation on this type.
func (e *emitter) abstract(p *meta.PropertyDefinition) bool {
	return e.iface || p.Abstract
}

func boundsExpr(p *meta.PropertyDefinition) string {
	switch {
	case p.Minimum != nil && p.Maximum != nil:
		return fmt.Sprintf("&gobject.Bounds{Min: %s, Max: %s}", formatFloat(*p.Minimum), formatFloat(*p.Maximum))
	case p.Minimum != nil:
		return fmt.Sprintf("gobject.AtLeast(%s)", formatFloat(*p.Minimum))
	case p.Maximum != nil:
		return fmt.Sprintf("gobject.AtMost(%s)", formatFloat(*p.Maximum))
	}
	return ""
}

// getExpr reads the property from the storage of the instance in inst.
func (e *emitter) getExpr(p *meta.PropertyDefinition) string {
	if !p.Get || e.abstract(p) {
		return ""
	}
	imp := e.of + "(inst).imp"
	if p.Getter != "" {
		return fmt.Sprintf("%s.%s()", imp, p.Getter)
	}
	switch p.Storage {
	case meta.StorageComputed:
		return ""
	case meta.StorageBorrowed:
		return fmt.Sprintf("%s.%s.Borrow()", imp, p.Field)
	case meta.StoragePlain:
		return fmt.Sprintf("%s.%s", imp, p.Field)
	default:
		return fmt.Sprintf("%s.%s.Get()", imp, p.Field)
	}
}

// setBody converts v and writes it to the storage of the instance in inst.
func (e *emitter) setBody(p *meta.PropertyDefinition) string {
	if !p.Set || e.abstract(p) {
		return ""
	}
	imp := e.of + "(inst).imp"
	var store string
	switch {
	case p.Setter != "" && p.SetterFallible:
		store = fmt.Sprintf("return %s.%s(x)\n", imp, p.Setter)
	case p.Setter != "":
		store = fmt.Sprintf("%s.%s(x)\nreturn nil\n", imp, p.Setter)
	case p.Storage == meta.StorageComputed || p.Storage == meta.StorageWeak:
		return ""
	case p.Storage == meta.StorageConstructOnly:
		store = fmt.Sprintf("return %s.%s.Set(x)\n", imp, p.Field)
	case p.Storage == meta.StoragePlain:
		store = fmt.Sprintf("%s.%s = x\nreturn nil\n", imp, p.Field)
	default:
		store = fmt.Sprintf("%s.%s.Set(x)\nreturn nil\n", imp, p.Field)
	}
	return fmt.Sprintf("x, err := gobject.ValueAs[%s](%q, v)\nif err != nil {\nreturn err\n}\n%s",
		e.use(p.ValueType), p.Name, store)
}

// setterFails reports whether the typed setter returns the validation
// error instead of panicking.
func setterFails(p *meta.PropertyDefinition) bool {
	return p.SetterFallible || (p.Minimum != nil || p.Maximum != nil) && !p.LaxValidation
}

func hasSetter(p *meta.PropertyDefinition) bool { return p.Set && !p.ConstructOnly }

func (e *emitter) propertySignatures(p *meta.PropertyDefinition) []string {
	name := p.GoName()
	var out []string
	if p.Get {
		out = append(out, fmt.Sprintf("%s() %s", name, e.use(p.GoType())))
	}
	if hasSetter(p) {
		sig := fmt.Sprintf("Set%s(v %s)", name, e.use(p.ValueType))
		if setterFails(p) {
			sig += " error"
		}
		out = append(out, sig)
	}
	if !e.iface {
		out = append(out,
			fmt.Sprintf("Notify%s()", name),
			fmt.Sprintf("Connect%sNotify(f func(%s)) gobject.HandlerID", name, e.recv))
	}
	return out
}

func (e *emitter) propertyMethods(p *meta.PropertyDefinition) string {
	d := e.def
	name := p.GoName()
	var b strings.Builder
	if p.Get {
		fmt.Fprintf(&b, "// %s returns the %q property.\n", name, p.Name)
		if p.Blurb != "" {
			fmt.Fprintf(&b, "// %s\n", p.Blurb)
		}
		fmt.Fprintf(&b, "func (o *%s) %s() %s {\n", d.Name, name, e.use(p.GoType()))
		fmt.Fprintf(&b, "\tv, err := o.Base().Property(%q)\n\tif err != nil {\n\t\tpanic(err)\n\t}\n", p.Name)
		fmt.Fprintf(&b, "\tx, _ := v.(%s)\n\treturn x\n}\n\n", p.GoType())
	}
	if hasSetter(p) {
		fmt.Fprintf(&b, "// Set%s sets the %q property.\n", name, p.Name)
		if setterFails(p) {
			fmt.Fprintf(&b, "func (o *%s) Set%s(v %s) error {\n", d.Name, name, e.use(p.ValueType))
			fmt.Fprintf(&b, "\treturn o.Base().SetProperty(%q, v)\n}\n\n", p.Name)
		} else {
			fmt.Fprintf(&b, "func (o *%s) Set%s(v %s) {\n", d.Name, name, e.use(p.ValueType))
			fmt.Fprintf(&b, "\tif err := o.Base().SetProperty(%q, v); err != nil {\n\t\tpanic(err)\n\t}\n}\n\n", p.Name)
		}
	}
	if !e.iface {
		fmt.Fprintf(&b, "// Notify%s emits notify for the %q property.\n", name, p.Name)
		fmt.Fprintf(&b, "func (o *%s) Notify%s() { o.Base().Notify(%q) }\n\n", d.Name, name, p.Name)
		fmt.Fprintf(&b, "// Connect%sNotify calls f whenever the %q property changes.\n", name, p.Name)
		fmt.Fprintf(&b, "func (o *%s) Connect%sNotify(f func(%s)) gobject.HandlerID {\n", d.Name, name, e.recv)
		fmt.Fprintf(&b, "\treturn o.Base().ConnectNotify(%q, func(inst gobject.Instance, _ *gobject.ParamSpec) {\n", p.Name)
		fmt.Fprintf(&b, "\t\tf(%s(inst))\n\t})\n}\n", e.of)
	}
	return b.String()
}

func signalFlags(s *meta.SignalDefinition) string {
	flags := []string{map[meta.RunTiming]string{
		meta.RunFirst:   "gobject.SignalRunFirst",
		meta.RunLast:    "gobject.SignalRunLast",
		meta.RunCleanup: "gobject.SignalRunCleanup",
	}[s.Timing]}
	if s.Detailed {
		flags = append(flags, "gobject.SignalDetailed")
	}
	if s.Action {
		flags = append(flags, "gobject.SignalAction")
	}
	return strings.Join(flags, " | ")
}

// argExprs unpacks emission arguments for the given parameters.
func (e *emitter) argExprs(params []meta.Param) []string {
	out := make([]string, 0, len(params))
	for i, p := range params {
		out = append(out, fmt.Sprintf("gobject.Arg[%s](args, %d)", e.use(p.Type), i))
	}
	return out
}

// classHandler renders the handler running the implementation method of s.
func (e *emitter) classHandler(s *meta.SignalDefinition) string {
	prelude, call := e.implCall(s.Method, s.Receiver, e.argExprs(s.Params))
	body := prelude
	if s.Return != "" {
		body += "return " + call + "\n"
	} else {
		body += call + "\nreturn nil\n"
	}
	return "func(inst gobject.Instance, args []any) any {\n" + body + "}"
}

func (e *emitter) signalSpec(s *meta.SignalDefinition) string {
	var b strings.Builder
	b.WriteString("{\n")
	fmt.Fprintf(&b, "Name: %q,\n", s.Name)
	fmt.Fprintf(&b, "Flags: %s,\n", signalFlags(s))
	fmt.Fprintf(&b, "ClassHandler: %s,\n", e.classHandler(s))
	if s.Accumulator != "" {
		ret := e.use(s.Return)
		var args []string
		if s.AccumulatorHint {
			args = append(args, "hint")
		}
		args = append(args, "a", "r")
		prelude, call := e.implCall(s.Accumulator, false, args)
		b.WriteString("Accumulator: func(inst gobject.Instance, hint *gobject.InvocationHint, acc, ret any) (any, bool) {\n")
		fmt.Fprintf(&b, "a, _ := acc.(%s)\nr, _ := ret.(%s)\n", ret, ret)
		fmt.Fprintf(&b, "%sreturn %s\n},\n", prelude, call)
	}
	b.WriteString("}")
	return b.String()
}

func (e *emitter) signalOverride(s *meta.SignalDefinition) string {
	return fmt.Sprintf("{Name: %q, Handler: %s}", s.Name, e.classHandler(s))
}

// callbackType is the func type user handlers of s have.
func (e *emitter) callbackType(s *meta.SignalDefinition) string {
	parts := []string{e.recv}
	for _, p := range s.Params {
		parts = append(parts, e.use(p.Type))
	}
	ret := ""
	if s.Return != "" {
		ret = " " + e.use(s.Return)
	}
	return "func(" + strings.Join(parts, ", ") + ")" + ret
}

func emitName(s *meta.SignalDefinition) string {
	if s.Action {
		return "Emit" + s.GoName()
	}
	return "emit" + s.GoName()
}

func (e *emitter) signalSignatures(s *meta.SignalDefinition) []string {
	detail := ""
	if s.Detailed {
		detail = "detail string, "
	}
	out := []string{fmt.Sprintf("Connect%s(%sf %s) gobject.HandlerID", s.GoName(), detail, e.callbackType(s))}
	if s.Action {
		decl, _ := e.paramList(s.Params)
		if s.Detailed {
			decl = strings.TrimSuffix("detail string, "+decl, ", ")
		}
		ret := ""
		if s.Return != "" {
			ret = " " + s.Return
		}
		out = append(out, fmt.Sprintf("%s(%s)%s", emitName(s), decl, ret))
	}
	return out
}

func (e *emitter) signalMethods(s *meta.SignalDefinition) string {
	d := e.def
	detailParam, detailArg := "", `""`
	if s.Detailed {
		detailParam, detailArg = "detail string, ", "detail"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "// Connect%s connects f to the %q signal.\n", s.GoName(), s.Name)
	fmt.Fprintf(&b, "func (o *%s) Connect%s(%sf %s) gobject.HandlerID {\n", d.Name, s.GoName(), detailParam, e.callbackType(s))
	fmt.Fprintf(&b, "\tid, err := o.Base().Connect(%q, %s, func(inst gobject.Instance, args []any) any {\n", s.Name, detailArg)
	call := fmt.Sprintf("f(%s)", strings.Join(append([]string{e.of + "(inst)"}, e.argExprs(s.Params)...), ", "))
	if s.Return != "" {
		fmt.Fprintf(&b, "\t\treturn %s\n", call)
	} else {
		fmt.Fprintf(&b, "\t\t%s\n\t\treturn nil\n", call)
	}
	b.WriteString("\t})\n\tif err != nil {\n\t\tpanic(err)\n\t}\n\treturn id\n}\n\n")

	decl, args := e.paramList(s.Params)
	emitArgs := strings.Join(append([]string{strconv.Quote(s.Name), detailArg}, args...), ", ")
	fmt.Fprintf(&b, "// %s emits the %q signal.\n", emitName(s), s.Name)
	if s.Return == "" {
		fmt.Fprintf(&b, "func (o *%s) %s(%s) {\n", d.Name, emitName(s), strings.TrimSuffix(detailParam+decl, ", "))
		fmt.Fprintf(&b, "\tif _, err := o.Base().Emit(%s); err != nil {\n\t\tpanic(err)\n\t}\n}\n", emitArgs)
		return b.String()
	}
	fmt.Fprintf(&b, "func (o *%s) %s(%s) %s {\n", d.Name, emitName(s), strings.TrimSuffix(detailParam+decl, ", "), s.Return)
	fmt.Fprintf(&b, "\tret, err := o.Base().Emit(%s)\n\tif err != nil {\n\t\tpanic(err)\n\t}\n", emitArgs)
	fmt.Fprintf(&b, "\tx, _ := ret.(%s)\n\treturn x\n}\n", s.Return)
	return b.String()
}

func (e *emitter) virtualSlot(v *meta.VirtualMethodDefinition) string {
	decl, args := e.paramList(v.Params)
	prelude, call := e.implCall(v.Method, v.Receiver, args)
	var b strings.Builder
	b.WriteString("{\n")
	fmt.Fprintf(&b, "Name: %q,\n", v.Method)
	if v.OverrideIface != nil {
		fmt.Fprintf(&b, "Iface: %s,\n", e.typeExpr(*v.OverrideIface))
	}
	for _, r := range v.Results {
		e.use(r)
	}
	params := "inst gobject.Instance"
	if decl != "" {
		params += ", " + decl
	}
	fmt.Fprintf(&b, "Func: func(%s)%s {\n%s", params, resultList(v.Results), prelude)
	if len(v.Results) > 0 {
		fmt.Fprintf(&b, "return %s\n", call)
	} else {
		b.WriteString(call + "\n")
	}
	b.WriteString("},\n}")
	return b.String()
}

func (e *emitter) dispatcher(v *meta.VirtualMethodDefinition) string {
	d := e.def
	decl, args := e.paramList(v.Params)
	lookup := fmt.Sprintf("gobject.Virtual[%s](self, %q)", e.slotType(v), v.Method)
	if e.iface {
		lookup = fmt.Sprintf("gobject.InterfaceVirtual[%s](self, %s, %q)", e.slotType(v), meta.TypeVar(d.Name), v.Method)
	}
	call := fmt.Sprintf("%s(%s)", lookup, strings.Join(append([]string{"self"}, args...), ", "))

	var b strings.Builder
	fmt.Fprintf(&b, "// %s calls the %s implementation of the dynamic type of o.\n", v.GoName(), v.Method)
	fmt.Fprintf(&b, "func (o *%s) %s(%s)%s {\n", d.Name, v.GoName(), decl, resultList(v.Results))
	b.WriteString("\tself := o.Base().Self()\n")
	if len(v.Results) > 0 {
		fmt.Fprintf(&b, "\treturn %s\n}\n", call)
	} else {
		fmt.Fprintf(&b, "\t%s\n}\n", call)
	}
	return b.String()
}
