package derive

import (
	"github.com/Alia5/gobjgen/internal/codegen/attr"
	"github.com/Alia5/gobjgen/internal/codegen/common"
	"github.com/Alia5/gobjgen/internal/codegen/diag"
	"github.com/Alia5/gobjgen/internal/codegen/meta"
)

// ConstructorSchema lists the options of //gobject:constructor.
var ConstructorSchema = attr.Schema{
	Context: "constructor",
	Options: []attr.Option{
		{Name: "name", Kind: attr.Ident},
		{Name: "infallible", Kind: attr.Flag},
		{Name: "fallible", Kind: attr.Flag},
	},
}

// AccessorSchema lists the options of //gobject:accessor.
var AccessorSchema = attr.Schema{
	Context: "accessor",
	Options: []attr.Option{
		{Name: "get", Kind: attr.String},
		{Name: "set", Kind: attr.String},
	},
}

// Constructors derives the constructor-tagged methods. Every parameter must
// name a property; the property receives the argument during construction.
func Constructors(ctx *Context, cols []*meta.Collection, props []*meta.PropertyDefinition, diags *diag.List) []*meta.ConstructorDefinition {
	var out []*meta.ConstructorDefinition
	seen := make(map[string]*meta.ConstructorDefinition)
	for _, c := range cols {
		for _, m := range c.Methods {
			if m.Role != meta.RoleConstructor {
				continue
			}
			v := attr.Parse(m.Tag.Args, ConstructorSchema, diags)
			ctor := &meta.ConstructorDefinition{Method: m.Name, Name: v.String("name"), Range: m.Range}
			if ctor.Name == "" {
				ctor.Name = constructorName(ctx.Wrapper, m.Name)
			}

			recv, params := ctx.signature(m.Params, "constructor", m.Range, diags)
			if recv {
				diags.Errorf(diag.DisallowedCombination, m.Range, "Constructor receiver",
					"Constructor %s runs on the new instance and cannot take %s.", m.Name, ctx.receiverType())
			}
			for _, p := range params {
				if findProperty(props, p.Name) == nil {
					diags.Errorf(diag.UnresolvedReference, m.Range, "Unknown property",
						"Constructor parameter %s does not name a property of %s.", p.Name, ctx.Wrapper)
				}
			}
			ctor.Params = params

			switch {
			case len(m.Results) == 0:
			case len(m.Results) == 1 && m.Results[0].Type == "error":
				ctor.Fallible = true
			default:
				diags.Errorf(diag.TypeShapeMismatch, m.Range, "Constructor results",
					"Constructor %s may only return an error.", m.Name)
			}
			diag.OnlyOneOf(diags, v.Flag("infallible"), v.Flag("fallible"))
			if v.On("fallible") && !ctor.Fallible {
				diags.Errorf(diag.DisallowedCombination, v.Get("fallible").KeyRange, "Fallibility mismatch",
					"Constructor %s is marked fallible but does not return an error.", m.Name)
			}
			if v.On("infallible") && ctor.Fallible {
				diags.Errorf(diag.DisallowedCombination, v.Get("infallible").KeyRange, "Fallibility mismatch",
					"Constructor %s is marked infallible but returns an error.", m.Name)
			}

			if prev, dup := seen[ctor.Name]; dup {
				diags.Errorf(diag.DuplicateName, m.Range, "Duplicate constructor",
					"%s is already generated for method %s.", ctor.Name, prev.Method)
				continue
			}
			seen[ctor.Name] = ctor
			out = append(out, ctor)
		}
	}
	return out
}

// constructorName maps method new to NewCounter and any other method m to
// NewCounterM.
func constructorName(wrapper, method string) string {
	if method == "new" {
		return "New" + wrapper
	}
	return "New" + wrapper + common.Exported(method)
}

// Accessors derives custom getters and setters and links them to their
// properties.
func Accessors(ctx *Context, cols []*meta.Collection, props []*meta.PropertyDefinition, diags *diag.List) []*meta.AccessorDefinition {
	var out []*meta.AccessorDefinition
	for _, c := range cols {
		for _, m := range c.Methods {
			if m.Role != meta.RoleAccessor {
				continue
			}
			if a := deriveAccessor(ctx, m, props, diags); a != nil {
				out = append(out, a)
			}
		}
	}
	for _, p := range props {
		// interface properties are implemented by the classes
		if p.Storage != meta.StorageComputed || p.Abstract || ctx.Kind == meta.Interface {
			continue
		}
		if p.Get && p.Getter == "" {
			diags.Errorf(diag.UnresolvedReference, p.Range, "Missing getter",
				"Computed property %q has no storage and needs a method tagged gobject:accessor get=%s.", p.Name, p.Name)
		}
		if p.Set && p.Setter == "" {
			diags.Errorf(diag.UnresolvedReference, p.Range, "Missing setter",
				"Computed property %q has no storage and needs a method tagged gobject:accessor set=%s.", p.Name, p.Name)
		}
	}
	return out
}

func deriveAccessor(ctx *Context, m *meta.Method, props []*meta.PropertyDefinition, diags *diag.List) *meta.AccessorDefinition {
	v := attr.Parse(m.Tag.Args, AccessorSchema, diags)
	if !diag.OnlyOneOf(diags, v.Flag("get"), v.Flag("set")) {
		return nil
	}
	setter := v.Has("set")
	ref := v.Get("get")
	if setter {
		ref = v.Get("set")
	}
	if ref == nil {
		diags.Errorf(diag.MalformedAttribute, m.Tag.Range, "Missing property",
			"Accessor %s needs get=<property> or set=<property>.", m.Name)
		return nil
	}
	p := findProperty(props, ref.Str)
	if p == nil {
		diags.Errorf(diag.UnresolvedReference, ref.Range, "Unknown property",
			"Accessor %s refers to %q, which is not a property of %s.", m.Name, ref.Str, ctx.Wrapper)
		return nil
	}
	a := &meta.AccessorDefinition{Method: m.Name, Property: p.Name, Setter: setter, Range: m.Range}

	recv, params := ctx.signature(m.Params, "accessor", m.Range, diags)
	if recv {
		diags.Errorf(diag.DisallowedCombination, m.Range, "Accessor receiver",
			"Accessor %s cannot take %s.", m.Name, ctx.receiverType())
	}
	goType := p.GoType()
	if !setter {
		if !p.Get {
			diags.Errorf(diag.DisallowedCombination, ref.Range, "Property not readable",
				"Property %q has no get access, so it cannot have a getter.", p.Name)
		}
		if len(params) != 0 || len(m.Results) != 1 || m.Results[0].Type != goType {
			diags.Errorf(diag.TypeShapeMismatch, m.Range, "Getter shape",
				"Getter %s of %q must have the shape func() %s.", m.Name, p.Name, goType)
		}
		if p.Getter != "" {
			diags.Errorf(diag.DuplicateName, m.Range, "Duplicate getter",
				"Property %q already has getter %s.", p.Name, p.Getter)
			return nil
		}
		p.Getter = m.Name
		return a
	}

	if !p.Set {
		diags.Errorf(diag.DisallowedCombination, ref.Range, "Property not writable",
			"Property %q has no set access, so it cannot have a setter.", p.Name)
	}
	switch {
	case len(m.Results) == 1 && m.Results[0].Type == "error":
		a.Fallible = true
	case len(m.Results) != 0:
		diags.Errorf(diag.TypeShapeMismatch, m.Range, "Setter results",
			"Setter %s may only return an error.", m.Name)
	}
	if len(params) != 1 || params[0].Type != p.ValueType {
		diags.Errorf(diag.TypeShapeMismatch, m.Range, "Setter shape",
			"Setter %s of %q must take a single %s.", m.Name, p.Name, p.ValueType)
	}
	if p.Setter != "" {
		diags.Errorf(diag.DuplicateName, m.Range, "Duplicate setter",
			"Property %q already has setter %s.", p.Name, p.Setter)
		return nil
	}
	p.Setter, p.SetterFallible = m.Name, a.Fallible
	return a
}

// Lifecycle locates the init, constructed and dispose hooks.
func Lifecycle(ctx *Context, cols []*meta.Collection, diags *diag.List) meta.Lifecycle {
	var lc meta.Lifecycle
	for _, c := range cols {
		for _, m := range c.Methods {
			if m.Role != meta.RoleLifecycle {
				continue
			}
			recv, params := ctx.signature(m.Params, "lifecycle hook", m.Range, diags)
			if len(params) != 0 || len(m.Results) != 0 {
				diags.Errorf(diag.TypeShapeMismatch, m.Range, "Lifecycle hook shape",
					"%s must have the shape func() or func(o %s).", m.Name, ctx.receiverType())
				continue
			}
			switch m.Name {
			case "init":
				lc.Init, lc.InitReceiver = m.Name, recv
			case "constructed":
				lc.Constructed, lc.ConstructedReceiver = m.Name, recv
			case "dispose":
				lc.Dispose, lc.DisposeReceiver = m.Name, recv
			}
		}
	}
	return lc
}
