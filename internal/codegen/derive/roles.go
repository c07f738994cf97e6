package derive

import (
	"github.com/Alia5/gobjgen/internal/codegen/diag"
	"github.com/Alia5/gobjgen/internal/codegen/meta"
	"github.com/Alia5/gobjgen/internal/codegen/scanner"
)

var methodRoles = map[string]meta.Role{
	"signal":      meta.RoleSignal,
	"virtual":     meta.RoleVirtual,
	"constructor": meta.RoleConstructor,
	"accessor":    meta.RoleAccessor,
}

var lifecycleNames = map[string]bool{"init": true, "constructed": true, "dispose": true}

// Collections converts scanned method collections and assigns every method
// exactly one role. A method with several role directives keeps the first.
// Wrapper-mode methods are always plain.
func Collections(ctx *Context, cols []*scanner.Collection, mode meta.CollectionMode, diags *diag.List) []*meta.Collection {
	out := make([]*meta.Collection, 0, len(cols))
	for _, c := range cols {
		mc := &meta.Collection{Receiver: c.Receiver, File: c.File, Mode: mode}
		for _, m := range c.Methods {
			mc.Methods = append(mc.Methods, classify(ctx, m, mode, diags))
		}
		out = append(out, mc)
	}
	return out
}

func classify(ctx *Context, m *scanner.Method, mode meta.CollectionMode, diags *diag.List) *meta.Method {
	mm := &meta.Method{
		Name:       m.Name,
		Params:     m.Params,
		Results:    m.Results,
		Directives: m.Directives,
		Range:      m.NameRange,
	}
	lifecycle := mode == meta.ModeSubclass && lifecycleNames[m.Name]
	if lifecycle {
		mm.Role = meta.RoleLifecycle
	}

	for i := range m.Directives {
		d := &m.Directives[i]
		if d.Prefix != scanner.TagKey {
			continue
		}
		role, known := methodRoles[d.Role]
		switch {
		case !known:
			diags.Errorf(diag.UnknownOption, d.Range, "Unknown directive",
				"gobject:%s cannot be used on a method; expected one of signal, virtual, constructor or accessor.", d.Role)
		case mode == meta.ModeWrapper:
			diags.Errorf(diag.DisallowedCombination, d.Range, "Role tag on wrapper method",
				"%s is declared on %s; gobject:%s methods belong on %s.", m.Name, ctx.Wrapper, d.Role, ctx.Struct)
		case lifecycle:
			diags.Errorf(diag.DuplicateRoleTag, d.Range, "Duplicate role",
				"%s is a lifecycle hook and cannot also be a %s.", m.Name, d.Role)
		case mm.Tag != nil:
			diags.Errorf(diag.DuplicateRoleTag, d.Range, "Duplicate role",
				"%s is already a %s; a method plays one role only.", m.Name, mm.Role)
		default:
			mm.Role = role
			mm.Tag = d
		}
	}
	return mm
}

// fieldTag returns the single property tag of a field: the struct tag or a
// gobject:property directive. Further tags are reported.
func fieldTag(f *scanner.Field, diags *diag.List) (*scanner.Directive, bool) {
	var tag *scanner.Directive
	if f.HasTag {
		tag = &scanner.Directive{Prefix: scanner.TagKey, Role: "property", Args: f.Tag, Range: f.Tag.Range}
	}
	for i := range f.Directives {
		d := &f.Directives[i]
		if d.Prefix != scanner.TagKey {
			continue
		}
		if d.Role != "property" {
			diags.Errorf(diag.UnknownOption, d.Range, "Unknown directive",
				"gobject:%s cannot be used on a field; expected a gobject struct tag or gobject:property.", d.Role)
			continue
		}
		if tag != nil {
			diags.Errorf(diag.DuplicateRoleTag, d.Range, "Duplicate role",
				"Field %s already carries a property tag.", f.Name)
			continue
		}
		tag = d
	}
	return tag, tag != nil
}
