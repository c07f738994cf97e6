// Package definition assembles derived members into a TypeDefinition and
// builds the public shape of the class or interface from it.
package definition

import (
	"go/token"
	"strings"

	"github.com/Alia5/gobjgen/internal/codegen/attr"
	"github.com/Alia5/gobjgen/internal/codegen/common"
	"github.com/Alia5/gobjgen/internal/codegen/derive"
	"github.com/Alia5/gobjgen/internal/codegen/diag"
	"github.com/Alia5/gobjgen/internal/codegen/meta"
	"github.com/Alia5/gobjgen/internal/codegen/scanner"
)

// TypeSchema lists the options of //gobject:class, interface and element.
var TypeSchema = attr.Schema{
	Context: "type",
	Options: []attr.Option{
		{Name: "name", Kind: attr.Ident},
		{Name: "ns", Kind: attr.Ident},
		{Name: "ext_trait", Kind: attr.NameOrFalse},
		{Name: "pod", Kind: attr.Bool},
		{Name: "wrapper", Kind: attr.Bool},
		{Name: "final", Kind: attr.Bool},
		{Name: "abstract", Kind: attr.Bool},
		{Name: "concurrent", Kind: attr.Bool},
		{Name: "extends", Kind: attr.PathList},
		{Name: "implements", Kind: attr.PathList},
	},
}

var baseKinds = map[string]meta.BaseKind{
	"class":     meta.Class,
	"interface": meta.Interface,
	"element":   meta.Element,
}

// Assembly is an assembled type together with its top-level options, which
// the builder applies.
type Assembly struct {
	Def     *meta.TypeDefinition
	Options *attr.Values
	Tag     scanner.Directive
}

// Assemble runs the derivers over u and combines their output.
func Assemble(u *scanner.Unit, diags *diag.List) *Assembly {
	tag, kind := typeTag(u, diags)
	opts := attr.Parse(tag.Args, TypeSchema, diags)

	def := &meta.TypeDefinition{
		Struct:     u.Struct,
		Package:    u.Package,
		File:       u.File,
		BaseKind:   kind,
		Extends:    opts.Paths("extends"),
		Implements: opts.Paths("implements"),
		Final:      opts.On("final"),
		Abstract:   opts.On("abstract"),
		Pod:        opts.On("pod"),
		Directives: u.Directives,
		Imports:    u.Imports,
		Range:      u.Range,
	}
	def.Name = resolveName(u, opts, diags)

	ctx := &derive.Context{
		Struct:  u.Struct,
		Wrapper: def.Name,
		Kind:    kind,
		Pod:     def.Pod,
		Imports: u.Imports,
	}
	sub := derive.Collections(ctx, u.Collections(u.Struct), meta.ModeSubclass, diags)
	var wrap []*meta.Collection
	if def.Name != "" {
		wrap = derive.Collections(ctx, u.Collections(def.Name), meta.ModeWrapper, diags)
	}
	def.Collections = append(sub, wrap...)

	def.Fields, def.Properties = derive.Properties(ctx, u.Fields, diags)
	def.Signals = derive.Signals(ctx, sub, diags)
	def.Virtuals = derive.Virtuals(ctx, sub, diags)
	def.Accessors = derive.Accessors(ctx, sub, def.Properties, diags)
	def.Constructors = derive.Constructors(ctx, sub, def.Properties, diags)
	def.Lifecycle = derive.Lifecycle(ctx, sub, diags)
	return &Assembly{Def: def, Options: opts, Tag: tag}
}

// typeTag picks the type directive. A second one is a duplicate role; other
// gobject directives do not belong on a type.
func typeTag(u *scanner.Unit, diags *diag.List) (scanner.Directive, meta.BaseKind) {
	var tag *scanner.Directive
	kind := meta.Class
	for i := range u.Directives {
		d := &u.Directives[i]
		if d.Prefix != scanner.TagKey {
			continue
		}
		k, ok := baseKinds[d.Role]
		switch {
		case !ok:
			diags.Errorf(diag.UnknownOption, d.Range, "Unknown directive",
				"gobject:%s cannot be used on a type; expected class, interface or element.", d.Role)
		case tag != nil:
			diags.Errorf(diag.DuplicateRoleTag, d.Range, "Duplicate role",
				"%s is already declared as gobject:%s.", u.Struct, tag.Role)
		default:
			tag, kind = d, k
		}
	}
	if tag == nil {
		// the scanner only yields units with a type directive
		return scanner.Directive{Args: attr.Source{Range: u.Range}, Range: u.Range}, kind
	}
	return *tag, kind
}

var nameSuffixes = []string{"Private", "Impl", "Imp"}

// reservedStructNames reduce to nothing once the suffix is gone.
var reservedStructNames = map[string]bool{"imp": true, "impl": true, "private": true}

// resolveName takes the explicit name option, else infers the name from the
// struct identifier: counterImpl, counterPrivate, counterImp and counter all
// give Counter.
func resolveName(u *scanner.Unit, opts *attr.Values, diags *diag.List) string {
	if v := opts.Get("name"); v != nil {
		switch {
		case !token.IsExported(v.Str):
			diags.Errorf(diag.MissingName, v.Range, "Unusable name",
				"Type name %q must be an exported identifier.", v.Str)
		case v.Str == u.Struct:
			diags.Errorf(diag.MissingName, v.Range, "Unusable name",
				"Type name %q collides with the implementation struct.", v.Str)
		default:
			return v.Str
		}
		return ""
	}

	base := u.Struct
	for _, suffix := range nameSuffixes {
		if trimmed, ok := strings.CutSuffix(base, suffix); ok {
			base = trimmed
			break
		}
	}
	name := common.Exported(base)
	switch {
	case base == "" || reservedStructNames[strings.ToLower(u.Struct)]:
		diags.Errorf(diag.MissingName, u.Range, "No usable name",
			"No type name can be inferred from %s; add name=... to the type directive.", u.Struct)
	case name == u.Struct:
		diags.Errorf(diag.MissingName, u.Range, "No usable name",
			"The inferred type name %s collides with the implementation struct; rename it, e.g. to %sImpl, or add name=... .",
			name, common.Unexported(name))
	default:
		return name
	}
	return ""
}
