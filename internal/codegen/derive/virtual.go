package derive

import (
	"github.com/Alia5/gobjgen/internal/codegen/attr"
	"github.com/Alia5/gobjgen/internal/codegen/diag"
	"github.com/Alia5/gobjgen/internal/codegen/meta"
)

// VirtualSchema lists the options of //gobject:virtual.
var VirtualSchema = attr.Schema{
	Context: "virtual method",
	Options: []attr.Option{
		{Name: "override", Kind: attr.Flag},
		{Name: "override_iface", Kind: attr.TypePath},
	},
}

// Virtuals derives the virtual-tagged methods of every collection. A second
// definition of a name is reported and dropped.
func Virtuals(ctx *Context, cols []*meta.Collection, diags *diag.List) []*meta.VirtualMethodDefinition {
	var out []*meta.VirtualMethodDefinition
	seen := make(map[string]*meta.VirtualMethodDefinition)
	for _, c := range cols {
		for _, m := range c.Methods {
			if m.Role != meta.RoleVirtual {
				continue
			}
			v := attr.Parse(m.Tag.Args, VirtualSchema, diags)
			vm := &meta.VirtualMethodDefinition{
				Method:   m.Name,
				Override: v.On("override"),
				Results:  resultTypes(m.Results),
				Range:    m.Range,
			}
			if paths := v.Paths("override_iface"); len(paths) > 0 {
				vm.OverrideIface = &paths[0]
			}
			diag.OnlyOneOf(diags, v.Flag("override"), v.Flag("override_iface"))
			vm.Receiver, vm.Params = ctx.signature(m.Params, "virtual method", m.Range, diags)

			key := vm.Method
			if vm.OverrideIface != nil {
				key = vm.OverrideIface.String() + "." + key
			}
			if prev, dup := seen[key]; dup {
				diags.Errorf(diag.DuplicateName, vm.Range, "Duplicate virtual method",
					"Virtual method %s is already defined in %s; the first definition is kept.", vm.Method, fileOf(prev))
				continue
			}
			seen[key] = vm
			out = append(out, vm)
		}
	}
	return out
}

func fileOf(v *meta.VirtualMethodDefinition) string {
	if v.Range.Filename == "" {
		return "this type"
	}
	return v.Range.Filename
}
