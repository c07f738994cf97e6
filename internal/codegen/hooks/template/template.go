// Package template binds composite UI templates to classes. A class names its
// template with
//
//	//template:resource path="/org/example/window.ui"
//
// marks child widgets with a `template:"id"` struct tag and opts method
// collections into callback binding with //template:callback on any of their
// methods. The bindings end up as type data the toolkit reads at class init.
package template

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Alia5/gobjgen/internal/codegen/attr"
	"github.com/Alia5/gobjgen/internal/codegen/common"
	"github.com/Alia5/gobjgen/internal/codegen/diag"
	"github.com/Alia5/gobjgen/internal/codegen/hooks"
	"github.com/Alia5/gobjgen/internal/codegen/meta"
	"github.com/Alia5/gobjgen/internal/codegen/scanner"
)

const (
	prefix = "template"

	// Type data keys.
	ResourceKey  = "template.resource"
	StringKey    = "template.string"
	ChildrenKey  = "template.children"
	CallbacksKey = "template.callbacks"
)

var resourceSchema = attr.Schema{
	Context: "template resource",
	Options: []attr.Option{
		{Name: "path", Kind: attr.String},
		{Name: "string", Kind: attr.String},
	},
}

var callbackSchema = attr.Schema{Context: "template callback"}

type hook struct{}

func init() { hooks.Register(hook{}) }

func (hook) Name() string { return "template" }

func (hook) Apply(h *meta.Handle) {
	var resources []scanner.Directive
	for _, d := range h.Directives(prefix) {
		if d.Role != "resource" {
			h.Errorf(d.Range, "Unknown template directive",
				"//template:%s is not a type directive; expected //template:resource.", d.Role)
			continue
		}
		resources = append(resources, d)
	}
	children := childNames(h)
	callbacks := callbackCollections(h)

	if len(resources) == 0 {
		if len(children) > 0 || len(callbacks) > 0 {
			h.Errorf(h.Range(), "Template bindings without template",
				"%s binds template children or callbacks but has no //template:resource directive.", h.Name())
		}
		return
	}
	if h.BaseKind() == meta.Interface {
		h.Errorf(resources[0].Range, "Template on interface",
			"Interface %s has no instances to build from a template.", h.Name())
		return
	}
	for _, d := range resources[1:] {
		h.Errorf(d.Range, "Duplicate template", "%s already declares a template.", h.Name())
	}

	v := attr.Parse(resources[0].Args, resourceSchema, h.Diagnostics())
	diag.OnlyOneOf(h.Diagnostics(), v.Flag("path"), v.Flag("string"))
	switch {
	case v.Has("path"):
		appendStmt(h, meta.PhaseClassInit, fmt.Sprintf("t.SetData(%q, %q)", ResourceKey, v.String("path")))
	case v.Has("string"):
		appendStmt(h, meta.PhaseClassInit, fmt.Sprintf("t.SetData(%q, %q)", StringKey, v.String("string")))
	default:
		h.Errorf(resources[0].Range, "Template without source",
			"//template:resource needs path=\"...\" or string=\"...\".")
	}

	if len(children) > 0 {
		quoted := make([]string, len(children))
		for i, c := range children {
			quoted[i] = fmt.Sprintf("%q", c)
		}
		appendStmt(h, meta.PhaseClassInit,
			fmt.Sprintf("t.SetData(%q, []string{%s})", ChildrenKey, strings.Join(quoted, ", ")))
	}

	for _, c := range callbacks {
		key := CallbacksKey + ":" + filepath.Base(c.File)
		open := fmt.Sprintf("%s.SetData(%q, map[string]any{", h.TypeVar(), key)
		if err := h.WrapCollection(c.Index, open, "})"); err != nil {
			h.Errorf(h.Range(), "Cannot bind callbacks", "%v", err)
		}
	}
}

func appendStmt(h *meta.Handle, phase meta.Phase, stmt string) {
	if err := h.AppendStatement(phase, stmt); err != nil {
		h.Errorf(h.Range(), "Cannot bind template", "%v", err)
	}
}

// childNames lists the template ids of fields tagged `template:"id"`; an empty
// id defaults to the kebab-case field name.
func childNames(h *meta.Handle) []string {
	var out []string
	seen := make(map[string]bool)
	for _, f := range h.Fields() {
		id, ok := f.Tags.Lookup(prefix)
		if !ok {
			continue
		}
		if id == "" {
			id = common.ToKebabCase(f.Name)
		}
		if seen[id] {
			h.Errorf(f.Range, "Duplicate template child", "Template child %q is bound twice.", id)
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// callbackCollections returns the implementation-side collections that hold a
// //template:callback method. Callbacks on the wrapper are reported.
func callbackCollections(h *meta.Handle) []meta.CollectionView {
	var out []meta.CollectionView
	for _, c := range h.Collections(meta.ModeWrapper) {
		for _, m := range c.Methods {
			if d, ok := callbackDirective(m); ok {
				h.Errorf(d.Range, "Callback on wrapper",
					"Template callback %s must be declared on the implementation type.", m.Name)
			}
		}
	}
	for _, c := range h.Collections(meta.ModeSubclass) {
		bound := false
		for _, m := range c.Methods {
			d, ok := callbackDirective(m)
			if !ok {
				continue
			}
			attr.Parse(d.Args, callbackSchema, h.Diagnostics())
			if m.Role != meta.RolePlain {
				h.Errorf(d.Range, "Callback has another role",
					"Method %s is a %s and cannot be a template callback.", m.Name, m.Role)
				continue
			}
			bound = true
		}
		if bound {
			out = append(out, c)
		}
	}
	return out
}

func callbackDirective(m meta.Method) (scanner.Directive, bool) {
	for _, d := range m.Directives {
		if d.Is(prefix, "callback") {
			return d, true
		}
	}
	return scanner.Directive{}, false
}
