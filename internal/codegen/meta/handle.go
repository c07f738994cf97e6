package meta

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"

	"github.com/Alia5/gobjgen/internal/codegen/diag"
	"github.com/Alia5/gobjgen/internal/codegen/scanner"
)

// Handle is the capability an extension hook receives. It can read the
// definition, append generated statements, wrap method collections and
// report diagnostics. It cannot rename the type or drop derived members.
type Handle struct {
	def   *ClassDefinition
	diags *diag.List
}

// NewHandle grants a hook access to def.
func NewHandle(def *ClassDefinition, diags *diag.List) *Handle {
	return &Handle{def: def, diags: diags}
}

func (h *Handle) Name() string { return h.def.Name }

// TypeName is the registered type name including the namespace.
func (h *Handle) TypeName() string { return h.def.TypeName }

func (h *Handle) BaseKind() BaseKind { return h.def.BaseKind }

// TypeVar is the package-level variable holding the registered type, usable
// in package_init statements.
func (h *Handle) TypeVar() string { return TypeVar(h.def.Name) }

// Range is the location of the type declaration.
func (h *Handle) Range() hcl.Range { return h.def.Range }

// CollectionView is a read-only view of a method collection.
type CollectionView struct {
	Index    int
	Receiver string
	File     string
	Mode     CollectionMode
	Methods  []Method
}

// Collections returns the collections declared in mode. Index identifies a
// collection for WrapCollection.
func (h *Handle) Collections(mode CollectionMode) []CollectionView {
	var out []CollectionView
	for i, c := range h.def.Collections {
		if c.Mode != mode {
			continue
		}
		v := CollectionView{Index: i, Receiver: c.Receiver, File: c.File, Mode: c.Mode}
		for _, m := range c.Methods {
			v.Methods = append(v.Methods, *m)
		}
		out = append(out, v)
	}
	return out
}

// Fields returns copies of the implementation struct fields.
func (h *Handle) Fields() []Field {
	out := make([]Field, 0, len(h.def.Fields))
	for _, f := range h.def.Fields {
		out = append(out, Field{Name: f.Name, Type: f.Type, Tags: f.Tags, Range: f.Range})
	}
	return out
}

// Directives returns the type-level directives with the given prefix, e.g.
// "template" for //template:resource.
func (h *Handle) Directives(prefix string) []scanner.Directive {
	var out []scanner.Directive
	for _, d := range h.def.Directives {
		if d.Prefix == prefix {
			out = append(out, d)
		}
	}
	return out
}

// AppendStatement adds Go statements to a lifecycle phase. In class_init the
// registered type is t; in instance_init the wrapper is o and the outermost
// instance inst.
func (h *Handle) AppendStatement(phase Phase, stmt string) error {
	switch phase {
	case PhaseClassInit, PhaseInstanceInit, PhasePackageInit:
	default:
		return fmt.Errorf("unknown lifecycle phase %q", phase)
	}
	if h.def.BaseKind == Interface && phase == PhaseInstanceInit {
		return fmt.Errorf("interfaces have no instance_init phase")
	}
	if h.def.Statements == nil {
		h.def.Statements = make(map[Phase][]string)
	}
	h.def.Statements[phase] = append(h.def.Statements[phase], strings.TrimSpace(stmt))
	return nil
}

// WrapCollection surrounds the generated method table of a collection with
// open and close. The table is emitted in package_init; each entry has the
// form "name": (*Receiver).name, and together they form a composite literal
// body.
func (h *Handle) WrapCollection(index int, open, close string) error {
	if index < 0 || index >= len(h.def.Collections) {
		return fmt.Errorf("no method collection %d", index)
	}
	c := h.def.Collections[index]
	if c.Open != "" {
		return fmt.Errorf("collection %s in %s is already wrapped", c.Receiver, c.File)
	}
	c.Open, c.Close = open, close
	return nil
}

// Errorf reports a diagnostic at rng on behalf of the hook.
func (h *Handle) Errorf(rng hcl.Range, summary, format string, args ...any) {
	h.diags.Errorf(diag.ExtensionHook, rng, summary, format, args...)
}

// Diagnostics gives hooks access to the shared list, e.g. for attr.Parse.
func (h *Handle) Diagnostics() *diag.List { return h.diags }
