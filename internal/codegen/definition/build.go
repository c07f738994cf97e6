package definition

import (
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"

	"github.com/Alia5/gobjgen/internal/codegen/common"
	"github.com/Alia5/gobjgen/internal/codegen/diag"
	"github.com/Alia5/gobjgen/internal/codegen/meta"
)

// objectMembers are the methods every wrapper inherits from gobject.Object.
var objectMembers = map[string]bool{
	"Base": true, "Type": true, "Self": true, "IsConstructing": true, "Dispose": true,
	"SetProperty": true, "Property": true, "Notify": true, "ConnectNotify": true,
	"SetData": true, "Data": true, "Connect": true, "ConnectAfter": true,
	"Disconnect": true, "Block": true, "Unblock": true, "HandlerCount": true, "Emit": true,
}

// Build applies the top-level options of a and validates the invariants
// that span several members.
func Build(a *Assembly, diags *diag.List) *meta.ClassDefinition {
	def, opts := a.Def, a.Options
	c := &meta.ClassDefinition{
		TypeDefinition: def,
		Namespace:      opts.String("ns"),
		Wrapper:        true,
	}
	if c.Namespace == "" {
		c.Namespace = common.ToPascalCase(def.Package)
	}
	c.TypeName = c.Namespace + def.Name
	if v := opts.Get("wrapper"); v != nil {
		c.Wrapper = v.Bool
	}

	if def.BaseKind == meta.Interface {
		buildInterface(a, diags)
	} else {
		buildClass(a, c, diags)
	}
	if def.Pod {
		for _, s := range def.Signals {
			diags.Errorf(diag.DisallowedCombination, s.Range, "Signal on pod type",
				"Pod types have no behavior; signal %q is not allowed.", s.Name)
		}
		for _, v := range def.Virtuals {
			diags.Errorf(diag.DisallowedCombination, v.Range, "Virtual method on pod type",
				"Pod types have no behavior; virtual method %s is not allowed.", v.Method)
		}
	}
	checkImplements(def, diags)

	if def.BaseKind != meta.Interface && !def.Final {
		c.ExtTrait = def.Name + "Ext"
		if v := opts.Get("ext_trait"); v != nil {
			switch {
			case !v.Bool:
				c.ExtTrait = ""
			case v.Str != "":
				c.ExtTrait = v.Str
			}
		}
	} else if v := opts.Get("ext_trait"); v != nil && v.Bool {
		diags.Errorf(diag.DisallowedCombination, v.KeyRange, "Extension trait not allowed",
			"%s is final or an interface and has no extension trait.", def.Name)
	}

	checkGeneratedNames(c, diags)
	return c
}

func buildClass(a *Assembly, c *meta.ClassDefinition, diags *diag.List) {
	def, opts := a.Def, a.Options
	if len(def.Extends) > 1 {
		for _, p := range def.Extends[1:] {
			diags.Errorf(diag.DisallowedCombination, p.Range, "Multiple parents",
				"Classes extend a single parent; %s is already the parent of %s.", def.Extends[0].String(), def.Name)
		}
	}
	if len(def.Extends) > 0 {
		c.Parent = &def.Extends[0]
	}
	diag.OnlyOneOf(diags, opts.Flag("final"), opts.Flag("abstract"))
	if def.Final && def.Abstract {
		def.Abstract = false
	}

	for _, p := range def.Properties {
		switch {
		case !p.Abstract:
		case def.Final:
			diags.Errorf(diag.DisallowedCombination, p.Range, "abstract property on final type",
				"Property %q is abstract, but %s is final and can never have a descendant that implements it.",
				p.Name, def.Name)
		case !def.Abstract:
			diags.Errorf(diag.DisallowedCombination, p.Range, "abstract property on concrete type",
				"Property %q is abstract, but %s can be instantiated; mark %s abstract.",
				p.Name, def.Name, def.Name)
		}
	}
	if def.Final {
		for _, v := range def.Virtuals {
			if !v.Override && v.OverrideIface == nil {
				diags.Errorf(diag.DisallowedCombination, v.Range, "Virtual method on final type",
					"%s is final, so virtual method %s could never be overridden.", def.Name, v.Method)
			}
		}
	}
	if def.Abstract {
		for _, ctor := range def.Constructors {
			diags.Errorf(diag.DisallowedCombination, ctor.Range, "Constructor on abstract type",
				"%s is abstract and cannot be instantiated by %s.", def.Name, ctor.Name)
		}
	}

	safe := threadSafe(def)
	c.Concurrent = safe
	if v := opts.Get("concurrent"); v != nil && v.Bool && !safe {
		diags.Errorf(diag.DisallowedCombination, v.KeyRange, "Type is not concurrency safe",
			"%s keeps state in %s, which is not safe for concurrent use; use Synced, OnceCell, WeakRef or Computed storage.",
			def.Name, unsafeField(def))
	}
}

func buildInterface(a *Assembly, diags *diag.List) {
	def, opts := a.Def, a.Options
	diag.Disallow(diags, "on interfaces",
		opts.Flag("final"), opts.Flag("abstract"), opts.Flag("pod"), opts.Flag("implements"), opts.Flag("concurrent"))
	def.Final, def.Abstract, def.Pod, def.Implements = false, false, false, nil

	for _, p := range def.Properties {
		if p.Storage != meta.StorageComputed {
			diags.Errorf(diag.TypeShapeMismatch, p.Range, "Interface property with storage",
				"Interfaces have no instance storage; declare property %q as gobject.Computed[%s].", p.Name, p.ValueType)
		}
	}
	for _, ctor := range def.Constructors {
		diags.Errorf(diag.DisallowedCombination, ctor.Range, "Constructor on interface",
			"Interface %s cannot be instantiated by %s.", def.Name, ctor.Name)
	}
	for _, m := range []string{def.Lifecycle.Init, def.Lifecycle.Constructed, def.Lifecycle.Dispose} {
		if m == "" {
			continue
		}
		diags.Errorf(diag.DisallowedCombination, def.Range, "Lifecycle hook on interface",
			"Interface %s has no instances, so %s is never called.", def.Name, m)
	}
}

// checkImplements requires a member overriding each implemented interface.
func checkImplements(def *meta.TypeDefinition, diags *diag.List) {
	for _, iface := range def.Implements {
		found := false
		for _, p := range def.Properties {
			if p.OverrideIface != nil && p.OverrideIface.String() == iface.String() {
				found = true
			}
		}
		for _, v := range def.Virtuals {
			if v.OverrideIface != nil && v.OverrideIface.String() == iface.String() {
				found = true
			}
		}
		if !found {
			diags.Errorf(diag.UnmetCapability, iface.Range, "Unmet capability",
				"%s implements %s but no property or virtual method declares override_iface=%s.",
				def.Name, iface.String(), iface.String())
		}
	}
}

func threadSafe(def *meta.TypeDefinition) bool {
	return unsafeField(def) == ""
}

// unsafeField names the first field whose storage is not safe for concurrent
// use, or "".
func unsafeField(def *meta.TypeDefinition) string {
	for _, f := range def.Fields {
		if f.Property != nil {
			if !f.Property.Storage.ThreadSafe() {
				return f.Name
			}
			continue
		}
		if !strings.HasPrefix(f.Type, "sync.") && !strings.HasPrefix(f.Type, "atomic.") &&
			!strings.HasPrefix(f.Type, "*sync.") {
			return f.Name
		}
	}
	return ""
}

// checkGeneratedNames reports wrapper methods that would collide with each
// other or with the methods of gobject.Object.
func checkGeneratedNames(c *meta.ClassDefinition, diags *diag.List) {
	taken := map[string]string{meta.AsMethod(c.Name): "the type itself"}
	claim := func(name, owner string, rng hcl.Range) {
		if objectMembers[name] {
			diags.Errorf(diag.DuplicateName, rng, "Reserved name",
				"%s would generate method %s, which gobject.Object already defines.", owner, name)
			return
		}
		if prev, dup := taken[name]; dup {
			diags.Errorf(diag.DuplicateName, rng, "Name collision",
				"%s and %s both define method %s.", prev, owner, name)
			return
		}
		taken[name] = owner
	}

	for _, p := range c.Properties {
		owner := "property " + strconv.Quote(p.Name)
		if p.Get {
			claim(p.GoName(), owner, p.Range)
		}
		if p.Set && !p.ConstructOnly {
			claim("Set"+p.GoName(), owner, p.Range)
		}
		if c.BaseKind != meta.Interface {
			claim("Notify"+p.GoName(), owner, p.Range)
			claim("Connect"+p.GoName()+"Notify", owner, p.Range)
		}
	}
	for _, s := range c.Signals {
		if s.Override {
			continue
		}
		owner := "signal " + strconv.Quote(s.Name)
		claim("Connect"+s.GoName(), owner, s.Range)
		if s.Action {
			claim("Emit"+s.GoName(), owner, s.Range)
		}
	}
	for _, v := range c.Virtuals {
		if v.Override || v.OverrideIface != nil {
			continue
		}
		claim(v.GoName(), "virtual method "+v.Method, v.Range)
	}
	for _, col := range c.CollectionsByMode(meta.ModeWrapper) {
		for _, m := range col.Methods {
			claim(m.Name, "method "+c.Name+"."+m.Name, m.Range)
		}
	}
}
