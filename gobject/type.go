package gobject

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Kind distinguishes instantiable classes from interfaces.
type Kind int

const (
	KindClass Kind = iota
	KindInterface
)

func (k Kind) String() string {
	if k == KindInterface {
		return "interface"
	}
	return "class"
}

// VirtualSlot is one vtable entry. Func must have the form
// func(Instance, args...) results. Iface is only set on overrides that
// implement a slot of an interface.
type VirtualSlot struct {
	Name  string
	Iface *Type
	Func  any
}

// SignalOverride replaces the class handler of an ancestor's signal.
type SignalOverride struct {
	Name    string
	Handler HandlerFunc
}

// TypeInfo describes a type at registration time.
type TypeInfo struct {
	Name string
	Kind Kind
	// Parent defaults to the GObject root type for classes.
	Parent *Type
	// Interfaces are the implemented interfaces of a class, or the
	// prerequisites of an interface.
	Interfaces []*Type

	Abstract bool
	Final    bool

	Properties      []*ParamSpec
	Signals         []*SignalSpec
	SignalOverrides []SignalOverride
	Virtuals        []VirtualSlot
	Overrides       []VirtualSlot

	ClassInit    func(t *Type)
	InstanceInit func(inst Instance)
	Constructed  func(inst Instance)
	Dispose      func(inst Instance)
}

// Type is a registered class or interface.
type Type struct {
	name     string
	kind     Kind
	parent   *Type
	ifaces   []*Type
	abstract bool
	final    bool

	props         []*ParamSpec
	signals       map[string]*SignalSpec
	classHandlers map[string]HandlerFunc
	vtable        map[string]any
	ifaceTables   map[*Type]map[string]any
	info          TypeInfo

	dataMu sync.RWMutex
	data   map[string]any
}

var (
	typeRegistry   = make(map[string]*Type)
	typeRegistryMu sync.RWMutex
)

var objectType *Type

func init() {
	objectType = Register(TypeInfo{
		Name: "GObject",
		Signals: []*SignalSpec{
			{Name: "notify", Flags: SignalRunFirst | SignalDetailed | SignalAction},
		},
	})
}

// ObjectType returns the root class.
func ObjectType() *Type { return objectType }

// Register adds a type to the process-wide registry. Registration errors are
// programming errors in generated or hand-written type code and panic.
func Register(info TypeInfo) *Type {
	if info.Name == "" {
		panic("gobject: type name must not be empty")
	}
	if info.Kind == KindClass && info.Parent == nil && objectType != nil {
		info.Parent = objectType
	}
	if info.Kind == KindInterface && info.Parent != nil {
		panic(fmt.Sprintf("gobject: interface %s cannot have a parent class", info.Name))
	}
	if info.Parent != nil {
		if info.Parent.kind != KindClass {
			panic(fmt.Sprintf("gobject: %s cannot derive from interface %s", info.Name, info.Parent.name))
		}
		if info.Parent.final {
			panic(fmt.Sprintf("gobject: %s cannot derive from final type %s", info.Name, info.Parent.name))
		}
	}
	for _, iface := range info.Interfaces {
		if iface == nil || iface.kind != KindInterface {
			panic(fmt.Sprintf("gobject: %s lists a non-interface type in Interfaces", info.Name))
		}
	}

	t := &Type{
		name:          info.Name,
		kind:          info.Kind,
		parent:        info.Parent,
		ifaces:        info.Interfaces,
		abstract:      info.Abstract,
		final:         info.Final,
		signals:       make(map[string]*SignalSpec),
		classHandlers: make(map[string]HandlerFunc),
		vtable:        make(map[string]any),
		ifaceTables:   make(map[*Type]map[string]any),
		info:          info,
		data:          make(map[string]any),
	}

	t.registerProperties(info.Properties)
	t.registerSignals(info.Signals, info.SignalOverrides)
	t.buildVTables(info.Virtuals, info.Overrides)
	if t.kind == KindClass && !t.abstract {
		t.checkObligations()
	}

	typeRegistryMu.Lock()
	if _, exists := typeRegistry[t.name]; exists {
		typeRegistryMu.Unlock()
		panic(fmt.Sprintf("gobject: type %s already registered", t.name))
	}
	typeRegistry[t.name] = t
	typeRegistryMu.Unlock()

	if info.ClassInit != nil {
		info.ClassInit(t)
	}
	return t
}

// TypeFromName looks up a registered type.
func TypeFromName(name string) *Type {
	typeRegistryMu.RLock()
	defer typeRegistryMu.RUnlock()
	return typeRegistry[name]
}

// RegisteredTypes returns the names of all registered types, sorted.
func RegisteredTypes() []string {
	typeRegistryMu.RLock()
	defer typeRegistryMu.RUnlock()
	names := make([]string, 0, len(typeRegistry))
	for name := range typeRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t *Type) registerProperties(props []*ParamSpec) {
	seen := make(map[string]bool, len(props))
	for i, p := range props {
		if seen[p.Name] {
			panic(fmt.Sprintf("gobject: %s declares property %q twice", t.name, p.Name))
		}
		seen[p.Name] = true
		inherited := t.inheritedProperty(p.Name)
		switch {
		case p.Flags.Has(ParamOverride) && inherited == nil:
			panic(fmt.Sprintf("gobject: %s overrides unknown property %q", t.name, p.Name))
		case !p.Flags.Has(ParamOverride) && inherited != nil && inherited.owner.kind == KindClass:
			panic(fmt.Sprintf("gobject: %s redeclares inherited property %q without override", t.name, p.Name))
		}
		p.owner = t
		p.index = i
		t.props = append(t.props, p)
	}
}

// inheritedProperty searches ancestors and interfaces, but not t itself.
func (t *Type) inheritedProperty(name string) *ParamSpec {
	for c := t.parent; c != nil; c = c.parent {
		if p := c.ownProperty(name); p != nil {
			return p
		}
	}
	for _, iface := range t.allInterfaces() {
		if p := iface.ownProperty(name); p != nil {
			return p
		}
	}
	return nil
}

func (t *Type) ownProperty(name string) *ParamSpec {
	for _, p := range t.props {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (t *Type) registerSignals(signals []*SignalSpec, overrides []SignalOverride) {
	for _, s := range signals {
		if s.Name == "" {
			panic(fmt.Sprintf("gobject: %s declares a signal without name", t.name))
		}
		if _, dup := t.signals[s.Name]; dup || (t.parent != nil && t.parent.FindSignal(s.Name) != nil) {
			panic(fmt.Sprintf("gobject: %s declares signal %q twice", t.name, s.Name))
		}
		s.owner = t
		t.signals[s.Name] = s
	}
	for _, o := range overrides {
		if t.parent == nil || t.parent.FindSignal(o.Name) == nil {
			panic(fmt.Sprintf("gobject: %s overrides unknown signal %q", t.name, o.Name))
		}
		t.classHandlers[o.Name] = o.Handler
	}
}

func (t *Type) buildVTables(virtuals, overrides []VirtualSlot) {
	if t.parent != nil {
		for name, f := range t.parent.vtable {
			t.vtable[name] = f
		}
		for iface, table := range t.parent.ifaceTables {
			t.ifaceTables[iface] = copyTable(table)
		}
	}
	for _, iface := range t.allInterfaces() {
		if _, ok := t.ifaceTables[iface]; !ok {
			t.ifaceTables[iface] = copyTable(iface.vtable)
		}
	}
	for _, v := range virtuals {
		if _, exists := t.vtable[v.Name]; exists {
			panic(fmt.Sprintf("gobject: %s redeclares virtual method %q without override", t.name, v.Name))
		}
		t.vtable[v.Name] = v.Func
	}
	for _, o := range overrides {
		table := t.vtable
		owner := "ancestors"
		if o.Iface != nil {
			var ok bool
			table, ok = t.ifaceTables[o.Iface]
			if !ok {
				panic(fmt.Sprintf("gobject: %s does not implement %s", t.name, o.Iface.name))
			}
			owner = o.Iface.name
		}
		prev, ok := table[o.Name]
		if !ok {
			panic(fmt.Sprintf("gobject: %s overrides virtual method %q unknown to %s", t.name, o.Name, owner))
		}
		if reflect.TypeOf(prev) != reflect.TypeOf(o.Func) {
			panic(fmt.Sprintf("gobject: %s overrides %q with %T, want %T", t.name, o.Name, o.Func, prev))
		}
		table[o.Name] = o.Func
	}
}

func copyTable(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// checkObligations verifies that a concrete class implements every abstract
// property of its ancestors and every property of its interfaces.
func (t *Type) checkObligations() {
	for c := t.parent; c != nil; c = c.parent {
		for _, p := range c.props {
			if !p.Flags.Has(ParamAbstract) {
				continue
			}
			if impl := t.FindProperty(p.Name); impl == nil || impl.Flags.Has(ParamAbstract) {
				panic(fmt.Sprintf("gobject: concrete type %s does not implement abstract property %s:%s", t.name, c.name, p.Name))
			}
		}
	}
	for _, iface := range t.allInterfaces() {
		for _, p := range iface.props {
			impl := t.FindProperty(p.Name)
			if impl == nil || impl.owner.kind == KindInterface {
				panic(fmt.Sprintf("gobject: %s does not implement property %q of %s", t.name, p.Name, iface.name))
			}
		}
	}
}

func (t *Type) Name() string { return t.name }

func (t *Type) Kind() Kind { return t.kind }

func (t *Type) Parent() *Type { return t.parent }

func (t *Type) IsAbstract() bool { return t.abstract }

func (t *Type) IsFinal() bool { return t.final }

func (t *Type) String() string { return t.name }

// Interfaces returns every interface t implements, including inherited ones.
func (t *Type) Interfaces() []*Type { return t.allInterfaces() }

// IsA reports whether t is other, derives from it or implements it.
func (t *Type) IsA(other *Type) bool {
	if other.kind == KindInterface {
		return t.Implements(other)
	}
	for c := t; c != nil; c = c.parent {
		if c == other {
			return true
		}
	}
	return false
}

// Implements reports whether t or an ancestor lists iface.
func (t *Type) Implements(iface *Type) bool {
	if t == iface {
		return true
	}
	for _, i := range t.allInterfaces() {
		if i == iface {
			return true
		}
	}
	return false
}

// allInterfaces returns the interfaces of t and its ancestors, including
// prerequisites, in first-seen order.
func (t *Type) allInterfaces() []*Type {
	var out []*Type
	seen := make(map[*Type]bool)
	var visit func(i *Type)
	visit = func(i *Type) {
		if seen[i] {
			return
		}
		seen[i] = true
		out = append(out, i)
		for _, pre := range i.ifaces {
			visit(pre)
		}
	}
	var chain []*Type
	for c := t; c != nil; c = c.parent {
		chain = append(chain, c)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		for _, iface := range chain[i].ifaces {
			visit(iface)
		}
	}
	return out
}

// chain returns the ancestry of t from the root down to t.
func (t *Type) chain() []*Type {
	var out []*Type
	for c := t; c != nil; c = c.parent {
		out = append(out, c)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Properties lists inherited properties first, then the type's own, in
// registration order. Overrides are listed where they are declared.
func (t *Type) Properties() []*ParamSpec {
	var out []*ParamSpec
	for _, c := range t.chain() {
		out = append(out, c.props...)
	}
	return out
}

// FindProperty returns the most derived property spec named name.
func (t *Type) FindProperty(name string) *ParamSpec {
	for c := t; c != nil; c = c.parent {
		if p := c.ownProperty(name); p != nil {
			return p
		}
	}
	for _, iface := range t.allInterfaces() {
		if p := iface.ownProperty(name); p != nil {
			return p
		}
	}
	return nil
}

// FindSignal returns the spec of a signal declared on t, an ancestor or an
// implemented interface.
func (t *Type) FindSignal(name string) *SignalSpec {
	for c := t; c != nil; c = c.parent {
		if s, ok := c.signals[name]; ok {
			return s
		}
	}
	for _, iface := range t.allInterfaces() {
		if s, ok := iface.signals[name]; ok {
			return s
		}
	}
	return nil
}

func (t *Type) classHandler(s *SignalSpec) HandlerFunc {
	for c := t; c != nil; c = c.parent {
		if h, ok := c.classHandlers[s.Name]; ok {
			return h
		}
		if c == s.owner {
			break
		}
	}
	return s.ClassHandler
}

// SetData attaches arbitrary class-level data, typically from ClassInit.
func (t *Type) SetData(key string, v any) {
	t.dataMu.Lock()
	defer t.dataMu.Unlock()
	t.data[key] = v
}

// Data returns class-level data set with SetData.
func (t *Type) Data(key string) (any, bool) {
	t.dataMu.RLock()
	defer t.dataMu.RUnlock()
	v, ok := t.data[key]
	return v, ok
}

// Virtual returns the implementation of virtual method name for the dynamic
// type of inst. It panics if the slot is missing or has another signature.
func Virtual[F any](inst Instance, name string) F {
	t := inst.Base().Type()
	if t == nil {
		panic(ErrNotConstructed)
	}
	return slotAs[F](t, t.vtable, name)
}

// InterfaceVirtual returns the implementation of iface's virtual method name
// for the dynamic type of inst.
func InterfaceVirtual[F any](inst Instance, iface *Type, name string) F {
	t := inst.Base().Type()
	if t == nil {
		panic(ErrNotConstructed)
	}
	table, ok := t.ifaceTables[iface]
	if !ok {
		panic(fmt.Sprintf("gobject: %s does not implement %s", t.name, iface.name))
	}
	return slotAs[F](t, table, name)
}

func slotAs[F any](t *Type, table map[string]any, name string) F {
	slot, ok := table[name]
	if !ok {
		panic(fmt.Sprintf("gobject: %s has no virtual method %q", t.name, name))
	}
	f, ok := slot.(F)
	if !ok {
		var want F
		panic(fmt.Sprintf("gobject: virtual method %s.%s is %T, not %T", t.name, name, slot, want))
	}
	return f
}
