// Package gobject is the runtime used by code generated with gobjgen: a type
// registry with single inheritance and interfaces, properties with change
// notification, signals with run stages and accumulators, and virtual method
// tables.
package gobject

import (
	"fmt"
	"sync"
)

// Instance is implemented by every object wrapper. Wrappers embed Object,
// directly or through their parent wrapper.
type Instance interface {
	Base() *Object
}

// Concurrent marks wrappers whose property storage is safe for concurrent use.
type Concurrent interface {
	Instance
	ConcurrentSafe()
}

// Prop is a property assignment passed at construction.
type Prop struct {
	Name  string
	Value any
}

// Object is the instance part shared by all types.
type Object struct {
	mu           sync.Mutex
	self         Instance
	typ          *Type
	constructing bool
	constructed  bool
	disposed     bool

	nextID   HandlerID
	handlers map[string][]*handler
	data     map[string]any
}

func (o *Object) Base() *Object { return o }

// Type returns the dynamic type, or nil before construction.
func (o *Object) Type() *Type {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.typ
}

// Self returns the outermost wrapper the object was constructed with.
func (o *Object) Self() Instance {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.self
}

// IsConstructing reports whether construct-time properties are being applied.
func (o *Object) IsConstructing() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.constructing
}

// Construct initializes inst as an instance of t: instance init runs from the
// root type down, props are applied, then constructed hooks run root first.
func Construct(inst Instance, t *Type, props ...Prop) error {
	if t.kind != KindClass {
		return fmt.Errorf("construct %s: %w", t.name, ErrAbstractType)
	}
	if t.abstract {
		return fmt.Errorf("construct %s: %w", t.name, ErrAbstractType)
	}
	o := inst.Base()
	o.mu.Lock()
	o.self = inst
	o.typ = t
	o.constructing = true
	o.mu.Unlock()

	chain := t.chain()
	for _, c := range chain {
		if c.info.InstanceInit != nil {
			c.info.InstanceInit(inst)
		}
	}

	var err error
	for _, p := range props {
		if err = o.SetProperty(p.Name, p.Value); err != nil {
			err = fmt.Errorf("construct %s: %w", t.name, err)
			break
		}
	}

	o.mu.Lock()
	o.constructing = false
	o.constructed = err == nil
	o.mu.Unlock()
	if err != nil {
		return err
	}

	for _, c := range chain {
		if c.info.Constructed != nil {
			c.info.Constructed(inst)
		}
	}
	return nil
}

// MustConstruct is Construct for infallible constructors. Validation errors
// panic instead of being coerced.
func MustConstruct(inst Instance, t *Type, props ...Prop) {
	if err := Construct(inst, t, props...); err != nil {
		panic(err)
	}
}

// Dispose runs dispose hooks from the most derived type up and drops all
// signal handlers. Subsequent calls do nothing.
func (o *Object) Dispose() {
	o.mu.Lock()
	if o.disposed || o.typ == nil {
		o.mu.Unlock()
		return
	}
	o.disposed = true
	self, chain := o.self, o.typ.chain()
	o.mu.Unlock()

	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i].info.Dispose != nil {
			chain[i].info.Dispose(self)
		}
	}

	o.mu.Lock()
	o.handlers = nil
	o.mu.Unlock()
}

func (o *Object) lookupProperty(name string) (*ParamSpec, Instance, error) {
	o.mu.Lock()
	t, self := o.typ, o.self
	o.mu.Unlock()
	if t == nil {
		return nil, nil, ErrNotConstructed
	}
	p := t.FindProperty(name)
	if p == nil {
		return nil, nil, fmt.Errorf("%w: %s:%s", ErrUnknownProperty, t.name, name)
	}
	return p, self, nil
}

// SetProperty validates v and stores it, then emits notify unless the
// property uses explicit notification.
func (o *Object) SetProperty(name string, v any) error {
	p, self, err := o.lookupProperty(name)
	if err != nil {
		return err
	}
	if !p.Flags.Has(ParamWritable) || p.Set == nil {
		return fmt.Errorf("%w: %s", ErrNotWritable, name)
	}
	if p.Flags.Has(ParamConstructOnly) && !o.IsConstructing() {
		return fmt.Errorf("%w: %s", ErrConstructOnly, name)
	}
	if err := p.Validate(v); err != nil {
		return err
	}
	if err := p.Set(self, v); err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	if !p.Flags.Has(ParamExplicitNotify) {
		o.notify(p)
	}
	return nil
}

// Property reads a property value.
func (o *Object) Property(name string) (any, error) {
	p, self, err := o.lookupProperty(name)
	if err != nil {
		return nil, err
	}
	if !p.Flags.Has(ParamReadable) {
		return nil, fmt.Errorf("%w: %s", ErrNotReadable, name)
	}
	if p.Get == nil {
		return nil, fmt.Errorf("%w: %s", ErrAbstractProperty, name)
	}
	return p.Get(self), nil
}

// Notify emits the notify signal for the named property.
func (o *Object) Notify(name string) {
	p, _, err := o.lookupProperty(name)
	if err != nil {
		panic(err)
	}
	o.notify(p)
}

func (o *Object) notify(p *ParamSpec) {
	if _, err := o.Emit("notify", p.Name, p); err != nil {
		panic(err)
	}
}

// ConnectNotify calls f whenever the named property changes. An empty name
// matches every property.
func (o *Object) ConnectNotify(name string, f func(inst Instance, p *ParamSpec)) HandlerID {
	id, err := o.Connect("notify", name, func(inst Instance, args []any) any {
		f(inst, args[0].(*ParamSpec))
		return nil
	})
	if err != nil {
		panic(err)
	}
	return id
}

// SetData attaches per-instance data.
func (o *Object) SetData(key string, v any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.data == nil {
		o.data = make(map[string]any)
	}
	o.data[key] = v
}

// Data returns per-instance data set with SetData.
func (o *Object) Data(key string) (any, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	v, ok := o.data[key]
	return v, ok
}
