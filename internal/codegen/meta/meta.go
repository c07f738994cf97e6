// Package meta is the resolved object model handed from the definition
// builder to hooks and generators.
package meta

import (
	"go/token"
	"reflect"

	"github.com/hashicorp/hcl/v2"

	"github.com/Alia5/gobjgen/internal/codegen/attr"
	"github.com/Alia5/gobjgen/internal/codegen/common"
	"github.com/Alia5/gobjgen/internal/codegen/scanner"
)

// BaseKind is the kind of type being defined.
type BaseKind int

const (
	Class BaseKind = iota
	Interface
	// Element is a class registered with a plugin factory.
	Element
)

func (k BaseKind) String() string {
	switch k {
	case Interface:
		return "interface"
	case Element:
		return "element"
	default:
		return "class"
	}
}

// StorageMode is how a property keeps its value.
type StorageMode int

const (
	StorageOwned StorageMode = iota
	StorageSynced
	StorageConstructOnly
	StorageComputed
	StorageWeak
	StorageBorrowed
	StoragePlain
)

func (m StorageMode) String() string {
	switch m {
	case StorageSynced:
		return "owned-synced"
	case StorageConstructOnly:
		return "construct-only"
	case StorageComputed:
		return "computed"
	case StorageWeak:
		return "weak"
	case StorageBorrowed:
		return "borrowed"
	case StoragePlain:
		return "plain"
	default:
		return "owned"
	}
}

// ThreadSafe reports whether the storage may be shared between goroutines.
func (m StorageMode) ThreadSafe() bool {
	switch m {
	case StorageSynced, StorageConstructOnly, StorageComputed, StorageWeak:
		return true
	default:
		return false
	}
}

// PropertyDefinition is one tagged field.
type PropertyDefinition struct {
	Field string
	// Name is the registered, kebab-case property name.
	Name      string
	Nick      string
	Blurb     string
	ValueType string
	Storage   StorageMode
	Index     int

	Get            bool
	Set            bool
	ConstructOnly  bool
	ExplicitNotify bool
	LaxValidation  bool
	Abstract       bool
	OverrideClass  *attr.Path
	OverrideIface  *attr.Path

	Minimum *float64
	Maximum *float64
	// Default is a Go literal, or "".
	Default string

	// Getter and Setter name accessor override methods on the implementation.
	Getter         string
	Setter         string
	SetterFallible bool

	Range hcl.Range
}

// Override reports whether the property overrides an inherited one.
func (p *PropertyDefinition) Override() bool {
	return p.OverrideClass != nil || p.OverrideIface != nil
}

// GoName is the exported identifier derived from the property name.
func (p *PropertyDefinition) GoName() string { return common.ToPascalCase(p.Name) }

// GoType is the type the getter returns: a pointer for weak and borrowed
// storage, the value type otherwise.
func (p *PropertyDefinition) GoType() string {
	switch p.Storage {
	case StorageWeak, StorageBorrowed:
		return "*" + p.ValueType
	default:
		return p.ValueType
	}
}

// Field is a struct field of the implementation type.
type Field struct {
	Name     string
	Type     string
	Tags     reflect.StructTag
	Property *PropertyDefinition
	Range    hcl.Range
}

// Param is a named, typed parameter of a derived method.
type Param struct {
	Name string
	Type string
}

// RunTiming selects when a signal's class handler runs.
type RunTiming int

const (
	RunLast RunTiming = iota
	RunFirst
	RunCleanup
)

func (t RunTiming) String() string {
	switch t {
	case RunFirst:
		return "run-first"
	case RunCleanup:
		return "run-cleanup"
	default:
		return "run-last"
	}
}

// SignalDefinition is one signal-tagged method.
type SignalDefinition struct {
	Method string
	Name   string
	Params []Param
	// Return is the result type, or "".
	Return   string
	Timing   RunTiming
	Detailed bool
	Action   bool
	Override bool
	// Receiver is set when the method takes the wrapper as first parameter.
	Receiver bool

	Accumulator     string
	AccumulatorHint bool

	Range hcl.Range
}

// GoName is the exported identifier derived from the signal name.
func (s *SignalDefinition) GoName() string { return common.ToPascalCase(s.Name) }

// VirtualMethodDefinition is one virtual-tagged method.
type VirtualMethodDefinition struct {
	Method        string
	Params        []Param
	Results       []string
	Override      bool
	OverrideIface *attr.Path
	Receiver      bool
	Range         hcl.Range
}

// GoName is the exported dispatcher name.
func (v *VirtualMethodDefinition) GoName() string { return common.Exported(v.Method) }

// ConstructorDefinition is one constructor-tagged method.
type ConstructorDefinition struct {
	Method   string
	Name     string
	Params   []Param
	Fallible bool
	Range    hcl.Range
}

// AccessorDefinition is a custom getter or setter of a property.
type AccessorDefinition struct {
	Method   string
	Property string
	Setter   bool
	Fallible bool
	Range    hcl.Range
}

// Lifecycle names the methods run during construction and disposal.
type Lifecycle struct {
	Init        string
	Constructed string
	Dispose     string
	// Receiver flags hooks that take the wrapper as parameter.
	InitReceiver        bool
	ConstructedReceiver bool
	DisposeReceiver     bool
}

// Role is the single role a method plays.
type Role int

const (
	RolePlain Role = iota
	RoleAccessor
	RoleSignal
	RoleVirtual
	RoleConstructor
	RoleLifecycle
	// RoleAccumulator marks a plain method referenced by a signal.
	RoleAccumulator
)

func (r Role) String() string {
	switch r {
	case RoleAccessor:
		return "accessor"
	case RoleSignal:
		return "signal"
	case RoleVirtual:
		return "virtual"
	case RoleConstructor:
		return "constructor"
	case RoleLifecycle:
		return "lifecycle"
	case RoleAccumulator:
		return "accumulator"
	default:
		return "plain"
	}
}

// Method is a method of a collection after role assignment.
type Method struct {
	Name string
	Role Role
	// Tag is the directive that assigned the role, nil for plain and
	// lifecycle methods.
	Tag        *scanner.Directive
	Params     []scanner.Param
	Results    []scanner.Param
	Directives []scanner.Directive
	Range      hcl.Range
}

// Exported reports whether the method is visible outside the package.
func (m *Method) Exported() bool { return token.IsExported(m.Name) }

// CollectionMode tells whether methods are declared on the implementation
// struct or on the generated wrapper.
type CollectionMode int

const (
	ModeSubclass CollectionMode = iota
	ModeWrapper
)

func (m CollectionMode) String() string {
	if m == ModeWrapper {
		return "wrapper"
	}
	return "subclass"
}

// Collection is a group of methods declared on one receiver in one file.
type Collection struct {
	Receiver string
	File     string
	Mode     CollectionMode
	Methods  []*Method
	// Open and Close surround the generated method table of the collection.
	// The table is only emitted when Open is set.
	Open  string
	Close string
}

// TypeDefinition is the assembled model of one compilation unit.
type TypeDefinition struct {
	Name     string
	Struct   string
	Package  string
	File     string
	BaseKind BaseKind

	Fields       []*Field
	Properties   []*PropertyDefinition
	Signals      []*SignalDefinition
	Virtuals     []*VirtualMethodDefinition
	Constructors []*ConstructorDefinition
	Accessors    []*AccessorDefinition
	Lifecycle    Lifecycle
	Collections  []*Collection

	Extends    []attr.Path
	Implements []attr.Path
	Final      bool
	Abstract   bool
	Pod        bool

	Directives []scanner.Directive
	Imports    map[string]string
	Range      hcl.Range
}

// Property finds a property by registered name.
func (d *TypeDefinition) Property(name string) *PropertyDefinition {
	for _, p := range d.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Phase is a lifecycle phase that hooks may append statements to.
type Phase string

const (
	PhaseClassInit    Phase = "class_init"
	PhaseInstanceInit Phase = "instance_init"
	PhasePackageInit  Phase = "package_init"
)

// Phases lists every phase in emission order.
var Phases = []Phase{PhaseClassInit, PhaseInstanceInit, PhasePackageInit}

// ClassDefinition is a TypeDefinition with its public shape resolved.
type ClassDefinition struct {
	*TypeDefinition

	Namespace string
	// TypeName is the registered name, namespace followed by name.
	TypeName string
	// Parent is the parent class path; nil for interfaces.
	Parent *attr.Path
	// Wrapper reports whether the wrapper struct is generated.
	Wrapper bool
	// ExtTrait is the name of the extension interface, "" when none.
	ExtTrait   string
	Concurrent bool

	Statements map[Phase][]string
}

// CollectionsByMode returns the collections declared in one mode.
func (c *ClassDefinition) CollectionsByMode(mode CollectionMode) []*Collection {
	var out []*Collection
	for _, col := range c.Collections {
		if col.Mode == mode {
			out = append(out, col)
		}
	}
	return out
}

// LookupProperty resolves a reference by registered name, field name, or the
// kebab-case form of a Go identifier.
func LookupProperty(props []*PropertyDefinition, ref string) *PropertyDefinition {
	for _, p := range props {
		if p.Name == ref || p.Field == ref || p.Name == common.ToKebabCase(ref) {
			return p
		}
	}
	return nil
}
