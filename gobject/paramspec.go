package gobject

import (
	"fmt"
	"math"
	"reflect"
)

// ParamFlags describe how a property may be accessed.
type ParamFlags uint

const (
	ParamReadable ParamFlags = 1 << iota
	ParamWritable
	ParamConstructOnly
	ParamExplicitNotify
	ParamLaxValidation
	ParamAbstract
	ParamOverride

	ParamReadWrite = ParamReadable | ParamWritable
)

func (f ParamFlags) Has(flag ParamFlags) bool { return f&flag == flag }

// Bounds are the inclusive numeric limits of a property.
type Bounds struct {
	Min float64
	Max float64
}

// AtLeast bounds a property from below only.
func AtLeast(min float64) *Bounds { return &Bounds{Min: min, Max: math.Inf(1)} }

// AtMost bounds a property from above only.
func AtMost(max float64) *Bounds { return &Bounds{Min: math.Inf(-1), Max: max} }

// ParamSpec describes one property of a type.
type ParamSpec struct {
	Name    string
	Nick    string
	Blurb   string
	Flags   ParamFlags
	Bounds  *Bounds
	Default any

	// Get and Set move values between the generic representation and the
	// property storage. Set is only called with values that passed Validate.
	Get func(inst Instance) any
	Set func(inst Instance, v any) error

	owner *Type
	index int
}

// Owner is the type that declared the property.
func (p *ParamSpec) Owner() *Type { return p.owner }

// Index is the registration position of the property within its owner.
func (p *ParamSpec) Index() int { return p.index }

// Validate checks v against the declared bounds. Lax properties accept any
// value of the right kind.
func (p *ParamSpec) Validate(v any) error {
	if p.Bounds == nil || p.Flags.Has(ParamLaxValidation) {
		return nil
	}
	f, ok := asFloat(v)
	if !ok {
		return fmt.Errorf("%w: %s expects a number, got %T", ErrValueType, p.Name, v)
	}
	if f < p.Bounds.Min || f > p.Bounds.Max {
		return fmt.Errorf("%w: %s=%v not in [%v, %v]", ErrOutOfBounds, p.Name, v, p.Bounds.Min, p.Bounds.Max)
	}
	return nil
}

func asFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

// ValueAs converts a generic property value to T. It is used by generated
// setters.
func ValueAs[T any](name string, v any) (T, error) {
	t, ok := v.(T)
	if !ok {
		var want T
		return want, fmt.Errorf("%w: %s expects %T, got %T", ErrValueType, name, want, v)
	}
	return t, nil
}
