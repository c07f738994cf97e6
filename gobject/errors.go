package gobject

import "errors"

var (
	ErrUnknownProperty  = errors.New("unknown property")
	ErrNotReadable      = errors.New("property is not readable")
	ErrNotWritable      = errors.New("property is not writable")
	ErrConstructOnly    = errors.New("construct-only property cannot be set after construction")
	ErrOutOfBounds      = errors.New("value out of bounds")
	ErrValueType        = errors.New("value has wrong type")
	ErrAlreadySet       = errors.New("construct-only value already set")
	ErrReferentDropped  = errors.New("weak reference target has been dropped")
	ErrUnknownSignal    = errors.New("unknown signal")
	ErrNotDetailed      = errors.New("signal does not support details")
	ErrAbstractType     = errors.New("cannot instantiate abstract type")
	ErrAbstractProperty = errors.New("abstract property has no implementation")
	ErrNotConstructed   = errors.New("instance was not constructed")
)
