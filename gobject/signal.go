package gobject

import (
	"fmt"
	"slices"
)

// SignalFlags select the run stage of the class handler and the features of
// a signal.
type SignalFlags uint

const (
	SignalRunFirst SignalFlags = 1 << iota
	SignalRunLast
	SignalRunCleanup
	SignalDetailed
	SignalAction
)

func (f SignalFlags) Has(flag SignalFlags) bool { return f&flag == flag }

// HandlerFunc is the generic form of class handlers and connected handlers.
type HandlerFunc func(inst Instance, args []any) any

// Stage is the phase of an emission.
type Stage int

const (
	StageRunFirst Stage = iota
	StageHandlers
	StageRunLast
	StageAfter
	StageRunCleanup
)

func (s Stage) String() string {
	switch s {
	case StageRunFirst:
		return "run-first"
	case StageHandlers:
		return "handlers"
	case StageRunLast:
		return "run-last"
	case StageAfter:
		return "after"
	case StageRunCleanup:
		return "run-cleanup"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// InvocationHint describes the emission an accumulator is called for.
type InvocationHint struct {
	Signal string
	Detail string
	Stage  Stage
}

// Accumulator folds handler results. It returns the new accumulated value and
// whether emission continues.
type Accumulator func(inst Instance, hint *InvocationHint, acc any, ret any) (any, bool)

// SignalSpec describes a signal declared by a type.
type SignalSpec struct {
	Name         string
	Flags        SignalFlags
	ClassHandler HandlerFunc
	Accumulator  Accumulator

	owner *Type
}

// Owner is the type that declared the signal.
func (s *SignalSpec) Owner() *Type { return s.owner }

func (s *SignalSpec) classStage() Stage {
	switch {
	case s.Flags.Has(SignalRunFirst):
		return StageRunFirst
	case s.Flags.Has(SignalRunCleanup):
		return StageRunCleanup
	default:
		return StageRunLast
	}
}

// HandlerID identifies a connected handler on one instance.
type HandlerID uint64

type handler struct {
	id      HandlerID
	detail  string
	after   bool
	blocked bool
	f       HandlerFunc
}

func (o *Object) findSignal(name string) (*SignalSpec, error) {
	o.mu.Lock()
	t := o.typ
	o.mu.Unlock()
	if t == nil {
		return nil, ErrNotConstructed
	}
	s := t.FindSignal(name)
	if s == nil {
		return nil, fmt.Errorf("%w: %s::%s", ErrUnknownSignal, t.name, name)
	}
	return s, nil
}

func (o *Object) connect(signal, detail string, after bool, f HandlerFunc) (HandlerID, error) {
	s, err := o.findSignal(signal)
	if err != nil {
		return 0, err
	}
	if detail != "" && !s.Flags.Has(SignalDetailed) {
		return 0, fmt.Errorf("%w: %s", ErrNotDetailed, signal)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.handlers == nil {
		o.handlers = make(map[string][]*handler)
	}
	o.nextID++
	o.handlers[signal] = append(o.handlers[signal], &handler{id: o.nextID, detail: detail, after: after, f: f})
	return o.nextID, nil
}

// Connect adds a handler that runs before the run-last class handler. A
// non-empty detail restricts it to emissions with the same detail.
func (o *Object) Connect(signal, detail string, f HandlerFunc) (HandlerID, error) {
	return o.connect(signal, detail, false, f)
}

// ConnectAfter adds a handler that runs after the run-last class handler.
func (o *Object) ConnectAfter(signal, detail string, f HandlerFunc) (HandlerID, error) {
	return o.connect(signal, detail, true, f)
}

// Disconnect removes a handler. It reports whether the handler was found.
func (o *Object) Disconnect(id HandlerID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for name, hs := range o.handlers {
		for i, h := range hs {
			if h.id == id {
				o.handlers[name] = slices.Delete(slices.Clone(hs), i, i+1)
				return true
			}
		}
	}
	return false
}

func (o *Object) setBlocked(id HandlerID, blocked bool) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, hs := range o.handlers {
		for _, h := range hs {
			if h.id == id {
				h.blocked = blocked
				return true
			}
		}
	}
	return false
}

// Block suspends a handler until Unblock is called.
func (o *Object) Block(id HandlerID) bool { return o.setBlocked(id, true) }

func (o *Object) Unblock(id HandlerID) bool { return o.setBlocked(id, false) }

// HandlerCount returns the number of handlers connected to signal.
func (o *Object) HandlerCount(signal string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.handlers[signal])
}

type emission struct {
	inst Instance
	spec *SignalSpec
	hint InvocationHint
	args []any
	acc  any
	stop bool
}

func (e *emission) run(stage Stage, f HandlerFunc) {
	if f == nil || e.stop {
		return
	}
	e.hint.Stage = stage
	ret := f(e.inst, e.args)
	if e.spec.Accumulator == nil {
		e.acc = ret
		return
	}
	var cont bool
	e.acc, cont = e.spec.Accumulator(e.inst, &e.hint, e.acc, ret)
	e.stop = !cont
}

// Emit runs the signal on the instance. The class handler runs at the stage
// selected by its flags; connected handlers run in connection order. A
// run-cleanup class handler always runs, even after an accumulator stopped
// the emission, and its return value is ignored.
func (o *Object) Emit(signal, detail string, args ...any) (any, error) {
	s, err := o.findSignal(signal)
	if err != nil {
		return nil, err
	}
	if detail != "" && !s.Flags.Has(SignalDetailed) {
		return nil, fmt.Errorf("%w: %s", ErrNotDetailed, signal)
	}

	o.mu.Lock()
	self, t := o.self, o.typ
	var before, after []HandlerFunc
	for _, h := range o.handlers[signal] {
		if h.blocked || (h.detail != "" && h.detail != detail) {
			continue
		}
		if h.after {
			after = append(after, h.f)
		} else {
			before = append(before, h.f)
		}
	}
	o.mu.Unlock()

	e := &emission{
		inst: self,
		spec: s,
		hint: InvocationHint{Signal: signal, Detail: detail},
		args: args,
	}
	class := t.classHandler(s)
	stage := s.classStage()

	if stage == StageRunFirst {
		e.run(StageRunFirst, class)
	}
	for _, f := range before {
		e.run(StageHandlers, f)
	}
	if stage == StageRunLast {
		e.run(StageRunLast, class)
	}
	for _, f := range after {
		e.run(StageAfter, f)
	}
	if stage == StageRunCleanup && class != nil {
		e.hint.Stage = StageRunCleanup
		class(e.inst, e.args)
	}
	return e.acc, nil
}

// Arg returns args[i] as T, or the zero T when it holds nil or another type.
// Generated handlers use it to unpack emission arguments.
func Arg[T any](args []any, i int) T {
	var v T
	if i < len(args) {
		v, _ = args[i].(T)
	}
	return v
}
