package gobject

import (
	"sync"
	"weak"
)

// Cell is owned, interior-mutable property storage. It must not be shared
// between goroutines; use Synced for that.
type Cell[T any] struct {
	v T
}

func (c *Cell[T]) Get() T { return c.v }

func (c *Cell[T]) Set(v T) { c.v = v }

// Replace stores v and returns the previous value.
func (c *Cell[T]) Replace(v T) T {
	old := c.v
	c.v = v
	return old
}

// Synced is owned property storage guarded by a reader/writer lock.
type Synced[T any] struct {
	mu sync.RWMutex
	v  T
}

func (s *Synced[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v
}

func (s *Synced[T]) Set(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v = v
}

// Update applies f to the stored value while holding the write lock.
func (s *Synced[T]) Update(f func(T) T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v = f(s.v)
}

// OnceCell holds a construct-only value. It can be set exactly once.
type OnceCell[T any] struct {
	mu  sync.RWMutex
	set bool
	v   T
}

func (c *OnceCell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v
}

// Set stores v. A second call returns ErrAlreadySet and leaves the value unchanged.
func (c *OnceCell[T]) Set(v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.set {
		return ErrAlreadySet
	}
	c.v = v
	c.set = true
	return nil
}

// IsSet reports whether the value was assigned during construction.
func (c *OnceCell[T]) IsSet() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.set
}

// WeakRef is a read-only back-reference. Get panics once the referent has
// been collected.
type WeakRef[T any] struct {
	mu  sync.RWMutex
	p   weak.Pointer[T]
	set bool
}

func (w *WeakRef[T]) Get() *T {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.set {
		return nil
	}
	v := w.p.Value()
	if v == nil {
		panic(ErrReferentDropped)
	}
	return v
}

// Upgrade returns the referent, or nil if it is unset or has been collected.
func (w *WeakRef[T]) Upgrade() *T {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.set {
		return nil
	}
	return w.p.Value()
}

// Bind points the reference at v. A nil v clears it.
func (w *WeakRef[T]) Bind(v *T) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if v == nil {
		w.p = weak.Pointer[T]{}
		w.set = false
		return
	}
	w.p = weak.Make(v)
	w.set = true
}

// Ref is owned storage whose getter hands out a pointer to the stored value
// instead of a copy.
type Ref[T any] struct {
	v T
}

func (r *Ref[T]) Borrow() *T { return &r.v }

func (r *Ref[T]) Set(v T) { r.v = v }

// Computed is a zero-size placeholder for properties without local storage.
// Their value is produced by an accessor or by a descendant override.
type Computed[T any] struct{}
