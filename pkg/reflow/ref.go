package reflow

import "sync"

// dependent is implemented by listeners that maintain their own dependency
// set (effects, computeds, render bindings). Sources report themselves to
// the active dependent on every tracked read so stale dependencies can be
// diffed away after the run.
type dependent interface {
	Listener
	addSource(src *sourceBase)
}

// Ref is a mutable reactive value box.
// Reading a Ref's value during a tracked context (component render, computed
// evaluation, or effect execution) automatically subscribes the current
// listener to receive notifications when the value changes.
type Ref[T any] struct {
	base sourceBase

	// value is the current value.
	value T

	// mu protects the value.
	mu sync.RWMutex

	// equal is the equality function used to decide whether a write
	// changed the value. If nil, defaultEquals is used.
	equal func(T, T) bool
}

// NewRef creates a new ref with the given initial value.
//
// When called during a scope's setup run, the ref participates in positional
// state preservation: if a previous invocation of the same setup body created
// a ref of the same type at the same position, the new ref adopts that ref's
// current value instead of the literal initializer. This rebinding is purely
// positional — inserting or removing an earlier NewRef call shifts every
// later slot. See RunSetup.
func NewRef[T any](initial T) *Ref[T] {
	scope := getCurrentScope()
	if scope != nil && scope.inSetup() {
		if prev := scope.useSlot(); prev != nil {
			if old, ok := prev.(*Ref[T]); ok {
				initial = old.Peek()
			}
		}
		r := newRef(initial)
		scope.recordSlot(r)
		return r
	}
	return newRef(initial)
}

func newRef[T any](initial T) *Ref[T] {
	return &Ref[T]{
		base: sourceBase{
			id: nextID(),
		},
		value: initial,
	}
}

// Get returns the current value and subscribes the current listener.
// If called during a tracked context, the active listener will be notified
// when this ref's value changes.
func (r *Ref[T]) Get() T {
	// Read value with lock, release before tracking to prevent deadlock.
	r.mu.RLock()
	value := r.value
	r.mu.RUnlock()

	if listener := getCurrentListener(); listener != nil {
		r.base.subscribe(listener)
		if d, ok := listener.(dependent); ok {
			d.addSource(&r.base)
		}
	}

	return value
}

// Peek returns the current value without subscribing.
// Use this when you need the value without binding a re-run to future
// changes.
func (r *Ref[T]) Peek() T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.value
}

// Set updates the ref's value and notifies subscribers if it changed.
// Writing a value equal to the current one (under the ref's equality
// function) is a no-op: no version bump, no notification.
func (r *Ref[T]) Set(value T) {
	r.mu.Lock()
	changed := !r.equals(r.value, value)
	if changed {
		r.value = value
		r.base.bumpVersion()
	}
	r.mu.Unlock()

	if changed {
		r.base.notifySubscribers()
	}
}

// Update atomically reads and updates the ref's value.
// The function receives the current value and returns the new value.
func (r *Ref[T]) Update(fn func(T) T) {
	r.mu.Lock()
	oldValue := r.value
	newValue := fn(oldValue)
	changed := !r.equals(oldValue, newValue)
	if changed {
		r.value = newValue
		r.base.bumpVersion()
	}
	r.mu.Unlock()

	if changed {
		r.base.notifySubscribers()
	}
}

// WithEquals returns the ref configured with a custom equality function.
// Useful for types where reflect.DeepEqual is too expensive or has the
// wrong semantics.
func (r *Ref[T]) WithEquals(fn func(T, T) bool) *Ref[T] {
	r.equal = fn
	return r
}

// ID returns the unique identifier for this ref.
func (r *Ref[T]) ID() uint64 {
	return r.base.id
}

// Version returns the ref's write counter. It increases by one on every
// accepted write and never decreases.
func (r *Ref[T]) Version() uint64 {
	return r.base.version.Load()
}

// equals checks two values under the configured equality function.
func (r *Ref[T]) equals(a, b T) bool {
	if r.equal != nil {
		return r.equal(a, b)
	}
	return defaultEquals(a, b)
}
