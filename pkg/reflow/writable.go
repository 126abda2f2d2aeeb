package reflow

// WritableComputed is a computed augmented with a write handler.
//
// Reads go through the getter exactly like Computed.Get. Writes invoke the
// setter, which is expected to write one or more underlying refs; their own
// notifications then propagate back through the getter's dependency graph.
// The writable computed holds no stored value of its own — its value is
// always the getter's current result.
type WritableComputed[T any] struct {
	*Computed[T]

	set func(T)
}

// NewWritableComputed creates a computed whose assignment is redirected to
// the given setter.
//
// Example:
//
//	celsius := reflow.NewRef(0.0)
//	fahrenheit := reflow.NewWritableComputed(
//	    func() float64 { return celsius.Get()*9/5 + 32 },
//	    func(f float64) { celsius.Set((f - 32) * 5 / 9) },
//	)
func NewWritableComputed[T any](get func() T, set func(T)) *WritableComputed[T] {
	return &WritableComputed[T]{
		Computed: NewComputed(get),
		set:      set,
	}
}

// Set invokes the write handler with the given value.
func (w *WritableComputed[T]) Set(value T) {
	w.set(value)
}

// Update reads the current value through the getter and writes the result
// of fn back through the setter.
func (w *WritableComputed[T]) Update(fn func(T) T) {
	w.set(fn(w.Get()))
}
