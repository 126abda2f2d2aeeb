package reflow

// IntRef wraps Ref[int] with convenience methods for integer operations.
type IntRef struct {
	*Ref[int]
}

// NewIntRef creates a new IntRef with the given initial value.
func NewIntRef(initial int) *IntRef {
	return &IntRef{NewRef(initial)}
}

// Inc increments the value by 1.
func (r *IntRef) Inc() {
	r.Update(func(n int) int { return n + 1 })
}

// Dec decrements the value by 1.
func (r *IntRef) Dec() {
	r.Update(func(n int) int { return n - 1 })
}

// Add adds the given value.
func (r *IntRef) Add(n int) {
	r.Update(func(v int) int { return v + n })
}

// Sub subtracts the given value.
func (r *IntRef) Sub(n int) {
	r.Update(func(v int) int { return v - n })
}
