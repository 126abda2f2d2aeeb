package reflow

// BoolRef wraps Ref[bool] with convenience methods for boolean operations.
type BoolRef struct {
	*Ref[bool]
}

// NewBoolRef creates a new BoolRef with the given initial value.
func NewBoolRef(initial bool) *BoolRef {
	return &BoolRef{NewRef(initial)}
}

// Toggle inverts the boolean value.
func (r *BoolRef) Toggle() {
	r.Update(func(b bool) bool { return !b })
}

// SetTrue sets the value to true.
func (r *BoolRef) SetTrue() {
	r.Set(true)
}

// SetFalse sets the value to false.
func (r *BoolRef) SetFalse() {
	r.Set(false)
}
