package reflow

import (
	"errors"
	"fmt"
)

// ErrNoProvider is returned by Inject when no ancestor scope provided the
// requested key. Use InjectOr or a typed Context's default to avoid it.
var ErrNoProvider = errors.New("reflow: no provider found for injected key")

// ErrNoActiveScope is returned by Inject when called outside any scope.
// Provide/Inject only make sense inside a setup body, effect, or render.
var ErrNoActiveScope = errors.New("reflow: no active scope")

// ErrFlushCycle is the sentinel wrapped by FlushCycleError. Use errors.Is
// to distinguish a cycle abort from an effect failure.
var ErrFlushCycle = errors.New("reflow: flush did not converge")

// FlushCycleError reports a flush aborted by the cycle guard: one effect
// was re-scheduled more times than the per-flush bound, which means an
// effect both reads and (transitively) writes the same producer.
type FlushCycleError struct {
	// EffectID identifies the looping effect.
	EffectID uint64

	// EffectName is the effect's diagnostic label, "" if unset.
	EffectName string

	// Runs is how many times the effect ran before the abort.
	Runs int
}

// Error implements the error interface.
func (e *FlushCycleError) Error() string {
	if e.EffectName != "" {
		return fmt.Sprintf("reflow: effect %q (id %d) re-ran %d times in one flush; aborting (likely a read+write feedback loop)",
			e.EffectName, e.EffectID, e.Runs)
	}
	return fmt.Sprintf("reflow: effect id %d re-ran %d times in one flush; aborting (likely a read+write feedback loop)",
		e.EffectID, e.Runs)
}

// Unwrap makes errors.Is(err, ErrFlushCycle) work.
func (e *FlushCycleError) Unwrap() error {
	return ErrFlushCycle
}

// EffectPanicError carries the value recovered from a panicking effect
// body. The scheduler reports it through the error handler and keeps
// flushing the remaining queue, so one broken reaction cannot block
// unrelated updates.
type EffectPanicError struct {
	// EffectID identifies the failed effect.
	EffectID uint64

	// EffectName is the effect's diagnostic label, "" if unset.
	EffectName string

	// Recovered is the value passed to panic.
	Recovered any
}

// Error implements the error interface.
func (e *EffectPanicError) Error() string {
	if e.EffectName != "" {
		return fmt.Sprintf("reflow: effect %q (id %d) panicked: %v", e.EffectName, e.EffectID, e.Recovered)
	}
	return fmt.Sprintf("reflow: effect id %d panicked: %v", e.EffectID, e.Recovered)
}
