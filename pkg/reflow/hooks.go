package reflow

import "time"

// Hooks observes scheduler activity. Implementations must be cheap and must
// not write refs; they run inline on the flushing goroutine.
//
// The telemetry package provides Prometheus and OpenTelemetry
// implementations; the inspector streams these events to connected clients.
type Hooks interface {
	// FlushStart is called when a flush begins draining the queue.
	FlushStart()

	// FlushEnd is called after the queue drains (or the flush aborts),
	// with the wall time spent and the number of effect runs.
	FlushEnd(d time.Duration, runs int)

	// EffectRun is called after each successful effect run.
	EffectRun(d time.Duration)

	// EffectError is called when an effect panics during a flush.
	EffectError(err error)

	// CycleAbort is called when the cycle guard trips.
	CycleAbort(effectID uint64, runs int)
}

// MultiHooks fans scheduler events out to several Hooks implementations.
type MultiHooks []Hooks

func (m MultiHooks) FlushStart() {
	for _, h := range m {
		h.FlushStart()
	}
}

func (m MultiHooks) FlushEnd(d time.Duration, runs int) {
	for _, h := range m {
		h.FlushEnd(d, runs)
	}
}

func (m MultiHooks) EffectRun(d time.Duration) {
	for _, h := range m {
		h.EffectRun(d)
	}
}

func (m MultiHooks) EffectError(err error) {
	for _, h := range m {
		h.EffectError(err)
	}
}

func (m MultiHooks) CycleAbort(effectID uint64, runs int) {
	for _, h := range m {
		h.CycleAbort(effectID, runs)
	}
}
