package inspect

import (
	"sync"
	"time"

	"github.com/reflow-ui/reflow/pkg/reflow"
)

// Recorder captures scheduler events into a ring buffer and forwards them
// to an optional sink (the inspector server's broadcast). It implements
// reflow.Hooks so it installs directly on a scheduler.
type Recorder struct {
	mu     sync.Mutex
	ring   []Event
	head   int
	filled bool
	seq    uint64
	stats  Stats

	// sink receives every event as it is recorded. Set by the server.
	sink func(Event)
}

// NewRecorder creates a recorder keeping the last size events.
// A size below 1 defaults to 256.
func NewRecorder(size int) *Recorder {
	if size < 1 {
		size = 256
	}
	return &Recorder{
		ring: make([]Event, size),
	}
}

// SetSink installs a function called with each recorded event.
func (r *Recorder) SetSink(sink func(Event)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sink = sink
}

// record appends an event to the ring and forwards it to the sink.
func (r *Recorder) record(e Event) {
	r.mu.Lock()
	r.seq++
	e.Seq = r.seq
	e.Time = time.Now()

	r.ring[r.head] = e
	r.head++
	if r.head == len(r.ring) {
		r.head = 0
		r.filled = true
	}
	sink := r.sink
	r.mu.Unlock()

	if sink != nil {
		sink(e)
	}
}

// Events returns the buffered events, oldest first.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.filled {
		out := make([]Event, r.head)
		copy(out, r.ring[:r.head])
		return out
	}

	out := make([]Event, 0, len(r.ring))
	out = append(out, r.ring[r.head:]...)
	out = append(out, r.ring[:r.head]...)
	return out
}

// Stats returns the aggregate counters.
func (r *Recorder) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// FlushStart implements reflow.Hooks.
func (r *Recorder) FlushStart() {
	r.record(Event{Type: EventFlushStart})
}

// FlushEnd implements reflow.Hooks.
func (r *Recorder) FlushEnd(d time.Duration, runs int) {
	r.mu.Lock()
	r.stats.Flushes++
	r.stats.TotalFlushMs += float64(d) / float64(time.Millisecond)
	r.mu.Unlock()

	r.record(Event{
		Type:       EventFlushEnd,
		DurationMs: float64(d) / float64(time.Millisecond),
		Runs:       runs,
	})
}

// EffectRun implements reflow.Hooks.
func (r *Recorder) EffectRun(d time.Duration) {
	r.mu.Lock()
	r.stats.EffectRuns++
	r.mu.Unlock()

	r.record(Event{
		Type:       EventEffectRun,
		DurationMs: float64(d) / float64(time.Millisecond),
	})
}

// EffectError implements reflow.Hooks.
func (r *Recorder) EffectError(err error) {
	r.mu.Lock()
	r.stats.EffectErrors++
	r.mu.Unlock()

	r.record(Event{
		Type:  EventEffectError,
		Error: err.Error(),
	})
}

// CycleAbort implements reflow.Hooks.
func (r *Recorder) CycleAbort(effectID uint64, runs int) {
	r.mu.Lock()
	r.stats.CycleAborts++
	r.mu.Unlock()

	r.record(Event{
		Type:     EventCycleAbort,
		EffectID: effectID,
		Runs:     runs,
	})
}

var _ reflow.Hooks = (*Recorder)(nil)
