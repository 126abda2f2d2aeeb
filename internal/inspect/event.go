package inspect

import "time"

// EventType represents the type of scheduler event.
type EventType string

const (
	EventFlushStart  EventType = "flush_start"
	EventFlushEnd    EventType = "flush_end"
	EventEffectRun   EventType = "effect_run"
	EventEffectError EventType = "effect_error"
	EventCycleAbort  EventType = "cycle_abort"
)

// Event is one observed scheduler occurrence, streamed to inspector clients
// and kept in the recorder's ring buffer.
type Event struct {
	// Seq is a monotonically increasing sequence number.
	Seq uint64 `json:"seq"`

	// Type is the event type.
	Type EventType `json:"type"`

	// Time is when the event was recorded.
	Time time.Time `json:"time"`

	// DurationMs is the flush or effect-run duration in milliseconds,
	// for flush_end and effect_run events.
	DurationMs float64 `json:"durationMs,omitempty"`

	// Runs is the number of effect runs, for flush_end and cycle_abort
	// events.
	Runs int `json:"runs,omitempty"`

	// EffectID identifies the offending effect for cycle_abort events.
	EffectID uint64 `json:"effectId,omitempty"`

	// Error is the error text for effect_error events.
	Error string `json:"error,omitempty"`
}

// Stats are aggregate counters since the recorder was created.
type Stats struct {
	Flushes      uint64  `json:"flushes"`
	EffectRuns   uint64  `json:"effectRuns"`
	EffectErrors uint64  `json:"effectErrors"`
	CycleAborts  uint64  `json:"cycleAborts"`
	TotalFlushMs float64 `json:"totalFlushMs"`
}
