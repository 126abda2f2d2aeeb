package reflow

import (
	"sync"
	"time"
)

// RunBudget rate-limits effect runs across flushes using a sliding window.
// It protects against amplification bugs where effects cascade into more
// effects faster than the host can absorb. The cycle guard catches loops
// within a single flush; the budget catches storms across flushes.
//
// Effects denied by the budget stay dirty and are re-queued for the next
// flush rather than dropped.
type RunBudget struct {
	mu         sync.Mutex
	events     []time.Time
	windowSize time.Duration
	maxEvents  int
}

// NewRunBudget creates a budget allowing at most maxRuns effect runs per
// window. A maxRuns of 0 means unlimited; a zero window defaults to one
// second.
func NewRunBudget(maxRuns int, window time.Duration) *RunBudget {
	if window == 0 {
		window = time.Second
	}
	return &RunBudget{
		windowSize: window,
		maxEvents:  maxRuns,
	}
}

// Allow reports whether another effect run fits in the current window,
// recording it if so.
func (b *RunBudget) Allow() bool {
	if b == nil || b.maxEvents == 0 {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-b.windowSize)

	validIdx := 0
	for _, t := range b.events {
		if t.After(cutoff) {
			b.events[validIdx] = t
			validIdx++
		}
	}
	b.events = b.events[:validIdx]

	if len(b.events) >= b.maxEvents {
		return false
	}

	b.events = append(b.events, now)
	return true
}

// Used returns the number of runs recorded in the current window.
func (b *RunBudget) Used() int {
	if b == nil {
		return 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-b.windowSize)

	count := 0
	for _, t := range b.events {
		if t.After(cutoff) {
			count++
		}
	}
	return count
}
