package reflow

import (
	"sync"
	"time"
)

// DefaultMaxRunsPerFlush bounds how many times a single effect may re-run
// within one flush before the flush aborts with a FlushCycleError. A
// legitimate cascade converges well below this; only read+write feedback
// loops reach it.
const DefaultMaxRunsPerFlush = 100

// schedulerState is the two-state flush machine: Idle, or a flush pending.
// A third internal state marks a flush in progress so cascaded schedules
// append to the live queue instead of arranging another flush.
type schedulerState int

const (
	schedIdle schedulerState = iota
	schedFlushPending
	schedFlushing
)

// Scheduler is the deduplicating, batched flush queue that decides when
// dirty effects actually re-run.
//
// Writes mark effects dirty and queue them here; nothing re-runs until the
// queue is flushed. On the first Schedule while Idle, the scheduler
// transitions to FlushPending and fires the RequestFlush hook exactly once
// so the host can arrange a deferred flush on its own event loop —
// conceptually the next microtask. Hosts without a hook get flushed by the
// outermost Batch, or by an explicit Flush call.
//
// One flush runs to convergence: effects scheduled by running effects are
// appended and processed in the same flush. A cycle guard aborts the flush
// if a single effect re-runs more than its bound; a panicking effect is
// caught and reported without blocking the rest of the queue.
type Scheduler struct {
	mu    sync.Mutex
	queue []*Effect
	state schedulerState

	// requestFlush is the host hook fired on the Idle to FlushPending
	// transition.
	requestFlush func()

	// onError receives effect panics and cycle-guard errors.
	onError func(error)

	// maxRuns is the per-effect re-run bound within one flush.
	maxRuns int

	// budget optionally rate-limits effect runs across flushes.
	budget *RunBudget

	// hooks observes scheduler activity (telemetry, inspector).
	hooks Hooks
}

// SchedulerOption configures a Scheduler at creation time.
type SchedulerOption func(*Scheduler)

// WithRequestFlush sets the host hook fired once per Idle-to-FlushPending
// transition.
func WithRequestFlush(fn func()) SchedulerOption {
	return func(s *Scheduler) {
		s.requestFlush = fn
	}
}

// WithOnError sets the handler for effect panics and cycle-guard trips.
func WithOnError(fn func(error)) SchedulerOption {
	return func(s *Scheduler) {
		s.onError = fn
	}
}

// WithMaxRunsPerFlush overrides the cycle-guard bound.
func WithMaxRunsPerFlush(n int) SchedulerOption {
	return func(s *Scheduler) {
		s.maxRuns = n
	}
}

// WithRunBudget attaches a rate budget checked before each effect run.
func WithRunBudget(b *RunBudget) SchedulerOption {
	return func(s *Scheduler) {
		s.budget = b
	}
}

// WithHooks attaches observability hooks.
func WithHooks(h Hooks) SchedulerOption {
	return func(s *Scheduler) {
		s.hooks = h
	}
}

// NewScheduler creates a scheduler in the Idle state.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		maxRuns: DefaultMaxRunsPerFlush,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// defaultScheduler serves effects created outside any scope.
var (
	defaultScheduler     *Scheduler
	defaultSchedulerOnce sync.Once
)

// DefaultScheduler returns the process-wide scheduler used by free-standing
// effects. Scoped effects use their root scope's scheduler instead.
func DefaultScheduler() *Scheduler {
	defaultSchedulerOnce.Do(func() {
		defaultScheduler = NewScheduler()
	})
	return defaultScheduler
}

// Flush flushes the default scheduler.
func Flush() error {
	return DefaultScheduler().Flush()
}

// SetRequestFlush installs the host flush hook after creation.
func (s *Scheduler) SetRequestFlush(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requestFlush = fn
}

// SetOnError installs the error handler after creation.
func (s *Scheduler) SetOnError(fn func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = fn
}

// SetHooks installs observability hooks after creation.
func (s *Scheduler) SetHooks(h Hooks) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = h
}

// Pending returns the number of queued effects.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Schedule queues an effect for the next flush. Callers dedup via the
// effect's pending flag, so one queue entry exists per dirty effect. On the
// Idle to FlushPending transition the RequestFlush hook fires once; without
// a hook, the scheduler is recorded on the goroutine's dirty list so the
// outermost Batch flushes it.
func (s *Scheduler) Schedule(e *Effect) {
	s.mu.Lock()
	s.queue = append(s.queue, e)

	if s.state != schedIdle {
		s.mu.Unlock()
		return
	}
	s.state = schedFlushPending
	hook := s.requestFlush
	s.mu.Unlock()

	if hook != nil {
		hook()
	} else {
		markSchedulerDirty(s)
	}
}

// Flush drains the queue, running each effect at most once per scheduling,
// in insertion order. Effects scheduled during the flush are processed in
// the same flush. Returns a FlushCycleError if the cycle guard trips; nil
// otherwise. Calling Flush while a flush is running is a no-op.
func (s *Scheduler) Flush() error {
	s.mu.Lock()
	if s.state == schedFlushing {
		s.mu.Unlock()
		return nil
	}
	s.state = schedFlushing
	hooks := s.hooks
	s.mu.Unlock()

	if hooks != nil {
		hooks.FlushStart()
	}

	start := time.Now()
	runs := make(map[uint64]int)
	totalRuns := 0
	var deferred []*Effect

	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.state = schedIdle
			s.mu.Unlock()
			break
		}
		e := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		if e.disposed.Load() || !e.pending.Load() {
			continue
		}

		runs[e.id]++
		if runs[e.id] > s.maxRuns {
			err := s.abortCycle(e, runs[e.id], deferred)
			if hooks != nil {
				hooks.CycleAbort(e.id, runs[e.id])
				hooks.FlushEnd(time.Since(start), totalRuns)
			}
			return err
		}

		if s.budget != nil && !s.budget.Allow() {
			// Over budget: keep the effect dirty and park it for the
			// next flush so this one still converges.
			deferred = append(deferred, e)
			continue
		}

		runStart := time.Now()
		totalRuns++
		if err := s.safeRun(e); err != nil {
			if hooks != nil {
				hooks.EffectError(err)
			}
			s.reportError(err)
			continue
		}
		if hooks != nil {
			hooks.EffectRun(time.Since(runStart))
		}
	}

	if len(deferred) > 0 {
		s.requeue(deferred)
	}

	if hooks != nil {
		hooks.FlushEnd(time.Since(start), totalRuns)
	}
	return nil
}

// safeRun executes one scheduled effect, converting a panic into an
// EffectPanicError instead of unwinding the flush. A render binding's
// scheduled run requests a host rebuild rather than re-rendering here.
func (s *Scheduler) safeRun(e *Effect) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &EffectPanicError{EffectID: e.id, EffectName: e.name, Recovered: r}
		}
	}()

	if e.onSchedule != nil {
		e.pending.Store(false)
		e.onSchedule()
		return nil
	}

	e.run()
	return nil
}

// abortCycle tears down a flush that stopped converging: the remaining
// queue and any budget-deferred effects are dropped, pending flags are
// cleared so the effects can be scheduled again, and a FlushCycleError is
// reported. Deferred effects sit in no queue, so leaving their pending
// flag set would orphan them permanently.
func (s *Scheduler) abortCycle(e *Effect, runCount int, deferred []*Effect) error {
	s.mu.Lock()
	dropped := s.queue
	s.queue = nil
	s.state = schedIdle
	s.mu.Unlock()

	e.pending.Store(false)
	for _, d := range dropped {
		d.pending.Store(false)
	}
	for _, d := range deferred {
		d.pending.Store(false)
	}

	err := &FlushCycleError{EffectID: e.id, EffectName: e.name, Runs: runCount}
	s.reportError(err)
	return err
}

// requeue parks budget-deferred effects for the next flush.
func (s *Scheduler) requeue(deferred []*Effect) {
	s.mu.Lock()
	s.queue = append(s.queue, deferred...)
	s.state = schedFlushPending
	hook := s.requestFlush
	s.mu.Unlock()

	if hook != nil {
		hook()
	} else {
		markSchedulerDirty(s)
	}
}

// reportError forwards an error to the configured handler.
func (s *Scheduler) reportError(err error) {
	s.mu.Lock()
	handler := s.onError
	s.mu.Unlock()

	if handler != nil {
		handler(err)
		return
	}
	if DebugMode {
		println("reflow: " + err.Error())
	}
}
