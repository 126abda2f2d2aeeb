package reflow

import (
	"sync"
	"sync/atomic"
)

// Effect represents a reactive side effect that re-runs when its
// dependencies change.
//
// The first run happens synchronously at creation to establish the initial
// dependency set. Subsequent runs happen only through the Scheduler: a dirty
// effect is queued and re-run at most once per flush no matter how many of
// its inputs changed.
//
// Cleanups registered during a run (via OnCleanup or the Cleanup return
// value) are invoked in reverse registration order before the next run and
// when the effect is disposed, matching nested-resource unwind semantics.
type Effect struct {
	id uint64

	// fn is the effect body.
	fn func() Cleanup

	// cleanups registered during the last run.
	cleanups []func()

	// sources are the producers read during the last run.
	sourcesMu sync.Mutex
	sources   []*sourceBase

	// nextSources accumulates the dependency set of the run in progress.
	nextSources []*sourceBase

	// scope owns this effect, nil for free-standing effects.
	scope *Scope

	// sched is the scheduler this effect is queued on when dirtied.
	sched *Scheduler

	// pending dedups scheduling: a dirty effect is queued exactly once.
	pending atomic.Bool

	// disposed effects ignore notifications.
	disposed atomic.Bool

	// onSchedule, when set, is invoked by the scheduler instead of run.
	// Render bindings use it to request a host rebuild rather than
	// re-render themselves.
	onSchedule func()

	// name is an optional label for diagnostics.
	name string
}

// MarkDirty marks the effect as needing to re-run and queues it on its
// scheduler. Implements the Listener interface.
func (e *Effect) MarkDirty() {
	if e.disposed.Load() {
		return
	}

	// CAS ensures one queue entry per flush regardless of how many
	// producers notified.
	if e.pending.CompareAndSwap(false, true) {
		e.sched.Schedule(e)
	}
}

// ID returns the unique identifier for this effect.
// Implements the Listener interface.
func (e *Effect) ID() uint64 {
	return e.id
}

// Name returns the diagnostic label set via WithName, or "".
func (e *Effect) Name() string {
	return e.name
}

// run executes the effect body: previous cleanups first (reverse order),
// then the body under tracking, then the dependency diff.
func (e *Effect) run() {
	if e.disposed.Load() {
		return
	}

	e.pending.Store(false)
	e.runCleanups()

	e.track(func() {
		if cleanup := e.fn(); cleanup != nil {
			e.cleanups = append(e.cleanups, cleanup)
		}
	})
}

// track runs body with this effect installed as the active listener.
// The listener restore and the dependency diff happen on every exit path,
// including panics, so a failing body cannot corrupt the tracking stack.
func (e *Effect) track(body func()) {
	e.sourcesMu.Lock()
	e.nextSources = e.nextSources[:0]
	e.sourcesMu.Unlock()

	oldListener := setCurrentListener(e)
	oldEffect := setCurrentEffect(e)
	defer func() {
		setCurrentEffect(oldEffect)
		setCurrentListener(oldListener)
		e.swapSources()
	}()

	body()
}

// runCleanups invokes the cleanups from the previous run in reverse
// registration order and clears the list.
func (e *Effect) runCleanups() {
	cleanups := e.cleanups
	e.cleanups = nil
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

// addSource records a producer read during the run in progress.
// Implements the dependent interface.
func (e *Effect) addSource(src *sourceBase) {
	e.sourcesMu.Lock()
	defer e.sourcesMu.Unlock()

	for _, s := range e.nextSources {
		if s == src {
			return
		}
	}
	e.nextSources = append(e.nextSources, src)
}

// swapSources installs the freshly captured dependency set, unsubscribing
// from producers that were not read this run. The recorded set therefore
// always reflects exactly the most recent run.
func (e *Effect) swapSources() {
	e.sourcesMu.Lock()
	oldSources := e.sources
	newSources := append([]*sourceBase(nil), e.nextSources...)
	e.sources = newSources
	e.sourcesMu.Unlock()

	for _, src := range oldSources {
		stale := true
		for _, kept := range newSources {
			if kept == src {
				stale = false
				break
			}
		}
		if stale {
			src.unsubscribe(e)
		}
	}
}

// Dispose runs the final cleanups, detaches from all producers, and marks
// the effect inactive. Subsequent notifications are ignored. Idempotent.
func (e *Effect) Dispose() {
	if e.disposed.Swap(true) {
		return
	}

	e.runCleanups()

	e.sourcesMu.Lock()
	sources := e.sources
	e.sources = nil
	e.nextSources = nil
	e.sourcesMu.Unlock()

	for _, src := range sources {
		src.unsubscribe(e)
	}
}

// IsDisposed reports whether the effect has been disposed.
func (e *Effect) IsDisposed() bool {
	return e.disposed.Load()
}

// EffectOption configures an Effect at creation time.
type EffectOption func(*Effect)

// WithName sets a diagnostic label for the effect. The label shows up in
// scheduler errors and inspector events.
func WithName(name string) EffectOption {
	return func(e *Effect) {
		e.name = name
	}
}

// CreateEffect creates a new effect owned by the current scope and runs it
// immediately. The body re-runs whenever a ref or computed it read changes.
// If the body returns a non-nil Cleanup, it is invoked before the next run
// and at dispose; additional cleanups can be registered with OnCleanup.
//
// Example:
//
//	reflow.CreateEffect(func() reflow.Cleanup {
//	    fmt.Println("Count is:", count.Get())
//	    return func() { fmt.Println("cleanup") }
//	})
func CreateEffect(fn func() Cleanup, opts ...EffectOption) *Effect {
	scope := getCurrentScope()

	e := &Effect{
		id:    nextID(),
		fn:    fn,
		scope: scope,
		sched: schedulerFor(scope),
	}

	for _, opt := range opts {
		opt(e)
	}

	if scope != nil {
		scope.registerEffect(e)
	}

	// First run is synchronous so the initial dependency set exists before
	// any write can race it.
	e.run()

	return e
}

// OnCleanup registers fn on the currently running effect's cleanup list.
// Cleanups run in reverse registration order before the effect's next run
// and when it is disposed.
//
// Outside an effect body, the cleanup attaches to the current scope instead
// and runs at scope disposal. With neither an effect nor a scope active, the
// registration is dropped.
func OnCleanup(fn func()) {
	if e := getCurrentEffect(); e != nil {
		e.cleanups = append(e.cleanups, fn)
		return
	}
	if s := getCurrentScope(); s != nil {
		s.OnCleanup(fn)
		return
	}
	if DebugMode {
		println("reflow: OnCleanup called with no active effect or scope")
	}
}

// OnMount creates an effect that runs only once at creation.
// Equivalent to CreateEffect with a body that reads no reactive values.
func OnMount(fn func()) {
	CreateEffect(func() Cleanup {
		fn()
		return nil
	})
}

// OnUnmount registers fn to run when the current scope is disposed.
func OnUnmount(fn func()) {
	if scope := getCurrentScope(); scope != nil {
		scope.OnCleanup(fn)
	}
}

// Ensure Effect implements the tracking interfaces.
var _ dependent = (*Effect)(nil)
