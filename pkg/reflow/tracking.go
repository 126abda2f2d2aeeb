package reflow

import (
	"runtime"
	"sync"
)

// trackingContext holds the reactive state for a goroutine.
// Each goroutine has its own tracking context so independent reactive graphs
// (for example, two hosts under test) cannot interfere with one another.
type trackingContext struct {
	// currentScope is the Scope that will own newly created refs/effects.
	// Set during setup and render to establish the ownership hierarchy.
	currentScope *Scope

	// currentListener is what is currently tracking dependencies.
	// When a ref is read, it subscribes this listener.
	// nil means no tracking (reads create no subscriptions). A nil entry
	// installed by Untracked fully shadows any outer listener.
	currentListener Listener

	// currentEffect is the effect whose body is currently executing.
	// Used by OnCleanup to attach cleanups to the right run.
	currentEffect *Effect

	// batchDepth tracks nested Batch() calls. When > 0, writes queue
	// notifications instead of marking listeners dirty immediately.
	batchDepth int

	// pendingNotify accumulates listeners to notify when the outermost
	// batch completes. Deduplicated by ID before notification.
	pendingNotify []Listener

	// dirtySchedulers are schedulers that entered FlushPending without a
	// RequestFlush hook; the outermost Batch flushes them on exit.
	dirtySchedulers []*Scheduler
}

// trackingContexts stores per-goroutine tracking contexts.
// Using sync.Map for concurrent access from multiple goroutines.
var trackingContexts sync.Map

// getGoroutineID returns a unique identifier for the current goroutine.
// This parses the runtime stack header; it is an implementation detail and
// must not be relied upon externally.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	// The stack starts with "goroutine <id> ".
	var id uint64
	for i := 10; i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// getTrackingContext returns the tracking context for the current goroutine,
// creating one if none exists.
func getTrackingContext() *trackingContext {
	gid := getGoroutineID()

	if ctx, ok := trackingContexts.Load(gid); ok {
		return ctx.(*trackingContext)
	}

	ctx := &trackingContext{}
	trackingContexts.Store(gid, ctx)
	return ctx
}

// getCurrentListener returns the listener currently tracking reads.
// Returns nil if no tracking is active.
func getCurrentListener() Listener {
	return getTrackingContext().currentListener
}

// setCurrentListener installs a listener for dependency tracking.
// Returns the previous listener so it can be restored.
func setCurrentListener(l Listener) Listener {
	ctx := getTrackingContext()
	old := ctx.currentListener
	ctx.currentListener = l
	return old
}

// getCurrentScope returns the current owning scope for the goroutine.
// Returns nil if no scope is active.
func getCurrentScope() *Scope {
	return getTrackingContext().currentScope
}

// setCurrentScope installs the scope that owns newly created primitives.
// Returns the previous scope so it can be restored.
func setCurrentScope(s *Scope) *Scope {
	ctx := getTrackingContext()
	old := ctx.currentScope
	ctx.currentScope = s
	return old
}

// getCurrentEffect returns the effect whose body is currently executing.
func getCurrentEffect() *Effect {
	return getTrackingContext().currentEffect
}

// setCurrentEffect installs the currently executing effect.
// Returns the previous effect so it can be restored.
func setCurrentEffect(e *Effect) *Effect {
	ctx := getTrackingContext()
	old := ctx.currentEffect
	ctx.currentEffect = e
	return old
}

// getBatchDepth returns the current batch nesting depth.
func getBatchDepth() int {
	return getTrackingContext().batchDepth
}

// incrementBatchDepth increases the batch depth by 1.
func incrementBatchDepth() {
	getTrackingContext().batchDepth++
}

// decrementBatchDepth decreases the batch depth by 1.
// Returns true if the outermost batch just completed.
func decrementBatchDepth() bool {
	ctx := getTrackingContext()
	ctx.batchDepth--
	return ctx.batchDepth == 0
}

// queuePendingNotify records a listener to notify when the batch completes.
func queuePendingNotify(l Listener) {
	ctx := getTrackingContext()
	ctx.pendingNotify = append(ctx.pendingNotify, l)
}

// drainPendingNotify returns and clears the queued batch notifications.
func drainPendingNotify() []Listener {
	ctx := getTrackingContext()
	pending := ctx.pendingNotify
	ctx.pendingNotify = nil
	return pending
}

// markSchedulerDirty records a scheduler awaiting a flush on this goroutine.
// Deduplicated; drained by the outermost Batch or an explicit Flush.
func markSchedulerDirty(s *Scheduler) {
	ctx := getTrackingContext()
	for _, existing := range ctx.dirtySchedulers {
		if existing == s {
			return
		}
	}
	ctx.dirtySchedulers = append(ctx.dirtySchedulers, s)
}

// drainDirtySchedulers returns and clears the dirty scheduler list.
func drainDirtySchedulers() []*Scheduler {
	ctx := getTrackingContext()
	dirty := ctx.dirtySchedulers
	ctx.dirtySchedulers = nil
	return dirty
}

// WithScope runs fn with the specified scope as the current owner.
// This is used when spawning goroutines that need to create refs/effects
// belonging to a specific component scope.
func WithScope(scope *Scope, fn func()) {
	old := setCurrentScope(scope)
	defer setCurrentScope(old)
	fn()
}

// WithListener runs fn with the specified listener installed for tracking.
// This is used internally to set up dependency tracking during renders and
// is exposed for host integrations and tests.
func WithListener(l Listener, fn func()) {
	old := setCurrentListener(l)
	defer setCurrentListener(old)
	fn()
}
