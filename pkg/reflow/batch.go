package reflow

// DebugMode enables terse diagnostic prints throughout the package.
// Set at startup; not meant to change during runtime.
var DebugMode bool

// Batch groups multiple ref writes into a single notification pass.
// All writes inside fn are collected; when the outermost batch completes,
// affected listeners are deduplicated, marked dirty once each, and every
// scheduler that went FlushPending without a host hook is flushed.
//
// Batches nest: notifications only fire when the outermost batch completes.
//
// Example:
//
//	reflow.Batch(func() {
//	    firstName.Set("Ada")
//	    lastName.Set("Lovelace")
//	    age.Set(36)
//	})
//	// Dependent effects run once with all three changes
func Batch(fn func()) {
	incrementBatchDepth()

	defer func() {
		if decrementBatchDepth() {
			processPendingNotify()
			flushDirtySchedulers()
		}
	}()

	fn()
}

// processPendingNotify deduplicates and notifies all queued listeners.
func processPendingNotify() {
	pending := drainPendingNotify()
	if len(pending) == 0 {
		return
	}

	seen := make(map[uint64]bool, len(pending))
	for _, listener := range pending {
		id := listener.ID()
		if seen[id] {
			continue
		}
		seen[id] = true
		listener.MarkDirty()
	}
}

// flushDirtySchedulers flushes every scheduler marked dirty on this
// goroutine. Flush errors have already been reported through each
// scheduler's error handler.
func flushDirtySchedulers() {
	for _, sched := range drainDirtySchedulers() {
		_ = sched.Flush()
	}
}

// Untracked runs fn without tracking ref reads as dependencies.
// The no-op listener installed here fully shadows any outer consumer,
// regardless of nesting depth.
//
// For a single ref read, ref.Peek() is clearer and cheaper.
func Untracked(fn func()) {
	old := setCurrentListener(nil)
	defer setCurrentListener(old)
	fn()
}

// UntrackedGet reads a ref's value without creating a dependency.
// Convenience equivalent of ref.Peek().
func UntrackedGet[T any](r *Ref[T]) T {
	return r.Peek()
}
