package reflow

// Listener is anything that can be notified when a producer it read changes.
// This interface is implemented by effects, computeds, and render bindings.
type Listener interface {
	// MarkDirty notifies the listener that one of its dependencies changed.
	// For computeds, this invalidates the cached value.
	// For effects, this schedules the effect to re-run.
	// For render bindings, this asks the host for a rebuild.
	MarkDirty()

	// ID returns a unique identifier for this listener.
	// Used for deduplication in subscriber sets and batch processing.
	ID() uint64
}

// Cleanup is a function returned by effects to release resources.
// It is called before the effect re-runs and when the effect is disposed.
type Cleanup func()
