package reflow

import (
	"sync"
	"sync/atomic"
)

// Computed is a cached derived value that automatically tracks its
// dependencies. When any dependency changes, the computed is invalidated and
// recomputes on the next read — never eagerly on write.
//
// Computeds are lazy: if multiple inputs change before a read, the
// derivation runs only once. A computed is also a producer: consumers that
// read it subscribe to it, so chains of derived values compose.
//
// A panic inside the derivation propagates to the caller of Get, and the
// computed stays invalid so the next read retries.
type Computed[T any] struct {
	base sourceBase

	// compute is the pure derivation function.
	compute func() T

	// value is the cached result of the last successful computation.
	value T

	// valueMu protects value access.
	valueMu sync.RWMutex

	// valid reports whether the cached value is current.
	// A computed starts invalid; any read while invalid recomputes first.
	valid atomic.Bool

	// sources are the producers read during the last computation.
	sourcesMu sync.Mutex
	sources   []*sourceBase

	// nextSources accumulates the dependency set of the run in progress.
	// The full new set is captured before diffing against the old one.
	nextSources []*sourceBase

	// equal is the equality function for value-change detection.
	equal func(T, T) bool

	// computing breaks recursion on circular reads.
	computing atomic.Bool

	// notifying breaks recursion when a notification wave loops back.
	notifying atomic.Bool
}

// NewComputed creates a new computed with the given derivation function.
// The derivation does not run immediately; it runs lazily on first Get.
func NewComputed[T any](compute func() T) *Computed[T] {
	c := &Computed[T]{
		base: sourceBase{
			id: nextID(),
		},
		compute: compute,
	}

	// Scope teardown drops this computed's producer links so nothing keeps
	// notifying a dead consumer.
	if scope := getCurrentScope(); scope != nil {
		scope.OnCleanup(c.detach)
	}

	return c
}

// Get returns the computed's value, recomputing first if it is invalid.
// The current listener, if any, is subscribed to this computed.
func (c *Computed[T]) Get() T {
	if listener := getCurrentListener(); listener != nil {
		c.base.subscribe(listener)
		if d, ok := listener.(dependent); ok {
			d.addSource(&c.base)
		}
	}

	if !c.valid.Load() {
		c.recompute()
	}

	c.valueMu.RLock()
	value := c.value
	c.valueMu.RUnlock()
	return value
}

// Peek returns the computed's value without subscribing.
// Still recomputes if the cached value is invalid.
func (c *Computed[T]) Peek() T {
	if !c.valid.Load() {
		c.recompute()
	}
	c.valueMu.RLock()
	value := c.value
	c.valueMu.RUnlock()
	return value
}

// MarkDirty invalidates the cache and forwards the notification to
// subscribers. The computed itself is never scheduled: it recomputes only
// when something reads it, while its subscribers are notified eagerly
// because a value change may be coming.
//
// The forward happens even when the cache is already invalid: subscribers
// dedup on their own pending state, and a computed left invalid by a failed
// derivation must still pass later waves through so its consumers retry.
// Implements the Listener interface.
func (c *Computed[T]) MarkDirty() {
	c.valid.Store(false)

	if c.notifying.Swap(true) {
		return
	}
	defer c.notifying.Store(false)
	c.base.notifySubscribers()
}

// ID returns the unique identifier for this computed.
// Implements the Listener interface.
func (c *Computed[T]) ID() uint64 {
	return c.base.id
}

// Version returns the computed's change counter. It increases whenever a
// recomputation produces a value unequal to the previous one.
func (c *Computed[T]) Version() uint64 {
	return c.base.version.Load()
}

// addSource records a producer read during the run in progress.
// Implements the dependent interface.
func (c *Computed[T]) addSource(src *sourceBase) {
	c.sourcesMu.Lock()
	defer c.sourcesMu.Unlock()

	for _, s := range c.nextSources {
		if s == src {
			return
		}
	}
	c.nextSources = append(c.nextSources, src)
}

// WithEquals configures the computed with a custom equality function.
func (c *Computed[T]) WithEquals(fn func(T, T) bool) *Computed[T] {
	c.equal = fn
	return c
}

// recompute runs the derivation and updates the cached value.
// On panic, the dependency diff and listener restore still happen, but the
// computed stays invalid so the next read retries.
func (c *Computed[T]) recompute() {
	// Break circular reads instead of recursing forever.
	if c.computing.Swap(true) {
		return
	}
	defer c.computing.Store(false)

	c.sourcesMu.Lock()
	c.nextSources = c.nextSources[:0]
	c.sourcesMu.Unlock()

	old := setCurrentListener(c)
	defer func() {
		setCurrentListener(old)
		c.swapSources()
	}()

	newValue := c.compute()

	c.valueMu.Lock()
	if !c.equals(c.value, newValue) {
		c.base.bumpVersion()
	}
	c.value = newValue
	c.valueMu.Unlock()

	c.valid.Store(true)
}

// swapSources installs the freshly captured dependency set, unsubscribing
// from producers that were not read this run.
func (c *Computed[T]) swapSources() {
	c.sourcesMu.Lock()
	oldSources := c.sources
	newSources := append([]*sourceBase(nil), c.nextSources...)
	c.sources = newSources
	c.sourcesMu.Unlock()

	for _, src := range oldSources {
		stale := true
		for _, kept := range newSources {
			if kept == src {
				stale = false
				break
			}
		}
		if stale {
			src.unsubscribe(c)
		}
	}
}

// detach unsubscribes the computed from every producer it reads.
// Called when the owning scope is disposed.
func (c *Computed[T]) detach() {
	c.sourcesMu.Lock()
	sources := c.sources
	c.sources = nil
	c.nextSources = nil
	c.sourcesMu.Unlock()

	for _, src := range sources {
		src.unsubscribe(c)
	}
}

// equals checks two values under the configured equality function.
func (c *Computed[T]) equals(a, b T) bool {
	if c.equal != nil {
		return c.equal(a, b)
	}
	return defaultEquals(a, b)
}

// Ensure Computed implements the tracking interfaces.
var _ dependent = (*Computed[int])(nil)
