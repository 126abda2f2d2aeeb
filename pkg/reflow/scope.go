package reflow

import (
	"sync"
	"sync/atomic"
)

// Scope is an ownership container for reactive primitives.
//
// Every effect, computed, and hot-reload-aware ref created while a scope is
// active is owned by it; disposing the scope tears them all down atomically.
// Scopes form a tree mirroring the host's component tree: disposing a scope
// recursively disposes child scopes depth-first before releasing its own
// effects and cleanups.
//
// Each scope also carries the local provide/inject table (see Provide) and
// the positional slot store used for live-reload state preservation (see
// RunSetup).
type Scope struct {
	id uint64

	// parent is the parent scope, nil for a root scope.
	parent *Scope

	// hostParent, when set, resolves the next ContextCarrier above a root
	// scope. Host integrations use it to bridge inject lookups across
	// their own tree structure.
	hostParent func() ContextCarrier

	// children are child scopes.
	childrenMu sync.Mutex
	children   []*Scope

	// effects owned by this scope.
	effectsMu sync.Mutex
	effects   []*Effect

	// cleanups are manual cleanup functions registered via OnCleanup.
	cleanupsMu sync.Mutex
	cleanups   []func()

	// values is the local provide/inject table.
	valuesMu sync.RWMutex
	values   map[any]any

	// sched is the scheduler for effects owned by this scope tree.
	// Inherited from the parent; a root scope creates its own.
	sched *Scheduler

	// Positional slot state for setup re-invocation (live reload).
	// prevSlots holds the slot entries of the previous generation;
	// slots collects this generation's entries in creation order.
	slotsMu    sync.Mutex
	prevSlots  []any
	slots      []any
	slotIdx    int
	setupDepth int32

	// disposed marks the scope inactive. Dispose is idempotent.
	disposed atomic.Bool
}

// NewScope creates a new scope under parent. A nil parent creates a root
// scope with its own scheduler; child scopes share the root's scheduler.
func NewScope(parent *Scope) *Scope {
	s := &Scope{
		id:     nextID(),
		parent: parent,
	}

	if parent != nil {
		s.sched = parent.sched
		parent.addChild(s)
	} else {
		s.sched = NewScheduler()
	}

	return s
}

// NewScopeWithScheduler creates a root scope flushed by the given scheduler.
// Hosts use it to route a component tree's effects through a scheduler they
// configured (error handler, hooks, run budget).
func NewScopeWithScheduler(sched *Scheduler) *Scope {
	if sched == nil {
		sched = NewScheduler()
	}
	return &Scope{
		id:    nextID(),
		sched: sched,
	}
}

// schedulerFor resolves the scheduler for primitives created under scope.
// Free-standing primitives fall back to the process-wide default scheduler.
func schedulerFor(scope *Scope) *Scheduler {
	if scope != nil {
		return scope.sched
	}
	return DefaultScheduler()
}

// ID returns the unique identifier for this scope.
func (s *Scope) ID() uint64 {
	return s.id
}

// Parent returns the parent scope, or nil for a root scope.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Scheduler returns the scheduler effects owned by this scope are queued on.
func (s *Scope) Scheduler() *Scheduler {
	return s.sched
}

// IsDisposed reports whether this scope has been disposed.
func (s *Scope) IsDisposed() bool {
	return s.disposed.Load()
}

// Run makes this scope the active owner for the duration of fn, restoring
// the previous active scope afterward on every exit path.
func (s *Scope) Run(fn func()) {
	old := setCurrentScope(s)
	defer setCurrentScope(old)
	fn()
}

// addChild registers a child scope.
func (s *Scope) addChild(child *Scope) {
	s.childrenMu.Lock()
	defer s.childrenMu.Unlock()
	s.children = append(s.children, child)
}

// removeChild removes a child scope from this scope's children.
func (s *Scope) removeChild(child *Scope) {
	s.childrenMu.Lock()
	defer s.childrenMu.Unlock()

	for i, c := range s.children {
		if c == child {
			s.children = append(s.children[:i], s.children[i+1:]...)
			return
		}
	}
}

// registerEffect adds an effect to this scope.
// The effect is disposed when the scope is disposed.
func (s *Scope) registerEffect(e *Effect) {
	if s.disposed.Load() {
		return
	}

	s.effectsMu.Lock()
	defer s.effectsMu.Unlock()
	s.effects = append(s.effects, e)
}

// OnCleanup registers a cleanup function to run when this scope is disposed.
// Cleanups run in reverse registration order. Registering on an already
// disposed scope runs the cleanup immediately.
func (s *Scope) OnCleanup(fn func()) {
	if s.disposed.Load() {
		fn()
		return
	}

	s.cleanupsMu.Lock()
	defer s.cleanupsMu.Unlock()
	s.cleanups = append(s.cleanups, fn)
}

// Dispose disposes this scope: child scopes first (depth-first, reverse
// creation order), then owned effects, then manual cleanups in reverse
// registration order. Disposing an already-disposed scope is a no-op.
//
// Subscribers of refs owned by the scope are dropped, not notified.
func (s *Scope) Dispose() {
	if s.disposed.Swap(true) {
		return
	}

	if s.parent != nil {
		s.parent.removeChild(s)
	}

	s.childrenMu.Lock()
	children := make([]*Scope, len(s.children))
	copy(children, s.children)
	s.children = nil
	s.childrenMu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	s.effectsMu.Lock()
	effects := s.effects
	s.effects = nil
	s.effectsMu.Unlock()

	for _, e := range effects {
		e.Dispose()
	}

	s.cleanupsMu.Lock()
	cleanups := s.cleanups
	s.cleanups = nil
	s.cleanupsMu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}

	s.slotsMu.Lock()
	s.prevSlots = nil
	s.slots = nil
	s.slotsMu.Unlock()
}

// =============================================================================
// Positional slots
// =============================================================================

// beginSetup resets the slot cursor for a setup run.
func (s *Scope) beginSetup(prevSlots []any) {
	s.slotsMu.Lock()
	s.prevSlots = prevSlots
	s.slots = nil
	s.slotIdx = 0
	s.slotsMu.Unlock()
	atomic.AddInt32(&s.setupDepth, 1)
}

// endSetup closes the setup run; slot-aware creation stops afterwards.
func (s *Scope) endSetup() {
	atomic.AddInt32(&s.setupDepth, -1)
}

// inSetup reports whether a setup run is in progress on this scope.
func (s *Scope) inSetup() bool {
	return atomic.LoadInt32(&s.setupDepth) > 0
}

// useSlot returns the previous generation's entry at the current position,
// or nil when the position is new, and advances the cursor. Binding is
// strictly positional: reordering earlier creation calls shifts every later
// slot.
func (s *Scope) useSlot() any {
	s.slotsMu.Lock()
	defer s.slotsMu.Unlock()

	idx := s.slotIdx
	s.slotIdx++

	if idx < len(s.prevSlots) {
		return s.prevSlots[idx]
	}
	return nil
}

// recordSlot appends this generation's entry at the current position.
func (s *Scope) recordSlot(v any) {
	s.slotsMu.Lock()
	defer s.slotsMu.Unlock()
	s.slots = append(s.slots, v)
}

// takeSlots returns the slot entries recorded during the last setup run.
// Used to seed the next generation before this scope is disposed.
func (s *Scope) takeSlots() []any {
	s.slotsMu.Lock()
	defer s.slotsMu.Unlock()

	slots := s.slots
	s.slots = nil
	return slots
}
