package reflow

import "sync"

// View is the host-defined view description produced by a render callback.
// The runtime never inspects it; it only decides when a new one is needed.
type View = any

// RenderFunc produces a view description. The host invokes it for the
// initial render and again after each RequestRebuild.
type RenderFunc func() View

// Host is the boundary contract a UI integration supplies to RunSetup.
type Host interface {
	// RequestRebuild is invoked when a component's render binding becomes
	// dirty and is flushed. Actual re-rendering is the host's job: it
	// re-invokes the RenderFunc returned by RunSetup, which re-tracks
	// dependencies.
	RequestRebuild()
}

// ErrorReporter is optionally implemented by hosts that want effect panics
// and cycle-guard errors delivered to their own error channel.
type ErrorReporter interface {
	HandleEffectError(err error)
}

// mountRecord tracks one mounted component instance.
type mountRecord struct {
	scope   *Scope
	binding *Effect
	render  RenderFunc
}

// mounts maps host-supplied identities to mounted component instances.
var mounts sync.Map

// RunSetup executes body inside a fresh scope and returns the component's
// render callback. The host calls it once per logical component instance —
// and again, with the same identity, after a live code reload.
//
// On a re-invocation with a known identity, the previous scope is disposed
// and its positional slot state carries over: each NewRef call in the new
// setup run adopts, by position, the current value of the ref the previous
// run created there. Binding is strictly positional — inserting or removing
// an earlier NewRef call rebinds every later slot to the wrong state. This
// is a documented limitation of live-reload preservation, not something the
// runtime detects.
//
// The returned RenderFunc runs under a render binding: refs read during
// render subscribe the binding, and once any of them changes, the scheduler
// calls host.RequestRebuild exactly once per flush instead of re-rendering.
//
// If the host implements ErrorReporter and the component mounts a root
// scope, the scope's scheduler reports effect errors to it.
func RunSetup(host Host, identity any, body func() RenderFunc) RenderFunc {
	var prevSlots []any
	if rec, ok := mounts.Load(identity); ok {
		old := rec.(*mountRecord)
		prevSlots = old.scope.takeSlots()
		old.scope.Dispose()
	}

	scope := NewScope(getCurrentScope())
	if reporter, ok := host.(ErrorReporter); ok && scope.parent == nil {
		scope.sched.SetOnError(reporter.HandleEffectError)
	}

	scope.beginSetup(prevSlots)
	var userRender RenderFunc
	scope.Run(func() {
		userRender = body()
	})
	scope.endSetup()

	binding := &Effect{
		id:    nextID(),
		scope: scope,
		sched: scope.sched,
		name:  "render",
		onSchedule: func() {
			host.RequestRebuild()
		},
	}
	scope.registerEffect(binding)

	render := func() View {
		if scope.IsDisposed() {
			return nil
		}
		binding.pending.Store(false)
		var view View
		scope.Run(func() {
			binding.track(func() {
				view = userRender()
			})
		})
		return view
	}

	mounts.Store(identity, &mountRecord{scope: scope, binding: binding, render: render})
	return render
}

// Unmount permanently removes a component instance: its scope tree is
// disposed (effects cleaned up, subscriptions dropped) and its slot state
// forgotten. No-op for unknown identities.
func Unmount(identity any) {
	rec, ok := mounts.LoadAndDelete(identity)
	if !ok {
		return
	}
	rec.(*mountRecord).scope.Dispose()
}

// MountedScope returns the scope of a mounted component instance.
// Hosts use it to link ancestry (SetParentResolver) and for diagnostics.
func MountedScope(identity any) (*Scope, bool) {
	rec, ok := mounts.Load(identity)
	if !ok {
		return nil, false
	}
	return rec.(*mountRecord).scope, true
}
