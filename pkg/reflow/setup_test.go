package reflow

import (
	"testing"
)

// testHost records rebuild requests and reported effect errors.
type testHost struct {
	rebuilds int
	errs     []error
}

func (h *testHost) RequestRebuild()           { h.rebuilds++ }
func (h *testHost) HandleEffectError(e error) { h.errs = append(h.errs, e) }

func TestRunSetupInitialRender(t *testing.T) {
	host := &testHost{}
	id := "counter-1"
	defer Unmount(id)

	count := NewRef(0)
	render := RunSetup(host, id, func() RenderFunc {
		return func() View {
			return count.Get() * 2
		}
	})

	if got := render(); got != 0 {
		t.Errorf("expected initial view 0, got %v", got)
	}
	if host.rebuilds != 0 {
		t.Errorf("no rebuild expected before any write, got %d", host.rebuilds)
	}
}

func TestRenderBindingRequestsRebuild(t *testing.T) {
	host := &testHost{}
	id := "counter-2"
	defer Unmount(id)

	var count *Ref[int]
	render := RunSetup(host, id, func() RenderFunc {
		count = NewRef(0)
		return func() View {
			return count.Get()
		}
	})
	render()

	scope, ok := MountedScope(id)
	if !ok {
		t.Fatal("expected mounted scope")
	}

	count.Set(1)
	count.Set(2)
	if err := scope.Scheduler().Flush(); err != nil {
		t.Fatal(err)
	}

	// Two writes collapsed into one rebuild request; the binding never
	// re-renders on its own.
	if host.rebuilds != 1 {
		t.Errorf("expected 1 rebuild request, got %d", host.rebuilds)
	}

	if got := render(); got != 2 {
		t.Errorf("expected re-render to see 2, got %v", got)
	}

	// The re-render re-armed the binding: the next write requests again.
	count.Set(3)
	if err := scope.Scheduler().Flush(); err != nil {
		t.Fatal(err)
	}
	if host.rebuilds != 2 {
		t.Errorf("expected a second rebuild request, got %d", host.rebuilds)
	}
}

func TestRenderRetracksDependencies(t *testing.T) {
	host := &testHost{}
	id := "switcher"
	defer Unmount(id)

	var useA *Ref[bool]
	var a, b *Ref[string]
	render := RunSetup(host, id, func() RenderFunc {
		useA = NewRef(true)
		a = NewRef("a")
		b = NewRef("b")
		return func() View {
			if useA.Get() {
				return a.Get()
			}
			return b.Get()
		}
	})
	render()

	scope, _ := MountedScope(id)

	useA.Set(false)
	_ = scope.Scheduler().Flush()
	render()

	// While on the b branch, writes to a must not request rebuilds.
	before := host.rebuilds
	a.Set("a2")
	_ = scope.Scheduler().Flush()
	if host.rebuilds != before {
		t.Errorf("untracked branch write should not rebuild, got %d extra", host.rebuilds-before)
	}

	b.Set("b2")
	_ = scope.Scheduler().Flush()
	if host.rebuilds != before+1 {
		t.Errorf("tracked branch write should rebuild, got %d", host.rebuilds)
	}
}

func TestRunSetupSlotAdoption(t *testing.T) {
	host := &testHost{}
	id := "reload-1"
	defer Unmount(id)

	var count *Ref[int]
	var label *Ref[string]
	setup := func() RenderFunc {
		count = NewRef(0)
		label = NewRef("init")
		return func() View { return nil }
	}

	RunSetup(host, id, setup)
	count.Set(42)
	label.Set("edited")
	if _, ok := MountedScope(id); !ok {
		t.Fatal("expected mounted scope")
	}

	// Simulate a live reload: same identity, fresh setup run. The new refs
	// adopt the old values by position instead of their initializers.
	RunSetup(host, id, setup)

	if got := count.Peek(); got != 42 {
		t.Errorf("expected adopted value 42, got %d", got)
	}
	if got := label.Peek(); got != "edited" {
		t.Errorf("expected adopted value edited, got %q", got)
	}
}

func TestRunSetupSlotTypeMismatchFallsBack(t *testing.T) {
	host := &testHost{}
	id := "reload-2"
	defer Unmount(id)

	RunSetup(host, id, func() RenderFunc {
		r := NewRef(7)
		r.Set(99)
		return func() View { return nil }
	})

	// After the reload the first slot holds a string ref; the old int value
	// cannot carry over, so the initializer wins.
	var s *Ref[string]
	RunSetup(host, id, func() RenderFunc {
		s = NewRef("fresh")
		return func() View { return nil }
	})

	if got := s.Peek(); got != "fresh" {
		t.Errorf("type-mismatched slot should use the initializer, got %q", got)
	}
}

func TestRunSetupNewTrailingSlot(t *testing.T) {
	host := &testHost{}
	id := "reload-3"
	defer Unmount(id)

	RunSetup(host, id, func() RenderFunc {
		a := NewRef(1)
		a.Set(10)
		return func() View { return nil }
	})

	var a *Ref[int]
	var b *Ref[int]
	RunSetup(host, id, func() RenderFunc {
		a = NewRef(1)
		b = NewRef(2)
		return func() View { return nil }
	})

	if got := a.Peek(); got != 10 {
		t.Errorf("existing slot should adopt, got %d", got)
	}
	if got := b.Peek(); got != 2 {
		t.Errorf("slot beyond the old count uses its initializer, got %d", got)
	}
}

func TestRunSetupDisposesPreviousScope(t *testing.T) {
	host := &testHost{}
	id := "reload-4"
	defer Unmount(id)

	cleanedUp := false
	RunSetup(host, id, func() RenderFunc {
		OnCleanup(func() { cleanedUp = true })
		return func() View { return nil }
	})

	oldScope, _ := MountedScope(id)

	RunSetup(host, id, func() RenderFunc {
		return func() View { return nil }
	})

	if !cleanedUp {
		t.Error("previous setup's cleanups should run on reload")
	}
	if !oldScope.IsDisposed() {
		t.Error("previous scope should be disposed on reload")
	}
	newScope, _ := MountedScope(id)
	if newScope == oldScope {
		t.Error("reload should mount a fresh scope")
	}
}

func TestUnmount(t *testing.T) {
	host := &testHost{}
	id := "gone"

	var count *Ref[int]
	render := RunSetup(host, id, func() RenderFunc {
		count = NewRef(0)
		return func() View {
			return count.Get()
		}
	})
	render()

	scope, _ := MountedScope(id)
	Unmount(id)

	if !scope.IsDisposed() {
		t.Error("unmount should dispose the scope")
	}
	if _, ok := MountedScope(id); ok {
		t.Error("unmounted identity should be forgotten")
	}

	// Writes after unmount neither rebuild nor panic; render is inert.
	count.Set(5)
	_ = scope.Scheduler().Flush()
	if host.rebuilds != 0 {
		t.Errorf("no rebuilds after unmount, got %d", host.rebuilds)
	}
	if got := render(); got != nil {
		t.Errorf("disposed render should return nil, got %v", got)
	}

	// Unknown identities are a no-op.
	Unmount("never-mounted")
}

func TestHostErrorReporter(t *testing.T) {
	host := &testHost{}
	id := "faulty"
	defer Unmount(id)

	var trigger *Ref[int]
	RunSetup(host, id, func() RenderFunc {
		trigger = NewRef(0)
		CreateEffect(func() Cleanup {
			if trigger.Get() > 0 {
				panic("boom")
			}
			return nil
		})
		return func() View { return nil }
	})

	scope, _ := MountedScope(id)
	trigger.Set(1)
	if err := scope.Scheduler().Flush(); err != nil {
		t.Fatal(err)
	}

	if len(host.errs) != 1 {
		t.Fatalf("expected panic delivered to host reporter, got %d", len(host.errs))
	}
}
