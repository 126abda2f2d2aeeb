package reflow

import (
	"testing"
)

func TestComputedLazy(t *testing.T) {
	count := NewRef(2)
	computations := 0

	doubled := NewComputed(func() int {
		computations++
		return count.Get() * 2
	})

	if computations != 0 {
		t.Errorf("computed must not run before first read, got %d", computations)
	}

	if doubled.Get() != 4 {
		t.Errorf("expected 4, got %d", doubled.Get())
	}
	if computations != 1 {
		t.Errorf("expected 1 computation, got %d", computations)
	}
}

func TestComputedCaching(t *testing.T) {
	count := NewRef(1)
	computations := 0

	doubled := NewComputed(func() int {
		computations++
		return count.Get() * 2
	})

	_ = doubled.Get()
	_ = doubled.Get()
	_ = doubled.Get()

	if computations != 1 {
		t.Errorf("clean computed should not recompute, got %d computations", computations)
	}

	// Three writes, one recomputation on the next read.
	count.Set(2)
	count.Set(3)
	count.Set(4)

	if doubled.Get() != 8 {
		t.Errorf("expected 8, got %d", doubled.Get())
	}
	if computations != 2 {
		t.Errorf("expected 2 computations, got %d", computations)
	}
}

func TestComputedChain(t *testing.T) {
	price := NewRef(100.0)
	taxRate := NewRef(0.08)

	taxed := NewComputed(func() float64 {
		return price.Get() * (1 + taxRate.Get())
	})

	rounded := NewComputed(func() float64 {
		v := taxed.Get()
		return float64(int(v*100)) / 100
	})

	if rounded.Get() != 108.0 {
		t.Errorf("expected 108.0, got %f", rounded.Get())
	}

	price.Set(200.0)
	if rounded.Get() != 216.0 {
		t.Errorf("expected 216.0, got %f", rounded.Get())
	}
}

func TestComputedNotScheduledOnDirty(t *testing.T) {
	// Computeds are pull-based: a write invalidates them but never
	// recomputes them until someone reads.
	count := NewRef(1)
	computations := 0

	doubled := NewComputed(func() int {
		computations++
		return count.Get() * 2
	})

	_ = doubled.Get()
	count.Set(2)
	count.Set(3)

	if computations != 1 {
		t.Errorf("write must not recompute, got %d computations", computations)
	}
}

func TestComputedSubscribersScheduledEagerly(t *testing.T) {
	// The computed's own subscribers are notified on invalidation even
	// though the computed itself recomputes lazily.
	count := NewRef(1)
	doubled := NewComputed(func() int { return count.Get() * 2 })

	listener := newTestListener()
	WithListener(listener, func() {
		_ = doubled.Get()
	})

	count.Set(2)
	if listener.getDirtyCount() != 1 {
		t.Errorf("computed subscriber should be notified, got %d", listener.getDirtyCount())
	}
}

func TestComputedDynamicDependencies(t *testing.T) {
	flag := NewRef(true)
	a := NewRef(1)
	b := NewRef(2)
	computations := 0

	pick := NewComputed(func() int {
		computations++
		if flag.Get() {
			return a.Get()
		}
		return b.Get()
	})

	if pick.Get() != 1 {
		t.Errorf("expected 1, got %d", pick.Get())
	}

	// b is not a dependency while flag is true.
	b.Set(20)
	_ = pick.Get()
	if computations != 1 {
		t.Errorf("abandoned branch write must not invalidate, got %d computations", computations)
	}

	flag.Set(false)
	if pick.Get() != 20 {
		t.Errorf("expected 20, got %d", pick.Get())
	}

	// After the switch, a is stale and b is live.
	a.Set(100)
	_ = pick.Get()
	if computations != 2 {
		t.Errorf("stale branch write must not invalidate, got %d computations", computations)
	}

	b.Set(30)
	if pick.Get() != 30 {
		t.Errorf("expected 30, got %d", pick.Get())
	}
}

func TestComputedPanicRetries(t *testing.T) {
	count := NewRef(0)
	fail := true

	c := NewComputed(func() int {
		v := count.Get()
		if fail {
			panic("derivation failed")
		}
		return v * 2
	})

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic to propagate to the reader")
			}
		}()
		_ = c.Get()
	}()

	// The computed stayed dirty; a later read retries.
	fail = false
	count.Set(5)
	if c.Get() != 10 {
		t.Errorf("expected 10 after retry, got %d", c.Get())
	}
}

func TestComputedNotifiesSubscribersWhileInvalid(t *testing.T) {
	// A failed derivation leaves the computed invalid until the next read.
	// Writes landing in that window must still reach its subscribers, or an
	// effect downstream of a transient panic would never be rescheduled.
	scope := NewScope(nil)
	defer scope.Dispose()

	d := NewRef(1)
	fail := false
	doubled := NewComputed(func() int {
		v := d.Get()
		if fail {
			panic("derivation failed")
		}
		return v * 2
	})

	var observed []int
	scope.Run(func() {
		CreateEffect(func() Cleanup {
			observed = append(observed, doubled.Get())
			return nil
		})
	})

	// This write hits a broken derivation: the effect run panics, the
	// scheduler reports it, and the computed stays invalid.
	fail = true
	d.Set(2)
	if err := scope.Scheduler().Flush(); err != nil {
		t.Fatal(err)
	}

	fail = false
	d.Set(4)
	if err := scope.Scheduler().Flush(); err != nil {
		t.Fatal(err)
	}
	d.Set(5)
	if err := scope.Scheduler().Flush(); err != nil {
		t.Fatal(err)
	}

	want := []int{2, 8, 10}
	if len(observed) != len(want) {
		t.Fatalf("expected effect runs %v, got %v", want, observed)
	}
	for i := range want {
		if observed[i] != want[i] {
			t.Fatalf("expected effect runs %v, got %v", want, observed)
		}
	}
}

func TestComputedVersion(t *testing.T) {
	count := NewRef(1)
	doubled := NewComputed(func() int { return count.Get() * 2 })

	_ = doubled.Get()
	v1 := doubled.Version()

	count.Set(2)
	_ = doubled.Get()
	if doubled.Version() <= v1 {
		t.Errorf("version should increase on value change, got %d then %d", v1, doubled.Version())
	}

	// Recomputation yielding an equal value does not bump.
	v2 := doubled.Version()
	count.Update(func(n int) int { return n }) // no-op write
	_ = doubled.Get()
	if doubled.Version() != v2 {
		t.Errorf("unchanged value must not bump version, got %d", doubled.Version())
	}
}

func TestComputedDiamond(t *testing.T) {
	//     a
	//    / \
	//   b   c
	//    \ /
	//     d
	a := NewRef(1)
	b := NewComputed(func() int { return a.Get() + 1 })
	c := NewComputed(func() int { return a.Get() * 10 })

	dComputations := 0
	d := NewComputed(func() int {
		dComputations++
		return b.Get() + c.Get()
	})

	if d.Get() != 12 {
		t.Errorf("expected 12, got %d", d.Get())
	}

	a.Set(2)
	if d.Get() != 23 {
		t.Errorf("expected 23, got %d", d.Get())
	}
	if dComputations != 2 {
		t.Errorf("expected 2 computations of d, got %d", dComputations)
	}
}

func TestWritableComputed(t *testing.T) {
	celsius := NewRef(0.0)
	fahrenheit := NewWritableComputed(
		func() float64 { return celsius.Get()*9/5 + 32 },
		func(f float64) { celsius.Set((f - 32) * 5 / 9) },
	)

	if fahrenheit.Get() != 32.0 {
		t.Errorf("expected 32, got %f", fahrenheit.Get())
	}

	// Writing redirects to the underlying ref.
	fahrenheit.Set(212.0)
	if celsius.Get() != 100.0 {
		t.Errorf("expected 100C, got %f", celsius.Get())
	}
	if fahrenheit.Get() != 212.0 {
		t.Errorf("expected 212F, got %f", fahrenheit.Get())
	}

	fahrenheit.Update(func(f float64) float64 { return f - 180 })
	if fahrenheit.Get() != 32.0 {
		t.Errorf("expected 32F, got %f", fahrenheit.Get())
	}
}

func TestWritableComputedPropagates(t *testing.T) {
	celsius := NewRef(0.0)
	fahrenheit := NewWritableComputed(
		func() float64 { return celsius.Get()*9/5 + 32 },
		func(f float64) { celsius.Set((f - 32) * 5 / 9) },
	)

	listener := newTestListener()
	WithListener(listener, func() {
		_ = fahrenheit.Get()
	})

	fahrenheit.Set(212.0)
	if listener.getDirtyCount() != 1 {
		t.Errorf("write through setter should notify readers, got %d", listener.getDirtyCount())
	}
}
