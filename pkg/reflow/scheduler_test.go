package reflow

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSchedulerBatchesWrites(t *testing.T) {
	scope := NewScope(nil)
	defer scope.Dispose()

	count := NewRef(0)
	runs := 0
	var seen int

	scope.Run(func() {
		CreateEffect(func() Cleanup {
			seen = count.Get()
			runs++
			return nil
		})
	})

	// Three synchronous writes, one flush, one run with the final value.
	count.Set(1)
	count.Set(2)
	count.Set(3)

	if err := scope.Scheduler().Flush(); err != nil {
		t.Fatal(err)
	}

	if runs != 2 {
		t.Errorf("expected exactly one re-run for the burst, got %d total runs", runs)
	}
	if seen != 3 {
		t.Errorf("expected final value 3, got %d", seen)
	}
}

func TestSchedulerDedupAcrossProducers(t *testing.T) {
	scope := NewScope(nil)
	defer scope.Dispose()

	a := NewRef(1)
	b := NewRef(2)
	runs := 0

	scope.Run(func() {
		CreateEffect(func() Cleanup {
			_ = a.Get()
			_ = b.Get()
			runs++
			return nil
		})
	})

	a.Set(10)
	b.Set(20)

	if err := scope.Scheduler().Flush(); err != nil {
		t.Fatal(err)
	}
	if runs != 2 {
		t.Errorf("effect notified by two producers should run once per flush, got %d", runs)
	}
}

func TestSchedulerCascadeSameFlush(t *testing.T) {
	scope := NewScope(nil)
	defer scope.Dispose()

	first := NewRef(0)
	second := NewRef(0)
	var secondSeen int

	scope.Run(func() {
		CreateEffect(func() Cleanup {
			v := first.Get()
			if v > 0 {
				second.Set(v * 10)
			}
			return nil
		})
		CreateEffect(func() Cleanup {
			secondSeen = second.Get()
			return nil
		})
	})

	first.Set(3)
	if err := scope.Scheduler().Flush(); err != nil {
		t.Fatal(err)
	}

	// The cascaded write was processed within the same flush.
	if secondSeen != 30 {
		t.Errorf("cascade should converge in one flush, got %d", secondSeen)
	}
}

func TestSchedulerRequestFlushFiredOncePerBurst(t *testing.T) {
	requests := 0
	sched := NewScheduler(WithRequestFlush(func() { requests++ }))

	scope := NewScope(nil)
	scope.sched = sched
	defer scope.Dispose()

	count := NewRef(0)
	scope.Run(func() {
		CreateEffect(func() Cleanup {
			_ = count.Get()
			return nil
		})
	})

	count.Set(1)
	count.Set(2)
	count.Set(3)

	if requests != 1 {
		t.Errorf("RequestFlush should fire once per Idle transition, got %d", requests)
	}

	if err := sched.Flush(); err != nil {
		t.Fatal(err)
	}

	count.Set(4)
	if requests != 2 {
		t.Errorf("RequestFlush should fire again after flush, got %d", requests)
	}
	_ = sched.Flush()
}

func TestSchedulerCycleGuard(t *testing.T) {
	scope := NewScope(nil)
	defer scope.Dispose()
	scope.sched.maxRuns = 10

	count := NewRef(0)
	scope.Run(func() {
		CreateEffect(func() Cleanup {
			// Read+write feedback loop.
			count.Set(count.Get() + 1)
			return nil
		}, WithName("feedback"))
	})

	count.Set(100)
	err := scope.Scheduler().Flush()
	if err == nil {
		t.Fatal("expected cycle guard to trip")
	}
	if !errors.Is(err, ErrFlushCycle) {
		t.Errorf("expected ErrFlushCycle, got %v", err)
	}

	var cycleErr *FlushCycleError
	if !errors.As(err, &cycleErr) {
		t.Fatal("expected *FlushCycleError")
	}
	if cycleErr.EffectName != "feedback" {
		t.Errorf("expected effect name in error, got %q", cycleErr.EffectName)
	}
	if !strings.Contains(err.Error(), "feedback loop") {
		t.Errorf("error should diagnose the loop, got %q", err.Error())
	}
}

func TestSchedulerUsableAfterCycleAbort(t *testing.T) {
	scope := NewScope(nil)
	defer scope.Dispose()
	scope.sched.maxRuns = 5

	looping := NewRef(0)
	healthy := NewRef(0)
	healthyRuns := 0

	scope.Run(func() {
		CreateEffect(func() Cleanup {
			looping.Set(looping.Get() + 1)
			return nil
		})
		CreateEffect(func() Cleanup {
			_ = healthy.Get()
			healthyRuns++
			return nil
		})
	})

	looping.Set(100)
	if err := scope.Scheduler().Flush(); err == nil {
		t.Fatal("expected cycle abort")
	}

	// A fresh write still schedules and flushes.
	healthy.Set(1)
	runsBefore := healthyRuns
	if err := scope.Scheduler().Flush(); err != nil && !errors.Is(err, ErrFlushCycle) {
		t.Fatal(err)
	}
	if healthyRuns <= runsBefore {
		t.Error("scheduler should be usable after a cycle abort")
	}
}

func TestSchedulerCycleAbortReleasesDeferredEffects(t *testing.T) {
	// maxRuns 1 trips the guard the moment the loop effect reschedules
	// itself; budget 1 parks the bystander before the abort hits.
	sched := NewScheduler(
		WithMaxRunsPerFlush(1),
		WithRunBudget(NewRunBudget(1, 20*time.Millisecond)),
	)
	scope := NewScopeWithScheduler(sched)
	defer scope.Dispose()

	loop := NewRef(0)
	other := NewRef(0)
	otherRuns := 0

	scope.Run(func() {
		CreateEffect(func() Cleanup {
			loop.Set(loop.Get() + 1)
			return nil
		}, WithName("feedback"))
		CreateEffect(func() Cleanup {
			_ = other.Get()
			otherRuns++
			return nil
		})
	})

	other.Set(1)
	if err := sched.Flush(); !errors.Is(err, ErrFlushCycle) {
		t.Fatalf("expected cycle abort, got %v", err)
	}
	if sched.Pending() != 0 {
		t.Errorf("abort should clear the queue, got %d pending", sched.Pending())
	}

	// The bystander was budget-deferred when the abort hit. It must still
	// be schedulable, not orphaned with a stale pending flag.
	other.Set(2)
	time.Sleep(30 * time.Millisecond)
	if err := sched.Flush(); err != nil {
		t.Fatal(err)
	}
	if otherRuns != 2 {
		t.Errorf("deferred effect should re-run after a cycle abort, got %d runs", otherRuns)
	}
}

func TestSchedulerFaultIsolation(t *testing.T) {
	var reported []error
	sched := NewScheduler(WithOnError(func(err error) { reported = append(reported, err) }))

	scope := NewScope(nil)
	scope.sched = sched
	defer scope.Dispose()

	count := NewRef(0)
	healthyRuns := 0

	scope.Run(func() {
		CreateEffect(func() Cleanup {
			if count.Get() > 0 {
				panic("broken reaction")
			}
			return nil
		}, WithName("broken"))
		CreateEffect(func() Cleanup {
			_ = count.Get()
			healthyRuns++
			return nil
		})
	})

	count.Set(1)
	if err := sched.Flush(); err != nil {
		t.Fatal(err)
	}

	// The panic was reported but did not block the second effect.
	if healthyRuns != 2 {
		t.Errorf("healthy effect should still run, got %d runs", healthyRuns)
	}
	if len(reported) != 1 {
		t.Fatalf("expected 1 reported error, got %d", len(reported))
	}

	var panicErr *EffectPanicError
	if !errors.As(reported[0], &panicErr) {
		t.Fatal("expected *EffectPanicError")
	}
	if panicErr.Recovered != "broken reaction" {
		t.Errorf("expected recovered value, got %v", panicErr.Recovered)
	}
	if panicErr.EffectName != "broken" {
		t.Errorf("expected effect name, got %q", panicErr.EffectName)
	}
}

func TestBatchFlushesAtEnd(t *testing.T) {
	scope := NewScope(nil)
	defer scope.Dispose()

	a := NewRef(1)
	b := NewRef(2)
	runs := 0
	var sum int

	scope.Run(func() {
		CreateEffect(func() Cleanup {
			sum = a.Get() + b.Get()
			runs++
			return nil
		})
	})

	Batch(func() {
		a.Set(10)
		b.Set(20)
	})

	// The outermost batch end flushed the scheduler.
	if runs != 2 {
		t.Errorf("expected one re-run at batch end, got %d total runs", runs)
	}
	if sum != 30 {
		t.Errorf("expected sum 30, got %d", sum)
	}
}

func TestNestedBatchNotifiesOnceAtOutermost(t *testing.T) {
	scope := NewScope(nil)
	defer scope.Dispose()

	count := NewRef(0)
	runs := 0

	scope.Run(func() {
		CreateEffect(func() Cleanup {
			_ = count.Get()
			runs++
			return nil
		})
	})

	Batch(func() {
		count.Set(1)
		Batch(func() {
			count.Set(2)
		})
		// Inner batch end must not notify yet.
		if runs != 1 {
			t.Errorf("inner batch must not flush, got %d runs", runs)
		}
		count.Set(3)
	})

	if runs != 2 {
		t.Errorf("expected one re-run after outermost batch, got %d total runs", runs)
	}
}

func TestSchedulerHooks(t *testing.T) {
	h := &countingHooks{}
	sched := NewScheduler(WithHooks(h), WithOnError(func(error) {}))

	scope := NewScope(nil)
	scope.sched = sched
	defer scope.Dispose()

	count := NewRef(0)
	scope.Run(func() {
		CreateEffect(func() Cleanup {
			_ = count.Get()
			return nil
		})
	})

	count.Set(1)
	if err := sched.Flush(); err != nil {
		t.Fatal(err)
	}

	if h.flushStarts != 1 || h.flushEnds != 1 {
		t.Errorf("expected 1 flush observed, got %d/%d", h.flushStarts, h.flushEnds)
	}
	if h.effectRuns != 1 {
		t.Errorf("expected 1 effect run observed, got %d", h.effectRuns)
	}
}

type countingHooks struct {
	flushStarts int
	flushEnds   int
	effectRuns  int
	effectErrs  int
	cycleAborts int
}

func (h *countingHooks) FlushStart()                 { h.flushStarts++ }
func (h *countingHooks) FlushEnd(time.Duration, int) { h.flushEnds++ }
func (h *countingHooks) EffectRun(time.Duration)     { h.effectRuns++ }
func (h *countingHooks) EffectError(error)           { h.effectErrs++ }
func (h *countingHooks) CycleAbort(uint64, int)      { h.cycleAborts++ }

func TestRunBudgetDefersToNextFlush(t *testing.T) {
	budget := NewRunBudget(1, time.Hour)
	sched := NewScheduler(WithRunBudget(budget))

	scope := NewScope(nil)
	scope.sched = sched
	defer scope.Dispose()

	a := NewRef(0)
	b := NewRef(0)
	aRuns := 0
	bRuns := 0

	scope.Run(func() {
		CreateEffect(func() Cleanup {
			_ = a.Get()
			aRuns++
			return nil
		})
		CreateEffect(func() Cleanup {
			_ = b.Get()
			bRuns++
			return nil
		})
	})

	// Both initial runs happened synchronously; they don't consume budget.
	a.Set(1)
	b.Set(1)
	if err := sched.Flush(); err != nil {
		t.Fatal(err)
	}

	// Only one of the two fit the window; the other stayed queued.
	ran := (aRuns - 1) + (bRuns - 1)
	if ran != 1 {
		t.Errorf("expected exactly 1 run within budget, got %d", ran)
	}
	if sched.Pending() != 1 {
		t.Errorf("expected 1 deferred effect, got %d", sched.Pending())
	}
}
