// Package reflow provides a fine-grained reactive runtime for retained-mode
// UI hosts.
//
// The runtime tracks dependencies automatically: reading a ref during a
// tracked computation (a computed, an effect, or a component render)
// subscribes that computation to the ref, and writing the ref later marks it
// for re-execution. Only the computations that actually read a value re-run
// when it changes.
//
// # Core Types
//
// Ref[T] is a mutable reactive value box:
//
//	count := reflow.NewRef(0)
//	value := count.Get()  // Read (subscribes the current consumer)
//	count.Set(5)          // Write (notifies subscribers)
//	count.Update(func(n int) int { return n + 1 })
//
// Computed[T] is a lazily cached derived value:
//
//	doubled := reflow.NewComputed(func() int { return count.Get() * 2 })
//	value := doubled.Get()  // Recomputes only if a dependency changed
//
// Effects run side effects when their dependencies change:
//
//	reflow.CreateEffect(func() reflow.Cleanup {
//	    fmt.Println("Count is:", count.Get())
//	    return func() { /* cleanup */ }
//	})
//
// # Scheduling
//
// Writes never re-run consumers inline. Dirty effects are queued on a
// Scheduler and run during the next Flush, once each, regardless of how many
// of their inputs changed in between. Batch groups a burst of writes into a
// single notification pass and flushes at the end:
//
//	reflow.Batch(func() {
//	    a.Set(1)
//	    b.Set(2)
//	    c.Set(3)
//	})  // Dependent effects run once
//
// A host integration normally supplies a RequestFlush hook so that flushes
// land on its own event loop; see Scheduler.
//
// # Ownership
//
// Scopes group the refs, computeds and effects created during one setup
// invocation so they can be torn down atomically. RunSetup is the entry
// point host integrations use to mount a component instance; it also powers
// positional state preservation across live reloads.
//
// # Thread Safety
//
// The tracking context is per-goroutine, so independent reactive graphs on
// different goroutines never interfere. Reactive execution itself is
// single-threaded-cooperative: writes are synchronous, and one flush runs to
// completion before control returns to the host.
package reflow
