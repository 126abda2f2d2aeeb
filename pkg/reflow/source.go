package reflow

import (
	"sync"
	"sync/atomic"
)

// sourceBase provides type-erased subscriber management and version tracking.
// It is embedded in Ref[T] and Computed[T] to share subscription logic.
//
// A source never owns its subscribers: the subs slice holds back-references
// used only for notification, and a consumer removes itself on teardown.
type sourceBase struct {
	id uint64

	// version increases on every accepted write. Monotonic, never reset.
	version atomic.Uint64

	// subs are the listeners subscribed to this source.
	subs []Listener

	// subMu protects the subs slice.
	subMu sync.RWMutex
}

// subscribe adds a listener to this source's subscribers.
// Deduplicates by listener ID to prevent double-subscription.
func (s *sourceBase) subscribe(l Listener) {
	if l == nil {
		return
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()

	lid := l.ID()
	for _, existing := range s.subs {
		if existing.ID() == lid {
			return
		}
	}

	s.subs = append(s.subs, l)
}

// unsubscribe removes a listener from this source's subscribers.
func (s *sourceBase) unsubscribe(l Listener) {
	if l == nil {
		return
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()

	lid := l.ID()
	for i, existing := range s.subs {
		if existing.ID() == lid {
			// Remove by swapping with last element (order doesn't matter)
			s.subs[i] = s.subs[len(s.subs)-1]
			s.subs = s.subs[:len(s.subs)-1]
			return
		}
	}
}

// notifySubscribers notifies all subscribers that this source changed.
// Uses copy-before-notify so no lock is held while listeners run.
// Inside a Batch, notifications are queued and delivered once at batch end.
func (s *sourceBase) notifySubscribers() {
	s.subMu.RLock()
	subs := make([]Listener, len(s.subs))
	copy(subs, s.subs)
	s.subMu.RUnlock()

	if getBatchDepth() > 0 {
		for _, sub := range subs {
			queuePendingNotify(sub)
		}
		return
	}

	for _, sub := range subs {
		sub.MarkDirty()
	}
}

// bumpVersion records an accepted write.
func (s *sourceBase) bumpVersion() {
	s.version.Add(1)
}

// subscriberCount returns the current number of subscribers.
func (s *sourceBase) subscriberCount() int {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	return len(s.subs)
}
