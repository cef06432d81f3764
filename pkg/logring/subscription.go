package logring

import (
	"context"
	"sync"
)

// subscriptionBuffer is the per-subscriber channel depth. Slow readers
// drop entries rather than stalling writers.
const subscriptionBuffer = 100

// Subscription represents a live feed of entries appended to a ring
type Subscription struct {
	channel   chan Entry
	ring      *Ring
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// Subscribe creates a live subscription to the ring. Entries appended
// after the call are delivered best-effort; the subscription ends when ctx
// is cancelled, Unsubscribe is called, or the ring shuts down. Returns nil
// after Shutdown.
func (r *Ring) Subscribe(ctx context.Context) *Subscription {
	r.shutdownMu.Lock()
	if r.isShutdown {
		r.shutdownMu.Unlock()
		return nil
	}
	r.shutdownMu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		channel: make(chan Entry, subscriptionBuffer),
		ring:    r,
		ctx:     subCtx,
		cancel:  cancel,
	}

	r.subsMu.Lock()
	r.subs[sub] = true
	r.subsMu.Unlock()

	go func() {
		select {
		case <-subCtx.Done():
			sub.Unsubscribe()
		case <-r.shutdown:
			sub.close()
		}
	}()

	return sub
}

// publish fans an entry out to all subscribers. Snapshot the set under
// lock, send outside it, skip full channels.
func (r *Ring) publish(entry Entry) {
	r.shutdownMu.Lock()
	if r.isShutdown {
		r.shutdownMu.Unlock()
		return
	}
	r.shutdownMu.Unlock()

	r.subsMu.RLock()
	if len(r.subs) == 0 {
		r.subsMu.RUnlock()
		return
	}
	subs := make([]*Subscription, 0, len(r.subs))
	for sub := range r.subs {
		subs = append(subs, sub)
	}
	r.subsMu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.channel <- entry:
		default:
			// Channel full, skip
		}
	}
}

// SubscriberCount returns the number of active subscriptions.
func (r *Ring) SubscriberCount() int {
	r.subsMu.RLock()
	defer r.subsMu.RUnlock()
	return len(r.subs)
}

// Shutdown closes all subscriptions. Appends still work afterwards but no
// longer fan out.
func (r *Ring) Shutdown() {
	r.shutdownMu.Lock()
	if r.isShutdown {
		r.shutdownMu.Unlock()
		return
	}
	r.isShutdown = true
	r.shutdownMu.Unlock()

	close(r.shutdown)

	r.subsMu.Lock()
	for sub := range r.subs {
		sub.close()
	}
	r.subs = make(map[*Subscription]bool)
	r.subsMu.Unlock()
}

// Channel returns the subscription's entry channel. It is closed when the
// subscription ends.
func (s *Subscription) Channel() <-chan Entry {
	return s.channel
}

// Unsubscribe removes the subscription from the ring and closes its
// channel. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.ring.subsMu.Lock()
	delete(s.ring.subs, s)
	s.ring.subsMu.Unlock()

	s.cancel()
	s.close()
}

func (s *Subscription) close() {
	s.closeOnce.Do(func() {
		close(s.channel)
	})
}
