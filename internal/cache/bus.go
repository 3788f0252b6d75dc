package cache

import "sync"

// Invalidation is an advisory bitmask telling subscribers which volatile
// entity kinds a batch touched. It is separate from the general changed
// signal and lets a consumer skip a refresh that cannot possibly affect it.
type Invalidation uint8

const (
	InvalidationBookmarks Invalidation = 1 << iota
	InvalidationProgressions
)

// Has reports whether the mask contains the given kind
func (i Invalidation) Has(kind Invalidation) bool {
	return i&kind != 0
}

// bus fans a change signal out to every subscriber. Delivery is a cheap
// mask-merge plus a non-blocking send on a buffered channel, so subscriber
// cardinality does not affect update latency and a slow consumer only
// coalesces signals, never blocks the writer.
type bus struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func newBus() *bus {
	return &bus{subs: make(map[*Subscription]struct{})}
}

func (b *bus) subscribe() *Subscription {
	s := &Subscription{
		bus:    b,
		notify: make(chan struct{}, 1),
	}
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s
}

func (b *bus) remove(s *Subscription) {
	b.mu.Lock()
	delete(b.subs, s)
	b.mu.Unlock()
}

func (b *bus) broadcast(inv Invalidation) {
	b.mu.Lock()
	subs := make([]*Subscription, 0, len(b.subs))
	for s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		s.deliver(inv)
	}
}

// Subscription is one consumer's view of the change stream. Signals coalesce:
// if the consumer has not drained Notify since the last change, pending
// invalidation masks merge rather than queue.
type Subscription struct {
	bus     *bus
	mu      sync.Mutex
	pending Invalidation
	notify  chan struct{}
}

// Notify returns the channel that receives a token after every cache change
func (s *Subscription) Notify() <-chan struct{} {
	return s.notify
}

// Take drains and returns the invalidation kinds accumulated since the last
// call. A zero mask means the changes touched neither bookmarks nor
// progressions.
func (s *Subscription) Take() Invalidation {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pending
	s.pending = 0
	return p
}

// Close unregisters the subscription
func (s *Subscription) Close() {
	s.bus.remove(s)
}

func (s *Subscription) deliver(inv Invalidation) {
	s.mu.Lock()
	s.pending |= inv
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}
