package realtime

import "sync"

// Broadcaster fans out room events to stream subscribers. Events are
// coalesced per subscriber: a reader that falls behind sees each pending
// event once, in first-published order, instead of losing any.
type Broadcaster[E comparable] struct {
	mu   sync.Mutex
	subs map[*Subscription[E]]struct{}
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster[E comparable]() *Broadcaster[E] {
	return &Broadcaster[E]{
		subs: make(map[*Subscription[E]]struct{}),
	}
}

// Subscription is one reader's view of a Broadcaster.
type Subscription[E comparable] struct {
	b       *Broadcaster[E]
	mu      sync.Mutex
	pending []E
	ready   chan struct{}
	closed  bool
}

// Subscribe registers a new subscriber.
func (b *Broadcaster[E]) Subscribe() *Subscription[E] {
	s := &Subscription[E]{b: b, ready: make(chan struct{}, 1)}
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s
}

// Subscribers returns the number of live subscribers.
func (b *Broadcaster[E]) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Publish queues event for every subscriber without blocking.
func (b *Broadcaster[E]) Publish(event E) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for s := range b.subs {
		s.push(event)
	}
}

func (s *Subscription[E]) push(event E) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for _, e := range s.pending {
		if e == event {
			return
		}
	}
	s.pending = append(s.pending, event)
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// Ready fires when events are pending. It is closed by Close.
func (s *Subscription[E]) Ready() <-chan struct{} {
	return s.ready
}

// Drain returns and clears the pending events.
func (s *Subscription[E]) Drain() []E {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}

// Close unregisters the subscriber. It is safe to call more than once.
func (s *Subscription[E]) Close() {
	s.b.mu.Lock()
	delete(s.b.subs, s)
	s.b.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.pending = nil
		close(s.ready)
	}
}
