package realtime

import "sync"

// Room holds state and a broadcaster of E events for one room.
type Room[T any, E comparable] struct {
	ID    string
	State T
	hub   *Broadcaster[E]
}

// Subscribers returns how many streams are watching the room.
func (r *Room[T, E]) Subscribers() int {
	return r.hub.Subscribers()
}

// RoomStore manages rooms and their broadcasters.
type RoomStore[T any, E comparable] struct {
	mu    sync.RWMutex
	rooms map[string]*Room[T, E]
}

// NewRoomStore creates an empty room store.
func NewRoomStore[T any, E comparable]() *RoomStore[T, E] {
	return &RoomStore[T, E]{
		rooms: make(map[string]*Room[T, E]),
	}
}

// Create adds a room with the given id and state, and a new Broadcaster.
// It reports false without replacing anything if the id is taken.
func (s *RoomStore[T, E]) Create(id string, state T) (*Room[T, E], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[id]; ok {
		return r, false
	}
	r := &Room[T, E]{ID: id, State: state, hub: NewBroadcaster[E]()}
	s.rooms[id] = r
	return r, true
}

// Get returns the room by ID if it exists.
func (s *RoomStore[T, E]) Get(id string) (*Room[T, E], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	return r, ok
}

// Delete removes a room. Open subscriptions stay valid until closed.
func (s *RoomStore[T, E]) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
}

// Len returns the number of rooms.
func (s *RoomStore[T, E]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Range calls fn for every room on a snapshot of the store, so fn may call
// back into the store.
func (s *RoomStore[T, E]) Range(fn func(r *Room[T, E]) bool) {
	s.mu.RLock()
	rooms := make([]*Room[T, E], 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	s.mu.RUnlock()
	for _, r := range rooms {
		if !fn(r) {
			return
		}
	}
}

// Publish notifies subscribers of the room's broadcaster.
func (s *RoomStore[T, E]) Publish(id string, event E) {
	s.Broadcaster(id).Publish(event)
}

// Broadcaster returns the broadcaster for the room. Unknown ids get a
// detached broadcaster that nobody publishes to.
func (s *RoomStore[T, E]) Broadcaster(id string) *Broadcaster[E] {
	s.mu.RLock()
	r, ok := s.rooms[id]
	s.mu.RUnlock()
	if !ok {
		return NewBroadcaster[E]()
	}
	return r.hub
}
