package game

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"wordrelay/pkg/realtime"
)

const idLength = 5

// Event names the part of a session that changed. Streams re-send that part.
type Event string

const (
	EventScores Event = "scores"
	EventState  Event = "state"
)

// Store holds live sessions in memory and delegates to realtime.RoomStore
// for lookup and broadcast.
type Store struct {
	r *realtime.RoomStore[*Game, Event]
}

// NewStore creates an empty in-memory session store.
func NewStore() *Store {
	return &Store{r: realtime.NewRoomStore[*Game, Event]()}
}

// CreateGame builds a session from s and registers it under a fresh id.
func (s *Store) CreateGame(settings Settings) *Game {
	g := NewGame(settings)
	for {
		if _, ok := s.r.Create(g.ID, g); ok {
			break
		}
		g.ID = newID()
	}
	log.Info().Str("game", g.ID).Int("words", len(g.words)).Dur("duration", g.Countdown.Duration).Msg("game created")
	return g
}

// GetGame returns a session by id. Ids are case-insensitive.
func (s *Store) GetGame(id string) (*Game, bool) {
	room, ok := s.r.Get(strings.ToUpper(strings.TrimSpace(id)))
	if !ok {
		return nil, false
	}
	return room.State, true
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.r.Len()
}

// Sweep removes sessions idle for longer than maxAge and returns how many
// were removed. A session with an open stream is not idle.
func (s *Store) Sweep(maxAge time.Duration, now time.Time) int {
	removed := 0
	s.r.Range(func(room *realtime.Room[*Game, Event]) bool {
		if room.Subscribers() == 0 && now.Sub(room.State.LastActive()) > maxAge {
			s.r.Delete(room.ID)
			removed++
			log.Debug().Str("game", room.ID).Msg("idle game swept")
		}
		return true
	})
	return removed
}

// Broadcaster returns the stream broadcaster for a session.
func (s *Store) Broadcaster(id string) *realtime.Broadcaster[Event] {
	return s.r.Broadcaster(strings.ToUpper(id))
}

// Publish notifies a session's subscribers of an event.
func (s *Store) Publish(id string, event Event) {
	s.r.Publish(strings.ToUpper(id), event)
}

func newID() string {
	// base32 without padding is uppercase A-Z2-7, short and url-safe.
	buf := make([]byte, 5)
	_, _ = rand.Read(buf)
	encoder := base32.StdEncoding.WithPadding(base32.NoPadding)
	return encoder.EncodeToString(buf)[:idLength]
}
