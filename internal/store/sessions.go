// internal/store/sessions.go
//
// In-memory registry of live game sessions.
//
// Characteristics:
//   - Sessions are keyed by id and indexed by owner (the browser cookie or
//     player id that started them); an owner holds at most one session.
//   - Replacing or removing a session stops its countdown.
//   - Finished sessions can be scheduled for eviction with RemoveAfter, so
//     games nobody replaces or abandons do not accumulate.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.

package store

import (
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/sealhunt/internal/game"
)

var ErrSessionNotFound = errors.New("game session not found")

type Sessions struct {
	mu      sync.RWMutex
	byID    map[string]*game.Session
	owners  map[string]string // owner → session id
	ownerOf map[string]string // session id → owner
	evict   map[string]*time.Timer
}

func NewSessions() *Sessions {
	return &Sessions{
		byID:    make(map[string]*game.Session),
		owners:  make(map[string]string),
		ownerOf: make(map[string]string),
		evict:   make(map[string]*time.Timer),
	}
}

// Save registers g for owner, stopping and dropping the owner's previous
// session if there was one.
func (s *Sessions) Save(owner string, g *game.Session) {
	s.mu.Lock()
	var old *game.Session
	if prev, ok := s.owners[owner]; ok && prev != g.ID() {
		old = s.byID[prev]
		delete(s.byID, prev)
		delete(s.ownerOf, prev)
		s.cancelEviction(prev)
	}
	s.byID[g.ID()] = g
	s.owners[owner] = g.ID()
	s.ownerOf[g.ID()] = owner
	s.mu.Unlock()

	if old != nil {
		old.Stop()
	}
}

// Get looks up a session by id.
func (s *Sessions) Get(id string) (*game.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if g, ok := s.byID[id]; ok {
		return g, nil
	}
	return nil, ErrSessionNotFound
}

// Owner returns the owner a session was saved for.
func (s *Sessions) Owner(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, ok := s.ownerOf[id]
	return owner, ok
}

// Current returns the owner's session, if any.
func (s *Sessions) Current(owner string) (*game.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.byID[s.owners[owner]]
	return g, ok
}

// Remove drops a session and stops its countdown.
func (s *Sessions) Remove(id string) {
	s.mu.Lock()
	g := s.byID[id]
	if owner, ok := s.ownerOf[id]; ok && s.owners[owner] == id {
		delete(s.owners, owner)
	}
	delete(s.byID, id)
	delete(s.ownerOf, id)
	s.cancelEviction(id)
	s.mu.Unlock()

	if g != nil {
		g.Stop()
	}
}

// RemoveAfter schedules Remove(id) once d has passed. A later call for the
// same id replaces the schedule.
func (s *Sessions) RemoveAfter(id string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return
	}
	s.cancelEviction(id)
	s.evict[id] = time.AfterFunc(d, func() { s.Remove(id) })
}

// cancelEviction stops a pending RemoveAfter. Caller holds mu.
func (s *Sessions) cancelEviction(id string) {
	if t, ok := s.evict[id]; ok {
		t.Stop()
		delete(s.evict, id)
	}
}

// Len is the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Close stops every countdown and empties the registry.
func (s *Sessions) Close() {
	s.mu.Lock()
	all := s.byID
	for id := range s.evict {
		s.cancelEviction(id)
	}
	s.byID = make(map[string]*game.Session)
	s.owners = make(map[string]string)
	s.ownerOf = make(map[string]string)
	s.mu.Unlock()

	for _, g := range all {
		g.Stop()
	}
}
