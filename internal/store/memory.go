// internal/store/memory.go
//
// In-memory backend for seasons and leaderboards.
// Used in development/testing, or when durability is not required.
//
// Characteristics:
//   - Data is held under the same keys a hosted ranked-set store would use
//     (see keys.go), so dumps read the same in every deployment.
//   - Concurrency-safe via RWMutex; every operation is atomic, which makes
//     RecordBest a true compare-and-set.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/robalobadob/sealhunt/internal/leaderboard"
	"github.com/robalobadob/sealhunt/internal/player"
	"github.com/robalobadob/sealhunt/internal/season"
)

// member is one ranked-set entry. seq orders players that share a score by
// the moment they reached it.
type member struct {
	score int
	seq   uint64
}

// Memory is a map-based Backend.
type Memory struct {
	mu sync.RWMutex

	// Keyed by the full key, e.g. seasons[seasonKey(id)].
	seasons map[string]season.Season
	sets    map[string]map[string]bool
	ranked  map[string]map[string]member
	users   map[string]player.Identity
	seq     uint64
}

// NewMemory constructs an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		seasons: make(map[string]season.Season),
		sets:    make(map[string]map[string]bool),
		ranked:  make(map[string]map[string]member),
		users:   make(map[string]player.Identity),
	}
}

func (m *Memory) Ping(ctx context.Context) error { return ctx.Err() }

func (m *Memory) Close() error { return nil }

/* ------------------------------- seasons -------------------------------- */

func (m *Memory) Seasons(ctx context.Context) ([]season.Season, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]season.Season, 0, len(m.seasons))
	for key, s := range m.seasons {
		s.IsActive = m.sets[activeSeasonsKey][strings.TrimPrefix(key, seasonPrefix)]
		out = append(out, s)
	}
	return out, nil
}

func (m *Memory) Season(ctx context.Context, id string) (season.Season, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.season(id)
}

func (m *Memory) ActiveSeason(ctx context.Context) (season.Season, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for id := range m.sets[activeSeasonsKey] {
		return m.season(id)
	}
	return season.Season{}, season.ErrNotFound
}

func (m *Memory) CreateSeason(ctx context.Context, s season.Season) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seasons[seasonKey(s.ID)]; ok {
		return season.ErrConflict
	}
	m.putSeason(s)
	return nil
}

func (m *Memory) PutSeason(ctx context.Context, s season.Season) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.seasons[seasonKey(s.ID)]; ok {
		s.CreatedAt = old.CreatedAt
	}
	m.putSeason(s)
	return nil
}

// putSeason stores s and updates the active set. Caller holds mu.
func (m *Memory) putSeason(s season.Season) {
	m.seasons[seasonKey(s.ID)] = s
	switch {
	case s.IsActive:
		m.sets[activeSeasonsKey] = map[string]bool{s.ID: true}
	case m.sets[activeSeasonsKey][s.ID]:
		delete(m.sets[activeSeasonsKey], s.ID)
	}
}

func (m *Memory) season(id string) (season.Season, error) {
	s, ok := m.seasons[seasonKey(id)]
	if !ok {
		return season.Season{}, season.ErrNotFound
	}
	s.IsActive = m.sets[activeSeasonsKey][id]
	return s, nil
}

/* ----------------------------- leaderboards ----------------------------- */

func (m *Memory) RecordScore(ctx context.Context, seasonID, playerID string, score int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(seasonID, playerID, score)
	return nil
}

func (m *Memory) RecordBest(ctx context.Context, seasonID, playerID string, score int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.ranked[leaderboardKey(seasonID)][playerID]; ok && cur.score >= score {
		return false, nil
	}
	m.set(seasonID, playerID, score)
	return true, nil
}

// set writes a ranked-set member. Caller holds mu.
func (m *Memory) set(seasonID, playerID string, score int) {
	key := leaderboardKey(seasonID)
	if m.ranked[key] == nil {
		m.ranked[key] = make(map[string]member)
	}
	m.seq++
	m.ranked[key][playerID] = member{score: score, seq: m.seq}
}

func (m *Memory) BestScore(ctx context.Context, seasonID, playerID string) (int, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cur, ok := m.ranked[leaderboardKey(seasonID)][playerID]
	return cur.score, ok, nil
}

func (m *Memory) Top(ctx context.Context, seasonID string, offset, limit int) ([]leaderboard.Ranked, error) {
	m.mu.RLock()
	set := m.ranked[leaderboardKey(seasonID)]
	type row struct {
		id string
		member
	}
	rows := make([]row, 0, len(set))
	for id, mem := range set {
		rows = append(rows, row{id, mem})
	}
	m.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.seq != b.seq {
			return a.seq < b.seq
		}
		return a.id < b.id
	})

	out := []leaderboard.Ranked{}
	if offset < 0 {
		offset = 0
	}
	for i := offset; i < len(rows) && len(out) < limit; i++ {
		out = append(out, leaderboard.Ranked{PlayerID: rows[i].id, Score: rows[i].score})
	}
	return out, nil
}

func (m *Memory) Count(ctx context.Context, seasonID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ranked[leaderboardKey(seasonID)]), nil
}

/* ------------------------------ identities ------------------------------ */

func (m *Memory) Identity(ctx context.Context, playerID string) (player.Identity, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.users[userKey(playerID)]
	return id, ok, nil
}

func (m *Memory) SetIdentityIfAbsent(ctx context.Context, id player.Identity) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := userKey(id.ID)
	if _, ok := m.users[key]; ok {
		return false, nil
	}
	m.users[key] = id
	return true, nil
}

// Keys lists every populated key, sorted. Used by the store diagnostics.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.seasons)+len(m.ranked)+len(m.users)+1)
	for k := range m.seasons {
		keys = append(keys, k)
	}
	if len(m.sets[activeSeasonsKey]) > 0 {
		keys = append(keys, activeSeasonsKey)
	}
	for k, set := range m.ranked {
		if len(set) > 0 {
			keys = append(keys, k)
		}
	}
	for k := range m.users {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
