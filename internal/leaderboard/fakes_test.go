package leaderboard

import (
	"context"
	"sort"
	"sync"

	"github.com/robalobadob/sealhunt/internal/platform"
	"github.com/robalobadob/sealhunt/internal/player"
	"github.com/robalobadob/sealhunt/internal/season"
)

// fakeRepo is an in-memory Repository with injectable errors.
type fakeRepo struct {
	mu         sync.Mutex
	scores     map[string]map[string]int
	order      map[string]int
	seq        int
	identities map[string]player.Identity

	readErr  error
	writeErr error
	bestCAS  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		scores:     map[string]map[string]int{},
		order:      map[string]int{},
		identities: map[string]player.Identity{},
	}
}

func (f *fakeRepo) set(seasonID, playerID string, score int) {
	if f.scores[seasonID] == nil {
		f.scores[seasonID] = map[string]int{}
	}
	f.scores[seasonID][playerID] = score
	f.seq++
	f.order[seasonID+"/"+playerID] = f.seq
}

func (f *fakeRepo) RecordScore(ctx context.Context, seasonID, playerID string, score int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.set(seasonID, playerID, score)
	return nil
}

func (f *fakeRepo) RecordBest(ctx context.Context, seasonID, playerID string, score int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bestCAS++
	if f.writeErr != nil {
		return false, f.writeErr
	}
	if cur, ok := f.scores[seasonID][playerID]; ok && cur >= score {
		return false, nil
	}
	f.set(seasonID, playerID, score)
	return true, nil
}

func (f *fakeRepo) BestScore(ctx context.Context, seasonID, playerID string) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return 0, false, f.readErr
	}
	s, ok := f.scores[seasonID][playerID]
	return s, ok, nil
}

func (f *fakeRepo) Top(ctx context.Context, seasonID string, offset, limit int) ([]Ranked, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	var rows []Ranked
	for id, s := range f.scores[seasonID] {
		rows = append(rows, Ranked{PlayerID: id, Score: s})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return f.order[seasonID+"/"+rows[i].PlayerID] < f.order[seasonID+"/"+rows[j].PlayerID]
	})
	if offset >= len(rows) {
		return []Ranked{}, nil
	}
	rows = rows[offset:]
	if limit < len(rows) {
		rows = rows[:limit]
	}
	return rows, nil
}

func (f *fakeRepo) Count(ctx context.Context, seasonID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return 0, f.readErr
	}
	return len(f.scores[seasonID]), nil
}

func (f *fakeRepo) Identity(ctx context.Context, playerID string) (player.Identity, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return player.Identity{}, false, f.readErr
	}
	id, ok := f.identities[playerID]
	return id, ok, nil
}

func (f *fakeRepo) SetIdentityIfAbsent(ctx context.Context, id player.Identity) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return false, f.writeErr
	}
	if _, ok := f.identities[id.ID]; ok {
		return false, nil
	}
	f.identities[id.ID] = id
	return true, nil
}

// fakePlatform records deliveries and serves a fixed high-score table.
type fakePlatform struct {
	mu       sync.Mutex
	sent     []platform.ScoreRequest
	setErr   error
	scores   []platform.HighScore
	getErr   error
	getCalls int
}

func (p *fakePlatform) SetGameScore(ctx context.Context, req platform.ScoreRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.setErr != nil {
		return p.setErr
	}
	p.sent = append(p.sent, req)
	return nil
}

func (p *fakePlatform) GetGameHighScores(ctx context.Context, userID string) ([]platform.HighScore, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.getCalls++
	if p.getErr != nil {
		return nil, p.getErr
	}
	return p.scores, nil
}

// fakeSeasons resolves a fixed active season.
type fakeSeasons struct {
	active  string
	seasons map[string]season.Season
}

func (s fakeSeasons) ActiveID(ctx context.Context) string { return s.active }

func (s fakeSeasons) Get(ctx context.Context, id string) (season.Season, error) {
	if se, ok := s.seasons[id]; ok {
		return se, nil
	}
	return season.Season{}, season.ErrNotFound
}

func newTestService(repo *fakeRepo, plat *fakePlatform) *Service {
	seasons := fakeSeasons{active: "season2", seasons: map[string]season.Season{
		"season1": {ID: "season1", Name: "Season 1"},
		"season2": {ID: "season2", Name: "Season 2", IsActive: true},
	}}
	return NewService(NewStore(repo), seasons, plat, platform.TelegramIdentity{})
}

func ident(id, username string) player.Identity {
	return player.Identity{ID: id, Username: username}
}
