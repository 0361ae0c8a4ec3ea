// internal/leaderboard/query.go
//
// Leaderboard query protocol.
//
// Primary path (a requesting player on the active season): the platform's
// high-score table is merged with the stored ranking, ordered by score,
// de-duplicated by player (first occurrence wins) and paged.
// Fallback path: the stored page enriched with identity snapshots.
// Rank is always offset + index + 1.

package leaderboard

import (
	"context"
	"errors"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/sealhunt/internal/platform"
	"github.com/robalobadob/sealhunt/internal/player"
	"github.com/robalobadob/sealhunt/internal/season"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
	unknownName  = "Unknown"
)

// Entry is one ranked row of a leaderboard page.
type Entry struct {
	Rank        int    `json:"rank"`
	PlayerID    string `json:"playerId"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	PhotoURL    string `json:"photoUrl,omitempty"`
	Score       int    `json:"score"`
}

// Page is a leaderboard query result.
type Page struct {
	Season  season.Season `json:"season"`
	Entries []Entry       `json:"leaderboard"`
	Total   int           `json:"total"`
	Source  Source        `json:"source"`
}

// QueryRequest selects a page. Empty SeasonID means the active season;
// PlayerID enables the platform merge.
type QueryRequest struct {
	SeasonID string
	PlayerID string
	Offset   int
	Limit    int
}

func (q *QueryRequest) normalize() {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
}

// Query returns one page of a season's leaderboard. It only fails when the
// context is cancelled; store and platform failures degrade.
func (s *Service) Query(ctx context.Context, q QueryRequest) (Page, error) {
	q.normalize()
	activeID := s.seasons.ActiveID(ctx)
	if q.SeasonID == "" {
		q.SeasonID = activeID
	}

	page := Page{Season: s.season(ctx, q.SeasonID), Source: SourceStore}

	if q.PlayerID != "" && q.SeasonID == activeID {
		external, err := s.platform.GetGameHighScores(ctx, q.PlayerID)
		if err == nil {
			page.Entries, page.Total = s.merged(ctx, q, external)
			page.Source = SourcePlatform
			return page, ctx.Err()
		}
		log.Warn().Err(err).Str("player", q.PlayerID).Msg("platform high scores unavailable, using store")
	}

	rows := s.store.Top(ctx, q.SeasonID, q.Offset, q.Limit)
	page.Entries = make([]Entry, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		if seen[r.PlayerID] {
			continue
		}
		seen[r.PlayerID] = true
		id, _ := s.store.Identity(ctx, r.PlayerID)
		page.Entries = append(page.Entries, entry(q.Offset+len(page.Entries)+1, r, id))
	}
	page.Total = s.store.Count(ctx, q.SeasonID)
	return page, ctx.Err()
}

type candidate struct {
	Ranked
	identity player.Identity
	fromExt  bool
}

func (s *Service) merged(ctx context.Context, q QueryRequest, external []platform.HighScore) ([]Entry, int) {
	stored := s.store.Top(ctx, q.SeasonID, 0, q.Offset+q.Limit+len(external))

	all := make([]candidate, 0, len(external)+len(stored))
	for _, h := range external {
		all = append(all, candidate{Ranked: Ranked{PlayerID: h.User.ID, Score: h.Score}, identity: h.Identity(), fromExt: true})
	}
	for _, r := range stored {
		all = append(all, candidate{Ranked: r})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Score > all[j].Score })

	seen := make(map[string]bool, len(all))
	unique := all[:0]
	for _, c := range all {
		if c.PlayerID == "" || seen[c.PlayerID] {
			continue
		}
		seen[c.PlayerID] = true
		unique = append(unique, c)
	}

	total := s.store.Count(ctx, q.SeasonID)
	counted := make(map[string]bool, len(external))
	for _, h := range external {
		if counted[h.User.ID] {
			continue
		}
		counted[h.User.ID] = true
		if _, ok := s.store.BestScore(ctx, q.SeasonID, h.User.ID); !ok {
			total++
		}
	}

	entries := []Entry{}
	if q.Offset < len(unique) {
		end := q.Offset + q.Limit
		if end > len(unique) {
			end = len(unique)
		}
		for i, c := range unique[q.Offset:end] {
			id, ok := s.store.Identity(ctx, c.PlayerID)
			if !ok && c.fromExt {
				id = c.identity
			}
			entries = append(entries, entry(q.Offset+i+1, c.Ranked, id))
		}
	}
	return entries, total
}

func entry(rank int, r Ranked, id player.Identity) Entry {
	name := id.Username
	if name == "" {
		name = unknownName
	}
	id.ID = r.PlayerID
	return Entry{
		Rank:        rank,
		PlayerID:    r.PlayerID,
		Username:    name,
		DisplayName: id.DisplayName(),
		FirstName:   id.FirstName,
		LastName:    id.LastName,
		PhotoURL:    id.PhotoURL,
		Score:       r.Score,
	}
}

// season resolves the page's season descriptor; unknown ids still answer
// with the id alone.
func (s *Service) season(ctx context.Context, id string) season.Season {
	se, err := s.seasons.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, season.ErrNotFound) {
			log.Warn().Err(err).Str("season", id).Msg("season lookup failed")
		}
		return season.Season{ID: id}
	}
	return se
}

// Count is the number of stored players ranked in a season.
func (s *Service) Count(ctx context.Context, seasonID string) int {
	return s.store.Count(ctx, seasonID)
}
