// internal/season/season.go
//
// Season registry: the named time windows that scope leaderboards.
//
// Rules:
//   - At most one season is active. Activating a season deactivates every
//     other one in the same store operation.
//   - When no season is active (or the store cannot be reached) the default
//     season "season1" is used; it is created on demand with a 90-day window,
//     or marked active again if it already exists.
//   - New seasons without an explicit id get "season<N+1>", N being the number
//     of stored seasons, skipping ids already taken.

package season

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultID     = "season1"
	DefaultName   = "Season 1"
	DefaultLength = 90 * 24 * time.Hour
)

var (
	ErrNotFound = errors.New("season not found")
	ErrConflict = errors.New("season id already taken")
)

// Season is a named window scoping one leaderboard.
type Season struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// Default is the season synthesized when none is active.
func Default(now time.Time) Season {
	now = now.UTC().Truncate(time.Second)
	return Season{
		ID:        DefaultID,
		Name:      DefaultName,
		StartDate: now,
		EndDate:   now.Add(DefaultLength),
		IsActive:  true,
		CreatedAt: now,
	}
}

// Repository persists seasons. Implementations live in internal/store.
type Repository interface {
	Seasons(ctx context.Context) ([]Season, error)
	Season(ctx context.Context, id string) (Season, error)
	// ActiveSeason returns ErrNotFound when no season is active.
	ActiveSeason(ctx context.Context) (Season, error)
	// CreateSeason inserts s, returning ErrConflict if its id exists.
	CreateSeason(ctx context.Context, s Season) error
	// PutSeason inserts or replaces s, keeping the original CreatedAt.
	PutSeason(ctx context.Context, s Season) error
}

// Registry resolves and maintains seasons over a Repository.
type Registry struct {
	repo Repository
	now  func() time.Time
}

func NewRegistry(repo Repository) *Registry {
	return &Registry{repo: repo, now: time.Now}
}

// ActiveID returns the active season id. It never fails: store errors and a
// missing active season both resolve to the default season.
func (r *Registry) ActiveID(ctx context.Context) string {
	s, err := r.repo.ActiveSeason(ctx)
	if err == nil {
		return s.ID
	}
	if !errors.Is(err, ErrNotFound) {
		log.Warn().Err(err).Msg("active season lookup failed, using default")
		return DefaultID
	}

	def := Default(r.now())
	err = r.repo.CreateSeason(ctx, def)
	switch {
	case err == nil:
		log.Info().Str("season", def.ID).Msg("created default season")
	case errors.Is(err, ErrConflict):
		r.reactivateDefault(ctx)
	default:
		log.Warn().Err(err).Msg("create default season")
	}
	return def.ID
}

// reactivateDefault marks a stored, inactive default season active again.
func (r *Registry) reactivateDefault(ctx context.Context) {
	s, err := r.repo.Season(ctx, DefaultID)
	if err != nil {
		log.Warn().Err(err).Msg("load default season")
		return
	}
	if s.IsActive {
		return
	}
	s.IsActive = true
	if err := r.repo.PutSeason(ctx, s); err != nil {
		log.Warn().Err(err).Msg("reactivate default season")
		return
	}
	log.Info().Str("season", s.ID).Msg("reactivated default season")
}

// List returns every season, newest start date first. An empty registry is
// seeded with the default season.
func (r *Registry) List(ctx context.Context) ([]Season, error) {
	seasons, err := r.repo.Seasons(ctx)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	if len(seasons) == 0 {
		r.ActiveID(ctx)
		if seasons, err = r.repo.Seasons(ctx); err != nil {
			return nil, fmt.Errorf("list seasons: %w", err)
		}
	}
	SortNewestFirst(seasons)
	return seasons, nil
}

// Get returns one season. The default id always resolves, even before the
// default season has been stored.
func (r *Registry) Get(ctx context.Context, id string) (Season, error) {
	s, err := r.repo.Season(ctx, id)
	if errors.Is(err, ErrNotFound) && id == DefaultID {
		return Default(r.now()), nil
	}
	return s, err
}

// Save creates or updates a season from admin input and returns its id.
func (r *Registry) Save(ctx context.Context, in Input) (string, error) {
	s, err := in.Parse()
	if err != nil {
		return "", err
	}
	s.CreatedAt = r.now().UTC().Truncate(time.Second)

	if s.ID != "" {
		if err := r.repo.PutSeason(ctx, s); err != nil {
			return "", fmt.Errorf("save season %s: %w", s.ID, err)
		}
		return s.ID, nil
	}

	// Another writer may claim the same sequential id between list and insert.
	const attempts = 5
	for i := 0; i < attempts; i++ {
		existing, err := r.repo.Seasons(ctx)
		if err != nil {
			return "", fmt.Errorf("save season: %w", err)
		}
		s.ID = NextID(existing)
		err = r.repo.CreateSeason(ctx, s)
		if err == nil {
			return s.ID, nil
		}
		if !errors.Is(err, ErrConflict) {
			return "", fmt.Errorf("save season %s: %w", s.ID, err)
		}
	}
	return "", fmt.Errorf("save season: %w", ErrConflict)
}

// NextID is "season<N+1>" for N existing seasons, bumped past taken ids.
func NextID(existing []Season) string {
	taken := make(map[string]bool, len(existing))
	for _, s := range existing {
		taken[s.ID] = true
	}
	for n := len(existing) + 1; ; n++ {
		if id := fmt.Sprintf("season%d", n); !taken[id] {
			return id
		}
	}
}

// SortNewestFirst orders seasons by start date descending, then id.
func SortNewestFirst(seasons []Season) {
	sort.SliceStable(seasons, func(i, j int) bool {
		a, b := seasons[i], seasons[j]
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.After(b.StartDate)
		}
		return a.ID < b.ID
	})
}
