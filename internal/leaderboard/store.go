// internal/leaderboard/store.go
//
// Season-scoped leaderboard persistence.
//
// Repository is the contract a backend (memory, SQLite, Postgres) fulfils.
// Store wraps it with the failure policy the protocols rely on:
//   - reads degrade to empty/default results and log the error;
//   - writes surface ErrStoreUnavailable so callers can report it.

package leaderboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/sealhunt/internal/player"
)

var (
	ErrStoreUnavailable    = errors.New("leaderboard store unavailable")
	ErrIdentityUnavailable = errors.New("player identity unavailable")
	ErrInvalidScore        = errors.New("score must be a non-negative integer")
)

// Ranked is one stored (player, best score) pair.
type Ranked struct {
	PlayerID string `json:"playerId"`
	Score    int    `json:"score"`
}

// Repository is implemented by the backends in internal/store.
type Repository interface {
	// RecordScore sets the player's score unconditionally.
	RecordScore(ctx context.Context, seasonID, playerID string, score int) error
	// RecordBest stores score only when the player has none or a lower one,
	// as one atomic operation. It reports whether the stored value changed.
	RecordBest(ctx context.Context, seasonID, playerID string, score int) (bool, error)
	BestScore(ctx context.Context, seasonID, playerID string) (score int, ok bool, err error)
	// Top returns entries ordered by score descending; ties keep the order in
	// which players reached the score.
	Top(ctx context.Context, seasonID string, offset, limit int) ([]Ranked, error)
	Count(ctx context.Context, seasonID string) (int, error)
	Identity(ctx context.Context, playerID string) (player.Identity, bool, error)
	// SetIdentityIfAbsent stores id unless a snapshot already exists.
	SetIdentityIfAbsent(ctx context.Context, id player.Identity) (bool, error)
}

type Store struct {
	repo Repository
}

func NewStore(repo Repository) *Store { return &Store{repo: repo} }

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

func (s *Store) RecordScore(ctx context.Context, seasonID, playerID string, score int) error {
	if err := s.repo.RecordScore(ctx, seasonID, playerID, score); err != nil {
		return unavailable("record score", err)
	}
	return nil
}

func (s *Store) RecordBest(ctx context.Context, seasonID, playerID string, score int) (bool, error) {
	improved, err := s.repo.RecordBest(ctx, seasonID, playerID, score)
	if err != nil {
		return false, unavailable("record best", err)
	}
	return improved, nil
}

func (s *Store) SetIdentityIfAbsent(ctx context.Context, id player.Identity) error {
	if _, err := s.repo.SetIdentityIfAbsent(ctx, id); err != nil {
		return unavailable("set identity", err)
	}
	return nil
}

// BestScore reports the player's stored score; absent on error.
func (s *Store) BestScore(ctx context.Context, seasonID, playerID string) (int, bool) {
	score, ok, err := s.repo.BestScore(ctx, seasonID, playerID)
	if err != nil {
		log.Warn().Err(err).Str("season", seasonID).Str("player", playerID).Msg("best score lookup failed")
		return 0, false
	}
	return score, ok
}

// Top returns a page of the season ranking; empty on error.
func (s *Store) Top(ctx context.Context, seasonID string, offset, limit int) []Ranked {
	rows, err := s.repo.Top(ctx, seasonID, offset, limit)
	if err != nil {
		log.Warn().Err(err).Str("season", seasonID).Msg("leaderboard read failed")
		return []Ranked{}
	}
	return rows
}

// Count returns the number of ranked players; 0 on error.
func (s *Store) Count(ctx context.Context, seasonID string) int {
	n, err := s.repo.Count(ctx, seasonID)
	if err != nil {
		log.Warn().Err(err).Str("season", seasonID).Msg("leaderboard count failed")
		return 0
	}
	return n
}

// Identity returns the stored snapshot; absent on error.
func (s *Store) Identity(ctx context.Context, playerID string) (player.Identity, bool) {
	id, ok, err := s.repo.Identity(ctx, playerID)
	if err != nil {
		log.Warn().Err(err).Str("player", playerID).Msg("identity lookup failed")
		return player.Identity{}, false
	}
	return id, ok
}
