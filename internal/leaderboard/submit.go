// internal/leaderboard/submit.go
//
// Score submission protocol.
//   1. Resolve the player identity.
//   2. With a message context, deliver to the platform; on success mirror the
//      score into the store through the compare-and-set path.
//   3. Without a context, or when delivery fails, record the score in the
//      store, keeping the higher of stored and submitted.
//   4. Snapshot the identity once (first write wins).

package leaderboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/sealhunt/internal/metrics"
	"github.com/robalobadob/sealhunt/internal/platform"
	"github.com/robalobadob/sealhunt/internal/player"
	"github.com/robalobadob/sealhunt/internal/season"
)

// Source names the path that recorded a submission.
type Source string

const (
	SourcePlatform Source = "platform"
	SourceStore    Source = "store"
)

// SeasonResolver is the slice of season.Registry the protocols need.
type SeasonResolver interface {
	ActiveID(ctx context.Context) string
	Get(ctx context.Context, id string) (season.Season, error)
}

// Service runs the submission and query protocols.
type Service struct {
	store    *Store
	seasons  SeasonResolver
	platform platform.Client
	identity platform.IdentityResolver
}

func NewService(store *Store, seasons SeasonResolver, client platform.Client, identity platform.IdentityResolver) *Service {
	return &Service{store: store, seasons: seasons, platform: client, identity: identity}
}

// SubmitRequest is one score submission.
type SubmitRequest struct {
	Claimed  player.Identity
	InitData string
	Score    int
	Target   platform.MessageContext
}

// Result describes how a submission was recorded.
type Result struct {
	Accepted     bool
	NewHighScore bool
	Source       Source
	SeasonID     string
	PlayerID     string
	// PlatformErr is the delivery failure that sent the score to the store.
	PlatformErr error
}

// Submit records a score for the active season.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (Result, error) {
	if req.Score < 0 {
		return Result{}, ErrInvalidScore
	}
	who, err := s.identity.Resolve(req.Claimed, req.InitData)
	if err != nil {
		if errors.Is(err, platform.ErrIdentityUnavailable) {
			return Result{}, ErrIdentityUnavailable
		}
		return Result{}, fmt.Errorf("resolve identity: %w", err)
	}

	res := Result{SeasonID: s.seasons.ActiveID(ctx), PlayerID: who.ID}

	if err := s.store.SetIdentityIfAbsent(ctx, who); err != nil {
		log.Warn().Err(err).Str("player", who.ID).Msg("identity snapshot not stored")
	}

	if req.Target.HasTarget() {
		err := s.platform.SetGameScore(ctx, platform.ScoreRequest{UserID: who.ID, Score: req.Score, Target: req.Target})
		if err == nil {
			improved, merr := s.store.RecordBest(ctx, res.SeasonID, who.ID, req.Score)
			if merr != nil {
				log.Warn().Err(merr).Str("player", who.ID).Int("score", req.Score).Msg("mirror to store failed")
			}
			res.Accepted, res.NewHighScore, res.Source = true, improved, SourcePlatform
			metrics.ScoreSubmitted(string(SourcePlatform))
			return res, nil
		}
		res.PlatformErr = err
		log.Warn().Err(err).Str("player", who.ID).Msg("platform delivery failed, recording in store")
	}

	improved, err := s.store.RecordBest(ctx, res.SeasonID, who.ID, req.Score)
	if err != nil {
		metrics.ScoreSubmitted("failed")
		return res, err
	}
	res.Accepted, res.NewHighScore, res.Source = true, improved, SourceStore
	metrics.ScoreSubmitted(string(SourceStore))
	return res, nil
}

// SeedScores writes scores unconditionally, used to preload the development
// leaderboard from the mock platform table.
func (s *Service) SeedScores(ctx context.Context, seasonID string, rows []platform.HighScore) error {
	for _, r := range rows {
		if err := s.store.SetIdentityIfAbsent(ctx, r.Identity()); err != nil {
			return err
		}
		if err := s.store.RecordScore(ctx, seasonID, r.User.ID, r.Score); err != nil {
			return err
		}
	}
	return nil
}
