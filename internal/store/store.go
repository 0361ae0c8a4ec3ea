// internal/store/store.go
//
// Backend selection.
// Every backend implements both persistence contracts (seasons and
// leaderboards) and a readiness probe.

package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/sealhunt/internal/config"
	"github.com/robalobadob/sealhunt/internal/leaderboard"
	"github.com/robalobadob/sealhunt/internal/season"
)

// Backend is a complete persistence layer.
type Backend interface {
	season.Repository
	leaderboard.Repository

	// Ping reports whether the backend can serve requests.
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Backend = (*Memory)(nil)
	_ Backend = (*SQLite)(nil)
	_ Backend = (*Postgres)(nil)
)

// Open builds the backend named by cfg.StoreDriver.
func Open(ctx context.Context, cfg config.Config) (Backend, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory, "":
		log.Info().Str("driver", config.DriverMemory).Msg("store: in-memory, data is lost on restart")
		return NewMemory(), nil
	case config.DriverSQLite:
		log.Info().Str("driver", config.DriverSQLite).Str("path", cfg.SQLitePath).Msg("store: opening")
		db, err := OpenSQLite(ctx, cfg.SQLitePath, cfg.QueryTimeout)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("store driver %q requires DATABASE_URL", cfg.StoreDriver)
		}
		log.Info().Str("driver", config.DriverPostgres).Msg("store: connecting")
		pg, err := OpenPostgres(ctx, cfg.DatabaseURL, cfg.QueryTimeout)
		if err != nil {
			return nil, err
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
