// main.go
//
// Entrypoint for the Seal Hunt game server.
// Startup order: .env → config → logging → level catalogue → store backend
// → platform adapter → leaderboard services → HTTP server.
// SIGINT/SIGTERM drain in-flight requests, stop game countdowns and close the
// store.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/sealhunt/internal/config"
	"github.com/robalobadob/sealhunt/internal/httpserver"
	"github.com/robalobadob/sealhunt/internal/leaderboard"
	"github.com/robalobadob/sealhunt/internal/levels"
	"github.com/robalobadob/sealhunt/internal/metrics"
	"github.com/robalobadob/sealhunt/internal/platform"
	"github.com/robalobadob/sealhunt/internal/season"
	"github.com/robalobadob/sealhunt/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.Development() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	if cfg.AdminPasswordHash != "" && !cfg.AdminSecretConfigured() {
		log.Warn().Msg("ADMIN_JWT_SECRET is unset or the default, admin routes stay closed")
	}

	cat, err := levels.Load(cfg.LevelsFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.LevelsFile).Msg("failed to load level catalogue")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open store")
	}
	defer backend.Close()
	registerStoreCollector(backend)

	prov := platform.NewProvider(cfg)
	seasons := season.NewRegistry(backend)
	lb := leaderboard.NewService(leaderboard.NewStore(backend), seasons, prov.Client, prov.Identity)
	if prov.Name == "mock" {
		seedDevLeaderboard(ctx, prov.Client, seasons, lb, cfg.DevPlayerID)
	}

	sessions := store.NewSessions()
	defer sessions.Close()

	srv := httpserver.New(httpserver.Deps{
		Config:      cfg,
		Levels:      cat,
		Backend:     backend,
		Sessions:    sessions,
		Seasons:     seasons,
		Leaderboard: lb,
		Platform:    prov,
	})

	hs := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Str("store", cfg.StoreDriver).
			Str("platform", prov.Name).
			Msg("starting sealhunt server")
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server exited")
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
}

// registerStoreCollector exports connection-pool stats for SQL backends.
func registerStoreCollector(b store.Backend) {
	var c prometheus.Collector
	switch db := b.(type) {
	case *store.SQLite:
		c = collectors.NewDBStatsCollector(db.DB(), "sealhunt")
	case *store.Postgres:
		c = metrics.NewPoolCollector(db.Pool())
	default:
		return
	}
	if err := prometheus.Register(c); err != nil {
		log.Warn().Err(err).Msg("register store collector")
	}
}

// seedDevLeaderboard copies the mock platform's sample table into an empty
// active season so the development leaderboard is not blank.
func seedDevLeaderboard(ctx context.Context, client platform.Client, seasons *season.Registry, lb *leaderboard.Service, devID string) {
	active := seasons.ActiveID(ctx)
	if lb.Count(ctx, active) > 0 {
		return
	}
	rows, err := client.GetGameHighScores(ctx, devID)
	if err != nil {
		log.Warn().Err(err).Msg("read mock high scores")
		return
	}
	if err := lb.SeedScores(ctx, active, rows); err != nil {
		log.Warn().Err(err).Msg("seed development leaderboard")
		return
	}
	log.Info().Str("season", active).Int("players", len(rows)).Msg("seeded development leaderboard")
}
