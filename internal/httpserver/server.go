// internal/httpserver/server.go
//
// HTTP server wiring for the Seal Hunt backend.
// Responsibilities:
//   - Router + middleware (request IDs, access log, metrics, timeouts, panic
//     recovery, JSON, CORS).
//   - Public endpoints: "/", "/health", "/readyz", "/metrics".
//   - Game endpoints: POST /game/new, POST /game/reveal, POST /game/abandon, GET /game/{id}.
//   - Seasons + leaderboard: /seasons, /leaderboard, /scores.
//   - Telegram proxies keeping the bot token server-side: /telegram/*.
//   - Admin session (bcrypt + JWT cookie) guarding season writes and diagnostics.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Handlers map domain errors to status codes in one place (respond.go).

package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/sealhunt/internal/config"
	"github.com/robalobadob/sealhunt/internal/leaderboard"
	"github.com/robalobadob/sealhunt/internal/levels"
	"github.com/robalobadob/sealhunt/internal/metrics"
	"github.com/robalobadob/sealhunt/internal/platform"
	"github.com/robalobadob/sealhunt/internal/season"
	"github.com/robalobadob/sealhunt/internal/store"
)

// Deps are the collaborators a Server routes to.
type Deps struct {
	Config      config.Config
	Levels      levels.Catalogue
	Backend     store.Backend
	Sessions    *store.Sessions
	Seasons     *season.Registry
	Leaderboard *leaderboard.Service
	Platform    platform.Provider
}

// Server bundles the router and its dependencies.
type Server struct {
	r *chi.Mux
	Deps

	// tick is the countdown interval of new game sessions.
	tick time.Duration
	// finishedTTL is how long a finished game stays readable.
	finishedTTL time.Duration
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) *Server {
	s := &Server{r: chi.NewRouter(), Deps: d, tick: time.Second, finishedTTL: d.Config.FinishedGameTTL}
	if s.finishedTTL <= 0 {
		s.finishedTTL = 10 * time.Minute
	}

	timeout := d.Config.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(hlog.NewHandler(log.Logger))
	s.r.Use(hlog.AccessHandler(accessLog))
	s.r.Use(chimw.Recoverer)
	s.r.Use(metrics.Metrics)
	s.r.Use(chimw.Timeout(timeout))
	s.r.Use(jsonContentType)
	s.r.Use(cors(d.Config.ClientOrigin))

	// --- diagnostics ---
	s.r.Get("/", s.handleIndex)
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	s.r.Get("/readyz", s.handleReady)
	s.r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// --- game sessions ---
	s.r.Post("/game/new", s.handleNewGame)
	s.r.Post("/game/reveal", s.handleReveal)
	s.r.Post("/game/abandon", s.handleAbandon)
	s.r.Get("/game/{id}", s.handleGetGame)
	s.r.Get("/levels", s.handleLevels)

	// --- seasons + leaderboard ---
	s.r.Get("/seasons", s.handleListSeasons)
	s.r.With(s.requireAdmin()).Post("/seasons", s.handleSaveSeason)
	s.r.Get("/leaderboard", s.handleLeaderboard)
	s.r.Post("/scores", s.handleSubmitScore)

	// --- platform proxies ---
	s.r.Route("/telegram", func(r chi.Router) {
		r.Get("/getGameHighScores", s.handleGetHighScores)
		r.Post("/setGameScore", s.handleSetGameScore)
	})

	// --- admin ---
	s.r.Post("/admin/login", s.handleAdminLogin)
	s.r.Post("/admin/logout", s.handleAdminLogout)
	s.r.With(s.requireAdmin()).Get("/debug/store", s.handleDebugStore)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.r.ServeHTTP(w, r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

func accessLog(r *http.Request, status, size int, d time.Duration) {
	hlog.FromRequest(r).Debug().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("request_id", chimw.GetReqID(r.Context())).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Msg("request")
}

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
