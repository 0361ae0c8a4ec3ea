package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/sealhunt/internal/store"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":  "sealhunt",
		"platform": s.Platform.Name,
		"endpoints": []string{
			"/health", "/readyz", "/metrics", "/levels",
			"POST /game/new", "POST /game/reveal", "POST /game/abandon", "GET /game/{id}",
			"/seasons", "/leaderboard", "POST /scores",
			"/telegram/getGameHighScores", "POST /telegram/setGameScore",
		},
	})
}

type readyResponse struct {
	Status    string `json:"status"`
	Store     string `json:"store"`
	LatencyMs int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

// handleReady pings the store. The platform is not probed: a platform outage
// degrades to the store and does not make the service unready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	start := time.Now()
	err := s.Backend.Ping(ctx)
	resp := readyResponse{Status: "ok", Store: s.Config.StoreDriver, LatencyMs: time.Since(start).Milliseconds()}
	if err != nil {
		resp.Status, resp.Error = "unavailable", err.Error()
		log.Warn().Err(err).Msg("readiness check failed")
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type debugSeason struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
	Players  int    `json:"players"`
}

// handleDebugStore reports what the store currently holds.
func (s *Server) handleDebugStore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := map[string]any{
		"driver":       s.Config.StoreDriver,
		"platform":     s.Platform.Name,
		"activeSeason": s.Seasons.ActiveID(ctx),
		"liveSessions": s.Sessions.Len(),
	}
	if s.Platform.Telegram != nil {
		resp["breaker"] = s.Platform.Telegram.BreakerState().String()
	}

	seasons, err := s.Seasons.List(ctx)
	if err != nil {
		resp["error"] = err.Error()
	}
	rows := make([]debugSeason, 0, len(seasons))
	for _, se := range seasons {
		rows = append(rows, debugSeason{ID: se.ID, Name: se.Name, IsActive: se.IsActive, Players: s.Leaderboard.Count(ctx, se.ID)})
	}
	resp["seasons"] = rows

	if mem, ok := s.Backend.(*store.Memory); ok {
		resp["keys"] = mem.Keys()
	}
	writeJSON(w, http.StatusOK, resp)
}
