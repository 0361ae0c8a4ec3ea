// internal/httpserver/routes_game.go
//
// HTTP routes for server-held game sessions.
//   - POST /game/new     → start a session for the requested level (replaces the caller's previous one)
//   - POST /game/reveal  → reveal one cell
//   - POST /game/abandon → end the caller's session as lost
//   - GET  /game/{id}    → current board view
//   - GET  /levels       → level catalogue
//
// Sessions belong to an owner cookie; another owner's game id answers 404.
// Unrevealed cells are masked in every response.

package httpserver

import (
	"errors"
	"math/rand"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/sealhunt/internal/game"
	"github.com/robalobadob/sealhunt/internal/metrics"
)

const ownerCookieName = "sealhunt_owner"

type newGameReq struct {
	Level game.Level `json:"level"`
}

type revealReq struct {
	GameID string `json:"gameId"`
	Row    *int   `json:"row"`
	Col    *int   `json:"col"`
}

type revealRes struct {
	Outcome game.Outcome  `json:"outcome"`
	Game    game.Snapshot `json:"game"`
}

type abandonReq struct {
	GameID string `json:"gameId"`
}

func (s *Server) handleLevels(w http.ResponseWriter, r *http.Request) {
	type level struct {
		Name game.Level `json:"name"`
		game.LevelConfig
	}
	out := []level{}
	for _, lvl := range s.Levels.Levels() {
		out = append(out, level{Name: lvl, LevelConfig: s.Levels[lvl]})
	}
	writeJSON(w, http.StatusOK, map[string]any{"levels": out})
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	if req.Level == "" {
		req.Level = game.LevelEasy
	}
	cfg, err := s.Levels.Lookup(req.Level)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	g, err := game.NewSession(uuid.NewString(), req.Level, cfg, rng)
	if err != nil {
		log.Error().Err(err).Str("level", string(req.Level)).Msg("generate board")
		writeError(w, http.StatusInternalServerError, "generate_failed")
		return
	}
	g.OnFinish(func(g *game.Session) {
		metrics.GameFinished(string(g.Level()), string(g.State()))
		s.Sessions.RemoveAfter(g.ID(), s.finishedTTL)
	})

	owner := s.ensureOwnerID(w, r)
	s.Sessions.Save(owner, g)
	g.Start(s.tick)
	metrics.GameStarted(string(req.Level))

	writeJSON(w, http.StatusOK, g.Snapshot())
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	var req revealReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	if req.GameID == "" || req.Row == nil || req.Col == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Missing required parameters",
			Details: map[string]bool{"gameId": req.GameID != "", "row": req.Row != nil, "col": req.Col != nil},
		})
		return
	}
	g, ok := s.ownedSession(r, req.GameID)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	out, err := g.Reveal(*req.Row, *req.Col)
	if errors.Is(err, game.ErrOutOfBounds) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, revealRes{Outcome: out, Game: g.Snapshot()})
}

func (s *Server) handleAbandon(w http.ResponseWriter, r *http.Request) {
	var req abandonReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	g, ok := s.ownedSession(r, req.GameID)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	g.Expire()
	s.Sessions.Remove(g.ID())
	writeJSON(w, http.StatusOK, g.Snapshot())
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	g, ok := s.ownedSession(r, chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	writeJSON(w, http.StatusOK, g.Snapshot())
}

// ownedSession returns the session when it belongs to the caller's owner cookie.
func (s *Server) ownedSession(r *http.Request, id string) (*game.Session, bool) {
	c, err := r.Cookie(ownerCookieName)
	if err != nil || c.Value == "" {
		return nil, false
	}
	g, err := s.Sessions.Get(id)
	if err != nil {
		return nil, false
	}
	if owner, _ := s.Sessions.Owner(id); owner != c.Value {
		return nil, false
	}
	return g, true
}

// ensureOwnerID returns the existing owner cookie or sets a new one.
func (s *Server) ensureOwnerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(ownerCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	secure, sameSite := s.cookiePolicy()
	http.SetCookie(w, &http.Cookie{
		Name:     ownerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  time.Now().Add(180 * 24 * time.Hour),
	})
	return id
}

// cookiePolicy is Secure + SameSite=None in production (the game runs inside
// the platform's webview, a third-party context) and Lax otherwise.
func (s *Server) cookiePolicy() (bool, http.SameSite) {
	if s.Config.Production() {
		return true, http.SameSiteNoneMode
	}
	return false, http.SameSiteLaxMode
}
