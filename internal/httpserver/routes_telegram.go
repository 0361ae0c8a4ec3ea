// internal/httpserver/routes_telegram.go
//
// Server-side proxies to the platform's game-score API. Browser clients call
// these instead of the Bot API so the token never leaves the server.
//   - GET  /telegram/getGameHighScores?userId&gameShortName
//   - POST /telegram/setGameScore {userId, score, inlineMessageId | chatId+messageId}
//
// Error mapping: missing fields 400, platform rejections keep the platform's
// status, a missing bot token or an unreachable platform 500.

package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/sealhunt/internal/platform"
)

type setGameScoreReq struct {
	UserID          flexID `json:"userId"`
	Score           *int   `json:"score"`
	GameShortName   string `json:"gameShortName"`
	InlineMessageID string `json:"inlineMessageId"`
	ChatID          flexID `json:"chatId"`
	MessageID       flexID `json:"messageId"`
}

func (s *Server) handleGetHighScores(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	game := r.URL.Query().Get("gameShortName")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Missing required parameters",
			Details: map[string]bool{"userId": false, "gameShortName": game != ""},
		})
		return
	}

	scores, err := s.highScores(r.Context(), userID, game)
	if err != nil {
		s.writePlatformError(w, err, "getGameHighScores")
		return
	}
	if len(scores) == 0 {
		log.Debug().Str("user", userID).Msg("no high scores for this user and game")
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "result": scores})
}

func (s *Server) highScores(ctx context.Context, userID, game string) ([]platform.HighScore, error) {
	if s.Platform.Telegram != nil && game != "" {
		return s.Platform.Telegram.HighScoresFor(ctx, userID, game)
	}
	return s.Platform.Client.GetGameHighScores(ctx, userID)
}

func (s *Server) handleSetGameScore(w http.ResponseWriter, r *http.Request) {
	var req setGameScoreReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "score must be a number and ids strings or numbers")
		return
	}
	if req.UserID == "" || req.Score == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Missing required parameters",
			Details: map[string]bool{"userId": req.UserID != "", "score": req.Score != nil},
		})
		return
	}
	target := platform.MessageContext{
		InlineMessageID: req.InlineMessageID,
		ChatID:          string(req.ChatID),
		MessageID:       string(req.MessageID),
	}
	if !target.HasTarget() {
		writeError(w, http.StatusBadRequest, "Either inlineMessageId or chatId and messageId are required")
		return
	}

	err := s.Platform.Client.SetGameScore(r.Context(), platform.ScoreRequest{
		UserID: string(req.UserID),
		Score:  *req.Score,
		Target: target,
	})
	if err != nil {
		s.writePlatformError(w, err, "setGameScore")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "result": true})
}

func (s *Server) writePlatformError(w http.ResponseWriter, err error, method string) {
	var apiErr *platform.APIError
	switch {
	case errors.Is(err, platform.ErrNotConfigured):
		log.Error().Str("method", method).Msg("TELEGRAM_BOT_TOKEN is not configured")
		writeError(w, http.StatusInternalServerError, "Bot token not configured")
	case errors.Is(err, platform.ErrNoMessageContext):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &apiErr):
		log.Warn().Err(err).Str("method", method).Msg("platform rejected request")
		writeJSON(w, apiErr.HTTPStatus(), errorResponse{
			Error:   apiErr.Message(),
			Details: map[string]any{"description": apiErr.Description, "error_code": apiErr.Code},
		})
	default:
		log.Error().Err(err).Str("method", method).Msg("platform call failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Server error occurred", Details: err.Error()})
	}
}

// platformMessage is the client-facing text for a delivery failure that
// was absorbed by the store fallback.
func platformMessage(err error) string {
	var apiErr *platform.APIError
	switch {
	case errors.Is(err, platform.ErrNotConfigured):
		return "Telegram not configured; score saved to the server leaderboard"
	case errors.As(err, &apiErr):
		return apiErr.Message() + "; score saved to the server leaderboard"
	}
	return "Telegram unavailable; score saved to the server leaderboard"
}
