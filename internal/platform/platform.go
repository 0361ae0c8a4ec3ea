// internal/platform/platform.go
//
// Contract with the external messaging platform that keeps the
// authoritative per-game high-score table (Telegram's game-score API).
//
// Two adapters implement Client:
//   - Telegram: the real Bot API, guarded by a circuit breaker.
//   - Mock:     an in-process table seeded with sample players (development).
//
// The bot token never leaves this package; browser clients reach the
// platform only through the server-side proxies in internal/httpserver.

package platform

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/robalobadob/sealhunt/internal/player"
)

var (
	// ErrNotConfigured means no bot token is available. Proxies answer 500;
	// score submission falls back to the store.
	ErrNotConfigured = errors.New("platform: bot token not configured")
	// ErrNoMessageContext means a score cannot be attached to any game message.
	ErrNoMessageContext = errors.New("platform: no message context")
	// ErrIdentityUnavailable means no player identity could be resolved.
	ErrIdentityUnavailable = errors.New("player identity unavailable")
)

// Client is the platform capability used by the leaderboard protocols.
type Client interface {
	// SetGameScore records score for a user against a game message. The
	// platform's own table keeps whatever is sent (force semantics).
	SetGameScore(ctx context.Context, req ScoreRequest) error
	// GetGameHighScores returns the high-score table around userID.
	GetGameHighScores(ctx context.Context, userID string) ([]HighScore, error)
}

// MessageContext identifies the game message a score belongs to: either an
// inline message, or a chat plus message id.
type MessageContext struct {
	InlineMessageID string `json:"inlineMessageId,omitempty"`
	ChatID          string `json:"chatId,omitempty"`
	MessageID       string `json:"messageId,omitempty"`
}

// HasInline reports a usable inline message id ("0" is a client placeholder).
func (m MessageContext) HasInline() bool {
	id := strings.TrimSpace(m.InlineMessageID)
	return id != "" && id != "0"
}

// HasChatMessage reports a usable chat id and numeric message id.
func (m MessageContext) HasChatMessage() bool {
	if strings.TrimSpace(m.ChatID) == "" {
		return false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(m.MessageID), 10, 64)
	return err == nil && n != 0
}

// HasTarget reports whether a score can be delivered for this context.
func (m MessageContext) HasTarget() bool { return m.HasInline() || m.HasChatMessage() }

// ScoreRequest is one setGameScore call.
type ScoreRequest struct {
	UserID string
	Score  int
	Target MessageContext
}

// User is the platform's view of a player inside a high-score entry.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
}

// HighScore is one row of the platform high-score table.
type HighScore struct {
	Position int  `json:"position,omitempty"`
	User     User `json:"user"`
	Score    int  `json:"score"`
}

// Identity converts the entry's user to a player identity.
func (h HighScore) Identity() player.Identity {
	return player.Identity{
		ID:        h.User.ID,
		Username:  h.User.Username,
		FirstName: h.User.FirstName,
		LastName:  h.User.LastName,
	}
}

// APIError is an error response from the platform.
type APIError struct {
	Status      int
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return "platform: " + e.Message() + " (status " + strconv.Itoa(e.Status) + ")"
}

// Message maps well-known platform descriptions to readable text.
func (e *APIError) Message() string {
	switch {
	case strings.Contains(e.Description, "USER_NOT_FOUND"):
		return "Telegram user not found"
	case strings.Contains(e.Description, "GAME_SHORT_NAME_INVALID"):
		return "Invalid game short name"
	case e.Description != "":
		return e.Description
	}
	return "Error from Telegram API"
}

// ClientError reports a request the platform rejected as malformed or
// unauthorized for this user; retrying will not help and the platform
// itself is healthy.
func (e *APIError) ClientError() bool {
	return e.Status >= 400 && e.Status < 500 && e.Status != http.StatusTooManyRequests
}

// HTTPStatus is the status a proxy should answer with.
func (e *APIError) HTTPStatus() int {
	if e.Status == 0 {
		return http.StatusBadGateway
	}
	return e.Status
}
