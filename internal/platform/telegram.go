// internal/platform/telegram.go
//
// Telegram Bot API adapter for the game-score methods.
//
// Every call goes through a circuit breaker so a failing Bot API fails fast
// and score submission drops to the store path without waiting on timeouts.
// Client errors (unknown user, bad game name) do not trip the breaker.

package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/sealhunt/internal/circuitbreaker"
	"github.com/robalobadob/sealhunt/internal/metrics"
)

// TelegramOptions configures the adapter.
type TelegramOptions struct {
	Token               string
	APIBase             string // e.g. https://api.telegram.org
	GameShortName       string
	Timeout             time.Duration
	BreakerMaxFailures  int
	BreakerResetTimeout time.Duration
	HTTPClient          *http.Client
}

type Telegram struct {
	token   string
	base    string
	game    string
	http    *http.Client
	breaker *circuitbreaker.Breaker
}

func NewTelegram(opts TelegramOptions) *Telegram {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	base := strings.TrimRight(opts.APIBase, "/")
	if base == "" {
		base = "https://api.telegram.org"
	}
	return &Telegram{
		token: opts.Token,
		base:  base,
		game:  opts.GameShortName,
		http:  hc,
		breaker: circuitbreaker.New("telegram", circuitbreaker.Options{
			MaxFailures:  opts.BreakerMaxFailures,
			ResetTimeout: opts.BreakerResetTimeout,
			IsFailure: func(err error) bool {
				var apiErr *APIError
				return !(errors.As(err, &apiErr) && apiErr.ClientError())
			},
			OnStateChange: func(name string, _, to circuitbreaker.State) {
				metrics.BreakerState(name, int(to))
			},
		}),
	}
}

// GameShortName is the game the adapter reads high scores for.
func (t *Telegram) GameShortName() string { return t.game }

// BreakerState reports the circuit breaker guarding the Bot API.
func (t *Telegram) BreakerState() circuitbreaker.State { return t.breaker.GetState() }

type setGameScoreParams struct {
	UserID             int64  `json:"user_id"`
	Score              int    `json:"score"`
	Force              bool   `json:"force"`
	DisableEditMessage bool   `json:"disable_edit_message"`
	InlineMessageID    string `json:"inline_message_id,omitempty"`
	ChatID             string `json:"chat_id,omitempty"`
	MessageID          int64  `json:"message_id,omitempty"`
}

// SetGameScore sends the score with force semantics so the platform keeps
// exactly what the protocol decided.
func (t *Telegram) SetGameScore(ctx context.Context, req ScoreRequest) error {
	if !req.Target.HasTarget() {
		return ErrNoMessageContext
	}
	uid, err := parseUserID(req.UserID)
	if err != nil {
		return err
	}
	p := setGameScoreParams{
		UserID:             uid,
		Score:              req.Score,
		Force:              true,
		DisableEditMessage: true,
	}
	if req.Target.HasInline() {
		p.InlineMessageID = strings.TrimSpace(req.Target.InlineMessageID)
	} else {
		p.ChatID = strings.TrimSpace(req.Target.ChatID)
		p.MessageID, _ = strconv.ParseInt(strings.TrimSpace(req.Target.MessageID), 10, 64)
	}
	return t.call(ctx, "setGameScore", p, nil)
}

type getGameHighScoresParams struct {
	UserID        int64  `json:"user_id"`
	GameShortName string `json:"game_short_name"`
}

type tgUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type tgHighScore struct {
	Position int    `json:"position"`
	User     tgUser `json:"user"`
	Score    int    `json:"score"`
}

// GetGameHighScores fetches the table for the configured game.
func (t *Telegram) GetGameHighScores(ctx context.Context, userID string) ([]HighScore, error) {
	return t.HighScoresFor(ctx, userID, t.game)
}

// HighScoresFor fetches the table for an explicit game short name.
func (t *Telegram) HighScoresFor(ctx context.Context, userID, game string) ([]HighScore, error) {
	uid, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}
	var rows []tgHighScore
	if err := t.call(ctx, "getGameHighScores", getGameHighScoresParams{UserID: uid, GameShortName: game}, &rows); err != nil {
		return nil, err
	}
	out := make([]HighScore, 0, len(rows))
	for _, r := range rows {
		out = append(out, HighScore{
			Position: r.Position,
			Score:    r.Score,
			User: User{
				ID:        strconv.FormatInt(r.User.ID, 10),
				Username:  r.User.Username,
				FirstName: r.User.FirstName,
				LastName:  r.User.LastName,
			},
		})
	}
	return out, nil
}

type envelope struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

func (t *Telegram) call(ctx context.Context, method string, params, out any) error {
	if t.token == "" {
		return ErrNotConfigured
	}
	err := t.breaker.Execute(func() error { return t.do(ctx, method, params, out) })
	metrics.PlatformCall(method, err)
	if err != nil {
		log.Warn().Err(err).Str("method", method).Msg("telegram call failed")
	}
	return err
}

func (t *Telegram) do(ctx context.Context, method string, params, out any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("%s: encode: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.base+"/bot"+t.token+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		// url.Error embeds the request URL, which carries the token.
		return fmt.Errorf("%s: %s", method, strings.ReplaceAll(err.Error(), t.token, "<token>"))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s: read: %w", method, err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &APIError{Status: resp.StatusCode, Description: "unparseable response: " + truncate(string(raw), 200)}
	}
	if !env.OK || resp.StatusCode >= 300 {
		status := resp.StatusCode
		if status < 300 {
			status = http.StatusBadGateway
		}
		return &APIError{Status: status, Code: env.ErrorCode, Description: env.Description}
	}
	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("%s: decode result: %w", method, err)
		}
	}
	return nil
}

func parseUserID(id string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return 0, &APIError{Status: http.StatusBadRequest, Description: "USER_ID_INVALID: " + id}
	}
	return n, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
