package platform

import (
	"github.com/robalobadob/sealhunt/internal/config"
	"github.com/robalobadob/sealhunt/internal/player"
)

// Provider bundles the platform adapter and identity policy chosen at startup.
type Provider struct {
	Name     string // "telegram" or "mock"
	Client   Client
	Identity IdentityResolver
	// Telegram is set when Client is the real adapter; the proxy routes need it.
	Telegram *Telegram
}

// NewProvider selects the adapters for cfg. Development without a bot token
// runs against the mock; otherwise the Telegram adapter is used, and a
// missing token surfaces as ErrNotConfigured on each call.
func NewProvider(cfg config.Config) Provider {
	if cfg.Development() && cfg.BotToken == "" {
		return Provider{
			Name:   "mock",
			Client: NewMock(),
			Identity: DevIdentity{Fallback: player.Identity{
				ID:        cfg.DevPlayerID,
				Username:  DevUser.Username,
				FirstName: DevUser.FirstName,
				LastName:  DevUser.LastName,
			}},
		}
	}
	tg := NewTelegram(TelegramOptions{
		Token:               cfg.BotToken,
		APIBase:             cfg.TelegramAPIBase,
		GameShortName:       cfg.GameShortName,
		Timeout:             cfg.PlatformTimeout,
		BreakerMaxFailures:  cfg.BreakerMaxFailures,
		BreakerResetTimeout: cfg.BreakerResetTimeout,
	})
	return Provider{
		Name:     "telegram",
		Client:   tg,
		Telegram: tg,
		Identity: TelegramIdentity{Token: cfg.BotToken, MaxAge: cfg.InitDataMaxAge},
	}
}
