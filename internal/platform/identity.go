package platform

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/sealhunt/internal/player"
)

// IdentityResolver decides who is submitting a score.
type IdentityResolver interface {
	// Resolve returns the player for a request carrying an optional claimed
	// identity and optional signed init data.
	Resolve(claimed player.Identity, initData string) (player.Identity, error)
}

// TelegramIdentity trusts verified init data first, then the claimed id.
type TelegramIdentity struct {
	Token  string
	MaxAge time.Duration
	Now    func() time.Time
}

func (t TelegramIdentity) Resolve(claimed player.Identity, initData string) (player.Identity, error) {
	if initData != "" && t.Token != "" {
		now := time.Now
		if t.Now != nil {
			now = t.Now
		}
		id, err := VerifyInitData(initData, t.Token, t.MaxAge, now())
		if err == nil {
			return id, nil
		}
		log.Warn().Err(err).Str("claimed", claimed.ID).Msg("init data rejected, using claimed identity")
	}
	if claimed.Valid() {
		return claimed, nil
	}
	return player.Identity{}, ErrIdentityUnavailable
}

// DevIdentity accepts the claimed identity and otherwise injects a fixed
// development player.
type DevIdentity struct {
	Fallback player.Identity
}

func (d DevIdentity) Resolve(claimed player.Identity, _ string) (player.Identity, error) {
	if claimed.Valid() {
		return claimed, nil
	}
	if d.Fallback.Valid() {
		return d.Fallback, nil
	}
	return player.Identity{}, ErrIdentityUnavailable
}
