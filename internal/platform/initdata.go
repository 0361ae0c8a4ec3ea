package platform

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/robalobadob/sealhunt/internal/player"
)

var (
	ErrInvalidInitData = errors.New("platform: init data signature invalid")
	ErrInitDataExpired = errors.New("platform: init data expired")
)

type initDataUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	PhotoURL  string `json:"photo_url"`
}

// VerifyInitData checks a Telegram Web App init-data string against the bot
// token and returns the signed-in user.
//
// The data-check string is every field except hash, sorted by key, joined as
// "key=value" lines. The signing key is HMAC-SHA256("WebAppData", token).
// maxAge <= 0 disables the freshness check.
func VerifyInitData(initData, botToken string, maxAge time.Duration, now time.Time) (player.Identity, error) {
	if botToken == "" {
		return player.Identity{}, ErrNotConfigured
	}
	vals, err := url.ParseQuery(initData)
	if err != nil {
		return player.Identity{}, fmt.Errorf("%w: %v", ErrInvalidInitData, err)
	}
	hash := vals.Get("hash")
	if hash == "" {
		return player.Identity{}, fmt.Errorf("%w: missing hash", ErrInvalidInitData)
	}
	given, err := hex.DecodeString(hash)
	if err != nil {
		return player.Identity{}, fmt.Errorf("%w: malformed hash", ErrInvalidInitData)
	}
	if !hmac.Equal(given, signInitData(vals, botToken)) {
		return player.Identity{}, ErrInvalidInitData
	}

	if maxAge > 0 {
		ts, err := strconv.ParseInt(vals.Get("auth_date"), 10, 64)
		if err != nil {
			return player.Identity{}, fmt.Errorf("%w: auth_date", ErrInvalidInitData)
		}
		if now.Sub(time.Unix(ts, 0)) > maxAge {
			return player.Identity{}, ErrInitDataExpired
		}
	}

	var u initDataUser
	if err := json.Unmarshal([]byte(vals.Get("user")), &u); err != nil || u.ID == 0 {
		return player.Identity{}, fmt.Errorf("%w: user", ErrInvalidInitData)
	}
	return player.Identity{
		ID:        strconv.FormatInt(u.ID, 10),
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		PhotoURL:  u.PhotoURL,
	}, nil
}

// signInitData computes the expected hash for vals (hash itself excluded).
func signInitData(vals url.Values, botToken string) []byte {
	keys := make([]string, 0, len(vals))
	for k := range vals {
		if k != "hash" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = k + "=" + vals.Get(k)
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(lines, "\n")))
	return mac.Sum(nil)
}
