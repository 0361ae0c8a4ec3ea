// internal/player/player.go
//
// Player identity as reported by the messaging platform.
// The platform-assigned ID is the natural key everywhere scores are recorded;
// the remaining fields are a display snapshot.

package player

import "strings"

// Identity is a player's platform identity.
type Identity struct {
	ID        string `json:"playerId"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	PhotoURL  string `json:"photoUrl,omitempty"`
}

// Valid reports whether the identity carries a usable ID.
func (i Identity) Valid() bool { return strings.TrimSpace(i.ID) != "" }

// DisplayName prefers @username, then the full name, then a truncated-id fallback.
func (i Identity) DisplayName() string {
	if u := strings.TrimSpace(i.Username); u != "" {
		return "@" + u
	}
	full := strings.TrimSpace(strings.TrimSpace(i.FirstName) + " " + strings.TrimSpace(i.LastName))
	if full != "" {
		return full
	}
	id := i.ID
	if len(id) > 6 {
		id = id[:6]
	}
	return "user_" + id
}
