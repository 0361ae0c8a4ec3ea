package platform

import (
	"encoding/hex"
	"errors"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/robalobadob/sealhunt/internal/player"
)

const testToken = "123456:ABC-DEF"

func signedInitData(token string, authDate time.Time, user string) string {
	vals := url.Values{}
	vals.Set("query_id", "AAHdF6IQAAAAAN0XohDhrOrc")
	vals.Set("user", user)
	vals.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	vals.Set("hash", hex.EncodeToString(signInitData(vals, token)))
	return vals.Encode()
}

func TestVerifyInitData(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	user := `{"id":279058397,"first_name":"Vlad","last_name":"K","username":"vdkfrost","photo_url":"https://t.me/i/u.jpg"}`

	id, err := VerifyInitData(signedInitData(testToken, now.Add(-time.Minute), user), testToken, time.Hour, now)
	if err != nil {
		t.Fatal(err)
	}
	want := player.Identity{ID: "279058397", Username: "vdkfrost", FirstName: "Vlad", LastName: "K", PhotoURL: "https://t.me/i/u.jpg"}
	if id != want {
		t.Fatalf("got %+v, want %+v", id, want)
	}
}

func TestVerifyInitData_Rejects(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	user := `{"id":1,"first_name":"A"}`
	good := signedInitData(testToken, now, user)

	tampered, _ := url.ParseQuery(good)
	tampered.Set("user", `{"id":2,"first_name":"Mallory"}`)

	cases := []struct {
		name  string
		data  string
		token string
		want  error
	}{
		{"wrong token", good, "999:other", ErrInvalidInitData},
		{"tampered", tampered.Encode(), testToken, ErrInvalidInitData},
		{"no hash", "user=%7B%7D&auth_date=1", testToken, ErrInvalidInitData},
		{"expired", signedInitData(testToken, now.Add(-48*time.Hour), user), testToken, ErrInitDataExpired},
		{"no token", good, "", ErrNotConfigured},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := VerifyInitData(tc.data, tc.token, 24*time.Hour, now)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestTelegramIdentity(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	r := TelegramIdentity{Token: testToken, MaxAge: time.Hour, Now: func() time.Time { return now }}
	claimed := player.Identity{ID: "555", Username: "claimed"}

	id, err := r.Resolve(claimed, signedInitData(testToken, now, `{"id":777,"first_name":"Verified"}`))
	if err != nil || id.ID != "777" {
		t.Fatalf("verified: got %+v, %v", id, err)
	}

	id, err = r.Resolve(claimed, "hash=deadbeef")
	if err != nil || id.ID != "555" {
		t.Fatalf("bad init data should fall back to claimed: got %+v, %v", id, err)
	}

	if _, err := r.Resolve(player.Identity{}, ""); !errors.Is(err, ErrIdentityUnavailable) {
		t.Fatalf("expected ErrIdentityUnavailable, got %v", err)
	}
}

func TestDevIdentity(t *testing.T) {
	r := DevIdentity{Fallback: player.Identity{ID: "dev-user-123", Username: "dev_user"}}
	if id, _ := r.Resolve(player.Identity{}, ""); id.ID != "dev-user-123" {
		t.Errorf("fallback: got %+v", id)
	}
	if id, _ := r.Resolve(player.Identity{ID: "9"}, ""); id.ID != "9" {
		t.Errorf("claimed: got %+v", id)
	}
	if _, err := (DevIdentity{}).Resolve(player.Identity{}, ""); !errors.Is(err, ErrIdentityUnavailable) {
		t.Errorf("expected ErrIdentityUnavailable, got %v", err)
	}
}
