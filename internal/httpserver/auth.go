// internal/httpserver/auth.go
//
// Admin session for season management and diagnostics.
//   - POST /admin/login  {password} → bcrypt check, HS256 JWT in a cookie (and the body)
//   - POST /admin/logout            → clears the cookie
//   - requireAdmin                  → accepts "Authorization: Bearer" or the cookie
//
// In development with no ADMIN_PASSWORD_HASH configured, admin routes are open.
// In production they stay closed until a hash and a non-default
// ADMIN_JWT_SECRET are both set.

package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminCookieName = "sealhunt_admin"
	adminSubject    = "admin"
)

type loginReq struct {
	Password string `json:"password"`
}

type loginRes struct {
	OK        bool      `json:"ok"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// adminOpen reports whether admin routes run without credentials.
func (s *Server) adminOpen() bool {
	return s.Config.AdminPasswordHash == "" && s.Config.Development()
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var body loginReq
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	switch {
	case s.adminOpen():
	case s.Config.AdminPasswordHash == "" || !s.Config.AdminSecretConfigured():
		writeError(w, http.StatusServiceUnavailable, "Admin login is not configured")
		return
	case !checkPassword(s.Config.AdminPasswordHash, body.Password):
		log.Warn().Str("ip", r.RemoteAddr).Msg("admin login rejected")
		writeError(w, http.StatusUnauthorized, "Invalid password")
		return
	}

	tok, exp, err := s.signJWT()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	s.setAuthCookie(w, tok, exp)
	writeJSON(w, http.StatusOK, loginRes{OK: true, Token: tok, ExpiresAt: exp})
}

func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	s.clearAuthCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// requireAdmin enforces a valid admin JWT.
func (s *Server) requireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.adminOpen() {
				next.ServeHTTP(w, r)
				return
			}
			tokenStr := bearerOrCookie(r)
			if tokenStr == "" || !s.Config.AdminSecretConfigured() {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if err := s.verifyJWT(tokenStr); err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// checkPassword is a bcrypt verifier.
func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// ------------------------------ JWT & cookies ------------------------------

// signJWT creates an HS256 admin token valid for ADMIN_TOKEN_TTL.
func (s *Server) signJWT() (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.Config.AdminTokenTTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   adminSubject,
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(now),
	})
	ss, err := t.SignedString([]byte(s.Config.AdminJWTSecret))
	return ss, exp, err
}

func (s *Server) verifyJWT(tokenStr string) error {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.Config.AdminJWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return err
	}
	if !token.Valid || claims.Subject != adminSubject {
		return errors.New("not an admin token")
	}
	return nil
}

func (s *Server) setAuthCookie(w http.ResponseWriter, token string, exp time.Time) {
	secure, sameSite := s.cookiePolicy()
	http.SetCookie(w, &http.Cookie{
		Name:     adminCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

func (s *Server) clearAuthCookie(w http.ResponseWriter) {
	secure, sameSite := s.cookiePolicy()
	http.SetCookie(w, &http.Cookie{
		Name:     adminCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		MaxAge:   -1,
	})
}

// bearerOrCookie extracts a bearer token from the Authorization header or the admin cookie.
func bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(adminCookieName); err == nil {
		return c.Value
	}
	return ""
}
