package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Admin sessions are JWTs signed with the configured secret. They guard the
// review write-back and account provisioning endpoints only; participant
// requests authenticate with their opaque account token instead.

const adminSubject = "admin"

type adminClaims struct {
	jwt.RegisteredClaims
}

// NewAdminSigner returns a signer bound to secret, suitable for
// services.AdminService.
func NewAdminSigner(secret []byte) func(ttl time.Duration) (string, error) {
	return func(ttl time.Duration) (string, error) {
		now := time.Now()
		claims := adminClaims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		}}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		return token.SignedString(secret)
	}
}

func parseAdminToken(secret []byte, tok string) (*adminClaims, error) {
	t, err := jwt.ParseWithClaims(tok, &adminClaims{}, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*adminClaims); ok && t.Valid && c.Subject == adminSubject {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

// RequireAdmin rejects requests lacking a valid Bearer admin session.
func RequireAdmin(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			tok := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
			if _, err := parseAdminToken(secret, tok); err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
