package gateway

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource holds the backend bearer token. The token is handed to
// each request explicitly; nothing installs global headers.
type TokenSource struct {
	mu    sync.RWMutex
	token string
}

// NewTokenSource starts with no token
func NewTokenSource() *TokenSource {
	return &TokenSource{}
}

// Set replaces the stored token
func (t *TokenSource) Set(token string) {
	t.mu.Lock()
	t.token = token
	t.mu.Unlock()
}

// Token returns the stored token, empty when logged out
func (t *TokenSource) Token() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.token
}

// Clear drops the token
func (t *TokenSource) Clear() {
	t.Set("")
}

// ExpiresAt inspects the token's exp claim without verifying the
// signature; verification belongs to the backend. Zero time means no
// token or no expiry claim.
func (t *TokenSource) ExpiresAt() time.Time {
	token := t.Token()
	if token == "" {
		return time.Time{}
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// Expired reports whether the stored token has an exp claim in the past
func (t *TokenSource) Expired() bool {
	exp := t.ExpiresAt()
	return !exp.IsZero() && time.Now().After(exp)
}
