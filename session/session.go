// Package session supplies the bearer token the client attaches to API
// requests. The client does not refresh tokens; a source reports no token
// once the session it holds has expired.
package session

import (
	"context"
	"sync"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/tfkr-ae/mirsal/domain"
	"github.com/tfkr-ae/mirsal/store"
)

// Holder keeps an explicitly set token, such as one passed on the command line.
type Holder struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time
	now       func() time.Time
}

// NewHolder returns a holder with no token.
func NewHolder() *Holder {
	return &Holder{now: time.Now}
}

// Set stores token. When token is a JWT its exp claim becomes the expiry;
// the signature is not verified since the server is the one checking it.
func (h *Holder) Set(token string) {
	var expiresAt time.Time
	parsed, _, err := gojwt.NewParser().ParseUnverified(token, gojwt.MapClaims{})
	if err == nil {
		if exp, err := parsed.Claims.GetExpirationTime(); err == nil && exp != nil {
			expiresAt = exp.Time
		}
	}
	h.SetWithExpiry(token, expiresAt)
}

// SetWithExpiry stores token with an explicit expiry. A zero expiry never expires.
func (h *Holder) SetWithExpiry(token string, expiresAt time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.token = token
	h.expiresAt = expiresAt
}

// Clear forgets the token.
func (h *Holder) Clear() {
	h.SetWithExpiry("", time.Time{})
}

// ExpiresAt returns the expiry of the held token, zero when unknown.
func (h *Holder) ExpiresAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.expiresAt
}

// Token returns the held token unless it is empty or expired.
func (h *Holder) Token(ctx context.Context) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.token == "" {
		return "", false
	}
	if !h.expiresAt.IsZero() && !h.now().Before(h.expiresAt) {
		return "", false
	}
	return h.token, true
}

// StoreSource reads the token from the session resource in a data table,
// so logging in through the client authenticates every later request.
type StoreSource struct {
	Table *store.Table
	Now   func() time.Time // defaults to time.Now
}

// Token returns the stored session's token unless it has expired.
func (s StoreSource) Token(ctx context.Context) (string, bool) {
	if s.Table == nil {
		return "", false
	}
	value, ok := s.Table.Get(domain.KeySession)
	if !ok {
		return "", false
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	switch v := value.(type) {
	case *domain.Session:
		if v == nil || v.Token == "" || v.Expired(now()) {
			return "", false
		}
		return v.Token, true
	case map[string]any:
		token, _ := v["token"].(string)
		if token == "" {
			return "", false
		}
		// an expiry that does not parse is treated as expired
		if raw, ok := v["expiresAt"].(string); ok && raw != "" {
			expiresAt, err := time.Parse(time.RFC3339, raw)
			if err != nil || !now().Before(expiresAt) {
				return "", false
			}
		}
		return token, true
	}
	return "", false
}
