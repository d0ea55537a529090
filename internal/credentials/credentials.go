// Package credentials holds the process-wide bearer token slot.
//
// A Provider is passed to every resource client; the session store is the only
// writer. Expired tokens read back as absent.
package credentials

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SlotName is the fixed name of the persisted token slot.
const SlotName = "token"

// Provider stores the bearer token. Token returns "" and a nil error when the
// slot is empty or the stored token is known to be expired.
type Provider interface {
	Token(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// ExpiryOf extracts the exp claim of a JWT without verifying its signature.
// ok is false when the token is not a JWT or carries no exp.
func ExpiryOf(token string) (exp time.Time, ok bool) {
	claims := jwt.MapClaims{}
	p := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := p.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	t, err := claims.GetExpirationTime()
	if err != nil || t == nil {
		return time.Time{}, false
	}
	return t.Time, true
}

// Expired reports whether the token carries an exp claim that is not after now.
func Expired(token string, now time.Time) bool {
	exp, ok := ExpiryOf(token)
	return ok && !now.Before(exp)
}

// MemoryStore keeps the token in process memory only.
type MemoryStore struct {
	mu    sync.Mutex
	token string
	now   func() time.Time
}

// NewMemoryStore returns a store optionally seeded with a token.
func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token, now: time.Now}
}

func (m *MemoryStore) Token(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" || Expired(m.token, m.now()) {
		return "", nil
	}
	return m.token, nil
}

func (m *MemoryStore) Set(_ context.Context, token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}
