package session

import (
	"context"
	"time"
)

// Session is an ephemeral grant of access bound to exactly one user.
// It intentionally stores only identity pointers, not auth state.
type Session struct {
	SessionID string    // unique, unguessable identifier
	UserID    string    // references users.id
	CreatedAt time.Time
	ExpiresAt time.Time // CreatedAt + fixed TTL
}

// Expired reports whether the session has passed its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store defines how sessions are stored and retrieved. Get returns
// (nil, nil) for a missing session; Delete is idempotent.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error

	// DeleteExpired bulk-removes sessions whose expiry precedes now and
	// returns how many were removed. Safe to run concurrently.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
