package session

import (
	"context"
	"time"

	"oauth-service/internal/logger"
	"oauth-service/internal/resilience"
	"oauth-service/internal/storage"
)

// DefaultTTL is the fixed session lifetime when none is configured.
const DefaultTTL = 24 * time.Hour

// ErrInvalid marks a session that is missing, expired, or orphaned.
// Callers treat it as "not authenticated".
var ErrInvalid = resilience.New(resilience.KindSession, "invalid session")

// Manager owns the session lifecycle: issuance, validation with lazy
// expiry, invalidation, and bulk reclamation.
type Manager struct {
	store Store
	users storage.UserStore
	ttl   time.Duration

	now func() time.Time
}

func NewManager(store Store, users storage.UserStore, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		store: store,
		users: users,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Create issues a session for the user with the fixed TTL.
func (m *Manager) Create(ctx context.Context, userID string) (Session, error) {
	if userID == "" {
		return Session{}, resilience.New(resilience.KindValidation, "session requires a user id")
	}

	id, err := GenerateID()
	if err != nil {
		return Session{}, err
	}

	now := m.now()
	s := Session{
		SessionID: id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	if err := m.store.Create(ctx, s); err != nil {
		return Session{}, resilience.Wrap(resilience.KindDatabase, "session create failed", err)
	}
	return s, nil
}

// Validate resolves the owning user for a live session. Expired
// sessions are deleted on first sight (lazy reclamation); sessions
// whose user no longer exists are deleted as orphans. Any storage
// failure fails closed with ErrInvalid after logging.
func (m *Manager) Validate(ctx context.Context, sessionID string) (*storage.User, error) {
	if sessionID == "" {
		return nil, ErrInvalid
	}

	s, err := m.store.Get(ctx, sessionID)
	if err != nil {
		logger.Error("session lookup failed", map[string]any{"error": err.Error()})
		return nil, ErrInvalid
	}
	if s == nil {
		return nil, ErrInvalid
	}

	if s.Expired(m.now()) {
		if err := m.store.Delete(ctx, sessionID); err != nil {
			logger.Warn("expired session delete failed", map[string]any{"error": err.Error()})
		}
		return nil, ErrInvalid
	}

	user, err := m.users.FindUserByID(ctx, s.UserID)
	if err != nil {
		logger.Error("session user lookup failed", map[string]any{"error": err.Error()})
		return nil, ErrInvalid
	}
	if user == nil {
		if err := m.store.Delete(ctx, sessionID); err != nil {
			logger.Warn("orphaned session delete failed", map[string]any{"error": err.Error()})
		}
		return nil, ErrInvalid
	}

	return user, nil
}

// Invalidate deletes the session. Deleting a non-existent session is
// not an error.
func (m *Manager) Invalidate(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := m.store.Delete(ctx, sessionID); err != nil {
		return resilience.Wrap(resilience.KindDatabase, "session delete failed", err)
	}
	return nil
}

// CleanupExpired bulk-deletes every expired session and returns the
// count removed.
func (m *Manager) CleanupExpired(ctx context.Context) (int, error) {
	return m.store.DeleteExpired(ctx, m.now())
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}
