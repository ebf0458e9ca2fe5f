package storage

import (
	"context"
	"sync"
)

// MemoryStore is a mutex-guarded in-memory UserStore for development
// mode and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]User
	byIdent map[string]string // "provider/provider_user_id" -> id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]User),
		byIdent: make(map[string]string),
	}
}

func identKey(provider, providerUserID string) string {
	return provider + "/" + providerUserID
}

func (s *MemoryStore) CreateUser(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[u.ID] = *u
	s.byIdent[identKey(u.Provider, u.ProviderUserID)] = u.ID
	return nil
}

func (s *MemoryStore) FindUserByProviderID(ctx context.Context, provider, providerUserID string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byIdent[identKey(provider, providerUserID)]
	if !ok {
		return nil, nil
	}
	u := s.byID[id]
	return &u, nil
}

func (s *MemoryStore) FindUserByID(ctx context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *MemoryStore) UpdateUser(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[u.ID] = *u
	return nil
}

// DeleteUser removes a user; used by tests exercising orphaned
// sessions.
func (s *MemoryStore) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		delete(s.byIdent, identKey(u.Provider, u.ProviderUserID))
		delete(s.byID, id)
	}
	return nil
}
