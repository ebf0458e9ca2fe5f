package session

import (
	"context"
	"testing"
	"time"

	"oauth-service/internal/storage"
)

func TestCleanerReclaimsInBackground(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store, storage.NewMemoryStore(), time.Hour)

	store.Create(context.Background(), Session{
		SessionID: "old",
		UserID:    "u",
		CreatedAt: time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	})

	c := NewCleaner(m, 10*time.Millisecond)
	c.Start(context.Background())

	deadline := time.After(time.Second)
	for {
		s, _ := store.Get(context.Background(), "old")
		if s == nil {
			break
		}
		select {
		case <-deadline:
			t.Fatal("cleaner did not reclaim the expired session in time")
		case <-time.After(5 * time.Millisecond):
		}
	}

	c.Stop()
}

func TestCleanerStopsOnContextCancel(t *testing.T) {
	m := NewManager(NewMemoryStore(), storage.NewMemoryStore(), time.Hour)
	c := NewCleaner(m, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	cancel()

	select {
	case <-c.done:
	case <-time.After(time.Second):
		t.Fatal("cleaner did not exit on context cancellation")
	}
}
