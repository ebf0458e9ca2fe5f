package google

import (
	"testing"

	"oauth-service/internal/auth/provider"
)

func TestNormalize(t *testing.T) {
	p := New(provider.Config{})

	profile, err := p.Normalize([]byte(`{"id":"108","name":"G User","email":"g@x.com"}`))
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if profile.Provider != "google" || profile.ProviderUserID != "108" {
		t.Errorf("unexpected identity: %+v", profile)
	}
	if profile.DisplayName != "G User" || profile.Email != "g@x.com" {
		t.Errorf("unexpected attributes: %+v", profile)
	}
}

func TestNormalizeDisplayNameFallback(t *testing.T) {
	p := New(provider.Config{})

	profile, err := p.Normalize([]byte(`{"id":"108","email":"g@x.com"}`))
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if profile.DisplayName != "g@x.com" {
		t.Errorf("expected email fallback, got %q", profile.DisplayName)
	}
}

func TestNormalizeMissingID(t *testing.T) {
	p := New(provider.Config{})

	if _, err := p.Normalize([]byte(`{"name":"ghost"}`)); err == nil {
		t.Fatal("expected error for missing id")
	}
}
