package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"oauth-service/internal/auth"
	"oauth-service/internal/auth/provider"
	"oauth-service/internal/httpclient"
)

func testProvider(userInfoURL string) *Provider {
	return New(provider.Config{
		ClientID:     "cid",
		ClientSecret: "secret",
		UserInfoURL:  userInfoURL,
		RedirectURL:  "https://app.example.com/oauth/callback/github",
	})
}

func TestNormalize(t *testing.T) {
	p := New(provider.Config{})

	tests := []struct {
		name        string
		raw         string
		wantID      string
		wantDisplay string
		wantEmail   string
		wantErr     bool
	}{
		{
			name:        "full profile",
			raw:         `{"id":42,"login":"octo","name":"Octo Cat","email":"octo@example.com"}`,
			wantID:      "42",
			wantDisplay: "Octo Cat",
			wantEmail:   "octo@example.com",
		},
		{
			name:        "display name falls back to login",
			raw:         `{"id":67890,"login":"ghuser","email":null}`,
			wantID:      "67890",
			wantDisplay: "ghuser",
		},
		{
			name:    "missing id rejected",
			raw:     `{"login":"ghost"}`,
			wantErr: true,
		},
		{
			name:    "invalid json rejected",
			raw:     `not-json`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, err := p.Normalize([]byte(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize error: %v", err)
			}
			if profile.ProviderUserID != tt.wantID {
				t.Errorf("id: got %q, want %q", profile.ProviderUserID, tt.wantID)
			}
			if profile.DisplayName != tt.wantDisplay {
				t.Errorf("display: got %q, want %q", profile.DisplayName, tt.wantDisplay)
			}
			if profile.Email != tt.wantEmail {
				t.Errorf("email: got %q, want %q", profile.Email, tt.wantEmail)
			}
		})
	}
}

func TestAuthHeaderScheme(t *testing.T) {
	p := New(provider.Config{})
	if got := p.AuthHeader("abc"); got != "token abc" {
		t.Errorf("expected GitHub token scheme, got %q", got)
	}
}

func TestEnrichSelectsPrimaryEmail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "token tok" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`[{"email":"b@x.com","primary":false},{"email":"a@x.com","primary":true}]`))
	}))
	defer server.Close()

	p := testProvider(server.URL + "/user")
	profile := &auth.Profile{Provider: "github"}

	if err := p.Enrich(context.Background(), httpclient.New(), "tok", profile); err != nil {
		t.Fatalf("Enrich error: %v", err)
	}
	if profile.Email != "a@x.com" {
		t.Errorf("expected primary email, got %q", profile.Email)
	}
}

func TestEnrichFallsBackToFirstEmail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"email":"first@x.com","primary":false},{"email":"second@x.com","primary":false}]`))
	}))
	defer server.Close()

	p := testProvider(server.URL + "/user")
	profile := &auth.Profile{}

	if err := p.Enrich(context.Background(), httpclient.New(), "tok", profile); err != nil {
		t.Fatalf("Enrich error: %v", err)
	}
	if profile.Email != "first@x.com" {
		t.Errorf("expected first email fallback, got %q", profile.Email)
	}
}

func TestEnrichEmptyListLeavesEmailUnset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	p := testProvider(server.URL + "/user")
	profile := &auth.Profile{}

	if err := p.Enrich(context.Background(), httpclient.New(), "tok", profile); err != nil {
		t.Fatalf("Enrich error: %v", err)
	}
	if profile.Email != "" {
		t.Errorf("expected empty email, got %q", profile.Email)
	}
}

func TestEnrichSkipsWhenEmailPresent(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	p := testProvider(server.URL + "/user")
	profile := &auth.Profile{Email: "already@x.com"}

	if err := p.Enrich(context.Background(), httpclient.New(), "tok", profile); err != nil {
		t.Fatalf("Enrich error: %v", err)
	}
	if called {
		t.Error("enrichment should be skipped when the email is present")
	}
}
