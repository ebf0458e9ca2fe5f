package oauth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"oauth-service/internal/auth/provider"
	"oauth-service/internal/auth/provider/github"
	"oauth-service/internal/auth/provider/microsoft"
	"oauth-service/internal/httpclient"
	"oauth-service/internal/resilience"
)

// fakeProvider simulates an identity provider with countable hits on
// the token, user and emails endpoints.
type fakeProvider struct {
	server *httptest.Server

	tokenHits  atomic.Int64
	userHits   atomic.Int64
	emailsHits atomic.Int64

	tokenStatus  int
	tokenBody    string
	userStatus   int
	userBody     string
	emailsStatus int
	emailsBody   string
}

func newFakeProvider() *fakeProvider {
	f := &fakeProvider{
		tokenStatus:  http.StatusOK,
		tokenBody:    `{"access_token":"t","token_type":"bearer"}`,
		userStatus:   http.StatusOK,
		userBody:     `{"id":67890,"login":"ghuser","email":null}`,
		emailsStatus: http.StatusOK,
		emailsBody:   `[{"email":"a@x.com","primary":true},{"email":"b@x.com","primary":false}]`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenHits.Add(1)
		w.WriteHeader(f.tokenStatus)
		w.Write([]byte(f.tokenBody))
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		f.emailsHits.Add(1)
		w.WriteHeader(f.emailsStatus)
		w.Write([]byte(f.emailsBody))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		f.userHits.Add(1)
		w.WriteHeader(f.userStatus)
		w.Write([]byte(f.userBody))
	})

	f.server = httptest.NewServer(mux)
	return f
}

func (f *fakeProvider) hits() int64 {
	return f.tokenHits.Load() + f.userHits.Load() + f.emailsHits.Load()
}

func (f *fakeProvider) githubConfig() provider.Config {
	return provider.Config{
		ClientID:     "cid",
		ClientSecret: "secret",
		AuthURL:      f.server.URL + "/authorize",
		TokenURL:     f.server.URL + "/token",
		UserInfoURL:  f.server.URL + "/user",
		RedirectURL:  "https://app.example.com/oauth/callback/github",
	}
}

func newTestOrchestrator(f *fakeProvider) *Orchestrator {
	registry := provider.NewRegistry(
		github.New(f.githubConfig()),
		microsoft.New(provider.Config{
			ClientID:     "cid",
			ClientSecret: "secret",
			AuthURL:      f.server.URL + "/authorize",
			TokenURL:     f.server.URL + "/token",
			UserInfoURL:  f.server.URL + "/user",
			RedirectURL:  "https://app.example.com/oauth/callback/microsoft",
		}),
	)
	return New(registry, httpclient.New(),
		WithRetryPolicy(resilience.RetryPolicy{MaxAttempts: 1, BaseDelay: time.Millisecond}),
		WithBreakerSettings(100, time.Minute),
	)
}

func TestGenerateStateEntropy(t *testing.T) {
	a, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState error: %v", err)
	}
	b, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState error: %v", err)
	}

	if a == b {
		t.Error("consecutive states must differ")
	}
	// 32 bytes base64url-encoded without padding is 43 characters.
	if len(a) < 43 {
		t.Errorf("state too short for 256 bits of entropy: %d chars", len(a))
	}
}

func TestInitiate(t *testing.T) {
	f := newFakeProvider()
	defer f.server.Close()
	o := newTestOrchestrator(f)

	authURL, state, err := o.Initiate("github")
	if err != nil {
		t.Fatalf("Initiate error: %v", err)
	}
	if state == "" {
		t.Fatal("expected a state value")
	}
	if !strings.Contains(authURL, "state="+state) {
		t.Errorf("authorization URL missing state: %s", authURL)
	}
	if !strings.Contains(authURL, "client_id=cid") || !strings.Contains(authURL, "response_type=code") {
		t.Errorf("authorization URL missing required parameters: %s", authURL)
	}
}

func TestInitiateUnsupported(t *testing.T) {
	f := newFakeProvider()
	defer f.server.Close()
	o := newTestOrchestrator(f)

	_, _, err := o.Initiate("gitlab")
	if !errors.Is(err, provider.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestCallbackStateMismatchMakesNoCalls(t *testing.T) {
	f := newFakeProvider()
	defer f.server.Close()
	o := newTestOrchestrator(f)

	mismatches := []string{"other", "S1", " s1", "s1 ", ""}
	for _, got := range mismatches {
		_, err := o.HandleCallback(context.Background(), "github",
			CallbackParams{Code: "c1", State: got}, "s1")
		if !errors.Is(err, ErrInvalidState) {
			t.Errorf("state %q: expected ErrInvalidState, got %v", got, err)
		}
	}

	// Missing expected state fails too, even when values match.
	_, err := o.HandleCallback(context.Background(), "github",
		CallbackParams{Code: "c1", State: ""}, "")
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState for empty expected state, got %v", err)
	}

	if f.hits() != 0 {
		t.Errorf("state mismatch must make zero outbound calls, got %d", f.hits())
	}
}

func TestCallbackProviderErrorShortCircuits(t *testing.T) {
	f := newFakeProvider()
	defer f.server.Close()
	o := newTestOrchestrator(f)

	_, err := o.HandleCallback(context.Background(), "microsoft",
		CallbackParams{State: "s1", ErrorCode: "access_denied"}, "s1")
	if !errors.Is(err, ErrProviderDenied) {
		t.Fatalf("expected ErrProviderDenied, got %v", err)
	}
	if f.hits() != 0 {
		t.Errorf("provider error must not trigger exchange, got %d calls", f.hits())
	}
}

func TestCallbackMissingCode(t *testing.T) {
	f := newFakeProvider()
	defer f.server.Close()
	o := newTestOrchestrator(f)

	for _, code := range []string{"", "   "} {
		_, err := o.HandleCallback(context.Background(), "github",
			CallbackParams{Code: code, State: "s1"}, "s1")
		if !errors.Is(err, ErrMissingCode) {
			t.Errorf("code %q: expected ErrMissingCode, got %v", code, err)
		}
	}
	if f.hits() != 0 {
		t.Errorf("missing code must make zero outbound calls, got %d", f.hits())
	}
}

func TestCallbackUnsupportedProvider(t *testing.T) {
	f := newFakeProvider()
	defer f.server.Close()
	o := newTestOrchestrator(f)

	_, err := o.HandleCallback(context.Background(), "gitlab",
		CallbackParams{Code: "c1", State: "s1"}, "s1")
	if !errors.Is(err, provider.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestCallbackGitHubWithEmailEnrichment(t *testing.T) {
	f := newFakeProvider()
	defer f.server.Close()
	o := newTestOrchestrator(f)

	profile, err := o.HandleCallback(context.Background(), "github",
		CallbackParams{Code: "c1", State: "s1"}, "s1")
	if err != nil {
		t.Fatalf("HandleCallback error: %v", err)
	}

	if profile.Provider != "github" {
		t.Errorf("expected provider github, got %q", profile.Provider)
	}
	if profile.ProviderUserID != "67890" {
		t.Errorf("expected provider_user_id 67890, got %q", profile.ProviderUserID)
	}
	if profile.Email != "a@x.com" {
		t.Errorf("expected primary email a@x.com, got %q", profile.Email)
	}
	if profile.DisplayName != "ghuser" {
		t.Errorf("expected display name fallback to login, got %q", profile.DisplayName)
	}
}

func TestCallbackEnrichmentFailureIsNonFatal(t *testing.T) {
	f := newFakeProvider()
	defer f.server.Close()
	f.emailsStatus = http.StatusInternalServerError
	o := newTestOrchestrator(f)

	profile, err := o.HandleCallback(context.Background(), "github",
		CallbackParams{Code: "c1", State: "s1"}, "s1")
	if err != nil {
		t.Fatalf("enrichment failure must not fail the callback: %v", err)
	}
	if profile.Email != "" {
		t.Errorf("expected empty email after failed enrichment, got %q", profile.Email)
	}
}

func TestCallbackTokenExchangeFailure(t *testing.T) {
	f := newFakeProvider()
	defer f.server.Close()
	f.tokenStatus = http.StatusBadRequest
	f.tokenBody = `{"error":"invalid_grant"}`
	o := newTestOrchestrator(f)

	_, err := o.HandleCallback(context.Background(), "github",
		CallbackParams{Code: "c1", State: "s1"}, "s1")
	if !errors.Is(err, ErrTokenExchange) {
		t.Fatalf("expected ErrTokenExchange, got %v", err)
	}

	// Upstream detail is preserved for diagnostics.
	var ce *resilience.Error
	if !errors.As(err, &ce) || !strings.Contains(ce.Detail, "invalid_grant") {
		t.Errorf("expected upstream detail on the error, got %+v", err)
	}
	if f.userHits.Load() != 0 {
		t.Error("failed exchange must not fetch the profile")
	}
}

func TestCallbackProfileFetchFailure(t *testing.T) {
	f := newFakeProvider()
	defer f.server.Close()
	f.userStatus = http.StatusForbidden
	o := newTestOrchestrator(f)

	_, err := o.HandleCallback(context.Background(), "github",
		CallbackParams{Code: "c1", State: "s1"}, "s1")
	if !errors.Is(err, ErrProfileFetch) {
		t.Errorf("expected ErrProfileFetch, got %v", err)
	}
}

func TestCallbackEmptyAccessToken(t *testing.T) {
	f := newFakeProvider()
	defer f.server.Close()
	f.tokenBody = `{"token_type":"bearer"}`
	o := newTestOrchestrator(f)

	_, err := o.HandleCallback(context.Background(), "github",
		CallbackParams{Code: "c1", State: "s1"}, "s1")
	if err == nil {
		t.Fatal("expected failure on empty access token")
	}
	if resilience.Classify(err) != resilience.KindOAuth {
		t.Errorf("expected oauth kind, got %v", resilience.Classify(err))
	}
}

func TestCallbackRetriesTransientExchangeFailures(t *testing.T) {
	f := newFakeProvider()
	defer f.server.Close()

	// First two token calls drop the connection, the third succeeds.
	var tokenCalls atomic.Int64
	flaky := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/token") {
			if tokenCalls.Add(1) <= 2 {
				hj, ok := w.(http.Hijacker)
				if !ok {
					t.Fatal("hijacking unsupported")
				}
				conn, _, _ := hj.Hijack()
				conn.Close()
				return
			}
			w.Write([]byte(`{"access_token":"t"}`))
			return
		}
		w.Write([]byte(`{"id":1,"login":"u","email":"u@x.com"}`))
	}))
	defer flaky.Close()

	registry := provider.NewRegistry(github.New(provider.Config{
		ClientID:     "cid",
		ClientSecret: "secret",
		AuthURL:      flaky.URL + "/authorize",
		TokenURL:     flaky.URL + "/token",
		UserInfoURL:  flaky.URL + "/user",
		RedirectURL:  "https://app.example.com/oauth/callback/github",
	}))
	o := New(registry, httpclient.New(),
		WithRetryPolicy(resilience.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}),
		WithBreakerSettings(100, time.Minute),
	)

	profile, err := o.HandleCallback(context.Background(), "github",
		CallbackParams{Code: "c1", State: "s1"}, "s1")
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if tokenCalls.Load() != 3 {
		t.Errorf("expected exactly 3 token attempts, got %d", tokenCalls.Load())
	}
	if profile.Email != "u@x.com" {
		t.Errorf("unexpected profile: %+v", profile)
	}
}

func TestCallbackBreakerShieldsFailingProvider(t *testing.T) {
	f := newFakeProvider()
	defer f.server.Close()

	var tokenCalls atomic.Int64
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Fatal("hijacking unsupported")
		}
		conn, _, _ := hj.Hijack()
		conn.Close()
	}))
	defer down.Close()

	registry := provider.NewRegistry(github.New(provider.Config{
		ClientID:     "cid",
		ClientSecret: "secret",
		AuthURL:      down.URL + "/authorize",
		TokenURL:     down.URL + "/token",
		UserInfoURL:  down.URL + "/user",
		RedirectURL:  "https://app.example.com/oauth/callback/github",
	}))
	o := New(registry, httpclient.New(),
		WithRetryPolicy(resilience.RetryPolicy{MaxAttempts: 1, BaseDelay: time.Millisecond}),
		WithBreakerSettings(2, time.Minute),
	)

	params := CallbackParams{Code: "c1", State: "s1"}
	for i := 0; i < 2; i++ {
		if _, err := o.HandleCallback(context.Background(), "github", params, "s1"); err == nil {
			t.Fatalf("call %d: expected failure", i+1)
		}
	}

	before := tokenCalls.Load()
	_, err := o.HandleCallback(context.Background(), "github", params, "s1")
	if !errors.Is(err, resilience.ErrBreakerOpen) {
		t.Fatalf("expected ErrBreakerOpen, got %v", err)
	}
	if tokenCalls.Load() != before {
		t.Error("open breaker must not reach the provider")
	}
}
