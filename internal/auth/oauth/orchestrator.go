package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"oauth-service/internal/auth"
	"oauth-service/internal/auth/provider"
	"oauth-service/internal/httpclient"
	"oauth-service/internal/logger"
	"oauth-service/internal/resilience"
)

var (
	// ErrInvalidState rejects a callback whose state does not exactly
	// match the one issued at initiation. Checked before any network call.
	ErrInvalidState = resilience.New(resilience.KindOAuth, "oauth state mismatch")

	// ErrMissingCode rejects a callback carrying no authorization code.
	ErrMissingCode = resilience.New(resilience.KindValidation, "missing authorization code")

	// ErrProviderDenied marks a callback where the provider reported an
	// error (e.g. the user declined consent).
	ErrProviderDenied = resilience.New(resilience.KindOAuth, "provider reported authorization error")

	// ErrTokenExchange marks a failed code-for-token exchange.
	ErrTokenExchange = resilience.New(resilience.KindOAuth, "token exchange failed")

	// ErrProfileFetch marks a failed user-info fetch.
	ErrProfileFetch = resilience.New(resilience.KindOAuth, "profile fetch failed")
)

// CallbackParams are the query parameters a provider redirect carries
// back to the callback endpoint.
type CallbackParams struct {
	Code             string
	State            string
	ErrorCode        string
	ErrorDescription string
}

// Orchestrator runs the OAuth login flow per attempt: state issuance,
// callback validation, code exchange, profile fetch and normalization.
// Outbound provider calls go through a per-provider circuit breaker
// with retry inside.
type Orchestrator struct {
	registry *provider.Registry
	client   *httpclient.Client
	retry    resilience.RetryPolicy

	breakerThreshold uint32
	breakerReset     time.Duration

	mu       sync.Mutex
	breakers map[string]*resilience.Breaker
}

// Option tweaks orchestrator construction; tests use these to tighten
// timings.
type Option func(*Orchestrator)

func WithRetryPolicy(p resilience.RetryPolicy) Option {
	return func(o *Orchestrator) { o.retry = p }
}

func WithBreakerSettings(threshold uint32, reset time.Duration) Option {
	return func(o *Orchestrator) {
		o.breakerThreshold = threshold
		o.breakerReset = reset
	}
}

func New(registry *provider.Registry, client *httpclient.Client, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:         registry,
		client:           client,
		retry:            resilience.DefaultRetryPolicy(),
		breakerThreshold: 5,
		breakerReset:     30 * time.Second,
		breakers:         make(map[string]*resilience.Breaker),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Initiate builds the authorization URL for the provider and issues a
// fresh state value. The caller must persist the state into the
// request-scoped transaction store before redirecting.
func (o *Orchestrator) Initiate(providerName string) (authURL, state string, err error) {
	p, err := o.registry.Lookup(providerName)
	if err != nil {
		return "", "", err
	}

	state, err = GenerateState()
	if err != nil {
		return "", "", err
	}

	return p.AuthCodeURL(state), state, nil
}

// HandleCallback validates the callback against the expected state and
// drives the exchange -> fetch -> enrich -> normalize pipeline. State
// validation is unconditional and precedes every network call; a
// provider error parameter short-circuits before any exchange attempt.
func (o *Orchestrator) HandleCallback(ctx context.Context, providerName string, params CallbackParams, expectedState string) (*auth.Profile, error) {
	p, err := o.registry.Lookup(providerName)
	if err != nil {
		return nil, err
	}

	if expectedState == "" || params.State != expectedState {
		return nil, ErrInvalidState
	}

	if params.ErrorCode != "" {
		return nil, &resilience.Error{
			Kind:   resilience.KindOAuth,
			Msg:    ErrProviderDenied.Msg,
			Detail: fmt.Sprintf("%s: %s", params.ErrorCode, params.ErrorDescription),
			Err:    ErrProviderDenied,
		}
	}

	if strings.TrimSpace(params.Code) == "" {
		return nil, ErrMissingCode
	}

	accessToken, err := o.exchangeCode(ctx, p, params.Code)
	if err != nil {
		return nil, err
	}

	raw, err := o.fetchProfile(ctx, p, accessToken)
	if err != nil {
		return nil, err
	}

	profile, err := p.Normalize(raw)
	if err != nil {
		return nil, resilience.Wrap(resilience.KindOAuth, "profile normalization failed", err)
	}

	// Enrichment is best-effort; a failed secondary lookup leaves the
	// email empty but does not fail the login.
	if err := p.Enrich(ctx, o.client, accessToken, profile); err != nil {
		logger.Warn("profile enrichment failed", map[string]any{
			"provider": p.Name(),
			"error":    err.Error(),
		})
	}

	return profile, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (o *Orchestrator) exchangeCode(ctx context.Context, p provider.Provider, code string) (string, error) {
	cfg := p.Config()

	form := url.Values{
		"client_id":     {cfg.ClientID},
		"client_secret": {cfg.ClientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {cfg.RedirectURL},
	}

	resp, err := o.call(ctx, p.Name(), func() (*httpclient.Response, error) {
		return o.client.PostForm(ctx, cfg.TokenURL, form, nil)
	})
	if err != nil {
		return "", resilience.Wrap(resilience.Classify(err), ErrTokenExchange.Msg, err)
	}
	if !resp.OK() {
		return "", &resilience.Error{
			Kind:   resilience.KindOAuth,
			Msg:    ErrTokenExchange.Msg,
			Detail: fmt.Sprintf("status %d: %s", resp.StatusCode, resp.Body),
			Err:    ErrTokenExchange,
		}
	}

	var tr tokenResponse
	if err := json.Unmarshal(resp.Body, &tr); err != nil {
		return "", resilience.Wrap(resilience.KindOAuth, "token response: invalid JSON", err)
	}
	if tr.AccessToken == "" {
		return "", resilience.Wrap(resilience.KindOAuth, "token response: empty access token", ErrTokenExchange)
	}

	return tr.AccessToken, nil
}

func (o *Orchestrator) fetchProfile(ctx context.Context, p provider.Provider, accessToken string) ([]byte, error) {
	cfg := p.Config()

	resp, err := o.call(ctx, p.Name(), func() (*httpclient.Response, error) {
		return o.client.Get(ctx, cfg.UserInfoURL, map[string]string{
			"Authorization": p.AuthHeader(accessToken),
		})
	})
	if err != nil {
		return nil, resilience.Wrap(resilience.Classify(err), ErrProfileFetch.Msg, err)
	}
	if !resp.OK() {
		return nil, &resilience.Error{
			Kind:   resilience.KindOAuth,
			Msg:    ErrProfileFetch.Msg,
			Detail: fmt.Sprintf("status %d: %s", resp.StatusCode, resp.Body),
			Err:    ErrProfileFetch,
		}
	}

	return resp.Body, nil
}

// call runs an outbound provider request through the provider's
// breaker, retrying transient failures inside a single breaker pass.
func (o *Orchestrator) call(ctx context.Context, providerName string, op func() (*httpclient.Response, error)) (*httpclient.Response, error) {
	br := o.breaker(providerName)

	v, err := br.Do(func() (any, error) {
		return resilience.Retry(ctx, o.retry, func() (*httpclient.Response, error) {
			return op()
		})
	})
	if err != nil {
		return nil, err
	}
	return v.(*httpclient.Response), nil
}

func (o *Orchestrator) breaker(providerName string) *resilience.Breaker {
	o.mu.Lock()
	defer o.mu.Unlock()

	br, ok := o.breakers[providerName]
	if !ok {
		br = resilience.NewBreaker(providerName, o.breakerThreshold, o.breakerReset)
		o.breakers[providerName] = br
	}
	return br
}
