package provider

import (
	"context"

	"golang.org/x/oauth2"

	"oauth-service/internal/auth"
	"oauth-service/internal/httpclient"
)

// Config holds the static per-provider OAuth2 settings. Credentials
// come from external configuration and are only ever sent to the
// provider's own token endpoint.
type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Scopes       []string
	RedirectURL  string
}

// Complete reports whether every field required to run a flow is set.
// An incomplete config must never be used to initiate a flow.
func (c Config) Complete() bool {
	return c.ClientID != "" &&
		c.ClientSecret != "" &&
		c.AuthURL != "" &&
		c.TokenURL != "" &&
		c.UserInfoURL != "" &&
		len(c.Scopes) > 0 &&
		c.RedirectURL != ""
}

// AuthCodeURL builds the authorization redirect URL carrying
// client_id, response_type=code, redirect_uri, scope and state.
func (c Config) AuthCodeURL(state string) string {
	oc := &oauth2.Config{
		ClientID:    c.ClientID,
		RedirectURL: c.RedirectURL,
		Scopes:      c.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.AuthURL,
			TokenURL: c.TokenURL,
		},
	}
	return oc.AuthCodeURL(state)
}

// Provider is the per-provider strategy. Implementations return
// identity facts only and must not perform user creation, linking, or
// session management.
type Provider interface {
	// Name returns the provider identifier (e.g. "github").
	Name() string

	// Config returns the provider's static OAuth2 settings.
	Config() Config

	// AuthCodeURL returns the OAuth authorization URL. The anti-CSRF
	// state parameter is provided by the caller.
	AuthCodeURL(state string) string

	// AuthHeader returns the Authorization header value for user-info
	// requests; the scheme varies by provider.
	AuthHeader(accessToken string) string

	// Normalize maps the provider's raw user-info payload onto the
	// provider-agnostic profile. DisplayName is never empty on success.
	Normalize(raw []byte) (*auth.Profile, error)

	// Enrich performs provider-specific secondary lookups (e.g. the
	// GitHub emails endpoint). Failures are non-fatal to the callback;
	// callers log and continue.
	Enrich(ctx context.Context, client *httpclient.Client, accessToken string, profile *auth.Profile) error
}
