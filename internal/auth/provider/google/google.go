package google

import (
	"context"
	"encoding/json"
	"fmt"

	"oauth-service/internal/auth"
	"oauth-service/internal/auth/provider"
	"oauth-service/internal/httpclient"
)

const (
	providerName    = "google"
	defaultAuthURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultTokenURL = "https://oauth2.googleapis.com/token"
	defaultUserURL  = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// Provider implements OAuth2 for Google using the standard Bearer
// scheme against the userinfo endpoint.
type Provider struct {
	cfg provider.Config
}

func New(cfg provider.Config) *Provider {
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = defaultUserURL
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{"openid", "profile", "email"}
	}
	return &Provider{cfg: cfg}
}

func (p *Provider) Name() string { return providerName }

func (p *Provider) Config() provider.Config { return p.cfg }

func (p *Provider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state)
}

func (p *Provider) AuthHeader(accessToken string) string {
	return "Bearer " + accessToken
}

type googleUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (p *Provider) Normalize(raw []byte) (*auth.Profile, error) {
	var gu googleUser
	if err := json.Unmarshal(raw, &gu); err != nil {
		return nil, fmt.Errorf("google profile: invalid JSON: %w", err)
	}
	if gu.ID == "" {
		return nil, fmt.Errorf("google profile: missing user id")
	}

	displayName := gu.Name
	if displayName == "" {
		displayName = gu.Email
	}
	if displayName == "" {
		displayName = gu.ID
	}

	return &auth.Profile{
		Provider:       providerName,
		ProviderUserID: gu.ID,
		DisplayName:    displayName,
		Email:          gu.Email,
	}, nil
}

// Enrich is a no-op; Google's userinfo response already carries the
// email when the scope grants it.
func (p *Provider) Enrich(ctx context.Context, client *httpclient.Client, accessToken string, profile *auth.Profile) error {
	return nil
}
