package microsoft

import (
	"context"
	"encoding/json"
	"fmt"

	"oauth-service/internal/auth"
	"oauth-service/internal/auth/provider"
	"oauth-service/internal/httpclient"
)

const (
	providerName    = "microsoft"
	defaultAuthURL  = "https://login.microsoftonline.com/common/oauth2/v2.0/authorize"
	defaultTokenURL = "https://login.microsoftonline.com/common/oauth2/v2.0/token"
	defaultUserURL  = "https://graph.microsoft.com/v1.0/me"
)

// Provider implements OAuth2 for Microsoft accounts via the Graph /me
// endpoint. Personal accounts frequently lack the mail attribute, so
// the user principal name serves as the fallback identifier.
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
		cfg.Scopes = []string{"openid", "profile", "email", "User.Read"}
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

type graphUser struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	UserPrincipalName string `json:"userPrincipalName"`
	Mail              string `json:"mail"`
}

func (p *Provider) Normalize(raw []byte) (*auth.Profile, error) {
	var mu graphUser
	if err := json.Unmarshal(raw, &mu); err != nil {
		return nil, fmt.Errorf("microsoft profile: invalid JSON: %w", err)
	}
	if mu.ID == "" {
		return nil, fmt.Errorf("microsoft profile: missing user id")
	}

	displayName := mu.DisplayName
	if displayName == "" {
		displayName = mu.UserPrincipalName
	}
	if displayName == "" {
		displayName = mu.ID
	}

	email := mu.Mail
	if email == "" {
		email = mu.UserPrincipalName
	}

	return &auth.Profile{
		Provider:       providerName,
		ProviderUserID: mu.ID,
		DisplayName:    displayName,
		Email:          email,
	}, nil
}

// Enrich is a no-op for Microsoft.
func (p *Provider) Enrich(ctx context.Context, client *httpclient.Client, accessToken string, profile *auth.Profile) error {
	return nil
}
