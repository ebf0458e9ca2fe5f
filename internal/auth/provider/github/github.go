package github

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"oauth-service/internal/auth"
	"oauth-service/internal/auth/provider"
	"oauth-service/internal/httpclient"
)

const (
	providerName    = "github"
	defaultAuthURL  = "https://github.com/login/oauth/authorize"
	defaultTokenURL = "https://github.com/login/oauth/access_token"
	defaultUserURL  = "https://api.github.com/user"
)

// Provider implements OAuth2 for GitHub. GitHub's user-info API uses
// the legacy "token" authorization scheme and may omit the email on
// the primary profile, requiring a secondary emails lookup.
type Provider struct {
	cfg       provider.Config
	emailsURL string
}

// New builds a GitHub provider. Empty endpoint fields fall back to the
// public GitHub endpoints; the emails endpoint is derived from the
// user-info endpoint.
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
		cfg.Scopes = []string{"read:user", "user:email"}
	}
	return &Provider{
		cfg:       cfg,
		emailsURL: cfg.UserInfoURL + "/emails",
	}
}

func (p *Provider) Name() string { return providerName }

func (p *Provider) Config() provider.Config { return p.cfg }

func (p *Provider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state)
}

func (p *Provider) AuthHeader(accessToken string) string {
	return "token " + accessToken
}

type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (p *Provider) Normalize(raw []byte) (*auth.Profile, error) {
	var gu githubUser
	if err := json.Unmarshal(raw, &gu); err != nil {
		return nil, fmt.Errorf("github profile: invalid JSON: %w", err)
	}
	if gu.ID == 0 {
		return nil, fmt.Errorf("github profile: missing user id")
	}

	displayName := gu.Name
	if displayName == "" {
		displayName = gu.Login
	}
	if displayName == "" {
		displayName = strconv.FormatInt(gu.ID, 10)
	}

	return &auth.Profile{
		Provider:       providerName,
		ProviderUserID: strconv.FormatInt(gu.ID, 10),
		DisplayName:    displayName,
		Email:          gu.Email,
	}, nil
}

type githubEmail struct {
	Email   string `json:"email"`
	Primary bool   `json:"primary"`
}

// Enrich fills the email from the emails endpoint when the profile
// omitted it, preferring the entry flagged primary and falling back to
// the first entry. An empty list leaves the email unset.
func (p *Provider) Enrich(ctx context.Context, client *httpclient.Client, accessToken string, profile *auth.Profile) error {
	if profile.Email != "" {
		return nil
	}

	resp, err := client.Get(ctx, p.emailsURL, map[string]string{
		"Authorization": p.AuthHeader(accessToken),
	})
	if err != nil {
		return fmt.Errorf("github emails fetch: %w", err)
	}
	if !resp.OK() {
		return fmt.Errorf("github emails fetch: status %d", resp.StatusCode)
	}

	var emails []githubEmail
	if err := json.Unmarshal(resp.Body, &emails); err != nil {
		return fmt.Errorf("github emails fetch: invalid JSON: %w", err)
	}
	if len(emails) == 0 {
		return nil
	}

	for _, e := range emails {
		if e.Primary {
			profile.Email = e.Email
			return nil
		}
	}
	profile.Email = emails[0].Email
	return nil
}
