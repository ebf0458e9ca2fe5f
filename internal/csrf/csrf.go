package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
)

const (
	// CookieName carries the session-scoped token. The cookie is
	// deliberately readable by scripts so same-origin pages can echo it
	// back (double-submit); secrecy comes from same-origin policy.
	CookieName = "__Host-csrf"

	// HeaderName is the header state-changing requests present the
	// token in. A csrf_token form field is accepted as a fallback.
	HeaderName = "X-CSRF-Token"

	// FormField is the form-parameter fallback for token presentation.
	FormField = "csrf_token"

	tokenBytes = 32 // 256 bits
)

// GenerateToken mints a new random token in printable encoding.
func GenerateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("csrf: failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Guard issues and validates per-session anti-forgery tokens.
type Guard struct {
	// bypassToken short-circuits validation when non-empty. Wiring only
	// sets it outside production builds.
	bypassToken string
}

func NewGuard(bypassToken string) *Guard {
	return &Guard{bypassToken: bypassToken}
}

// TokenFor returns the token bound to the caller's session scope,
// minting one and setting the cookie if absent. The token stays stable
// across requests until explicitly rotated.
func (g *Guard) TokenFor(w http.ResponseWriter, r *http.Request) (string, error) {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	token, err := GenerateToken()
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	return token, nil
}

// Rotate discards the current token and issues a fresh one.
func (g *Guard) Rotate(w http.ResponseWriter) (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	return token, nil
}

// Validate reports whether presented matches the token in scope. Both
// must be non-empty and equal exactly.
func (g *Guard) Validate(expected, presented string) bool {
	if expected == "" || presented == "" {
		return false
	}
	if g.bypassToken != "" && presented == g.bypassToken {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(presented)) == 1
}

// Presented extracts the token a request carries, header first, then
// the form field.
func Presented(r *http.Request) string {
	if v := r.Header.Get(HeaderName); v != "" {
		return v
	}
	return r.PostFormValue(FormField)
}

// Expected extracts the session-scoped token from the request cookie.
func Expected(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
