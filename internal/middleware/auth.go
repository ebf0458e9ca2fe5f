package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"oauth-service/internal/session"
	"oauth-service/internal/storage"
)

// unexported, collision-proof context key
type userContextKeyType struct{}

var userKey = userContextKeyType{}

// UserFromContext extracts the authenticated user from context.
func UserFromContext(ctx context.Context) (*storage.User, bool) {
	u, ok := ctx.Value(userKey).(*storage.User)
	return u, ok
}

type AuthMiddleware struct {
	Sessions *session.Manager

	// LoginPath is where unauthenticated browser requests redirect.
	LoginPath string
}

func NewAuthMiddleware(sessions *session.Manager) *AuthMiddleware {
	return &AuthMiddleware{
		Sessions:  sessions,
		LoginPath: "/login",
	}
}

// RequireAuth resolves the user from the session cookie and attaches
// it to the request context. Validation failures fail closed: API
// callers get a structured 401, browsers are redirected to login.
func (a *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(session.CookieName)
		if err != nil || cookie.Value == "" {
			a.deny(w, r)
			return
		}

		user, err := a.Sessions.Validate(r.Context(), cookie.Value)
		if err != nil {
			a.deny(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *AuthMiddleware) deny(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":     "not authenticated",
			"kind":      "session",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	http.Redirect(w, r, a.LoginPath, http.StatusFound)
}

// wantsJSON performs the content negotiation that separates API
// callers from browsers.
func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") ||
		strings.HasPrefix(r.URL.Path, "/api/")
}
