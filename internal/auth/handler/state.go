package handler

import (
	"net/http"
	"time"
)

const (
	stateCookieName = "__Host-oauth_state"
	stateTTL        = 5 * time.Minute
)

// setStateCookie persists the per-attempt OAuth state into the
// caller's request-scoped store until the callback consumes it.
func setStateCookie(w http.ResponseWriter, state string) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(stateTTL.Seconds()),
	})
}

// expectedState reads back the state issued at initiation, or "".
func expectedState(r *http.Request) string {
	cookie, err := r.Cookie(stateCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// clearStateCookie discards the OAuth transaction state. Only this
// cookie is expired here; the session cookie must never be touched by
// state consumption.
func clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
