package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"oauth-service/internal/auth/oauth"
	"oauth-service/internal/auth/provider"
	"oauth-service/internal/auth/resolver"
	"oauth-service/internal/logger"
	"oauth-service/internal/resilience"
	"oauth-service/internal/session"
)

type Handler struct {
	providers    *provider.Registry
	orchestrator *oauth.Orchestrator
	sessions     *session.Manager
	resolver     resolver.Resolver
}

func NewHandler(
	registry *provider.Registry,
	orchestrator *oauth.Orchestrator,
	sessions *session.Manager,
	resolver resolver.Resolver,
) *Handler {
	return &Handler{
		providers:    registry,
		orchestrator: orchestrator,
		sessions:     sessions,
		resolver:     resolver,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, limit gin.HandlerFunc) {
	oauthRoutes := r.Group("/oauth")
	if limit != nil {
		oauthRoutes.Use(limit)
	}
	oauthRoutes.GET("/login/:provider", h.login)
	oauthRoutes.GET("/callback/:provider", h.callback)

	r.POST("/auth/logout", h.Logout)
	r.GET("/login", h.loginPage)
}

// login starts the OAuth flow: issue state, persist it into the
// transaction cookie, redirect to the provider.
func (h *Handler) login(c *gin.Context) {
	providerName := c.Param("provider")

	authURL, state, err := h.orchestrator.Initiate(providerName)
	if err != nil {
		h.fail(c, err)
		return
	}

	setStateCookie(c.Writer, state)
	c.Redirect(http.StatusFound, authURL)
}

// callback consumes the provider redirect. The transaction state is
// single-use: its cookie is discarded before the outcome is known, and
// only that cookie; the session cookie is written afterwards and never
// cleared here.
func (h *Handler) callback(c *gin.Context) {
	providerName := c.Param("provider")

	params := oauth.CallbackParams{
		Code:             c.Query("code"),
		State:            c.Query("state"),
		ErrorCode:        c.Query("error"),
		ErrorDescription: c.Query("error_description"),
	}

	expected := expectedState(c.Request)
	clearStateCookie(c.Writer)

	profile, err := h.orchestrator.HandleCallback(c.Request.Context(), providerName, params, expected)
	if err != nil {
		h.fail(c, err)
		return
	}

	user, err := h.resolver.Resolve(c.Request.Context(), profile)
	if err != nil {
		h.fail(c, err)
		return
	}

	sess, err := h.sessions.Create(c.Request.Context(), user.ID)
	if err != nil {
		h.fail(c, err)
		return
	}

	session.SetCookie(c.Writer, sess.SessionID, sess.ExpiresAt, session.CookieOptions{
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})

	logger.Info("login succeeded", map[string]any{
		"provider": providerName,
		"user_id":  user.ID,
		"ip":       c.ClientIP(),
	})

	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"status": "authenticated"})
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// Logout invalidates the session and clears the cookie. Idempotent.
func (h *Handler) Logout(c *gin.Context) {
	cookie, err := c.Request.Cookie(session.CookieName)
	if err == nil && cookie.Value != "" {
		if err := h.sessions.Invalidate(c.Request.Context(), cookie.Value); err != nil {
			logger.Warn("logout invalidate failed", map[string]any{
				"error": err.Error(),
			})
		}
	}

	session.ClearCookie(c.Writer, session.CookieOptions{
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})

	c.Status(http.StatusNoContent)
}

// loginPage lists the configured providers; rendering is left to the
// frontend.
func (h *Handler) loginPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"providers": h.providers.Names(),
		"error":     c.Query("error"),
	})
}

// fail surfaces a flow failure without leaking upstream detail. The
// classified detail goes to the log only.
func (h *Handler) fail(c *gin.Context, err error) {
	kind := resilience.Classify(err)

	fields := map[string]any{
		"kind":  kind.String(),
		"error": err.Error(),
	}
	var ce *resilience.Error
	if errors.As(err, &ce) && ce.Detail != "" {
		fields["detail"] = ce.Detail
	}
	logger.Warn("authentication flow failed", fields)

	if wantsJSON(c) {
		c.JSON(kind.HTTPStatus(), gin.H{
			"error":     "authentication failed",
			"kind":      kind.String(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	c.Redirect(http.StatusFound, "/login?error=auth_failed")
}

func wantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}
