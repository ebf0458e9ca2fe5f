package app

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"oauth-service/internal/auth/handler"
	"oauth-service/internal/auth/oauth"
	"oauth-service/internal/auth/provider"
	"oauth-service/internal/auth/provider/github"
	"oauth-service/internal/auth/provider/google"
	"oauth-service/internal/auth/provider/microsoft"
	"oauth-service/internal/auth/resolver"
	"oauth-service/internal/config"
	"oauth-service/internal/csrf"
	"oauth-service/internal/httpclient"
	"oauth-service/internal/middleware"
	"oauth-service/internal/session"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, *session.Cleaner, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	registry := provider.NewRegistry(
		github.New(provider.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  cfg.BaseURL + "/oauth/callback/github",
		}),
		google.New(provider.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.BaseURL + "/oauth/callback/google",
		}),
		microsoft.New(provider.Config{
			ClientID:     cfg.MicrosoftClientID,
			ClientSecret: cfg.MicrosoftClientSecret,
			RedirectURL:  cfg.BaseURL + "/oauth/callback/microsoft",
		}),
	)

	orchestrator := oauth.New(registry, httpclient.New())
	identityResolver := resolver.NewStoreResolver(infra.Users)

	sessions := session.NewManager(infra.Sessions, infra.Users, cfg.SessionTTL)
	cleaner := session.NewCleaner(sessions, cfg.CleanupInterval)

	authHandler := handler.NewHandler(registry, orchestrator, sessions, identityResolver)
	authMiddleware := middleware.NewAuthMiddleware(sessions)
	limiter := middleware.NewRateLimiter(5, 10)

	bypass := ""
	if !cfg.Production() {
		bypass = cfg.CSRFBypassToken
	}
	guard := csrf.NewGuard(bypass)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(csrf.Middleware(guard))

	// ----------------------------
	// Public Routes
	// ----------------------------

	authHandler.RegisterRoutes(router, limiter.Gin())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ----------------------------
	// Protected API Routes
	// ----------------------------

	api := router.Group("/api")
	api.Use(middleware.GinRequireAuth(authMiddleware))

	api.GET("/me", func(c *gin.Context) {
		user, ok := middleware.UserFromContext(c.Request.Context())
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"user_id":      user.ID,
			"provider":     user.Provider,
			"display_name": user.DisplayName,
			"email":        user.Email,
		})
	})

	return router, cleaner, infra.Close, nil
}
