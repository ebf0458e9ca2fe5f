package app

import (
	"context"
	"net/http"

	"oauth-service/internal/config"
	"oauth-service/internal/session"
)

type App struct {
	httpServer *http.Server
	cleaner    *session.Cleaner
	cleanup    func() error
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	router, cleaner, cleanup, err := setupHTTP(ctx, cfg)
	if err != nil {
		return nil, err
	}

	server := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: router,
	}

	return &App{
		httpServer: server,
		cleaner:    cleaner,
		cleanup:    cleanup,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.cleaner.Start(ctx)
	return a.httpServer.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	if err := a.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	a.cleaner.Stop()
	if a.cleanup != nil {
		return a.cleanup()
	}
	return nil
}
