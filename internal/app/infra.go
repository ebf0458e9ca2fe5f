package app

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"

	"oauth-service/internal/config"
	"oauth-service/internal/logger"
	"oauth-service/internal/redis"
	"oauth-service/internal/session"
	"oauth-service/internal/storage"
)

type Infra struct {
	Users    storage.UserStore
	Sessions session.Store
	cleanup  []func() error
}

func (i *Infra) Close() error {
	var first error
	for _, fn := range i.cleanup {
		if err := fn(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// setupInfra connects the configured backing stores. Unconfigured
// backends fall back to in-memory stores for development.
func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	infra := &Infra{}

	if cfg.DatabaseDSN != "" {
		sqlDB, err := sql.Open("postgres", cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return nil, err
		}
		if err := storage.RunMigration(ctx, sqlDB); err != nil {
			return nil, err
		}
		infra.Users = storage.NewPostgresStore(sqlDB)
		infra.cleanup = append(infra.cleanup, sqlDB.Close)
		logger.Info("database ready", nil)
	} else {
		infra.Users = storage.NewMemoryStore()
		logger.Warn("no DATABASE_DSN configured, using in-memory user store", nil)
	}

	if cfg.RedisAddr != "" {
		redisClient, err := redis.New(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, err
		}
		infra.Sessions = session.NewRedisStore(redisClient.Client)
		infra.cleanup = append(infra.cleanup, redisClient.Close)
		logger.Info("redis ready", nil)
	} else {
		infra.Sessions = session.NewMemoryStore()
		logger.Warn("no REDIS_ADDR configured, using in-memory session store", nil)
	}

	return infra, nil
}
