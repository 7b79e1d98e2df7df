package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/leadflow/internal/config"
	"github.com/spec-kit/leadflow/internal/kvstore"
)

// OpenStore builds the collection store selected by STORE_BACKEND. The
// returned func releases backend connections.
func OpenStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (kvstore.Store, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreBackendRedis:
		r, err := NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using redis collection store", zap.String("namespace", cfg.Redis.Namespace))
		return r.Store(), r.Close, nil
	case config.StoreBackendPostgres:
		pg, err := NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.Postgres.RunMigrations {
			if err := RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				pg.Close()
				return nil, nil, err
			}
		}
		logger.Info("using postgres collection store")
		return pg.Store(), pg.Close, nil
	default:
		logger.Info("using in-memory collection store")
		return kvstore.NewMemoryStore(), func() {}, nil
	}
}
