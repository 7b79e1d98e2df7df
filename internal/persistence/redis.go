package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/leadflow/internal/config"
	"github.com/spec-kit/leadflow/internal/kvstore"
)

const redisDialTimeout = 5 * time.Second

// Redis holds the client backing STORE_BACKEND=redis.
type Redis struct {
	Client    *redis.Client
	namespace string
}

// NewRedis connects and pings. The collections live in Redis when this
// backend is selected, so an unreachable server is an error.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: redisDialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr, err)
	}

	logger.Info("connected to redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return &Redis{Client: client, namespace: cfg.Namespace}, nil
}

// Store returns the collection store over this client.
func (r *Redis) Store() *kvstore.RedisStore {
	return kvstore.NewRedisStore(r.Client, r.namespace)
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}
