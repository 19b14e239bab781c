package infrastructure

import (
	"context"

	"user-management-api/internal/config"
	redisclient "user-management-api/pkg/redis"

	"go.uber.org/zap"
)

// NewRedisClient connects the Redis instance shared by the user cache and the rate limiter.
func NewRedisClient(ctx context.Context, cfg *config.Config, l *zap.Logger) (*redisclient.Client, error) {
	return redisclient.NewClient(ctx, redisclient.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxRetries:   cfg.Redis.MaxRetries,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConn,
	}, l)
}
