package db

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tutorhub/backoffice/internal/config"
	"github.com/tutorhub/backoffice/internal/pkg/logger"
)

// NewRedisClient connects to the configured Redis. It returns nil, and the application
// runs without caching, when no address is configured or the server does not answer.
func NewRedisClient(cfg *config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		logger.Warn().Msg("Redis address not configured, settings cache disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to Redis, settings cache disabled")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")
	return client
}
