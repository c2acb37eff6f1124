package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tutorhub/backoffice/internal/pkg/logger"
)

// SettingsSource is the uncached settings lookup.
type SettingsSource interface {
	GetMaxConcurrentStudents(ctx context.Context, orgID int64) (int, error)
}

// CachedSettings is a read-through Redis cache in front of a SettingsSource. A nil client
// disables caching, and Redis failures fall back to the source.
type CachedSettings struct {
	source SettingsSource
	client *redis.Client
	ttl    time.Duration
}

// NewCachedSettings creates a CachedSettings.
func NewCachedSettings(source SettingsSource, client *redis.Client, ttl time.Duration) *CachedSettings {
	return &CachedSettings{source: source, client: client, ttl: ttl}
}

func maxConcurrentKey(orgID int64) string {
	return fmt.Sprintf("org:%d:max_concurrent_students", orgID)
}

// GetMaxConcurrentStudents implements scheduling.Settings.
func (c *CachedSettings) GetMaxConcurrentStudents(ctx context.Context, orgID int64) (int, error) {
	if c.client == nil {
		return c.source.GetMaxConcurrentStudents(ctx, orgID)
	}

	key := maxConcurrentKey(orgID)
	val, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		if n, convErr := strconv.Atoi(val); convErr == nil {
			return n, nil
		}
		logger.Warn().Str("key", key).Str("value", val).Msg("Discarding malformed cached setting")
	case !errors.Is(err, redis.Nil):
		logger.Warn().Err(err).Str("key", key).Msg("Settings cache read failed")
	}

	n, err := c.source.GetMaxConcurrentStudents(ctx, orgID)
	if err != nil {
		return 0, err
	}
	if err := c.client.Set(ctx, key, n, c.ttl).Err(); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Settings cache write failed")
	}
	return n, nil
}

// Invalidate drops the cached value for orgID.
func (c *CachedSettings) Invalidate(ctx context.Context, orgID int64) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, maxConcurrentKey(orgID)).Err()
}
