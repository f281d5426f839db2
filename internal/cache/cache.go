// Package cache provides a Redis-backed read-through cache for compliance
// results. Scores are deterministic over a sensor window, so a short TTL
// keeps the hot ranking and portfolio paths off the database without
// serving stale data past a rebuild; rebuilds drop the whole keyspace.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/canopyrisk/compliance-engine/internal/domain"
)

const keyPrefix = "compliance:score:"

// ResultCache stores ComplianceResults keyed by business ID.
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New wraps a Redis client as a compliance-result cache.
func New(client *redis.Client, ttl time.Duration, logger *slog.Logger) *ResultCache {
	return &ResultCache{client: client, ttl: ttl, logger: logger}
}

// NewClient builds a Redis client from address, password, and database
// number, and verifies connectivity before returning.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return client, nil
}

func cacheKey(businessID int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, businessID)
}

// Get returns the cached result for a business, or nil on a miss.
func (c *ResultCache) Get(ctx context.Context, businessID int64) (*domain.ComplianceResult, error) {
	raw, err := c.client.Get(ctx, cacheKey(businessID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached result for business %d: %w", businessID, err)
	}

	var result domain.ComplianceResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		// A corrupt entry is treated as a miss; the next Set overwrites it.
		c.logger.Warn("discarding undecodable cache entry",
			"business_id", businessID, "error", err)
		return nil, nil
	}
	return &result, nil
}

// Set stores a result under the business's key with the configured TTL.
func (c *ResultCache) Set(ctx context.Context, businessID int64, result domain.ComplianceResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result for business %d: %w", businessID, err)
	}
	if err := c.client.Set(ctx, cacheKey(businessID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached result for business %d: %w", businessID, err)
	}
	return nil
}

// InvalidateAll deletes every cached compliance result. Called after a
// ranking rebuild so reads reflect the fresh snapshots immediately.
func (c *ResultCache) InvalidateAll(ctx context.Context) error {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("scan cache keys: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete cache keys: %w", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	c.logger.Debug("invalidated compliance result cache", "keys_deleted", deleted)
	return nil
}
