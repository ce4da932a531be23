package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelcm/marketing-pulse/internal/models"
)

const defaultKey = "marketing-pulse:snapshot"

// RedisCache shares the latest snapshot across replicas. Entries carry a TTL
// so stale dashboards age out instead of lingering forever.
type RedisCache struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, key: defaultKey, ttl: ttl}
}

func (c *RedisCache) Put(ctx context.Context, snap *models.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	if err := c.rdb.Set(ctx, c.key, b, c.ttl).Err(); err != nil {
		return fmt.Errorf("caching snapshot: %w", err)
	}
	return nil
}

func (c *RedisCache) Get(ctx context.Context) (*models.Snapshot, error) {
	b, err := c.rdb.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("reading cached snapshot: %w", err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("decoding cached snapshot: %w", err)
	}
	return &snap, nil
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("invalidating snapshot: %w", err)
	}
	return nil
}
