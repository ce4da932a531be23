package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelcm/marketing-pulse/internal/models"
)

func sampleSnapshot() *models.Snapshot {
	return &models.Snapshot{
		ID:          "snap-1",
		GeneratedAt: time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC),
		Overview:    models.OverviewMetrics{TotalSpend: 150, TotalRevenue: 450, OverallROAS: 3},
	}
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0)

	_, err := c.Get(ctx)
	require.ErrorIs(t, err, ErrNoSnapshot)

	require.NoError(t, c.Put(ctx, sampleSnapshot()))
	got, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "snap-1", got.ID)

	require.NoError(t, c.Invalidate(ctx))
	_, err = c.Get(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestMemoryCacheTTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10 * time.Millisecond)

	require.NoError(t, c.Put(ctx, sampleSnapshot()))
	_, err := c.Get(ctx)
	require.NoError(t, err)

	time.Sleep(25 * time.Millisecond)
	_, err = c.Get(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func newRedisCache(t *testing.T, ttl time.Duration) *RedisCache {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), ttl)
}

func TestRedisCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newRedisCache(t, time.Minute)

	_, err := c.Get(ctx)
	require.ErrorIs(t, err, ErrNoSnapshot)

	require.NoError(t, c.Put(ctx, sampleSnapshot()))
	got, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "snap-1", got.ID)
	assert.Equal(t, 450.0, got.Overview.TotalRevenue)

	require.NoError(t, c.Invalidate(ctx))
	_, err = c.Get(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestRedisCacheCorruptPayload(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	c := NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)

	require.NoError(t, mr.Set(defaultKey, "{not json"))
	_, err := c.Get(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSnapshot)
}
