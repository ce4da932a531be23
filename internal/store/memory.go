package store

import (
	"context"
	"sync"
	"time"

	"github.com/angelcm/marketing-pulse/internal/models"
)

// MemoryCache is the default process-local cache.
type MemoryCache struct {
	mu      sync.RWMutex
	snap    *models.Snapshot
	savedAt time.Time
	ttl     time.Duration
}

// NewMemoryCache creates a cache; ttl <= 0 means entries never expire.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl}
}

func (c *MemoryCache) Put(_ context.Context, snap *models.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = snap
	c.savedAt = time.Now()
	return nil
}

func (c *MemoryCache) Get(_ context.Context) (*models.Snapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return nil, ErrNoSnapshot
	}
	if c.ttl > 0 && time.Since(c.savedAt) > c.ttl {
		return nil, ErrNoSnapshot
	}
	return c.snap, nil
}

func (c *MemoryCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = nil
	return nil
}
