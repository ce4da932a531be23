// Package store caches the latest aggregation snapshot. The cache is an
// ephemeral read-through buffer with explicit invalidation, not a datastore:
// losing it only costs one recomputation.
package store

import (
	"context"
	"errors"

	"github.com/angelcm/marketing-pulse/internal/models"
)

// ErrNoSnapshot is returned when nothing has been cached yet or the cached
// entry has expired.
var ErrNoSnapshot = errors.New("store: no snapshot cached")

// SnapshotCache holds the latest snapshot. Put replaces, never merges.
type SnapshotCache interface {
	Put(ctx context.Context, snap *models.Snapshot) error
	Get(ctx context.Context) (*models.Snapshot, error)
	Invalidate(ctx context.Context) error
}
