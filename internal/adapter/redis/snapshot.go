package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/couchcryptid/quake-feed/internal/domain"
)

// DefaultSnapshotKey is where the store's last successful fetch is kept.
const DefaultSnapshotKey = "quakes:snapshot"

// SnapshotCache stores one JSON-encoded domain.Snapshot under a single key.
// It implements store.SnapshotCache.
type SnapshotCache struct {
	client *goredis.Client
	key    string
	ttl    time.Duration
}

// NewSnapshotCache creates a cache whose entries expire after ttl.
func NewSnapshotCache(client *goredis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{client: client, key: DefaultSnapshotKey, ttl: ttl}
}

// Load returns the saved snapshot, or domain.ErrNoSnapshot if there is none.
func (c *SnapshotCache) Load(ctx context.Context) (domain.Snapshot, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return domain.Snapshot{}, domain.ErrNoSnapshot
		}
		return domain.Snapshot{}, fmt.Errorf("get snapshot: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// Save overwrites the snapshot and resets its TTL.
func (c *SnapshotCache) Save(ctx context.Context, snap domain.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := c.client.Set(ctx, c.key, b, c.ttl).Err(); err != nil {
		return fmt.Errorf("set snapshot: %w", err)
	}
	return nil
}
