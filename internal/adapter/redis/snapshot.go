// Package redis mirrors the threat feed snapshot into Redis so a restarted
// instance can serve threats before the upstream feeds catch up.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/couchcryptid/threatmap-service/internal/feed"
)

// DefaultKey is the Redis key holding the JSON snapshot.
const DefaultKey = "threatmap:threats:snapshot"

// kv is the subset of the go-redis client the cache uses.
type kv interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
	Ping(ctx context.Context) *goredis.StatusCmd
}

// SnapshotCache implements feed.Mirror.
type SnapshotCache struct {
	client kv
	key    string
	ttl    time.Duration
}

// NewClient opens a go-redis client for addr.
func NewClient(addr string) *goredis.Client {
	return goredis.NewClient(&goredis.Options{Addr: addr})
}

// NewSnapshotCache stores snapshots under DefaultKey, expiring after ttl.
func NewSnapshotCache(client kv, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{client: client, key: DefaultKey, ttl: ttl}
}

// SaveSnapshot overwrites the stored snapshot, including each record's origin.
func (c *SnapshotCache) SaveSnapshot(ctx context.Context, records []feed.Record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", c.key, err)
	}
	return nil
}

// LoadSnapshot returns the stored snapshot, or nil when none exists.
func (c *SnapshotCache) LoadSnapshot(ctx context.Context) ([]feed.Record, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", c.key, err)
	}
	var records []feed.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return records, nil
}

// CheckReadiness pings Redis.
func (c *SnapshotCache) CheckReadiness(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
