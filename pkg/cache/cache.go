// Package cache is a JSON read-through cache on Redis. A Cache without a
// reachable server is a no-op: every Get misses and writes are dropped, so
// callers always fall back to the store.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/scholarstream/scholarstream/config"
	"github.com/scholarstream/scholarstream/pkg/logger"
	"github.com/scholarstream/scholarstream/pkg/metrics"
)

type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// Connect dials Redis and verifies it with a ping. On failure it returns a
// disabled Cache together with the error so the caller can log and carry on.
func Connect(ctx context.Context) (*Cache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       0,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return Disabled(), fmt.Errorf("cache: redis ping: %w", err)
	}
	return New(rdb, config.CacheTTL()), nil
}

// New wraps an existing client.
func New(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl, prefix: "scholarstream:"}
}

// Disabled returns a Cache that never hits.
func Disabled() *Cache { return &Cache{} }

func (c *Cache) Enabled() bool { return c != nil && c.rdb != nil }

// Get unmarshals the value under key into dest and reports a hit.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	if !c.Enabled() {
		return false
	}

	val, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.WithCtx(ctx).Warn("cache get failed", "key", key, "error", err)
		}
		metrics.CacheMisses.WithLabelValues(family(key)).Inc()
		return false
	}

	if err := json.Unmarshal(val, dest); err != nil {
		metrics.CacheMisses.WithLabelValues(family(key)).Inc()
		return false
	}

	metrics.CacheHits.WithLabelValues(family(key)).Inc()
	return true
}

// Set stores value under key for the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}) {
	if !c.Enabled() {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		logger.WithCtx(ctx).Warn("cache set failed", "key", key, "error", err)
	}
}

// Forget removes keys.
func (c *Cache) Forget(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	if err := c.rdb.Del(ctx, full...).Err(); err != nil {
		logger.WithCtx(ctx).Warn("cache delete failed", "keys", keys, "error", err)
	}
}

// Close releases the client.
func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}

// family is the key up to its first ':' and keeps metric labels bounded.
func family(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			return key[:i]
		}
	}
	return key
}
