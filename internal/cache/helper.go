package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"mingle/internal/observability"
)

// GetJSON fetches key and unmarshals it into dest. The bool reports a hit.
func GetJSON(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	if rdb == nil {
		return false, nil
	}
	raw, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.CacheResults.WithLabelValues("miss").Inc()
		return false, nil
	}
	if err != nil {
		observability.CacheResults.WithLabelValues("error").Inc()
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		observability.CacheResults.WithLabelValues("error").Inc()
		rdb.Del(ctx, key)
		return false, nil
	}
	observability.CacheResults.WithLabelValues("hit").Inc()
	return true, nil
}

// SetJSON stores value under key with the given TTL. Failures are logged, not
// returned; the cache is best-effort.
func SetJSON(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) {
	if rdb == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		slog.WarnContext(ctx, "cache marshal failed", "key", key, "error", err)
		return
	}
	if err := rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		slog.WarnContext(ctx, "cache set failed", "key", key, "error", err)
	}
}

// Aside implements the cache-aside pattern: serve from cache on hit, otherwise
// load, then populate the cache. Cache errors degrade to a plain load.
func Aside[T any](ctx context.Context, rdb *redis.Client, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var cached T
	if hit, err := GetJSON(ctx, rdb, key, &cached); err == nil && hit {
		return cached, nil
	}

	value, err := load()
	if err != nil {
		return value, err
	}
	SetJSON(ctx, rdb, key, value, ttl)
	return value, nil
}

// Invalidate removes the given keys. Best-effort.
func Invalidate(ctx context.Context, rdb *redis.Client, keys ...string) {
	if rdb == nil || len(keys) == 0 {
		return
	}
	if err := rdb.Del(ctx, keys...).Err(); err != nil {
		slog.WarnContext(ctx, "cache invalidation failed", "keys", keys, "error", err)
	}
}
