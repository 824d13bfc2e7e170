package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"qbank/logging"
)

// Redis shares cached results between service instances. Capacity is left
// to the server's maxmemory policy. Redis failures degrade to cache misses.
type Redis[V any] struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedis[V any](client redis.Cmdable, prefix string, ttl time.Duration, logger *slog.Logger) *Redis[V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis[V]{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logging.OrNop(logger).With("component", "redis_cache"),
	}
}

func (r *Redis[V]) Get(ctx context.Context, scope, identifier string) (V, bool) {
	var value V
	key := r.prefix + Key(scope, identifier)

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("redis cache read failed",
				"event_type", "cache_read_failed",
				"key", key,
				"error", err)
		}
		return value, false
	}
	if err := json.Unmarshal(data, &value); err != nil {
		r.logger.Warn("redis cache entry undecodable",
			"event_type", "cache_decode_failed",
			"key", key,
			"error", err)
		return value, false
	}
	return value, true
}

func (r *Redis[V]) Put(ctx context.Context, scope, identifier string, value V) {
	key := r.prefix + Key(scope, identifier)

	data, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn("redis cache entry unencodable",
			"event_type", "cache_encode_failed",
			"key", key,
			"error", err)
		return
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		r.logger.Warn("redis cache write failed",
			"event_type", "cache_write_failed",
			"key", key,
			"error", err)
	}
}

func (r *Redis[V]) Delete(ctx context.Context, scope, identifier string) {
	key := r.prefix + Key(scope, identifier)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logger.Warn("redis cache delete failed",
			"event_type", "cache_delete_failed",
			"key", key,
			"error", err)
	}
}
