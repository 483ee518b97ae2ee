package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/shiftboard/internal/observability"
)

// Redis shares cached snapshots between server replicas. Errors degrade to a
// miss; the caller reloads from the store.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedis(client redis.UniversalClient, prefix string, ttl time.Duration, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := r.client.Get(ctx, r.prefix+key).Bytes()
	switch {
	case err == redis.Nil:
		observability.CacheRequestsTotal.WithLabelValues("redis", "miss").Inc()
		return nil, false
	case err != nil:
		observability.CacheRequestsTotal.WithLabelValues("redis", "error").Inc()
		r.logger.Warn("cache get failed", "key", key, "error", err)
		return nil, false
	}
	observability.CacheRequestsTotal.WithLabelValues("redis", "hit").Inc()
	return b, true
}

func (r *Redis) Set(ctx context.Context, key string, val []byte) {
	if err := r.client.Set(ctx, r.prefix+key, val, r.ttl).Err(); err != nil {
		r.logger.Warn("cache set failed", "key", key, "error", err)
	}
}
