// Package counts keeps per-person approved recommendation totals in a Redis
// sorted set maintained by the event consumer.
package counts

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const DefaultKey = "recommendations:received"

// Counter reports received counts for the given people. People missing from
// the result are unknown to the counter, not zero.
type Counter interface {
	Received(ctx context.Context, slugs []string) (map[string]int, error)
}

type RedisCounter struct {
	client redis.UniversalClient
	key    string
}

func NewRedisCounter(client redis.UniversalClient, key string) *RedisCounter {
	if key == "" {
		key = DefaultKey
	}
	return &RedisCounter{client: client, key: key}
}

// Set stores slug's received total. Replaying the same event is harmless.
func (r *RedisCounter) Set(ctx context.Context, slug string, n int) error {
	if err := r.client.ZAdd(ctx, r.key, redis.Z{Score: float64(n), Member: slug}).Err(); err != nil {
		return fmt.Errorf("zadd %s: %w", slug, err)
	}
	return nil
}

// Sync writes store totals into the sorted set so approvals that predate the
// consumer are counted.
func (r *RedisCounter) Sync(ctx context.Context, totals map[string]int) error {
	if len(totals) == 0 {
		return nil
	}
	members := make([]redis.Z, 0, len(totals))
	for slug, n := range totals {
		members = append(members, redis.Z{Score: float64(n), Member: slug})
	}
	if err := r.client.ZAdd(ctx, r.key, members...).Err(); err != nil {
		return fmt.Errorf("zadd %d members: %w", len(members), err)
	}
	return nil
}

func (r *RedisCounter) Received(ctx context.Context, slugs []string) (map[string]int, error) {
	if len(slugs) == 0 {
		return map[string]int{}, nil
	}
	pipe := r.client.Pipeline()
	cmds := make([]*redis.FloatCmd, len(slugs))
	for i, s := range slugs {
		cmds[i] = pipe.ZScore(ctx, r.key, s)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("zscore pipeline: %w", err)
	}
	out := make(map[string]int, len(slugs))
	for i, cmd := range cmds {
		v, err := cmd.Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[slugs[i]] = int(v)
	}
	return out, nil
}
