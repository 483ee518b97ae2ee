// Package cache stores serialized listing snapshots for a short TTL.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/example/shiftboard/internal/observability"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte)
}

// Memory is a tiny in-process cache with lazy expiry.
type Memory struct {
	mu    sync.RWMutex
	store map[string]entry
	ttl   time.Duration
	now   func() time.Time
}

type entry struct {
	v  []byte
	ts time.Time
}

// NewMemory creates a cache with the provided TTL.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{store: make(map[string]entry), ttl: ttl, now: time.Now}
}

// Get returns the cached value and true if present and not expired.
func (c *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()
	if !ok {
		observability.CacheRequestsTotal.WithLabelValues("memory", "miss").Inc()
		return nil, false
	}
	if c.now().Sub(e.ts) > c.ttl {
		c.mu.Lock()
		delete(c.store, key)
		c.mu.Unlock()
		observability.CacheRequestsTotal.WithLabelValues("memory", "expired").Inc()
		return nil, false
	}
	observability.CacheRequestsTotal.WithLabelValues("memory", "hit").Inc()
	return e.v, true
}

func (c *Memory) Set(_ context.Context, key string, val []byte) {
	c.mu.Lock()
	c.store[key] = entry{v: val, ts: c.now()}
	c.mu.Unlock()
}
