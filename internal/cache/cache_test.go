package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 20, 0, 0, 0, time.UTC)
	c := NewMemory(time.Minute)
	c.now = func() time.Time { return now }

	_, ok := c.Get(ctx, "today")
	assert.False(t, ok)

	c.Set(ctx, "today", []byte("rows"))
	v, ok := c.Get(ctx, "today")
	assert.True(t, ok)
	assert.Equal(t, []byte("rows"), v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get(ctx, "today")
	assert.False(t, ok)
}
