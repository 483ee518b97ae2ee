package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/example/shiftboard/internal/cache"
	"github.com/example/shiftboard/internal/models"
)

// CachedStore memoizes the two listing reads per day. Everything else passes
// through to the embedded Store.
type CachedStore struct {
	Store
	cache cache.Cache
}

func NewCachedStore(s Store, c cache.Cache) *CachedStore {
	return &CachedStore{Store: s, cache: c}
}

func (c *CachedStore) TodayRows(ctx context.Context, day time.Time) ([]models.CandidateRow, error) {
	return cachedRows(ctx, c.cache, "today:"+dayKey(day), func() ([]models.CandidateRow, error) {
		return c.Store.TodayRows(ctx, day)
	})
}

func (c *CachedStore) CuratedPicks(ctx context.Context, day time.Time) ([]models.CandidateRow, error) {
	return cachedRows(ctx, c.cache, "picks:"+dayKey(day), func() ([]models.CandidateRow, error) {
		return c.Store.CuratedPicks(ctx, day)
	})
}

func cachedRows(ctx context.Context, c cache.Cache, key string, load func() ([]models.CandidateRow, error)) ([]models.CandidateRow, error) {
	if b, ok := c.Get(ctx, key); ok {
		var rows []models.CandidateRow
		if err := json.Unmarshal(b, &rows); err == nil {
			return rows, nil
		}
	}
	rows, err := load()
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(rows); err == nil {
		c.Set(ctx, key, b)
	}
	return rows, nil
}
