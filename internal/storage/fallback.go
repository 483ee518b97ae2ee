package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/example/shiftboard/internal/models"
	"github.com/example/shiftboard/internal/observability"
)

// FallbackStore answers reads from Fallback when Primary fails for any reason
// other than ErrNotFound. Writes and Ping go to Primary only.
type FallbackStore struct {
	Primary  Store
	Fallback Store
	Logger   *slog.Logger
}

func NewFallbackStore(primary, fallback Store, logger *slog.Logger) *FallbackStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackStore{Primary: primary, Fallback: fallback, Logger: logger}
}

func read[T any](ctx context.Context, s *FallbackStore, op string, fn func(Store) (T, error)) (T, error) {
	v, err := fn(s.Primary)
	if err == nil || errors.Is(err, ErrNotFound) || ctx.Err() != nil {
		return v, err
	}
	s.Logger.WarnContext(ctx, "store read failed, serving default dataset", "op", op, "error", err)
	observability.FallbackServedTotal.WithLabelValues(op).Inc()
	return fn(s.Fallback)
}

func (s *FallbackStore) TodayRows(ctx context.Context, day time.Time) ([]models.CandidateRow, error) {
	return read(ctx, s, "today_rows", func(st Store) ([]models.CandidateRow, error) { return st.TodayRows(ctx, day) })
}

func (s *FallbackStore) CuratedPicks(ctx context.Context, day time.Time) ([]models.CandidateRow, error) {
	return read(ctx, s, "curated_picks", func(st Store) ([]models.CandidateRow, error) { return st.CuratedPicks(ctx, day) })
}

func (s *FallbackStore) Shops(ctx context.Context) ([]models.Shop, error) {
	return read(ctx, s, "shops", func(st Store) ([]models.Shop, error) { return st.Shops(ctx) })
}

func (s *FallbackStore) Person(ctx context.Context, slug string) (models.Person, error) {
	return read(ctx, s, "person", func(st Store) (models.Person, error) { return st.Person(ctx, slug) })
}

func (s *FallbackStore) RecommendationsAbout(ctx context.Context, slug string) ([]models.About, error) {
	return read(ctx, s, "recommendations_about", func(st Store) ([]models.About, error) { return st.RecommendationsAbout(ctx, slug) })
}

func (s *FallbackStore) RecommendationsBy(ctx context.Context, slug string, limit int) ([]models.By, error) {
	return read(ctx, s, "recommendations_by", func(st Store) ([]models.By, error) { return st.RecommendationsBy(ctx, slug, limit) })
}

func (s *FallbackStore) WeekShifts(ctx context.Context, slug string, from, to time.Time) ([]models.WeekShift, error) {
	return read(ctx, s, "week_shifts", func(st Store) ([]models.WeekShift, error) { return st.WeekShifts(ctx, slug, from, to) })
}

func (s *FallbackStore) SaveRecommendation(ctx context.Context, r *models.Recommendation) error {
	return s.Primary.SaveRecommendation(ctx, r)
}

func (s *FallbackStore) ApproveRecommendation(ctx context.Context, id string) (models.Recommendation, bool, error) {
	return s.Primary.ApproveRecommendation(ctx, id)
}

// ReceivedCounts is never served from the default dataset; its totals are
// published to the shared counter.
func (s *FallbackStore) ReceivedCounts(ctx context.Context, slugs []string) (map[string]int, error) {
	return s.Primary.ReceivedCounts(ctx, slugs)
}

func (s *FallbackStore) Ping(ctx context.Context) error { return s.Primary.Ping(ctx) }
