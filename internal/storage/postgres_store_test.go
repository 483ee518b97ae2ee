package storage

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/shiftboard/internal/fixtures"
	"github.com/example/shiftboard/internal/models"
)

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("PG_TEST_DSN")
	if dsn == "" {
		t.Skip("Skipping PostgreSQL store test: PG_TEST_DSN not set")
	}
	ctx := context.Background()
	ps, err := NewPostgresStore(ctx, dsn)
	require.NoError(t, err)
	defer ps.Close()

	require.NoError(t, Migrate(ctx, ps.DB(), slog.Default()))
	require.NoError(t, Migrate(ctx, ps.DB(), slog.Default()), "migrations must be idempotent")
	require.NoError(t, ps.Seed(ctx, fixtures.Default().Snapshot(testNow), testNow))

	t.Run("TodayRows", func(t *testing.T) {
		rows, err := ps.TodayRows(ctx, testNow)
		require.NoError(t, err)
		assert.Len(t, rows, 3)
	})

	t.Run("CuratedPicks", func(t *testing.T) {
		picks, err := ps.CuratedPicks(ctx, testNow)
		require.NoError(t, err)
		require.Len(t, picks, 2)
		assert.Equal(t, "alice", picks[0].Slug)
		assert.Equal(t, 95, *picks[0].CuratedScore)
	})

	t.Run("RecommendationsAbout", func(t *testing.T) {
		abouts, err := ps.RecommendationsAbout(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, abouts, 2)
		assert.Equal(t, "chloe", abouts[0].FromPerson)
		assert.Equal(t, 2, abouts[0].FromReceived)
	})

	t.Run("SaveApprove", func(t *testing.T) {
		rec := &models.Recommendation{FromPerson: "emi", ToPerson: "daisuke", Body: "Kind"}
		require.NoError(t, ps.SaveRecommendation(ctx, rec))
		got, changed, err := ps.ApproveRecommendation(ctx, rec.ID)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.True(t, got.IsApproved)
		assert.Equal(t, "daisuke", got.ToPerson)

		again, changed, err := ps.ApproveRecommendation(ctx, rec.ID)
		require.NoError(t, err)
		assert.False(t, changed, "second approval is a no-op")
		assert.Equal(t, rec.ID, again.ID)

		_, _, err = ps.ApproveRecommendation(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)

		counts, err := ps.ReceivedCounts(ctx, []string{"daisuke", "fuji"})
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"daisuke": 2, "fuji": 0}, counts)

		all, err := ps.ReceivedCounts(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 4, all["ben"])
		assert.NotContains(t, all, "fuji")
	})

	t.Run("PersonNotFound", func(t *testing.T) {
		_, err := ps.Person(ctx, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
