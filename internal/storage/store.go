package storage

import (
	"context"
	"errors"
	"time"

	"github.com/example/shiftboard/internal/models"
)

var ErrNotFound = errors.New("not found")

// Store defines the data operations the listing and profile pages need.
// Day arguments are interpreted as the calendar date of the value.
type Store interface {
	TodayRows(ctx context.Context, day time.Time) ([]models.CandidateRow, error)
	CuratedPicks(ctx context.Context, day time.Time) ([]models.CandidateRow, error)
	Shops(ctx context.Context) ([]models.Shop, error)

	Person(ctx context.Context, slug string) (models.Person, error)
	// RecommendationsAbout returns approved recommendations received by slug,
	// newest first, each carrying the recommender's approved received count.
	RecommendationsAbout(ctx context.Context, slug string) ([]models.About, error)
	// RecommendationsBy returns up to limit approved recommendations written
	// by slug, newest first.
	RecommendationsBy(ctx context.Context, slug string, limit int) ([]models.By, error)
	WeekShifts(ctx context.Context, slug string, from, to time.Time) ([]models.WeekShift, error)

	SaveRecommendation(ctx context.Context, r *models.Recommendation) error
	// ApproveRecommendation marks id approved. changed is false when it was
	// already approved, so callers can avoid announcing the approval twice.
	ApproveRecommendation(ctx context.Context, id string) (rec models.Recommendation, changed bool, err error)
	// ReceivedCounts returns approved received totals for slugs, or for
	// everyone with at least one when slugs is empty.
	ReceivedCounts(ctx context.Context, slugs []string) (map[string]int, error)

	Ping(ctx context.Context) error
}

func dayKey(t time.Time) string { return t.Format("2006-01-02") }
