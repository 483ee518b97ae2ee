package ranking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/shiftboard/internal/models"
)

var shibuya = models.Coord{Lat: 35.658034, Lng: 139.701636}

func f(v float64) *float64 { return &v }

func row(slug string, score *int) models.CandidateRow {
	return models.CandidateRow{Slug: slug, DisplayName: slug, VenueName: "v", StartTime: "19:00", EndTime: "23:00", CuratedScore: score}
}

func slugs(rows []models.RankedRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Slug)
	}
	return out
}

func TestMergeDeduplicates(t *testing.T) {
	curated := []models.CandidateRow{row("a", intPtr(95)), row("b", intPtr(90))}
	complete := []models.CandidateRow{row("a", nil), row("b", nil), row("c", nil)}

	merged := Merge(curated, complete)
	require.Len(t, merged, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{merged[0].Slug, merged[1].Slug, merged[2].Slug})
	assert.Equal(t, 95, *merged[0].CuratedScore)
	assert.Equal(t, 90, *merged[1].CuratedScore)
	require.NotNil(t, merged[2].CuratedScore)
	assert.Equal(t, 0, *merged[2].CuratedScore)

	assert.Nil(t, complete[2].CuratedScore, "input must not be mutated")
}

func TestCuratedSort(t *testing.T) {
	curated := []models.CandidateRow{row("s95", intPtr(95)), row("s0", intPtr(0)), row("s90", intPtr(90))}
	got := Compose(curated, nil, Options{Viewer: shibuya, Mode: ModeCurated, Badges: DefaultBadgePolicy()})
	assert.Equal(t, []string{"s95", "s90", "s0"}, slugs(got))
	assert.Equal(t, []int{0, 2, 1}, []int{got[0].OriginalIndex, got[1].OriginalIndex, got[2].OriginalIndex})
}

func TestCuratedSortTieBreaksByIndex(t *testing.T) {
	complete := []models.CandidateRow{row("x", nil), row("y", nil), row("z", nil)}
	got := Compose(nil, complete, Options{Viewer: shibuya})
	assert.Equal(t, []string{"x", "y", "z"}, slugs(got))
}

func TestNearbySortUnknownLast(t *testing.T) {
	// points roughly 2.0 km and 0.5 km north of the viewer
	far := row("far", nil)
	far.Latitude, far.Longitude = f(shibuya.Lat+0.018), f(shibuya.Lng)
	near := row("near", nil)
	near.Latitude, near.Longitude = f(shibuya.Lat+0.0045), f(shibuya.Lng)
	unknown := row("unknown", nil)

	got := Compose(nil, []models.CandidateRow{unknown, far, near}, Options{Viewer: shibuya, Mode: ModeNearby, Badges: DefaultBadgePolicy()})
	require.Equal(t, []string{"near", "far", "unknown"}, slugs(got))
	assert.InDelta(t, 0.5, *got[0].DistanceKm, 0.05)
	assert.InDelta(t, 2.0, *got[1].DistanceKm, 0.05)
	assert.Nil(t, got[2].DistanceKm)
	assert.Equal(t, "—", got[2].DistanceLabel)
	assert.Equal(t, models.BadgeWalking, got[0].Badge)
}

func TestNearbySortTieBreaks(t *testing.T) {
	a := row("a", intPtr(10))
	b := row("b", intPtr(50))
	c := row("c", nil)
	for _, r := range []*models.CandidateRow{&a, &b, &c} {
		r.Latitude, r.Longitude = f(shibuya.Lat), f(shibuya.Lng)
	}
	got := Compose([]models.CandidateRow{a, b}, []models.CandidateRow{c}, Options{Viewer: shibuya, Mode: ModeNearby})
	assert.Equal(t, []string{"b", "a", "c"}, slugs(got))
}

func TestInvalidCoordinatesAreUnknown(t *testing.T) {
	r := row("bad", nil)
	r.Latitude, r.Longitude = f(123), f(0)
	half := row("half", nil)
	half.Latitude = f(35)

	got := Compose(nil, []models.CandidateRow{r, half}, Options{Viewer: shibuya, Mode: ModeNearby})
	for _, g := range got {
		assert.Nil(t, g.DistanceKm, g.Slug)
	}
}

func TestAnnotateStatus(t *testing.T) {
	now := time.Date(2026, 10, 19, 20, 15, 0, 0, time.UTC)
	early := models.CandidateRow{Slug: "alice", StartTime: "19:00", EndTime: "23:00"}
	late := models.CandidateRow{Slug: "chloe", StartTime: "21:00", EndTime: "24:00"}
	broken := models.CandidateRow{Slug: "broken", StartTime: "7pm", EndTime: "24:00"}

	got := Annotate([]models.CandidateRow{early, late, broken}, shibuya, now, DefaultBadgePolicy())
	assert.True(t, got[0].ActiveNow)
	assert.False(t, got[0].LateSlot)
	assert.Equal(t, models.BadgeNone, got[0].Badge)

	assert.False(t, got[1].ActiveNow)
	assert.True(t, got[1].LateSlot)
	assert.Equal(t, models.BadgeLate, got[1].Badge)

	assert.False(t, got[2].ActiveNow)
	assert.False(t, got[2].LateSlot)
}

func TestBadgePrecedence(t *testing.T) {
	r := models.RankedRow{DistanceKm: f(0.4), LateSlot: true, EffectiveScore: 95}
	assert.Equal(t, models.BadgeWalking, DefaultBadgePolicy().BadgeFor(r))

	order, err := ParseBadgeOrder("curated, walking ,late")
	require.NoError(t, err)
	p := BadgePolicy{Order: order, WalkingKm: 1, CuratedMin: 90}
	assert.Equal(t, models.BadgeCurated, p.BadgeFor(r))

	r.EffectiveScore = 10
	assert.Equal(t, models.BadgeWalking, p.BadgeFor(r))

	r.DistanceKm = f(1.01)
	assert.Equal(t, models.BadgeLate, p.BadgeFor(r))

	r.LateSlot = false
	assert.Equal(t, models.BadgeNone, p.BadgeFor(r))

	_, err = ParseBadgeOrder("walking,shiny")
	assert.Error(t, err)
}

func TestDistanceLabel(t *testing.T) {
	assert.Equal(t, "—", DistanceLabel(nil))
	assert.Equal(t, "徒歩圏内", DistanceLabel(f(0.04)))
	assert.Equal(t, "1.2km", DistanceLabel(f(1.23)))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeCurated, m)
	m, err = ParseMode("Nearby")
	require.NoError(t, err)
	assert.Equal(t, ModeNearby, m)
	_, err = ParseMode("random")
	assert.ErrorIs(t, err, ErrUnknownMode)
}
