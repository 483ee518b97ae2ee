// Package ranking merges curated picks with the full list of today's shifts,
// annotates each row with distance and status, and orders the result for
// display.
package ranking

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/example/shiftboard/internal/geo"
	"github.com/example/shiftboard/internal/models"
	"github.com/example/shiftboard/internal/schedule"
)

// Mode selects the sort order of a listing.
type Mode string

const (
	ModeCurated Mode = "curated"
	ModeNearby  Mode = "nearby"
)

var ErrUnknownMode = errors.New("unknown sort mode")

// ParseMode maps a query value to a Mode; empty selects curated.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeCurated:
		return ModeCurated, nil
	case ModeNearby:
		return ModeNearby, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Options controls a single Compose call.
type Options struct {
	Viewer models.Coord
	Mode   Mode
	Filter Filter
	Now    time.Time
	Badges BadgePolicy
}

// Compose runs merge, annotation, filtering and sorting. The inputs are not
// modified; the returned slice is new on every call.
func Compose(curated, complete []models.CandidateRow, opts Options) []models.RankedRow {
	rows := Annotate(Merge(curated, complete), opts.Viewer, opts.Now, opts.Badges)
	rows = opts.Filter.Apply(rows, opts.Now)
	Sort(rows, opts.Mode)
	return rows
}

// Merge keeps every curated row and appends complete rows whose slug is not
// curated, with a zero score. Curated rows without a score also get zero.
func Merge(curated, complete []models.CandidateRow) []models.CandidateRow {
	seen := make(map[string]struct{}, len(curated))
	out := make([]models.CandidateRow, 0, len(curated)+len(complete))
	for _, r := range curated {
		if _, dup := seen[r.Slug]; dup {
			continue
		}
		seen[r.Slug] = struct{}{}
		if r.CuratedScore == nil {
			r.CuratedScore = intPtr(0)
		}
		out = append(out, r)
	}
	for _, r := range complete {
		if _, dup := seen[r.Slug]; dup {
			continue
		}
		seen[r.Slug] = struct{}{}
		r.CuratedScore = intPtr(0)
		out = append(out, r)
	}
	return out
}

// Annotate derives distance, status and badge for each merged row. The
// position in rows becomes OriginalIndex.
func Annotate(rows []models.CandidateRow, viewer models.Coord, now time.Time, policy BadgePolicy) []models.RankedRow {
	out := make([]models.RankedRow, 0, len(rows))
	for i, r := range rows {
		rr := models.RankedRow{CandidateRow: r, OriginalIndex: i}
		if r.CuratedScore != nil {
			rr.EffectiveScore = *r.CuratedScore
		}
		if r.Latitude != nil && r.Longitude != nil {
			at := models.Coord{Lat: *r.Latitude, Lng: *r.Longitude}
			if geo.Valid(at) && geo.Valid(viewer) {
				d := geo.DistanceKm(viewer, at)
				rr.DistanceKm = &d
			}
		}
		rr.DistanceLabel = DistanceLabel(rr.DistanceKm)
		rr.ActiveNow = schedule.IsActive(r.StartTime, r.EndTime, now)
		rr.LateSlot = schedule.IsLateSlot(r.StartTime, r.EndTime)
		rr.Badge = policy.BadgeFor(rr)
		out = append(out, rr)
	}
	return out
}

// Sort orders rows in place for the given mode.
func Sort(rows []models.RankedRow, mode Mode) {
	if mode == ModeNearby {
		sort.Slice(rows, func(i, j int) bool {
			di, dj := distanceKey(rows[i]), distanceKey(rows[j])
			if di != dj {
				return di < dj
			}
			if rows[i].EffectiveScore != rows[j].EffectiveScore {
				return rows[i].EffectiveScore > rows[j].EffectiveScore
			}
			return rows[i].OriginalIndex < rows[j].OriginalIndex
		})
		return
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].EffectiveScore != rows[j].EffectiveScore {
			return rows[i].EffectiveScore > rows[j].EffectiveScore
		}
		return rows[i].OriginalIndex < rows[j].OriginalIndex
	})
}

func distanceKey(r models.RankedRow) float64 {
	if r.DistanceKm == nil {
		return math.Inf(1)
	}
	return *r.DistanceKm
}

// DistanceLabel renders a distance for cards: "—" when unknown, a walking
// label when it rounds to zero, otherwise one decimal in km.
func DistanceLabel(km *float64) string {
	if km == nil {
		return "—"
	}
	s := fmt.Sprintf("%.1f", *km)
	if s == "0.0" {
		return "徒歩圏内"
	}
	return s + "km"
}

func intPtr(v int) *int { return &v }
