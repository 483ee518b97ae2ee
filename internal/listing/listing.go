// Package listing loads today's rows and runs them through ranking for the
// picks and today pages.
package listing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/shiftboard/internal/geo"
	"github.com/example/shiftboard/internal/models"
	"github.com/example/shiftboard/internal/observability"
	"github.com/example/shiftboard/internal/ranking"
	"github.com/example/shiftboard/internal/schedule"
	"github.com/example/shiftboard/internal/storage"
)

type View string

const (
	ViewPicks View = "picks"
	ViewToday View = "today"
)

type Service struct {
	Store  storage.Store
	Venues geo.VenueIndex // optional
	Clock  schedule.Clock
	Badges ranking.BadgePolicy
	Picks  ranking.Pager
	Today  ranking.Pager
	Logger *slog.Logger
}

// Query is one viewer request against a listing.
type Query struct {
	Viewer  models.Coord
	Mode    ranking.Mode
	Filter  ranking.Filter
	Visible int
}

// Result is a ranked page plus the context the page renders around it.
type Result struct {
	ranking.Page
	View     View           `json:"view"`
	Mode     ranking.Mode   `json:"mode"`
	Filter   ranking.Filter `json:"filter"`
	Viewer   models.Coord   `json:"viewer"`
	Venues   []string       `json:"venues,omitempty"`
	Now      time.Time      `json:"now"`
	Fallback bool           `json:"location_fallback"`
}

// PicksView merges curated picks with everyone working today. Curated order
// is the default.
func (s *Service) PicksView(ctx context.Context, q Query) (Result, error) {
	if q.Mode == "" {
		q.Mode = ranking.ModeCurated
	}
	q.Filter = ranking.Filter{}
	return s.run(ctx, ViewPicks, s.Picks, q, true)
}

// TodayView lists every row for today with optional filters, nearest first
// unless another mode is requested.
func (s *Service) TodayView(ctx context.Context, q Query) (Result, error) {
	if q.Mode == "" {
		q.Mode = ranking.ModeNearby
	}
	return s.run(ctx, ViewToday, s.Today, q, false)
}

func (s *Service) run(ctx context.Context, view View, pager ranking.Pager, q Query, withPicks bool) (Result, error) {
	start := time.Now()
	defer func() { observability.RankLatency.Observe(time.Since(start).Seconds()) }()

	now := s.Clock()
	day := schedule.StartOfDay(now)
	complete, err := s.Store.TodayRows(ctx, day)
	if err != nil {
		return Result{}, fmt.Errorf("load today rows: %w", err)
	}
	var curated []models.CandidateRow
	if withPicks {
		if curated, err = s.Store.CuratedPicks(ctx, day); err != nil {
			return Result{}, fmt.Errorf("load picks: %w", err)
		}
	}
	curated = s.locate(ctx, curated)
	complete = s.locate(ctx, complete)

	rows := ranking.Compose(curated, complete, ranking.Options{
		Viewer: q.Viewer,
		Mode:   q.Mode,
		Filter: q.Filter,
		Now:    now,
		Badges: s.Badges,
	})
	observability.RankingsTotal.WithLabelValues(string(view), string(q.Mode)).Inc()

	res := Result{
		Page:   pager.Page(rows, q.Visible),
		View:   view,
		Mode:   q.Mode,
		Filter: q.Filter,
		Viewer: q.Viewer,
		Now:    now,
	}
	if view == ViewToday {
		res.Venues = ranking.Venues(complete)
	}
	return res, nil
}

// locate fills missing coordinates from the venue index. It returns a copy
// when anything changes so store-owned slices are never written.
func (s *Service) locate(ctx context.Context, rows []models.CandidateRow) []models.CandidateRow {
	if s.Venues == nil {
		return rows
	}
	var out []models.CandidateRow
	for i, r := range rows {
		if (r.Latitude != nil && r.Longitude != nil) || r.VenueSlug == "" {
			continue
		}
		c, ok := s.Venues.Locate(ctx, r.VenueSlug)
		if !ok {
			continue
		}
		if out == nil {
			out = append([]models.CandidateRow(nil), rows...)
		}
		lat, lng := c.Lat, c.Lng
		out[i].Latitude, out[i].Longitude = &lat, &lng
	}
	if out == nil {
		return rows
	}
	return out
}

// SyncVenues loads every shop with coordinates into the venue index.
func (s *Service) SyncVenues(ctx context.Context) error {
	if s.Venues == nil {
		return nil
	}
	shops, err := s.Store.Shops(ctx)
	if err != nil {
		return fmt.Errorf("load shops: %w", err)
	}
	n := 0
	for _, sh := range shops {
		if err := s.Venues.Upsert(ctx, sh); err != nil {
			s.Logger.WarnContext(ctx, "skip venue", "shop", sh.Slug, "error", err)
			continue
		}
		n++
	}
	s.Logger.InfoContext(ctx, "venue index synced", "shops", n)
	return nil
}
