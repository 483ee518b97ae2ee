// Package profile assembles the person detail page.
package profile

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/example/shiftboard/internal/counts"
	"github.com/example/shiftboard/internal/models"
	"github.com/example/shiftboard/internal/schedule"
	"github.com/example/shiftboard/internal/storage"
)

const (
	topAbouts = 3
	maxBys    = 6
)

type Service struct {
	Store  storage.Store
	Counts counts.Counter // optional
	Clock  schedule.Clock
	Logger *slog.Logger
}

// Page loads a person's page. Unknown people and store failures yield a
// placeholder page with Fallback set rather than an error.
func (s *Service) Page(ctx context.Context, slug string) models.PersonPage {
	now := s.Clock()
	if slug == "" {
		return FallbackPage(slug, now)
	}
	person, err := s.Store.Person(ctx, slug)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.Logger.WarnContext(ctx, "person lookup failed", "slug", slug, "error", err)
		}
		return FallbackPage(slug, now)
	}

	page := models.PersonPage{Person: person}
	abouts, err := s.Store.RecommendationsAbout(ctx, slug)
	if err != nil {
		s.Logger.WarnContext(ctx, "load recommendations about failed", "slug", slug, "error", err)
		return FallbackPage(slug, now)
	}
	s.overlayCounts(ctx, abouts)
	page.Abouts = TopAbouts(abouts, topAbouts)

	from, to := schedule.Week(now)
	if page.WeekShifts, err = s.Store.WeekShifts(ctx, slug, from, to); err != nil {
		s.Logger.WarnContext(ctx, "load week shifts failed", "slug", slug, "error", err)
		return FallbackPage(slug, now)
	}
	if page.Bys, err = s.Store.RecommendationsBy(ctx, slug, maxBys); err != nil {
		s.Logger.WarnContext(ctx, "load recommendations by failed", "slug", slug, "error", err)
		return FallbackPage(slug, now)
	}
	return page
}

// overlayCounts raises store counts to the live counter's where it is ahead.
// Approvals never decrease a total, so a lower or missing counter entry is
// stale and the store value stands.
func (s *Service) overlayCounts(ctx context.Context, abouts []models.About) {
	if s.Counts == nil || len(abouts) == 0 {
		return
	}
	slugs := make([]string, 0, len(abouts))
	for _, a := range abouts {
		slugs = append(slugs, a.FromPerson)
	}
	live, err := s.Counts.Received(ctx, slugs)
	if err != nil {
		s.Logger.DebugContext(ctx, "received counts unavailable", "error", err)
		return
	}
	for i := range abouts {
		if n := live[abouts[i].FromPerson]; n > abouts[i].FromReceived {
			abouts[i].FromReceived = n
		}
	}
}

// TopAbouts orders by the recommender's received count, then newest first,
// and keeps n. The input is not modified.
func TopAbouts(abouts []models.About, n int) []models.About {
	out := append([]models.About(nil), abouts...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FromReceived != out[j].FromReceived {
			return out[i].FromReceived > out[j].FromReceived
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// TodayLine renders the one-line schedule summary used on listing cards.
func TodayLine(shop, start, end string) string {
	if shop == "" || start == "" || end == "" {
		return "Today: —"
	}
	return "Today: " + shop + " · " + start + "-" + end
}

// ImageSrc maps a stored image value to a public path.
func ImageSrc(image string) string {
	v := strings.TrimSpace(image)
	switch {
	case v == "":
		return "/people/_placeholder.svg"
	case strings.HasPrefix(v, "/"):
		return v
	case strings.HasPrefix(v, "people/"):
		return "/" + v
	}
	return "/people/" + v
}

// NormalizeImage is the storage form of an image path: bare file names for
// the people directory, other absolute paths unchanged.
func NormalizeImage(image string) string {
	v := strings.TrimSpace(image)
	if v == "" {
		return "_placeholder.svg"
	}
	return strings.TrimPrefix(v, "/people/")
}
