package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/shiftboard/internal/fixtures"
	"github.com/example/shiftboard/internal/models"
	"github.com/example/shiftboard/internal/schedule"
)

// MemoryStore serves a fixtures snapshot from process memory. The snapshot
// rolls forward with the clock: on every read, shift dates and the picks day
// are moved by the number of days since the snapshot's Day, so a long-running
// process keeps serving "today" instead of the boot date.
type MemoryStore struct {
	mu        sync.RWMutex
	people    map[string]models.Person
	shops     map[string]models.Shop
	shopOrder []string
	shifts    []models.Shift
	picks     map[string]int
	pickOrder []string
	anchor    time.Time
	recs      []models.Recommendation
	clock     schedule.Clock
}

func NewMemoryStore(snap fixtures.Snapshot, clock schedule.Clock) *MemoryStore {
	if clock == nil {
		clock = time.Now
	}
	anchor := snap.Day
	if anchor.IsZero() {
		anchor = schedule.StartOfDay(clock())
	}
	m := &MemoryStore{
		people:    make(map[string]models.Person, len(snap.People)),
		shops:     make(map[string]models.Shop, len(snap.Shops)),
		shifts:    append([]models.Shift(nil), snap.Shifts...),
		picks:     make(map[string]int, len(snap.Picks)),
		pickOrder: append([]string(nil), snap.PickOrder...),
		anchor:    anchor,
		recs:      append([]models.Recommendation(nil), snap.Recommendations...),
		clock:     clock,
	}
	for _, p := range snap.People {
		m.people[p.Slug] = p
	}
	for _, s := range snap.Shops {
		m.shops[s.Slug] = s
		m.shopOrder = append(m.shopOrder, s.Slug)
	}
	for k, v := range snap.Picks {
		m.picks[k] = v
	}
	return m
}

// shift is the number of days the snapshot has rolled since its anchor.
func (m *MemoryStore) shift() int {
	return daysBetween(m.anchor, m.clock())
}

// daysBetween counts calendar days from a to b, each in its own zone.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// rolled returns the shifts re-dated to the current day.
func (m *MemoryStore) rolled() []models.Shift {
	n := m.shift()
	out := make([]models.Shift, len(m.shifts))
	for i, sh := range m.shifts {
		sh.Date = sh.Date.AddDate(0, 0, n)
		out[i] = sh
	}
	return out
}

func (m *MemoryStore) rowFor(sh models.Shift) models.CandidateRow {
	p := m.people[sh.Person]
	s := m.shops[sh.Shop]
	return models.CandidateRow{
		Slug:        p.Slug,
		DisplayName: p.DisplayName,
		VenueName:   s.DisplayName,
		VenueSlug:   s.Slug,
		StartTime:   sh.Start,
		EndTime:     sh.End,
		Latitude:    s.Lat,
		Longitude:   s.Lng,
		ImageSrc:    p.AvatarURL,
	}
}

func (m *MemoryStore) TodayRows(_ context.Context, day time.Time) ([]models.CandidateRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	key := dayKey(day)
	var out []models.CandidateRow
	for _, sh := range m.rolled() {
		if dayKey(sh.Date) == key {
			out = append(out, m.rowFor(sh))
		}
	}
	return out, nil
}

func (m *MemoryStore) CuratedPicks(_ context.Context, day time.Time) ([]models.CandidateRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	key := dayKey(day)
	if key != dayKey(m.anchor.AddDate(0, 0, m.shift())) {
		return nil, nil
	}
	shifts := m.rolled()
	var out []models.CandidateRow
	for _, slug := range m.pickOrder {
		for _, sh := range shifts {
			if sh.Person != slug || dayKey(sh.Date) != key {
				continue
			}
			r := m.rowFor(sh)
			score := m.picks[slug]
			r.CuratedScore = &score
			out = append(out, r)
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) Shops(_ context.Context) ([]models.Shop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Shop, 0, len(m.shopOrder))
	for _, slug := range m.shopOrder {
		out = append(out, m.shops[slug])
	}
	return out, nil
}

func (m *MemoryStore) Person(_ context.Context, slug string) (models.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.people[slug]
	if !ok {
		return models.Person{}, fmt.Errorf("person %q: %w", slug, ErrNotFound)
	}
	return p, nil
}

func (m *MemoryStore) receivedLocked(slug string) int {
	n := 0
	for _, r := range m.recs {
		if r.IsApproved && r.ToPerson == slug {
			n++
		}
	}
	return n
}

// newestFirst returns approved recommendations matching keep, newest first.
func (m *MemoryStore) newestFirst(keep func(models.Recommendation) bool) []models.Recommendation {
	var out []models.Recommendation
	for _, r := range m.recs {
		if r.IsApproved && keep(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *MemoryStore) RecommendationsAbout(_ context.Context, slug string) ([]models.About, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs := m.newestFirst(func(r models.Recommendation) bool { return r.ToPerson == slug })
	out := make([]models.About, 0, len(recs))
	for _, r := range recs {
		out = append(out, models.About{
			Recommendation:  r,
			FromDisplayName: m.people[r.FromPerson].DisplayName,
			FromReceived:    m.receivedLocked(r.FromPerson),
		})
	}
	return out, nil
}

func (m *MemoryStore) RecommendationsBy(_ context.Context, slug string, limit int) ([]models.By, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs := m.newestFirst(func(r models.Recommendation) bool { return r.FromPerson == slug })
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	out := make([]models.By, 0, len(recs))
	for _, r := range recs {
		out = append(out, models.By{Recommendation: r, ToDisplayName: m.people[r.ToPerson].DisplayName})
	}
	return out, nil
}

func (m *MemoryStore) WeekShifts(_ context.Context, slug string, from, to time.Time) ([]models.WeekShift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lo, hi := dayKey(from), dayKey(to)
	var out []models.WeekShift
	for _, sh := range m.rolled() {
		d := dayKey(sh.Date)
		if sh.Person != slug || d < lo || d > hi {
			continue
		}
		s := m.shops[sh.Shop]
		out = append(out, models.WeekShift{Shift: sh, ShopDisplayName: s.DisplayName, ShopArea: s.Area})
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := dayKey(out[i].Date), dayKey(out[j].Date)
		if di != dj {
			return di < dj
		}
		a, _ := schedule.ParseMinutes(out[i].Start)
		b, _ := schedule.ParseMinutes(out[j].Start)
		return a < b
	})
	return out, nil
}

func (m *MemoryStore) SaveRecommendation(_ context.Context, r *models.Recommendation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.people[r.FromPerson]; !ok {
		return fmt.Errorf("recommender %q: %w", r.FromPerson, ErrNotFound)
	}
	if _, ok := m.people[r.ToPerson]; !ok {
		return fmt.Errorf("recipient %q: %w", r.ToPerson, ErrNotFound)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = m.clock()
	}
	m.recs = append(m.recs, *r)
	return nil
}

func (m *MemoryStore) ApproveRecommendation(_ context.Context, id string) (models.Recommendation, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.recs {
		if m.recs[i].ID == id {
			changed := !m.recs[i].IsApproved
			m.recs[i].IsApproved = true
			return m.recs[i], changed, nil
		}
	}
	return models.Recommendation{}, false, fmt.Errorf("recommendation %q: %w", id, ErrNotFound)
}

func (m *MemoryStore) ReceivedCounts(_ context.Context, slugs []string) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[string]int{}
	if len(slugs) > 0 {
		for _, slug := range slugs {
			out[slug] = m.receivedLocked(slug)
		}
		return out, nil
	}
	for _, r := range m.recs {
		if r.IsApproved {
			out[r.ToPerson]++
		}
	}
	return out, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }
