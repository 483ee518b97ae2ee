package geo

import (
	"context"
	"math"
	"sync"

	"github.com/example/shiftboard/internal/models"
)

const earthRadiusKm = 6371.0

// VenueIndex resolves shop coordinates by slug and answers proximity queries.
type VenueIndex interface {
	Upsert(ctx context.Context, s models.Shop) error
	Locate(ctx context.Context, slug string) (models.Coord, bool)
	Nearby(ctx context.Context, at models.Coord, limit int) ([]Venue, error)
}

// Venue is a located shop with its distance from the query point.
type Venue struct {
	Slug       string       `json:"slug"`
	Loc        models.Coord `json:"loc"`
	DistanceKm float64      `json:"distance_km"`
}

// DistanceKm is the haversine great-circle distance in kilometers. Inputs are
// not range checked; use Valid first when the coordinates are untrusted.
func DistanceKm(a, b models.Coord) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// Valid reports whether c is a finite coordinate inside the lat/lng ranges.
func Valid(c models.Coord) bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

// Index is the in-memory VenueIndex used when Redis is not configured.
type Index struct {
	mu     sync.RWMutex
	venues map[string]models.Coord
}

func NewIndex() *Index {
	return &Index{venues: make(map[string]models.Coord)}
}

func (g *Index) Upsert(_ context.Context, s models.Shop) error {
	if s.Lat == nil || s.Lng == nil {
		return nil
	}
	c := models.Coord{Lat: *s.Lat, Lng: *s.Lng}
	if !Valid(c) {
		return ErrInvalidCoord
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.venues[s.Slug] = c
	return nil
}

func (g *Index) Locate(_ context.Context, slug string) (models.Coord, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c, ok := g.venues[slug]
	return c, ok
}

// naive scan; the venue set is a handful of shops
func (g *Index) Nearby(_ context.Context, at models.Coord, limit int) ([]Venue, error) {
	g.mu.RLock()
	arr := make([]Venue, 0, len(g.venues))
	for slug, c := range g.venues {
		arr = append(arr, Venue{Slug: slug, Loc: c, DistanceKm: DistanceKm(at, c)})
	}
	g.mu.RUnlock()

	n := limit
	if n <= 0 || n > len(arr) {
		n = len(arr)
	}
	// partial selection sort for top-N, slug breaks ties so output is stable
	for i := 0; i < n; i++ {
		minIdx := i
		for j := i + 1; j < len(arr); j++ {
			if arr[j].DistanceKm < arr[minIdx].DistanceKm ||
				(arr[j].DistanceKm == arr[minIdx].DistanceKm && arr[j].Slug < arr[minIdx].Slug) {
				minIdx = j
			}
		}
		arr[i], arr[minIdx] = arr[minIdx], arr[i]
	}
	return arr[:n], nil
}
