package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/example/shiftboard/internal/models"
)

// GeoIPClient looks up an approximate position for a client IP against an
// HTTP endpoint answering {"lat":..,"lng":..}.
type GeoIPClient struct {
	Endpoint string
	Client   *http.Client
}

func NewGeoIPClient(endpoint string) *GeoIPClient {
	return &GeoIPClient{Endpoint: endpoint, Client: &http.Client{Timeout: 3 * time.Second}}
}

// Source binds the lookup to one IP.
func (g *GeoIPClient) Source(ip string) Source {
	return func(ctx context.Context) (models.Coord, error) {
		if ip == "" {
			return models.Coord{}, ErrUnavailable
		}
		return g.Lookup(ctx, ip)
	}
}

func (g *GeoIPClient) Lookup(ctx context.Context, ip string) (models.Coord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.Endpoint, nil)
	if err != nil {
		return models.Coord{}, err
	}
	q := req.URL.Query()
	q.Set("ip", ip)
	req.URL.RawQuery = q.Encode()
	resp, err := g.Client.Do(req)
	if err != nil {
		return models.Coord{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return models.Coord{}, fmt.Errorf("geoip status %d: %w", resp.StatusCode, ErrUnavailable)
	}
	var out struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.Coord{}, err
	}
	if out.Lat == nil || out.Lng == nil {
		return models.Coord{}, ErrUnavailable
	}
	return models.Coord{Lat: *out.Lat, Lng: *out.Lng}, nil
}
