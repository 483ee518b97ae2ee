package geo

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/example/shiftboard/internal/models"
)

// RedisVenueIndex implements VenueIndex using Redis GEO commands.
type RedisVenueIndex struct {
	client   redis.UniversalClient
	key      string
	radiusKm float64
}

func NewRedisVenueIndex(client redis.UniversalClient, key string) *RedisVenueIndex {
	return &RedisVenueIndex{client: client, key: key, radiusKm: 50}
}

func (r *RedisVenueIndex) Upsert(ctx context.Context, s models.Shop) error {
	if s.Lat == nil || s.Lng == nil {
		return nil
	}
	c := models.Coord{Lat: *s.Lat, Lng: *s.Lng}
	if !Valid(c) {
		return ErrInvalidCoord
	}
	if err := r.client.GeoAdd(ctx, r.key, &redis.GeoLocation{Longitude: c.Lng, Latitude: c.Lat, Name: s.Slug}).Err(); err != nil {
		return fmt.Errorf("geoadd %s: %w", s.Slug, err)
	}
	return nil
}

func (r *RedisVenueIndex) Locate(ctx context.Context, slug string) (models.Coord, bool) {
	res, err := r.client.GeoPos(ctx, r.key, slug).Result()
	if err != nil || len(res) == 0 || res[0] == nil {
		return models.Coord{}, false
	}
	return models.Coord{Lat: res[0].Latitude, Lng: res[0].Longitude}, true
}

func (r *RedisVenueIndex) Nearby(ctx context.Context, at models.Coord, limit int) ([]Venue, error) {
	q := &redis.GeoRadiusQuery{Radius: r.radiusKm, Unit: "km", WithCoord: true, WithDist: true, Sort: "ASC"}
	if limit > 0 {
		q.Count = limit
	}
	res, err := r.client.GeoRadius(ctx, r.key, at.Lng, at.Lat, q).Result()
	if err != nil {
		return nil, fmt.Errorf("georadius: %w", err)
	}
	out := make([]Venue, 0, len(res))
	for _, g := range res {
		out = append(out, Venue{
			Slug:       g.Name,
			Loc:        models.Coord{Lat: g.Latitude, Lng: g.Longitude},
			DistanceKm: g.Dist,
		})
	}
	return out, nil
}
