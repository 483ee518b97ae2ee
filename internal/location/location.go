// Package location resolves the viewer's coordinate for distance sorting.
//
// Lookups are best effort and bounded by a timeout. Anything that fails, is
// out of range, or arrives late is replaced by the fallback coordinate.
package location

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/example/shiftboard/internal/geo"
	"github.com/example/shiftboard/internal/models"
	"github.com/example/shiftboard/internal/observability"
)

// Shibuya station, used when the viewer's position is unknown.
var DefaultFallback = models.Coord{Lat: 35.658034, Lng: 139.701636}

var ErrUnavailable = errors.New("location unavailable")

// Source produces a coordinate or ErrUnavailable.
type Source func(ctx context.Context) (models.Coord, error)

// Result is a resolved viewer position.
type Result struct {
	Coord    models.Coord `json:"coord"`
	Fallback bool         `json:"fallback"`
	Reason   string       `json:"reason,omitempty"`
}

type Resolver struct {
	Fallback models.Coord
	Timeout  time.Duration
}

func NewResolver(fallback models.Coord, timeout time.Duration) *Resolver {
	return &Resolver{Fallback: fallback, Timeout: timeout}
}

// Resolve tries sources in order under one shared deadline. A source still
// running at the deadline is abandoned; its answer is dropped.
func (r *Resolver) Resolve(ctx context.Context, sources ...Source) Result {
	if len(sources) == 0 {
		return r.fallback("none")
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	type answer struct {
		c   models.Coord
		err error
	}
	for _, src := range sources {
		ch := make(chan answer, 1)
		go func(src Source) {
			c, err := src(ctx)
			ch <- answer{c, err}
		}(src)
		select {
		case <-ctx.Done():
			return r.fallback("timeout")
		case a := <-ch:
			if a.err != nil {
				continue
			}
			if !geo.Valid(a.c) {
				observability.LocationFallbacksTotal.WithLabelValues("out_of_range").Inc()
				continue
			}
			return Result{Coord: a.c}
		}
	}
	return r.fallback("unavailable")
}

func (r *Resolver) fallback(reason string) Result {
	observability.LocationFallbacksTotal.WithLabelValues(reason).Inc()
	return Result{Coord: r.Fallback, Fallback: true, Reason: reason}
}

// ParseCoord parses decimal degree strings; both must be present.
func ParseCoord(lat, lng string) (models.Coord, error) {
	lat, lng = strings.TrimSpace(lat), strings.TrimSpace(lng)
	if lat == "" || lng == "" {
		return models.Coord{}, ErrUnavailable
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return models.Coord{}, fmt.Errorf("invalid latitude: %w", err)
	}
	ln, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return models.Coord{}, fmt.Errorf("invalid longitude: %w", err)
	}
	return models.Coord{Lat: la, Lng: ln}, nil
}

// Static returns a Source answering from already known strings, such as
// query parameters or a websocket frame.
func Static(lat, lng string) Source {
	return func(context.Context) (models.Coord, error) {
		return ParseCoord(lat, lng)
	}
}

// Fixed always answers c.
func Fixed(c models.Coord) Source {
	return func(context.Context) (models.Coord, error) { return c, nil }
}
