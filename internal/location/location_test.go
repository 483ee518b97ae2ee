package location

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/shiftboard/internal/models"
)

var ikebukuro = models.Coord{Lat: 35.729503, Lng: 139.7109}

func TestResolveFirstSourceWins(t *testing.T) {
	r := NewResolver(DefaultFallback, time.Second)
	got := r.Resolve(context.Background(), Static("", ""), Static("35.729503", "139.7109"), Fixed(DefaultFallback))
	assert.False(t, got.Fallback)
	assert.Equal(t, ikebukuro, got.Coord)
}

func TestResolveFallsBackWithoutSources(t *testing.T) {
	got := NewResolver(DefaultFallback, time.Second).Resolve(context.Background())
	assert.True(t, got.Fallback)
	assert.Equal(t, DefaultFallback, got.Coord)
}

func TestResolveRejectsOutOfRange(t *testing.T) {
	got := NewResolver(DefaultFallback, time.Second).Resolve(context.Background(), Static("135", "10"))
	assert.True(t, got.Fallback)
	assert.Equal(t, "unavailable", got.Reason)
}

func TestResolveIgnoresLateFix(t *testing.T) {
	release := make(chan struct{})
	slow := func(ctx context.Context) (models.Coord, error) {
		<-release
		return ikebukuro, nil
	}
	r := NewResolver(DefaultFallback, 20*time.Millisecond)
	got := r.Resolve(context.Background(), slow)
	close(release)
	assert.True(t, got.Fallback)
	assert.Equal(t, "timeout", got.Reason)
	assert.Equal(t, DefaultFallback, got.Coord)
}

func TestParseCoord(t *testing.T) {
	c, err := ParseCoord(" 35.5 ", "139.1")
	require.NoError(t, err)
	assert.Equal(t, models.Coord{Lat: 35.5, Lng: 139.1}, c)
	_, err = ParseCoord("abc", "1")
	assert.Error(t, err)
	_, err = ParseCoord("1", "")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGeoIPLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ip") != "203.0.113.9" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"lat":35.729503,"lng":139.7109}`))
	}))
	defer srv.Close()

	g := NewGeoIPClient(srv.URL)
	c, err := g.Lookup(context.Background(), "203.0.113.9")
	require.NoError(t, err)
	assert.Equal(t, ikebukuro, c)

	_, err = g.Lookup(context.Background(), "198.51.100.1")
	assert.ErrorIs(t, err, ErrUnavailable)

	got := NewResolver(DefaultFallback, time.Second).Resolve(context.Background(), g.Source(""), g.Source("203.0.113.9"))
	assert.Equal(t, ikebukuro, got.Coord)
}
