package live

import (
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/shiftboard/internal/fixtures"
	"github.com/example/shiftboard/internal/listing"
	"github.com/example/shiftboard/internal/location"
	"github.com/example/shiftboard/internal/ranking"
	"github.com/example/shiftboard/internal/schedule"
	"github.com/example/shiftboard/internal/storage"
)

var now = time.Date(2026, 10, 19, 20, 15, 0, 0, time.UTC)

func newHub() *Hub {
	svc := &listing.Service{
		Store:  storage.NewMemoryStore(fixtures.Default().Snapshot(now), schedule.FixedClock(now)),
		Clock:  schedule.FixedClock(now),
		Badges: ranking.DefaultBadgePolicy(),
		Picks:  ranking.Pager{PageSize: 2, Step: 1, Max: 3},
		Today:  ranking.Pager{PageSize: 20, Step: 20},
		Logger: slog.Default(),
	}
	return NewHub(svc, location.NewResolver(location.DefaultFallback, time.Second), slog.Default())
}

func dial(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, f Frame) Message {
	t.Helper()
	require.NoError(t, conn.WriteJSON(f))
	var m Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&m))
	return m
}

func fp(v float64) *float64 { return &v }

func TestLiveNearbyThenReveal(t *testing.T) {
	h := newHub()
	conn := dial(t, h)

	m := roundTrip(t, conn, Frame{Lat: fp(35.703119), Lng: fp(139.579765), Mode: "nearby"})
	require.Empty(t, m.Error)
	assert.False(t, m.Fallback)
	require.Len(t, m.Rows, 2)
	assert.Equal(t, "chloe", m.Rows[0].Slug)
	assert.True(t, m.HasMore)

	m = roundTrip(t, conn, Frame{Reveal: true})
	assert.Len(t, m.Rows, 3)
	assert.Equal(t, ranking.ModeNearby, m.Mode)
	assert.Equal(t, "chloe", m.Rows[0].Slug)
	assert.Equal(t, 1, h.Len())
}

func TestLiveFallsBackWithoutPosition(t *testing.T) {
	conn := dial(t, newHub())
	m := roundTrip(t, conn, Frame{})
	assert.True(t, m.Fallback)
	assert.Equal(t, location.DefaultFallback, m.Viewer)
	assert.Equal(t, ranking.ModeCurated, m.Mode)
	assert.Equal(t, "alice", m.Rows[0].Slug)

	m = roundTrip(t, conn, Frame{Lat: fp(123), Lng: fp(139)})
	assert.True(t, m.Fallback)
}

func TestLiveRejectsUnknownMode(t *testing.T) {
	conn := dial(t, newHub())
	m := roundTrip(t, conn, Frame{Mode: "random"})
	assert.NotEmpty(t, m.Error)
}

func TestCloseAllSendsGoingAway(t *testing.T) {
	h := newHub()
	conn := dial(t, h)
	roundTrip(t, conn, Frame{})

	h.CloseAll()
	assert.Equal(t, 0, h.Len())
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
