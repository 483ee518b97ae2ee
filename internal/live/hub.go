// Package live pushes re-ranked picks to browsers over a websocket whenever
// the viewer moves, switches mode, reveals more rows, or the clock ticks.
package live

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/example/shiftboard/internal/listing"
	"github.com/example/shiftboard/internal/location"
	"github.com/example/shiftboard/internal/models"
	"github.com/example/shiftboard/internal/observability"
	"github.com/example/shiftboard/internal/ranking"
)

// Frame is what the browser sends. Lat and Lng are optional; a missing or
// unusable position falls back like any other request.
type Frame struct {
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
	Mode    string   `json:"mode,omitempty"`
	Visible int      `json:"visible,omitempty"`
	Reveal  bool     `json:"reveal,omitempty"`
}

type Message struct {
	listing.Result
	Error string `json:"error,omitempty"`
}

// Session is one connected browser. Writes are serialized; gorilla
// connections allow one concurrent writer.
type Session struct {
	ID       string
	conn     *websocket.Conn
	mu       sync.Mutex
	last     listing.Query
	fallback bool
}

func (s *Session) Send(m Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return s.conn.WriteJSON(m)
}

func (s *Session) state() (listing.Query, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.fallback
}

func (s *Session) remember(q listing.Query, fallback bool) {
	s.mu.Lock()
	s.last, s.fallback = q, fallback
	s.mu.Unlock()
}

type Hub struct {
	Listing  *listing.Service
	Resolver *location.Resolver
	Logger   *slog.Logger
	Upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewHub(svc *listing.Service, resolver *location.Resolver, logger *slog.Logger) *Hub {
	return &Hub{
		Listing:  svc,
		Resolver: resolver,
		Logger:   logger,
		Upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 4096},
		sessions: make(map[string]*Session),
	}
}

func (h *Hub) add(conn *websocket.Conn) *Session {
	s := &Session{ID: uuid.NewString(), conn: conn}
	h.mu.Lock()
	h.sessions[s.ID] = s
	h.mu.Unlock()
	observability.LiveSessions.Inc()
	return s
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	s, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()
	if ok {
		observability.LiveSessions.Dec()
		_ = s.conn.Close()
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// ServeHTTP upgrades the request and serves frames until the peer leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.WarnContext(r.Context(), "ws upgrade failed", "error", err)
		return
	}
	s := h.add(conn)
	defer h.remove(s.ID)
	h.Logger.DebugContext(r.Context(), "live session opened", "session", s.ID)

	ctx := context.WithoutCancel(r.Context())
	for {
		var f Frame
		if err := conn.ReadJSON(&f); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.Logger.DebugContext(ctx, "live session read", "session", s.ID, "error", err)
			}
			return
		}
		if err := h.handle(ctx, s, f); err != nil {
			h.Logger.WarnContext(ctx, "live send failed", "session", s.ID, "error", err)
			return
		}
	}
}

func (h *Hub) handle(ctx context.Context, s *Session, f Frame) error {
	q, fallback := s.state()
	if f.Mode != "" {
		mode, err := ranking.ParseMode(f.Mode)
		if err != nil {
			return s.Send(Message{Error: err.Error()})
		}
		q.Mode = mode
	}
	switch {
	case f.Reveal:
		q.Visible = h.Listing.Picks.Reveal(q.Visible)
	case f.Visible > 0:
		q.Visible = f.Visible
	}

	res := location.Result{Coord: q.Viewer, Fallback: fallback}
	switch {
	case f.Lat != nil && f.Lng != nil:
		res = h.Resolver.Resolve(ctx, location.Fixed(models.Coord{Lat: *f.Lat, Lng: *f.Lng}))
	case q.Viewer == (models.Coord{}):
		res = h.Resolver.Resolve(ctx)
	}
	if q.Mode == "" {
		q.Mode = ranking.ModeCurated
	}
	q.Viewer = res.Coord
	s.remember(q, res.Fallback)

	return h.push(ctx, s, q, res.Fallback)
}

func (h *Hub) push(ctx context.Context, s *Session, q listing.Query, fallback bool) error {
	out, err := h.Listing.PicksView(ctx, q)
	if err != nil {
		h.Logger.ErrorContext(ctx, "live rank failed", "session", s.ID, "error", err)
		return s.Send(Message{Error: "listing unavailable"})
	}
	out.Fallback = fallback
	return s.Send(Message{Result: out})
}

// Refresh re-ranks every session with its last query. Active-now flags depend
// on the clock, so this runs on a ticker.
func (h *Hub) Refresh(ctx context.Context) {
	h.mu.RLock()
	list := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		list = append(list, s)
	}
	h.mu.RUnlock()
	for _, s := range list {
		q, fallback := s.state()
		if q.Mode == "" {
			continue
		}
		if err := h.push(ctx, s, q, fallback); err != nil {
			h.Logger.WarnContext(ctx, "live refresh failed", "session", s.ID, "error", err)
			h.remove(s.ID)
		}
	}
}

// Run refreshes sessions every interval until ctx ends, then closes them.
func (h *Hub) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			h.CloseAll()
			return
		case <-t.C:
			h.Refresh(ctx)
		}
	}
}

// CloseAll sends a going-away close frame to every session.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	list := h.sessions
	h.sessions = make(map[string]*Session)
	h.mu.Unlock()
	for _, s := range list {
		s.mu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"),
			time.Now().Add(time.Second))
		s.mu.Unlock()
		_ = s.conn.Close()
		observability.LiveSessions.Dec()
	}
}
