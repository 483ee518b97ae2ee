package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/shiftboard/internal/events"
	"github.com/example/shiftboard/internal/geo"
	"github.com/example/shiftboard/internal/http/views"
	"github.com/example/shiftboard/internal/listing"
	"github.com/example/shiftboard/internal/location"
	"github.com/example/shiftboard/internal/models"
	"github.com/example/shiftboard/internal/profile"
	"github.com/example/shiftboard/internal/storage"
)

// Check reports whether one dependency is ready.
type Check func(ctx context.Context) error

// Deps are the services a Server routes to. Events, GeoIP, Venues and Live
// are optional.
type Deps struct {
	Listing  *listing.Service
	Profile  *profile.Service
	Store    storage.Store
	Venues   geo.VenueIndex
	Events   events.Publisher
	Resolver *location.Resolver
	GeoIP    *location.GeoIPClient
	Live     http.Handler
	Checks   map[string]Check
}

type Server struct {
	Deps
	logger    *slog.Logger
	mux       *mux.Router
	templates map[string]*template.Template
}

func NewServer(deps Deps, logger *slog.Logger) (*Server, error) {
	tmpls, err := parseTemplates(views.Content)
	if err != nil {
		return nil, err
	}
	s := &Server{Deps: deps, logger: logger, mux: mux.NewRouter(), templates: tmpls}
	s.registerMiddleware()
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handlePicksPage).Methods(http.MethodGet)
	s.mux.HandleFunc("/today", s.handleTodayPage).Methods(http.MethodGet)
	s.mux.HandleFunc("/people/{slug}", s.handlePersonPage).Methods(http.MethodGet)

	api := s.mux.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/picks", s.handlePicks).Methods(http.MethodGet)
	api.HandleFunc("/today", s.handleToday).Methods(http.MethodGet)
	api.HandleFunc("/people/{slug}", s.handlePerson).Methods(http.MethodGet)
	api.HandleFunc("/people/{slug}/message", s.handleMessage).Methods(http.MethodGet)
	api.HandleFunc("/venues/nearby", s.handleNearbyVenues).Methods(http.MethodGet)
	api.HandleFunc("/recommendations", s.handleCreateRecommendation).Methods(http.MethodPost)
	api.HandleFunc("/recommendations/{id}/approve", s.handleApproveRecommendation).Methods(http.MethodPost)

	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	s.mux.HandleFunc("/ready", s.handleReady).Methods(http.MethodGet)
	s.mux.Handle("/metrics", promhttp.Handler())
	if s.Live != nil {
		s.mux.Handle("/ws/live", s.Live)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

var badgeLabels = map[models.Badge]string{
	models.BadgeWalking: "徒歩圏",
	models.BadgeLate:    "深夜まで",
	models.BadgeCurated: "イチオシ",
}

func parseTemplates(fsys fs.FS) (map[string]*template.Template, error) {
	funcs := template.FuncMap{
		"todayLine":  profile.TodayLine,
		"imageSrc":   profile.ImageSrc,
		"badgeLabel": func(b models.Badge) string { return badgeLabels[b] },
	}
	pages, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, err
	}
	out := make(map[string]*template.Template, len(pages))
	for _, p := range pages {
		t, err := template.New("base").Funcs(funcs).ParseFS(fsys, "layouts/*.html", p)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
		out[p[len("templates/"):len(p)-len(".html")]] = t
	}
	return out, nil
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	t, ok := s.templates[name]
	if !ok {
		s.log(r).Error("missing template", "name", name)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		s.log(r).Error("render failed", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
