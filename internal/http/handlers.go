package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/shiftboard/internal/events"
	"github.com/example/shiftboard/internal/listing"
	"github.com/example/shiftboard/internal/location"
	"github.com/example/shiftboard/internal/logging"
	"github.com/example/shiftboard/internal/models"
	"github.com/example/shiftboard/internal/ranking"
	"github.com/example/shiftboard/internal/storage"
)

const maxRecommendationBody = 1000

// listingQuery reads mode, filters and the visible count. A filter that
// differs from the prev token starts again from the first page.
func (s *Server) listingQuery(r *http.Request) (listing.Query, location.Result, error) {
	v := r.URL.Query()
	var q listing.Query
	if m := v.Get("mode"); m != "" {
		mode, err := ranking.ParseMode(m)
		if err != nil {
			return q, location.Result{}, err
		}
		q.Mode = mode
	}
	bucket, err := ranking.ParseBucket(v.Get("time"))
	if err != nil {
		return q, location.Result{}, err
	}
	q.Filter = ranking.Filter{Venue: strings.TrimSpace(v.Get("shop")), Bucket: bucket}
	if n, err := strconv.Atoi(v.Get("visible")); err == nil {
		q.Visible = n
	}
	if v.Has("prev") && v.Get("prev") != q.Filter.Key() {
		q.Visible = 0
	}
	loc := s.viewer(r)
	q.Viewer = loc.Coord
	return q, loc, nil
}

func (s *Server) viewer(r *http.Request) location.Result {
	var sources []location.Source
	v := r.URL.Query()
	if v.Get("lat") != "" || v.Get("lng") != "" {
		sources = append(sources, location.Static(v.Get("lat"), v.Get("lng")))
	}
	if s.GeoIP != nil {
		sources = append(sources, s.GeoIP.Source(remoteIP(r)))
	}
	return s.Resolver.Resolve(r.Context(), sources...)
}

func (s *Server) picks(w http.ResponseWriter, r *http.Request) (listing.Result, bool) {
	q, loc, err := s.listingQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return listing.Result{}, false
	}
	res, err := s.Listing.PicksView(r.Context(), q)
	if err != nil {
		s.log(r).Error("picks failed", "error", err)
		writeError(w, http.StatusInternalServerError, "listing unavailable")
		return listing.Result{}, false
	}
	res.Fallback = loc.Fallback
	return res, true
}

func (s *Server) today(w http.ResponseWriter, r *http.Request) (listing.Result, bool) {
	q, loc, err := s.listingQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return listing.Result{}, false
	}
	res, err := s.Listing.TodayView(r.Context(), q)
	if err != nil {
		s.log(r).Error("today failed", "error", err)
		writeError(w, http.StatusInternalServerError, "listing unavailable")
		return listing.Result{}, false
	}
	res.Fallback = loc.Fallback
	return res, true
}

func (s *Server) handlePicks(w http.ResponseWriter, r *http.Request) {
	if res, ok := s.picks(w, r); ok {
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	if res, ok := s.today(w, r); ok {
		writeJSON(w, http.StatusOK, res)
	}
}

type listingPage struct {
	listing.Result
	LocationFallback bool
	Buckets          []ranking.Bucket
	MoreURL          string
	Lat, Lng         string // viewer coordinates from the request, for forms
	path             string
	query            url.Values
}

func newListingPage(r *http.Request, res listing.Result) listingPage {
	p := listingPage{Result: res, LocationFallback: res.Fallback, Buckets: ranking.Buckets, path: r.URL.Path, query: r.URL.Query()}
	if lat, lng := p.query.Get("lat"), p.query.Get("lng"); lat != "" && lng != "" {
		p.Lat, p.Lng = lat, lng
	}
	if res.HasMore {
		q := p.values()
		q.Set("visible", strconv.Itoa(res.Next))
		p.MoreURL = p.path + "?" + q.Encode()
	}
	return p
}

// values carries the current mode, filter and position into links.
func (p listingPage) values() url.Values {
	q := url.Values{}
	for _, k := range []string{"lat", "lng"} {
		if v := p.query.Get(k); v != "" {
			q.Set(k, v)
		}
	}
	q.Set("mode", string(p.Mode))
	if p.Filter.Venue != "" {
		q.Set("shop", p.Filter.Venue)
	}
	if p.Filter.Bucket != ranking.BucketAny {
		q.Set("time", string(p.Filter.Bucket))
	}
	return q
}

// ModeURL links to the same page sorted by mode, keeping the visible count.
func (p listingPage) ModeURL(mode string) string {
	q := p.values()
	q.Set("mode", mode)
	q.Set("visible", strconv.Itoa(p.Visible))
	return p.path + "?" + q.Encode()
}

func (s *Server) handlePicksPage(w http.ResponseWriter, r *http.Request) {
	if res, ok := s.picks(w, r); ok {
		s.render(w, r, "picks", newListingPage(r, res))
	}
}

func (s *Server) handleTodayPage(w http.ResponseWriter, r *http.Request) {
	if res, ok := s.today(w, r); ok {
		s.render(w, r, "today", newListingPage(r, res))
	}
}

type personPage struct {
	models.PersonPage
	LocationFallback bool
}

func (s *Server) handlePersonPage(w http.ResponseWriter, r *http.Request) {
	page := s.Profile.Page(r.Context(), mux.Vars(r)["slug"])
	s.render(w, r, "person", personPage{PersonPage: page})
}

func (s *Server) handlePerson(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Profile.Page(r.Context(), mux.Vars(r)["slug"]))
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := s.Profile.Message(r.Context(), mux.Vars(r)["slug"])
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "person not found")
		return
	}
	if err != nil {
		s.log(r).Error("message failed", "error", err)
		writeError(w, http.StatusInternalServerError, "message unavailable")
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (s *Server) handleNearbyVenues(w http.ResponseWriter, r *http.Request) {
	if s.Venues == nil {
		writeError(w, http.StatusServiceUnavailable, "venue index disabled")
		return
	}
	limit := 10
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n <= 50 {
		limit = n
	}
	loc := s.viewer(r)
	venues, err := s.Venues.Nearby(r.Context(), loc.Coord, limit)
	if err != nil {
		s.log(r).Error("nearby venues failed", "error", err)
		writeError(w, http.StatusInternalServerError, "venue lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"viewer": loc, "venues": venues})
}

type recommendationRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Body string `json:"body"`
}

func (s *Server) handleCreateRecommendation(w http.ResponseWriter, r *http.Request) {
	var req recommendationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.From, req.To, req.Body = strings.TrimSpace(req.From), strings.TrimSpace(req.To), strings.TrimSpace(req.Body)
	switch {
	case req.From == "" || req.To == "" || req.Body == "":
		writeError(w, http.StatusBadRequest, "from, to and body are required")
		return
	case req.From == req.To:
		writeError(w, http.StatusBadRequest, "cannot recommend yourself")
		return
	case len([]rune(req.Body)) > maxRecommendationBody:
		writeError(w, http.StatusBadRequest, "body too long")
		return
	}
	rec := models.Recommendation{FromPerson: req.From, ToPerson: req.To, Body: req.Body}
	if err := s.Store.SaveRecommendation(r.Context(), &rec); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.log(r).Error("save recommendation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not save")
		return
	}
	s.publish(r, events.RecommendationCreated, rec)
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleApproveRecommendation(w http.ResponseWriter, r *http.Request) {
	rec, changed, err := s.Store.ApproveRecommendation(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "recommendation not found")
		return
	}
	if err != nil {
		s.log(r).Error("approve recommendation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not approve")
		return
	}
	if changed {
		s.publishApproval(r, rec)
	}
	writeJSON(w, http.StatusOK, rec)
}

// publish is fire-and-forget; the store already holds the change.
func (s *Server) publish(r *http.Request, t events.Type, rec models.Recommendation) {
	s.send(r, events.Event{Type: t, Recommendation: rec})
}

// publishApproval attaches the recipient's new total so the consumer can
// overwrite its counter instead of incrementing it.
func (s *Server) publishApproval(r *http.Request, rec models.Recommendation) {
	if s.Events == nil {
		return
	}
	totals, err := s.Store.ReceivedCounts(r.Context(), []string{rec.ToPerson})
	if err != nil || totals[rec.ToPerson] < 1 {
		s.log(r).Warn("approval total unavailable, event skipped", "id", rec.ID, "error", err)
		return
	}
	s.send(r, events.Event{Type: events.RecommendationApproved, Recommendation: rec, Received: totals[rec.ToPerson]})
}

func (s *Server) send(r *http.Request, e events.Event) {
	if s.Events == nil {
		return
	}
	e.At = time.Now().UTC()
	if err := s.Events.Publish(r.Context(), e); err != nil {
		s.log(r).Warn("publish event failed", "type", e.Type, "id", e.Recommendation.ID, "error", err)
	}
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{}
	code := http.StatusOK
	for name, check := range s.Checks {
		if err := check(r.Context()); err != nil {
			status[name] = err.Error()
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "ok"
	}
	writeJSON(w, code, status)
}

func (s *Server) log(r *http.Request) *slog.Logger {
	return logging.FromContext(r.Context(), s.logger)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
