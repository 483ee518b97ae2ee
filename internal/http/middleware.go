package httpapi

import (
	"bufio"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/example/shiftboard/internal/logging"
	"github.com/example/shiftboard/internal/observability"
)

const maxRequestIDLen = 64

// Outermost first: a panic anywhere below is still logged with its request id.
func (s *Server) registerMiddleware() {
	s.mux.Use(s.recoverPanics, s.tagRequest, s.accessLog)
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			s.log(r).Error("handler panicked", "path", r.URL.Path, "panic", v)
			if strings.HasPrefix(r.URL.Path, "/api/") {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
		}()
		next.ServeHTTP(w, r)
	})
}

// tagRequest echoes X-Request-ID and scopes the request logger to it.
func (s *Server) tagRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := requestID(r)
		w.Header().Set("X-Request-ID", id)
		ctx := logging.WithLogger(r.Context(), s.logger.With("request_id", id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestID keeps the caller's id only when it is short printable ASCII.
func requestID(r *http.Request) string {
	id := r.Header.Get("X-Request-ID")
	if id == "" || len(id) > maxRequestIDLen {
		return uuid.NewString()
	}
	if strings.IndexFunc(id, func(c rune) bool { return c < '!' || c > '~' }) >= 0 {
		return uuid.NewString()
	}
	return id
}

// accessLog counts every request. Health checks and scrapes log at debug so page
// and API traffic stays readable at info.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		elapsed := time.Since(start)

		route := routeLabel(r)
		code := strconv.Itoa(sw.Status())
		observability.HTTPRequestsTotal.WithLabelValues(r.Method, route, code).Inc()
		observability.HTTPRequestDuration.WithLabelValues(r.Method, route, code).Observe(elapsed.Seconds())

		level := slog.LevelInfo
		if quietRoutes[route] {
			level = slog.LevelDebug
		}
		s.log(r).Log(r.Context(), level, "request served",
			"method", r.Method,
			"route", route,
			"status", sw.Status(),
			"bytes", sw.bytes,
			"duration_ms", elapsed.Milliseconds(),
			"client", remoteIP(r),
		)
	})
}

var quietRoutes = map[string]bool{"/healthz": true, "/ready": true, "/metrics": true}

// statusWriter remembers the status and body size a handler produced.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func (w *statusWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// Hijack lets the live websocket upgrade through the wrapper.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// routeLabel is the matched mux template, so /people/alice and
// /people/ben share one metric series. Unmatched paths collapse to one label.
func routeLabel(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return "unmatched"
	}
	tmpl, err := route.GetPathTemplate()
	if err != nil {
		return "unmatched"
	}
	return tmpl
}

// remoteIP prefers the first X-Forwarded-For hop; the GeoIP lookup uses it too.
func remoteIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
