package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDReuse(t *testing.T) {
	env := newTestEnv(t, nil)
	cases := map[string]struct {
		header string
		keep   bool
	}{
		"caller id":    {"abc-123", true},
		"missing":      {"", false},
		"too long":     {strings.Repeat("x", maxRequestIDLen+1), false},
		"has spaces":   {"a b", false},
		"non ascii id": {"リクエスト", false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			if tc.header != "" {
				req.Header.Set("X-Request-ID", tc.header)
			}
			rec := httptest.NewRecorder()
			env.srv.ServeHTTP(rec, req)
			got := rec.Header().Get("X-Request-ID")
			require.NotEmpty(t, got)
			if tc.keep {
				assert.Equal(t, tc.header, got)
			} else {
				assert.NotEqual(t, tc.header, got)
			}
		})
	}
}

func TestRecoverPanics(t *testing.T) {
	env := newTestEnv(t, nil)
	boom := func(http.ResponseWriter, *http.Request) { panic("boom") }
	env.srv.mux.HandleFunc("/api/boom", boom)
	env.srv.mux.HandleFunc("/boom", boom)

	rec := env.do(http.MethodGet, "/api/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())

	rec = env.do(http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal error")
}

func TestStatusWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rec}
	assert.Equal(t, http.StatusOK, sw.Status())

	_, err := sw.Write([]byte("hello"))
	require.NoError(t, err)
	sw.WriteHeader(http.StatusTeapot)
	assert.Equal(t, http.StatusOK, sw.Status(), "first status wins")
	assert.Equal(t, 5, sw.bytes)
}

func TestRemoteIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5123"
	assert.Equal(t, "10.0.0.7", remoteIP(req))

	req.Header.Set("X-Forwarded-For", " 203.0.113.9 , 10.0.0.1")
	assert.Equal(t, "203.0.113.9", remoteIP(req))
}
