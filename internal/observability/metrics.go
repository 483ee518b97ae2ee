package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RankingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "shiftboard", Name: "rankings_total", Help: "Total ranked listings computed"},
		[]string{"view", "mode"},
	)
	RankLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "shiftboard",
		Name:      "rank_latency_seconds",
		Help:      "Time spent loading and ranking a listing",
		Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
	})
	FallbackServedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "shiftboard", Name: "fallback_served_total", Help: "Reads answered from the default dataset after a store error"},
		[]string{"op"},
	)
	LocationFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "shiftboard", Name: "location_fallbacks_total", Help: "Viewer locations replaced by the fallback coordinate"},
		[]string{"reason"},
	)
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "shiftboard", Name: "cache_requests_total", Help: "Listing cache lookups"},
		[]string{"backend", "result"},
	)
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "shiftboard", Name: "events_published_total", Help: "Recommendation events published"},
		[]string{"type", "status"},
	)
	LiveSessions = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "shiftboard", Name: "live_sessions", Help: "Open live listing websocket sessions"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "shiftboard", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shiftboard",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
