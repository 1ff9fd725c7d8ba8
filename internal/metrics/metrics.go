package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mdkit_http_requests_total",
		Help: "Total HTTP requests by route and status code.",
	}, []string{"route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mdkit_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	renders = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mdkit_renders_total",
		Help: "Total Markdown renders by cache outcome.",
	}, []string{"cache"})

	renderDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mdkit_render_duration_seconds",
		Help:    "Markdown render duration in seconds, excluding cache hits.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms → 1s
	})

	diagrams = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mdkit_diagrams_total",
		Help: "Total mermaid diagram renders by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		httpRequests,
		httpDuration,
		renders,
		renderDuration,
		diagrams,
	)
}

// Handler returns an http.Handler that serves Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest records an HTTP request for a route pattern.
func ObserveRequest(route string, status int, duration time.Duration) {
	httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// CountCacheHit records a render served from the cache.
func CountCacheHit() {
	renders.WithLabelValues("hit").Inc()
}

// ObserveRender records a render that missed the cache.
func ObserveRender(duration time.Duration) {
	renders.WithLabelValues("miss").Inc()
	renderDuration.Observe(duration.Seconds())
}

// CountDiagram records the outcome of a diagram render.
func CountDiagram(err error) {
	if err != nil {
		diagrams.WithLabelValues("error").Inc()
		return
	}
	diagrams.WithLabelValues("rendered").Inc()
}
