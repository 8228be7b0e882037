package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig holds the Prometheus middleware settings. Zero fields take
// the defaults of defaultMetricsConfig.
type MetricsConfig struct {
	Namespace   string
	Subsystem   string
	ConstLabels prometheus.Labels
	Buckets     []float64 // request duration histogram
	Registry    prometheus.Registerer
}

type MetricsOption func(*MetricsConfig)

func WithNamespace(ns string) MetricsOption { return func(c *MetricsConfig) { c.Namespace = ns } }

func WithSubsystem(sub string) MetricsOption { return func(c *MetricsConfig) { c.Subsystem = sub } }

func WithConstLabels(l prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) { c.ConstLabels = l }
}

func WithBuckets(b []float64) MetricsOption { return func(c *MetricsConfig) { c.Buckets = b } }

// WithRegistry selects where the collectors are registered.
func WithRegistry(r prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) { c.Registry = r }
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "reconcile",
		Subsystem: "http",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

type httpMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

func newHTTPMetrics(cfg MetricsConfig) *httpMetrics {
	f := promauto.With(cfg.Registry)
	ns, sub, labels := cfg.Namespace, cfg.Subsystem, cfg.ConstLabels

	return &httpMetrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, ConstLabels: labels,
			Name: "requests_total",
			Help: "HTTP requests by route pattern and status code.",
		}, []string{"route", "code"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Subsystem: sub, ConstLabels: labels,
			Name:    "request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: cfg.Buckets,
		}, []string{"route"}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: sub, ConstLabels: labels,
			Name: "requests_in_flight",
			Help: "HTTP requests currently being served.",
		}),
	}
}

// Prometheus returns middleware that records request metrics. Each call
// registers a fresh set of collectors, so use one registry per server.
//
// WebSocket upgrades are counted when the connection closes.
func Prometheus(opts ...MetricsOption) func(http.Handler) http.Handler {
	cfg := defaultMetricsConfig()
	for _, o := range opts {
		o(&cfg)
	}
	m := newHTTPMetrics(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.inFlight.Inc()
			defer m.inFlight.Dec()

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			route := routePattern(r)
			m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
			m.requests.WithLabelValues(route, strconv.Itoa(statusOf(ww))).Inc()
		})
	}
}

// routePattern returns the matched chi pattern, which keeps label
// cardinality bounded. Unmatched requests share one label.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// statusOf reports 200 for handlers that never called WriteHeader.
func statusOf(ww chimw.WrapResponseWriter) int {
	if status := ww.Status(); status != 0 {
		return status
	}
	return http.StatusOK
}
