package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	rerrors "github.com/vango-dev/reconcile/internal/errors"
)

// Metrics holds the Prometheus collectors an Engine feeds after every pass:
//
//	<ns>_renders_total{mode}
//	<ns>_render_errors_total{code}
//	<ns>_render_duration_seconds{mode}
//	<ns>_host_ops_total{op}
type Metrics struct {
	rendersTotal   *prometheus.CounterVec
	renderErrors   *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	hostOps        *prometheus.CounterVec
}

// NewMetrics registers the render collectors on reg under namespace. A nil
// reg means prometheus.DefaultRegisterer and an empty namespace means
// "reconcile". Like any promauto collector, registering the same namespace
// twice on one registry panics.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "reconcile"
	}
	f := promauto.With(reg)
	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return f.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help}, labels)
	}

	return &Metrics{
		rendersTotal: counter("renders_total", "Render passes by mode.", "mode"),
		renderErrors: counter("render_errors_total", "Failed render passes by error code.", "code"),
		hostOps:      counter("host_ops_total", "Host mutations by class.", "op"),
		renderDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Render pass duration by mode.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 9),
		}, []string{"mode"}),
	}
}

// observe records one finished pass. A nil receiver is a no-op.
func (m *Metrics) observe(stats *Stats, err error) {
	if m == nil {
		return
	}
	mode := string(stats.Mode)
	m.rendersTotal.WithLabelValues(mode).Inc()
	m.renderDuration.WithLabelValues(mode).Observe(stats.Duration.Seconds())

	if err != nil {
		code := rerrors.Code(err)
		if code == "" {
			code = "unknown"
		}
		m.renderErrors.WithLabelValues(code).Inc()
	}

	for op, n := range map[string]int{
		"create":  stats.Created,
		"remove":  stats.Removed,
		"move":    stats.Moved,
		"replace": stats.Replaced,
		"attr":    stats.AttrOps,
		"text":    stats.TextUpdates,
	} {
		if n > 0 {
			m.hostOps.WithLabelValues(op).Add(float64(n))
		}
	}
}
