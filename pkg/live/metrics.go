package live

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the server collectors. A nil *metrics records nothing.
//
// Metrics collected:
//   - reconcile_live_clients: Gauge of connected WebSocket clients
//   - reconcile_live_frames_total: Counter of frames by type and direction
//   - reconcile_live_actions_total: Counter of dispatched actions
type metrics struct {
	clients prometheus.Gauge
	frames  *prometheus.CounterVec
	actions *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer, namespace string) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		clients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "clients",
			Help:      "Number of connected WebSocket clients",
		}),
		frames: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "frames_total",
			Help:      "Total frames by type and direction",
		}, []string{"type", "direction"}),
		actions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "actions_total",
			Help:      "Total actions dispatched from client events",
		}, []string{"action"}),
	}
}

func (m *metrics) clientDelta(d float64) {
	if m != nil {
		m.clients.Add(d)
	}
}

func (m *metrics) frame(typ, direction string) {
	if m != nil {
		m.frames.WithLabelValues(typ, direction).Inc()
	}
}

func (m *metrics) action(name string) {
	if m != nil {
		m.actions.WithLabelValues(name).Inc()
	}
}
