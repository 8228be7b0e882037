package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
	"go.opentelemetry.io/otel/trace/noop"
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	return m.GetCounter().GetValue()
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func testRouter(mw func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(mw)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chi.URLParam(r, "id")))
	})
	r.Post("/fail", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	return r
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	mw := Prometheus(WithRegistry(reg), WithNamespace("test"))
	h := testRouter(mw)

	serve(h, http.MethodGet, "/items/1")
	serve(h, http.MethodGet, "/items/2")
	serve(h, http.MethodPost, "/fail")
	serve(h, http.MethodGet, "/nowhere")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	counts := make(map[string]float64)
	for _, mf := range families {
		if mf.GetName() != "test_http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			var route, code string
			for _, lp := range m.GetLabel() {
				switch lp.GetName() {
				case "route":
					route = lp.GetValue()
				case "code":
					code = lp.GetValue()
				}
			}
			counts[route+" "+code] = m.GetCounter().GetValue()
		}
	}

	want := map[string]float64{
		"/items/{id} 200": 2,
		"/fail 500":       1,
		"unmatched 404":   1,
	}
	for k, v := range want {
		if counts[k] != v {
			t.Errorf("requests_total[%s] = %v, want %v (all: %v)", k, counts[k], v, counts)
		}
	}
}

func TestPrometheusDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	config := defaultMetricsConfig()
	config.Registry = reg
	m := newHTTPMetrics(config)

	m.duration.WithLabelValues("/x").Observe(0.1)
	m.requests.WithLabelValues("/x", "200").Inc()

	if got := metricHistogramCount(t, m.duration.WithLabelValues("/x")); got != 1 {
		t.Errorf("duration count = %d, want 1", got)
	}
	if got := metricCounterValue(t, m.requests.WithLabelValues("/x", "200")); got != 1 {
		t.Errorf("requests = %v, want 1", got)
	}
}

func TestPrometheusDefaults(t *testing.T) {
	config := defaultMetricsConfig()
	if config.Namespace != "reconcile" || config.Subsystem != "http" {
		t.Errorf("defaults = %q/%q", config.Namespace, config.Subsystem)
	}
	if config.Registry != prometheus.DefaultRegisterer {
		t.Error("default registry should be prometheus.DefaultRegisterer")
	}
}

// recordingTracer records the spans it starts and hands out no-op spans.
type recordingTracer struct {
	embedded.Tracer

	mu    sync.Mutex
	names []string
	attrs [][]attribute.KeyValue
}

func (r *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	r.mu.Lock()
	r.names = append(r.names, name)
	r.attrs = append(r.attrs, cfg.Attributes())
	r.mu.Unlock()
	ctx = context.WithValue(ctx, spanNameKey{}, name)
	return noop.NewTracerProvider().Tracer("").Start(ctx, name, opts...)
}

type spanNameKey struct{}

func TestOpenTelemetry(t *testing.T) {
	tracer := &recordingTracer{}
	h := testRouter(OpenTelemetry(WithTracer(tracer)))

	rec := serve(h, http.MethodGet, "/items/7")
	if rec.Body.String() != "7" {
		t.Errorf("body = %q, want 7", rec.Body.String())
	}
	serve(h, http.MethodPost, "/fail")

	want := []string{"GET /items/7", "POST /fail"}
	if len(tracer.names) != len(want) {
		t.Fatalf("spans = %v, want %v", tracer.names, want)
	}
	for i, name := range want {
		if tracer.names[i] != name {
			t.Errorf("span[%d] = %q, want %q", i, tracer.names[i], name)
		}
	}

	var method string
	for _, kv := range tracer.attrs[0] {
		if kv.Key == "http.method" {
			method = kv.Value.AsString()
		}
	}
	if method != http.MethodGet {
		t.Errorf("http.method = %q, want GET", method)
	}
}

func TestOpenTelemetryFilter(t *testing.T) {
	tracer := &recordingTracer{}
	h := testRouter(OpenTelemetry(
		WithTracer(tracer),
		WithFilter(func(r *http.Request) bool { return r.Method != http.MethodPost }),
	))

	serve(h, http.MethodPost, "/fail")
	serve(h, http.MethodGet, "/items/1")

	if len(tracer.names) != 1 || tracer.names[0] != "GET /items/1" {
		t.Errorf("spans = %v, want only GET /items/1", tracer.names)
	}
}

func TestOpenTelemetrySpanInContext(t *testing.T) {
	var got any
	h := OpenTelemetry(WithTracer(&recordingTracer{}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Context().Value(spanNameKey{})
	}))
	serve(h, http.MethodGet, "/")

	if got != "GET /" {
		t.Errorf("handler context span = %v, want GET /", got)
	}
}

func TestRoutePatternOutsideChi(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	if got := routePattern(r); got != "unmatched" {
		t.Errorf("routePattern = %q, want unmatched", got)
	}
}
