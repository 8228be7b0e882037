package reconcile

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/vango-dev/reconcile/pkg/host/memdom"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
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
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram().GetSampleCount()
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "test")

	doc := memdom.NewDocument("body")
	engine := NewEngine(doc, WithMetrics(m), WithMaxDepth(3))
	c := NewContainer(doc.Root())
	ctx := context.Background()

	if _, err := engine.Render(ctx, keyedList("a", "b"), c); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if _, err := engine.Render(ctx, keyedList("b", "a", "c"), c); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if _, err := engine.Render(ctx, vdom.Div(vdom.Div(vdom.Div(vdom.Div()))), c); err == nil {
		t.Fatal("Render() should fail on a tree deeper than 3")
	}

	if got := metricCounterValue(t, m.rendersTotal.WithLabelValues("mount")); got != 1 {
		t.Errorf("renders_total(mount) = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.rendersTotal.WithLabelValues("patch")); got != 2 {
		t.Errorf("renders_total(patch) = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.renderErrors.WithLabelValues("R002")); got != 1 {
		t.Errorf("render_errors_total(R002) = %v, want 1", got)
	}
	if got := metricHistogramCount(t, m.renderDuration.WithLabelValues("patch")); got != 2 {
		t.Errorf("render_duration_seconds(patch) count = %v, want 2", got)
	}
	// ul + 2 li + 2 text, then one li and its text.
	if got := metricCounterValue(t, m.hostOps.WithLabelValues("create")); got != 7 {
		t.Errorf("host_ops_total(create) = %v, want 7", got)
	}
	if got := metricCounterValue(t, m.hostOps.WithLabelValues("move")); got != 1 {
		t.Errorf("host_ops_total(move) = %v, want 1", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, name := range []string{"test_renders_total", "test_render_errors_total", "test_render_duration_seconds", "test_host_ops_total"} {
		if !names[name] {
			t.Errorf("metric %s not registered", name)
		}
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.observe(&Stats{Mode: ModeMount}, nil)
}
