package reconcile

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/reconcile/pkg/host"
)

// DefaultMaxDepth is the deepest tree the engine accepts by default.
const DefaultMaxDepth = 512

const tracerName = "github.com/vango-dev/reconcile"

// Engine applies declarative trees to a host through a Binding.
// An Engine holds no per-render state and may serve many containers.
type Engine struct {
	binding    host.Binding
	logger     *slog.Logger
	maxDepth   int
	strictKeys bool
	metrics    *Metrics
	tracer     trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMaxDepth sets the maximum accepted tree depth.
// Zero or a negative value disables the limit.
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		e.maxDepth = depth
	}
}

// WithStrictKeys makes the engine reject sibling lists with duplicate keys.
func WithStrictKeys(strict bool) Option {
	return func(e *Engine) {
		e.strictKeys = strict
	}
}

// WithMetrics records render metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithTracer sets the tracer. Default: the global provider's tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// NewEngine creates an engine that mutates the host through b.
func NewEngine(b host.Binding, opts ...Option) *Engine {
	e := &Engine{
		binding:  b,
		logger:   slog.Default(),
		maxDepth: DefaultMaxDepth,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Binding returns the host binding the engine mutates.
func (e *Engine) Binding() host.Binding {
	return e.binding
}

// Mode says how a pass treated the container.
type Mode string

const (
	ModeMount   Mode = "mount"
	ModePatch   Mode = "patch"
	ModeUnmount Mode = "unmount"
)

// Stats summarizes the host work of one pass.
type Stats struct {
	Mode        Mode
	Created     int // host nodes created, subtree nodes included
	Removed     int // subtrees detached from their parent
	Moved       int // existing host nodes reordered
	Replaced    int // same-position nodes replaced because kind or tag changed
	Patched     int // same-position nodes updated in place
	AttrOps     int // attribute, style, and listener calls
	TextUpdates int
	Duration    time.Duration
}

// Mutations returns the number of host calls that changed the host tree.
func (s *Stats) Mutations() int {
	return s.Created + s.Removed + s.Moved + s.AttrOps + s.TextUpdates
}
