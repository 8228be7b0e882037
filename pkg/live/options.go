package live

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/vango-dev/reconcile/internal/config"
	"github.com/vango-dev/reconcile/internal/history"
	"github.com/vango-dev/reconcile/pkg/host"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// Options configures a Server.
type Options struct {
	// RootTag is the tag of the container root. Default: "body".
	RootTag string

	// MaxDepth is the deepest accepted tree. Zero disables the limit.
	MaxDepth int

	// StrictKeys rejects sibling lists with duplicate keys.
	StrictKeys bool

	// PingInterval is the WebSocket keepalive period. Default: 30s.
	PingInterval time.Duration

	// WriteTimeout bounds each WebSocket write. Default: 10s.
	WriteTimeout time.Duration

	// MaxMessageSize bounds messages read from clients. Default: 64KB.
	MaxMessageSize int64

	// MaxDocumentSize bounds POST /render bodies. Default: 4MB.
	MaxDocumentSize int64

	// AllowedOrigins lists origins accepted for WebSocket upgrades.
	// Empty means same origin only; "*" accepts any origin.
	AllowedOrigins []string

	// Components are the components tree documents may name.
	Components map[string]vdom.ComponentFunc

	// OnAction is called after a client event reaches a document listener.
	OnAction func(action string, e host.Event)

	// Registry receives the engine and server metrics and backs GET
	// /metrics. Nil disables metrics.
	Registry *prometheus.Registry

	// Namespace prefixes metric names. Default: "reconcile".
	Namespace string

	// History records every document rendered through POST /render and
	// backs GET /history. The server does not close it.
	History *history.Store

	// Logger is the server logger. Default: slog.Default().
	Logger *slog.Logger
}

// OptionsFromConfig derives server options from a loaded configuration.
// When metrics are enabled it creates a registry carrying the Go and process
// collectors.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) Options {
	opts := Options{
		RootTag:        cfg.Server.RootTag,
		MaxDepth:       cfg.Engine.MaxDepth,
		StrictKeys:     cfg.Engine.StrictKeys,
		PingInterval:   cfg.Ping(),
		MaxMessageSize: cfg.Server.MaxMessageSize,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Namespace:      cfg.Metrics.Namespace,
		Logger:         logger,
	}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts.Registry = reg
	}
	return opts
}

func (o *Options) applyDefaults() {
	if o.RootTag == "" {
		o.RootTag = config.DefaultRootTag
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = config.DefaultMaxMessageSize
	}
	if o.MaxDocumentSize <= 0 {
		o.MaxDocumentSize = 4 << 20
	}
	if o.Namespace == "" {
		o.Namespace = config.DefaultMetricsNamespace
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// checkOrigin accepts requests without an Origin header, origins listed in
// AllowedOrigins, and origins whose host matches the request host.
func (o *Options) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range o.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return r.Host != "" && u.Host == r.Host
}
