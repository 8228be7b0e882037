// Package middleware provides chi-compatible HTTP middleware that observes
// the live server's endpoints.
//
// # Prometheus Metrics
//
// Prometheus counts requests by route pattern and status class and records
// their duration:
//
//	r.Use(middleware.Prometheus(
//	    middleware.WithNamespace("reconcile"),
//	    middleware.WithRegistry(reg),
//	))
//
// Metrics collected:
//   - <namespace>_http_requests_total{route,code}
//   - <namespace>_http_request_duration_seconds{route}
//   - <namespace>_http_requests_in_flight
//
// # OpenTelemetry Tracing
//
// OpenTelemetry starts a server span per request. The span is stored in the
// request context, so the reconcile engine's render spans become its
// children:
//
//	r.Use(middleware.OpenTelemetry(
//	    middleware.WithTracerName("reconcile/live"),
//	    middleware.WithFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/metrics"
//	    }),
//	))
//
// The tracer comes from the global provider unless WithTracer is given.
package middleware
