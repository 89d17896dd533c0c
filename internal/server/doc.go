// Package server provides HTTP routing, middleware, metrics and a gracefully stopping HTTP server.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns, so path wildcards such as
// {id} are available through [http.Request.PathValue].
//
// # Middleware
//
//   - [RequestLogger] : one log line per request
//   - [Recoverer] : converts panics into a 500 response
//   - [MaxBodyBytes] : caps request body size
//   - [IPRateLimiter] : per-client token buckets for sensitive endpoints
//   - [Metrics.Middleware] : Prometheus request counters and latency histograms
//
// # Handler Interface
//
// A [Handler] carries its own route patterns and is mounted with [BasicRouter.Handler].
// [Metrics] is one: it serves GET /metrics from its private registry.
package server
