// package server contains the router, middleware and HTTP server for the checklists service
package server

import (
	"net/http"
)

// Middleware decorates a handler, e.g. with request logging, panic recovery or rate limiting.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows its own route patterns, like [Metrics].
type Handler interface {
	http.Handler
	Routes() []string // "METHOD /path" patterns
}

// Router registers handlers behind a shared middleware stack.
type Router interface {
	Use(middleware ...Middleware)
	Handle(method, path string, handler http.Handler)
	Handler(handler Handler)
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}
