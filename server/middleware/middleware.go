// Package middleware provides the net/http middleware the server wraps around
// every route: panic recovery, request IDs, CORS, body-size limits and
// request logging.
package middleware

import "net/http"

// Middleware wraps an http.Handler with additional behavior. It applies to
// Gin routes and to handlers mounted next to Gin (the gRPC health service).
type Middleware func(http.Handler) http.Handler

// Chain composes multiple middleware. The first in the list is the outermost
// (runs first on a request, last on a response).
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
