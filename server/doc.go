// Package server provides the HTTP server: Gin routes behind an h2c handler
// so the gRPC health service can share the port.
//
// # Middleware
//
// Applied around every route, outermost first (server/middleware):
//
//   - Recovery: panic to 500 JSON with stack logging
//   - RequestID: X-Request-Id generation and propagation into the log context
//   - CORS: cross-origin headers and preflight
//   - BodySizeLimit: request body cap, surfaced as 413 by handlers
//   - RequestLogger: method, path, status and duration per request
//
// # Endpoints
//
// Registered by RegisterDefaultEndpoints (server/endpoint):
//
//   - /health: component health aggregation
//   - /liveness, /readiness: orchestrator probes
//   - /info: service, version, engine details
//   - /version: build version
//   - /metrics: runtime and engine slot counters
//
// GRPCHealth mounts grpc.health.v1.Health on the same listener.
package server
