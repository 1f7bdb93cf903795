package server

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kbukum/whisper-api/component"
)

const (
	componentName     = "http-server"
	grpcComponentName = "grpc-health"
)

// systemPaths are the default operational endpoints.
var systemPaths = map[string]bool{
	"/health":    true,
	"/liveness":  true,
	"/readiness": true,
	"/info":      true,
	"/version":   true,
	"/metrics":   true,
}

var (
	_ component.Component     = (*ServerComponent)(nil)
	_ component.Describable   = (*ServerComponent)(nil)
	_ component.RouteProvider = (*ServerComponent)(nil)
	_ component.Component     = (*GRPCHealthComponent)(nil)
)

// ServerComponent wraps Server to implement component.Component.
type ServerComponent struct {
	server *Server
}

// NewComponent returns a component.Component backed by the given Server.
func NewComponent(s *Server) *ServerComponent {
	return &ServerComponent{server: s}
}

// Name returns the component name used for registration.
func (sc *ServerComponent) Name() string { return componentName }

// Start starts the underlying HTTP server.
func (sc *ServerComponent) Start(ctx context.Context) error {
	return sc.server.Start(ctx)
}

// Stop gracefully shuts down the underlying HTTP server.
func (sc *ServerComponent) Stop(ctx context.Context) error {
	return sc.server.Stop(ctx)
}

// Health reports healthy once the listener is bound.
func (sc *ServerComponent) Health(_ context.Context) component.Health {
	sc.server.mu.Lock()
	bound := sc.server.listener != nil
	sc.server.mu.Unlock()

	if !bound {
		return component.Health{Name: componentName, Status: component.StatusUnhealthy, Message: "listener not bound"}
	}
	return component.Health{Name: componentName, Status: component.StatusHealthy}
}

// Describe returns summary info for the bootstrap display.
func (sc *ServerComponent) Describe() component.Description {
	cfg := sc.server.config
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: fmt.Sprintf("%s h2c max_body=%s", cfg.Addr(), cfg.MaxBodySize),
		Port:    cfg.Port,
	}
}

// Routes returns the registered Gin routes, API routes before system routes.
func (sc *ServerComponent) Routes() []component.Route {
	ginRoutes := sc.server.engine.Routes()
	sort.SliceStable(ginRoutes, func(i, j int) bool {
		iSys, jSys := systemPaths[ginRoutes[i].Path], systemPaths[ginRoutes[j].Path]
		if iSys != jSys {
			return !iSys
		}
		return ginRoutes[i].Path < ginRoutes[j].Path
	})

	routes := make([]component.Route, 0, len(ginRoutes))
	for _, r := range ginRoutes {
		routes = append(routes, component.Route{
			Method:  r.Method,
			Path:    r.Path,
			Handler: handlerName(r.Handler),
		})
	}
	return routes
}

// handlerName shortens Gin's "github.com/x/y/api.(*Handler).Transcribe-fm"
// to "Handler.Transcribe" and closures to their enclosing function.
func handlerName(full string) string {
	name := strings.TrimSuffix(full, "-fm")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.NewReplacer("(*", "", ")", "").Replace(name)

	parts := strings.Split(name, ".")
	for len(parts) > 1 && isClosureSuffix(parts[len(parts)-1]) {
		parts = parts[:len(parts)-1]
	}
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.Join(parts, ".")
}

// isClosureSuffix matches the "func1" and "1" segments Go appends to closures.
func isClosureSuffix(seg string) bool {
	return strings.HasPrefix(seg, "func") || strings.Trim(seg, "0123456789") == ""
}

// GRPCHealthComponent flips the gRPC health status with the lifecycle.
// Register it after the engine and server so it reports SERVING only when
// both are up, and NOT_SERVING first on shutdown.
type GRPCHealthComponent struct {
	health *GRPCHealth
}

// NewGRPCHealthComponent wraps h.
func NewGRPCHealthComponent(h *GRPCHealth) *GRPCHealthComponent {
	return &GRPCHealthComponent{health: h}
}

// Name implements component.Component.
func (gc *GRPCHealthComponent) Name() string { return grpcComponentName }

// Start reports SERVING.
func (gc *GRPCHealthComponent) Start(_ context.Context) error {
	gc.health.SetServing(true)
	return nil
}

// Stop reports NOT_SERVING and closes Watch streams.
func (gc *GRPCHealthComponent) Stop(_ context.Context) error {
	gc.health.Shutdown()
	return nil
}

// Health implements component.Component.
func (gc *GRPCHealthComponent) Health(_ context.Context) component.Health {
	return component.Health{Name: grpcComponentName, Status: component.StatusHealthy}
}
