package server

import (
	"net/http"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServicePath is the mux pattern of the gRPC health service.
var HealthServicePath = "/" + healthpb.Health_ServiceDesc.ServiceName + "/"

// GRPCHealth serves grpc.health.v1.Health over the HTTP server's h2c listener.
// It reports NOT_SERVING until SetServing(true).
type GRPCHealth struct {
	grpcServer *grpc.Server
	health     *health.Server
	services   []string
}

// NewGRPCHealth creates the health service for the overall server ("") and
// each named service.
func NewGRPCHealth(services ...string) *GRPCHealth {
	g := &GRPCHealth{
		grpcServer: grpc.NewServer(),
		health:     health.NewServer(),
		services:   append([]string{""}, services...),
	}
	healthpb.RegisterHealthServer(g.grpcServer, g.health)
	g.SetServing(false)
	return g
}

// Handler returns the http.Handler to mount at HealthServicePath.
func (g *GRPCHealth) Handler() http.Handler { return g.grpcServer }

// SetServing flips every registered service between SERVING and NOT_SERVING.
func (g *GRPCHealth) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	for _, svc := range g.services {
		g.health.SetServingStatus(svc, status)
	}
}

// Shutdown sets every service to NOT_SERVING and ends open Watch streams.
func (g *GRPCHealth) Shutdown() {
	g.health.Shutdown()
}

// Mount registers the health service on s.
func (g *GRPCHealth) Mount(s *Server) {
	s.Handle(HealthServicePath, g.Handler())
}
