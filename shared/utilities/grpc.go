package utilities

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// RegisterHealthServer registers the gRPC health check service and reports serviceName as serving.
// The returned server lets the caller flip the status during shutdown.
func RegisterHealthServer(grpcServer *grpc.Server, serviceName string) *health.Server {
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	if serviceName != "" {
		healthServer.SetServingStatus(serviceName, grpc_health_v1.HealthCheckResponse_SERVING)
	}
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	return healthServer
}
