package grpcserver

import (
	"errors"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/example/docforensics/internal/logging"
)

// ServiceName is the health-checked name of the forensics service.
const ServiceName = "docforensics.DocumentForensics"

// HealthServer exposes the standard grpc.health.v1 service next to the HTTP API.
type HealthServer struct {
	server *grpc.Server
	health *health.Server
	logger *zap.Logger
}

// NewHealthServer builds a gRPC server reporting SERVING for the overall
// process and for ServiceName.
func NewHealthServer(logger *zap.Logger, opts ...grpc.ServerOption) *HealthServer {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	server := grpc.NewServer(opts...)
	healthpb.RegisterHealthServer(server, hs)

	return &HealthServer{server: server, health: hs, logger: logger.Named("grpc_health")}
}

// Serve accepts connections on listener until Stop is called.
func (s *HealthServer) Serve(listener net.Listener) error {
	s.logger.Info("gRPC health listening", zap.String("addr", listener.Addr().String()))
	if err := s.server.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		wrapped := logging.NewOperationError("grpcserver.serve", "", err)
		s.logger.Error("gRPC health server failed", zap.Error(wrapped))
		return wrapped
	}
	return nil
}

// Stop flips every status to NOT_SERVING and drains open streams.
func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
	s.logger.Info("gRPC health stopped")
}
