package server

import (
	"context"
	"fmt"
	"net"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/UhthredB/tsaheylu-sub000/pkg/common"
)

// HeartbeatService is the health service name reporting the agent loop.
const HeartbeatService = "tsaheylu.Heartbeat"

// GRPCServer serves gRPC health checks for the agent.
type GRPCServer struct {
	server *grpc.Server
	health *health.Server
	port   int
	lis    net.Listener
}

// NewGRPCServer creates a new gRPC server instance.
func NewGRPCServer(port int) *GRPCServer {
	return &GRPCServer{port: port}
}

// Setup configures the gRPC server with interceptors and registers the health service.
func (s *GRPCServer) Setup() error {
	unaryInterceptors := []grpc.UnaryServerInterceptor{
		logging.UnaryServerInterceptor(common.InterceptorLogger(logrus.StandardLogger())),
	}
	streamInterceptors := []grpc.StreamServerInterceptor{
		logging.StreamServerInterceptor(common.InterceptorLogger(logrus.StandardLogger())),
	}

	s.server = grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(unaryInterceptors...),
		grpc.ChainStreamInterceptor(streamInterceptors...),
	)

	// Reflection lets grpcurl inspect the server; health backs liveness/readiness probes.
	s.health = health.NewServer()
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(HeartbeatService, grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(s.server)
	grpc_health_v1.RegisterHealthServer(s.server, s.health)

	logrus.Infof("gRPC reflection and health check enabled")

	return nil
}

// SetSuspended reports the heartbeat service as NOT_SERVING while the account is suspended.
func (s *GRPCServer) SetSuspended(suspended bool) {
	status := grpc_health_v1.HealthCheckResponse_SERVING
	if suspended {
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus(HeartbeatService, status)
	logrus.Infof("heartbeat health status set to %s", status)
}

// Start begins listening and serving gRPC requests.
func (s *GRPCServer) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}
	s.lis = lis

	go func() {
		logrus.Infof("gRPC server listening on port %d", s.port)
		if err := s.server.Serve(lis); err != nil {
			logrus.Errorf("gRPC server failed: %v", err)
		}
	}()

	return nil
}

// Addr returns the listening address once started.
func (s *GRPCServer) Addr() net.Addr {
	if s.lis == nil {
		return nil
	}
	return s.lis.Addr()
}

// Shutdown gracefully stops the gRPC server.
func (s *GRPCServer) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down gRPC server...")
	s.health.Shutdown()
	s.server.GracefulStop()
	logrus.Info("gRPC server stopped")
	return nil
}
