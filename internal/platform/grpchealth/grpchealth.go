// Package grpchealth serves the standard gRPC health checking protocol so
// orchestrators that probe over gRPC can track the gateway.
package grpchealth

import (
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

type Server struct {
	GRPC    *grpc.Server
	Health  *health.Server
	service string
	log     *zap.Logger
}

// New registers health and reflection services. Both the overall status ("")
// and service start as SERVING.
func New(service string, log *zap.Logger) *Server {
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	s := &Server{GRPC: srv, Health: hs, service: service, log: log}
	s.SetServing(true)
	return s
}

// SetServing flips both the overall and the per-service status.
func (s *Server) SetServing(ok bool) {
	status := healthpb.HealthCheckResponse_SERVING
	if !ok {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.Health.SetServingStatus("", status)
	s.Health.SetServingStatus(s.service, status)
}

// Serve blocks on lis.
func (s *Server) Serve(lis net.Listener) error {
	s.log.Info("grpc health server starting", zap.String("addr", lis.Addr().String()))
	return s.GRPC.Serve(lis)
}

// Stop marks the service NOT_SERVING, then stops gracefully, forcing after timeout.
func (s *Server) Stop(timeout time.Duration) {
	s.Health.Shutdown()
	stopped := make(chan struct{})
	go func() {
		s.GRPC.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(timeout):
		s.GRPC.Stop()
	}
}
