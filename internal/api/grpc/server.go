package grpc

import (
	"context"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"library-backend/internal/api/grpc/interceptor"
	"library-backend/internal/logger"
)

// ServiceName is the health service name reported for the library API
const ServiceName = "library.v1.Library"

// Pinger is satisfied by repository.Store
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes grpc.health.v1 and reflection. The reported status follows
// the storage ping.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	store  Pinger

	stopOnce sync.Once
	done     chan struct{}
}

func NewServer(store Pinger) *Server {
	s := &Server{
		grpc: grpc.NewServer(
			grpc.ChainUnaryInterceptor(
				interceptor.Recovery(),
				interceptor.Logging(requestIDFromContext),
			),
		),
		health: health.NewServer(),
		store:  store,
		done:   make(chan struct{}),
	}

	healthpb.RegisterHealthServer(s.grpc, s.health)
	// Register reflection service for grpcurl
	reflection.Register(s.grpc)

	s.setStatus(healthpb.HealthCheckResponse_SERVING)
	return s
}

func (s *Server) setStatus(st healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Probe pings storage once and updates the health status
func (s *Server) Probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		logger.Warn("Storage health check failed", "error", err)
		s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	s.setStatus(healthpb.HealthCheckResponse_SERVING)
}

// Watch probes storage every interval until Stop is called
func (s *Server) Watch(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.Probe(context.Background())
		}
	}
}

func (s *Server) Serve(lis net.Listener) error {
	logger.Info("gRPC health server listening", "address", lis.Addr().String())
	return s.grpc.Serve(lis)
}

// Stop marks the server as not serving and drains in-flight calls
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.health.Shutdown()
		s.grpc.GracefulStop()
	})
}
