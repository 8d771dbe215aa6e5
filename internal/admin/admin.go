// Package admin exposes the standard gRPC health service so orchestrators can
// probe the relay.
package admin

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported next to the overall "" entry.
const ServiceName = "chat.Relay"

type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
}

func NewServer() *Server {
	s := &Server{
		grpcServer: grpc.NewServer(),
		health:     health.NewServer(),
	}
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	s.setStatus(healthpb.HealthCheckResponse_SERVING)
	return s
}

func (s *Server) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Serve blocks until the server is stopped.
func (s *Server) Serve(ln net.Listener) error {
	logger.InfoF("Admin endpoint listen on %s", ln.Addr().String())
	if err := s.grpcServer.Serve(ln); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Invoke marks the relay NOT_SERVING and stops the server, forcing it down if
// ctx expires first.
func (s *Server) Invoke(ctx context.Context) error {
	logger.Info("Shutting down admin endpoint")
	// every service reports NOT_SERVING from here on
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		s.grpcServer.Stop()
		return ctx.Err()
	}
}

func StartServer(host string, port int) (*Server, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("admin endpoint start error: %w", err)
	}
	s := NewServer()
	go func() {
		if err := s.Serve(ln); err != nil {
			logger.ErrorF("Admin endpoint stopped: %v", err)
		}
	}()
	return s, nil
}
