// Package server exposes the gateway over HTTP and a gRPC health service.
package server

import (
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
)

// HealthServer serves grpc.health.v1.Health for orchestrators that probe
// over gRPC.
type HealthServer struct {
	grpcServer *grpc.Server
	health     *health.Server
	logger     *logrus.Logger
}

// NewHealthServer creates a gRPC server with health and reflection
// registered. It reports SERVING until SetNotServing is called.
func NewHealthServer(logger *logrus.Logger) *HealthServer {
	if logger == nil {
		logger = logrus.New()
	}

	s := grpc.NewServer(
		grpc.Creds(insecure.NewCredentials()),
		// Probes ping often; tolerate it instead of closing with "too many pings".
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             15 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle: 5 * time.Minute,
			Time:              30 * time.Second,
			Timeout:           10 * time.Second,
		}),
	)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	// Enable reflection for grpcurl/debugging
	reflection.Register(s)

	return &HealthServer{
		grpcServer: s,
		health:     healthServer,
		logger:     logger,
	}
}

// ListenAndServe listens on port and serves until Stop.
func (h *HealthServer) ListenAndServe(port int) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", port, err)
	}
	return h.Serve(lis)
}

// Serve serves on an existing listener.
func (h *HealthServer) Serve(lis net.Listener) error {
	h.logger.WithFields(logrus.Fields{
		"addr": lis.Addr().String(),
	}).Info("gRPC health server listening")

	if err := h.grpcServer.Serve(lis); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// SetNotServing flips the health status ahead of shutdown.
func (h *HealthServer) SetNotServing() {
	h.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
}

// Stop drains connections and stops the server.
func (h *HealthServer) Stop() {
	h.SetNotServing()
	h.grpcServer.GracefulStop()
}

// ForceStop closes all connections immediately.
func (h *HealthServer) ForceStop() {
	h.grpcServer.Stop()
}
