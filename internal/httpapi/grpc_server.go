package httpapi

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"bankist.app/internal/obs"
)

// HealthServer publishes store readiness through grpc.health.v1.Health, both
// for the overall server ("") and for serviceName.
type HealthServer struct {
	*health.Server
	readiness readinessChecker
}

// NewHealthServer creates the health service. Status stays NOT_SERVING until
// the first Refresh.
func NewHealthServer(r readinessChecker) *HealthServer {
	if r == nil {
		r = ReadyProbe{}
	}
	h := &HealthServer{Server: health.NewServer(), readiness: r}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

// Refresh runs the readiness check and updates the serving status.
func (h *HealthServer) Refresh(ctx context.Context) error {
	err := h.readiness.Check(ctx)
	if err != nil {
		obs.SetReady(false)
		h.set(healthpb.HealthCheckResponse_NOT_SERVING)
		return err
	}
	obs.SetReady(true)
	h.set(healthpb.HealthCheckResponse_SERVING)
	return nil
}

// Run refreshes every interval until ctx ends, then marks the service as
// shutting down.
func (h *HealthServer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := h.Refresh(ctx); err != nil && ctx.Err() == nil {
			obs.Logger().Warn("readiness check failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			h.Shutdown()
			return
		case <-ticker.C:
		}
	}
}

func (h *HealthServer) set(status healthpb.HealthCheckResponse_ServingStatus) {
	h.SetServingStatus("", status)
	h.SetServingStatus(serviceName, status)
}

// NewGRPCServer returns a gRPC server exposing h.
func NewGRPCServer(h *HealthServer, opts ...grpc.ServerOption) *grpc.Server {
	srv := grpc.NewServer(opts...)
	healthpb.RegisterHealthServer(srv, h.Server)
	return srv
}
