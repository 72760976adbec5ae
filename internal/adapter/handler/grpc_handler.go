package handler

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// InventoryServiceName is the service name reported through grpc.health.v1.
const InventoryServiceName = "inventory.Inventory"

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthReporter publishes store reachability over the standard gRPC health protocol.
type HealthReporter struct {
	server   *health.Server
	store    Pinger
	interval time.Duration
	logger   *slog.Logger
}

func NewHealthReporter(store Pinger, interval time.Duration, logger *slog.Logger) *HealthReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthReporter{
		server:   health.NewServer(),
		store:    store,
		interval: interval,
		logger:   logger.With("component", "grpc_health"),
	}
}

func (h *HealthReporter) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
	reflection.Register(s)
}

// Run refreshes the serving status every interval until ctx is done.
func (h *HealthReporter) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}

func (h *HealthReporter) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := h.store.Ping(ctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		h.logger.Warn("store unreachable", "error", err)
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(InventoryServiceName, status)
	return status
}
