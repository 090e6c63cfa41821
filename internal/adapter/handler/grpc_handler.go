package handler

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rl1809/store-inventory/internal/core/service"
)

// PersistenceService is the health service name reporting whether writes
// reach a document backend.
const PersistenceService = "inventory.persistence"

type GRPCHandler struct {
	*health.Server
}

func NewGRPCHandler(svc *service.InventoryService) *GRPCHandler {
	h := &GRPCHandler{Server: health.NewServer()}
	h.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	status := healthpb.HealthCheckResponse_SERVING
	if !svc.Persistent() {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.SetServingStatus(PersistenceService, status)
	return h
}

func (h *GRPCHandler) Register(s grpc.ServiceRegistrar) {
	healthpb.RegisterHealthServer(s, h.Server)
}
