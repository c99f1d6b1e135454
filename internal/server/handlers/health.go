package handlers

import (
	"context"

	"github.com/coffeeverse/coffeeverse/internal/server/dto"
)

// ServiceName identifies this service in health responses.
const ServiceName = "coffeeverse-etl"

// HealthHandler handles health check requests.
type HealthHandler struct {
	version string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version}
}

// Health handles health check requests.
func (h *HealthHandler) Health(ctx context.Context, _ *dto.HealthRequest) (*dto.HealthResponse, error) {
	return &dto.HealthResponse{
		Status:  "healthy",
		Service: ServiceName,
		Version: h.version,
	}, nil
}
