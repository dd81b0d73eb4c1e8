package services

import (
	"context"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driving"
	"github.com/custodia-labs/tender-rag/internal/runtime"
)

// Ensure healthService implements HealthService
var _ driving.HealthService = (*healthService)(nil)

type healthService struct {
	services *runtime.Services
}

// NewHealthService reports on the services held by the runtime registry.
func NewHealthService(services *runtime.Services) driving.HealthService {
	return &healthService{services: services}
}

// Check health-checks every backing service and refreshes the availability flags.
func (s *healthService) Check(ctx context.Context) *domain.HealthStatus {
	return s.services.Refresh(ctx)
}
