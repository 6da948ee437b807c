package handlers

import (
	"context"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/policy"
	"github.com/spec-kit/maintenance-service/internal/service"
)

// MaintenanceServiceInterface defines the methods used by handlers from MaintenanceService
type MaintenanceServiceInterface interface {
	Create(ctx context.Context, actor domain.Actor, payload policy.CreatePayload) (*domain.MaintenanceRequest, error)
	Get(ctx context.Context, actor domain.Actor, id string) (*domain.MaintenanceRequest, error)
	List(ctx context.Context, actor domain.Actor, filter service.ListFilter) ([]domain.MaintenanceRequest, error)
	Update(ctx context.Context, actor domain.Actor, id string, req policy.RequestedPatch) (*domain.MaintenanceRequest, error)
	Assign(ctx context.Context, actor domain.Actor, id string, req policy.RequestedPatch) (*domain.MaintenanceRequest, error)
}

// TeamServiceInterface defines the methods used by handlers from TeamService
type TeamServiceInterface interface {
	AddMember(ctx context.Context, actor domain.Actor, teamID, userID string) error
	RemoveMember(ctx context.Context, actor domain.Actor, teamID, userID string) error
	TeamsOf(ctx context.Context, actor domain.Actor, userID string) ([]string, error)
}

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	_ MaintenanceServiceInterface = (*service.MaintenanceService)(nil)
	_ TeamServiceInterface        = (*service.TeamService)(nil)
)
