package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

// TeamService manages technician team membership. Membership changes take
// effect on the next authorization check.
type TeamService struct {
	members    repository.TeamMembershipRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// TeamDependencies bundles repositories for team management.
type TeamDependencies struct {
	MembershipRepo repository.TeamMembershipRepository
	UserRepo       repository.UserRepository
	Dispatcher     events.Dispatcher
}

// NewTeamService constructs the service.
func NewTeamService(deps TeamDependencies) *TeamService {
	return &TeamService{
		members:    deps.MembershipRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

func requireAdmin(actor domain.Actor) error {
	if actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("admin role required", nil)
	}
	return nil
}

// AddMember puts a technician on a team. Adding an existing member is a no-op.
func (s *TeamService) AddMember(ctx context.Context, actor domain.Actor, teamID, userID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if _, err := s.members.GetTeam(ctx, teamID); err != nil {
		return notFoundOr(err, "team", teamID)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return notFoundOr(err, "user", userID)
	}
	if user.Role != domain.RoleTechnician {
		return apperrors.NewValidationError("only technicians can join teams", map[string]any{"user_id": userID, "role": user.Role})
	}
	if err := s.members.Add(ctx, userID, teamID); err != nil {
		return fmt.Errorf("add team member: %w", err)
	}
	s.publish(ctx, events.EventTeamMemberAdded, actor, teamID, userID)
	return nil
}

// RemoveMember takes a user off a team. Removing a non-member is a no-op.
func (s *TeamService) RemoveMember(ctx context.Context, actor domain.Actor, teamID, userID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if _, err := s.members.GetTeam(ctx, teamID); err != nil {
		return notFoundOr(err, "team", teamID)
	}
	if err := s.members.Remove(ctx, userID, teamID); err != nil {
		return fmt.Errorf("remove team member: %w", err)
	}
	s.publish(ctx, events.EventTeamMemberGone, actor, teamID, userID)
	return nil
}

// TeamsOf lists the teams a user belongs to.
func (s *TeamService) TeamsOf(ctx context.Context, actor domain.Actor, userID string) ([]string, error) {
	if actor.ID != userID {
		if err := requireAdmin(actor); err != nil {
			return nil, err
		}
	}
	return s.members.TeamsOf(ctx, userID)
}

func (s *TeamService) publish(ctx context.Context, t events.EventType, actor domain.Actor, teamID, userID string) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Publish(ctx, events.Event{
		ID:        newEventID(),
		Type:      t,
		Actor:     eventActor(actor),
		Timestamp: now(),
		Payload:   events.TeamMemberPayload{UserID: userID, TeamID: teamID},
	})
}

func notFoundOr(err error, resource, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return fmt.Errorf("get %s: %w", resource, err)
}
