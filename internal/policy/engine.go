// Package policy decides who may create, read, update and assign maintenance
// requests. Decisions are pure apart from team membership lookups: the same
// actor, ticket snapshot and patch always yield the same outcome.
package policy

import (
	"context"
	"fmt"
	"strings"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// MembershipResolver answers team membership questions for technician scoping.
type MembershipResolver interface {
	IsMember(ctx context.Context, userID, teamID string) (bool, error)
	TeamsOf(ctx context.Context, userID string) ([]string, error)
}

// Scope is the read predicate for an actor expressed as a list filter.
type Scope struct {
	Kind    domain.ReadScope
	UserID  string
	TeamIDs []string
}

// Matches reports whether ticket falls inside the scope.
func (s Scope) Matches(ticket *domain.MaintenanceRequest) bool {
	switch s.Kind {
	case domain.ReadScopeAll:
		return true
	case domain.ReadScopeOwn:
		return ticket.CreatedByID == s.UserID
	case domain.ReadScopeTeams:
		if ticket.TeamID == nil {
			return false
		}
		for _, id := range s.TeamIDs {
			if id == *ticket.TeamID {
				return true
			}
		}
	}
	return false
}

// Engine evaluates authorization decisions. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	members  MembershipResolver
	statuses StatusValidator
}

// NewEngine builds an engine. A nil validator selects PermissiveStatusValidator.
func NewEngine(members MembershipResolver, statuses StatusValidator) *Engine {
	if statuses == nil {
		statuses = PermissiveStatusValidator{}
	}
	return &Engine{members: members, statuses: statuses}
}

// AuthorizeCreate validates a creation request and returns the request to
// insert. Only employees create, and always as themselves.
func (e *Engine) AuthorizeCreate(actor domain.Actor, payload CreatePayload) (*domain.MaintenanceRequest, error) {
	switch actor.Role {
	case domain.RoleEmployee:
	case domain.RoleTechnician, domain.RoleAdmin:
		return nil, deny(ReasonRoleNotPermitted, "Only employees can create maintenance requests")
	default:
		return nil, deny(ReasonRoleNotPermitted, "unknown role")
	}

	subject := strings.TrimSpace(payload.Subject)
	if subject == "" ||
		payload.MaintenanceFor == "" ||
		strings.TrimSpace(payload.MaintenanceType) == "" ||
		strings.TrimSpace(payload.CategoryID) == "" ||
		strings.TrimSpace(payload.Priority) == "" {
		return nil, deny(ReasonMissingFields, "Missing required fields")
	}

	equipmentID := nonEmpty(payload.EquipmentID)
	workCenterID := nonEmpty(payload.WorkCenterID)
	switch payload.MaintenanceFor {
	case domain.MaintenanceForEquipment:
		if equipmentID == nil {
			return nil, deny(ReasonInvalidTarget, "Invalid maintenance target")
		}
		workCenterID = nil
	case domain.MaintenanceForWorkCenter:
		if workCenterID == nil {
			return nil, deny(ReasonInvalidTarget, "Invalid maintenance target")
		}
		equipmentID = nil
	default:
		return nil, deny(ReasonInvalidTarget, "Invalid maintenance target")
	}

	return &domain.MaintenanceRequest{
		Subject:         subject,
		Description:     payload.Description,
		MaintenanceFor:  payload.MaintenanceFor,
		MaintenanceType: strings.TrimSpace(payload.MaintenanceType),
		EquipmentID:     equipmentID,
		WorkCenterID:    workCenterID,
		CategoryID:      strings.TrimSpace(payload.CategoryID),
		Priority:        strings.TrimSpace(payload.Priority),
		Status:          domain.StatusNew,
		CreatedByID:     actor.ID,
	}, nil
}

// AuthorizeRead reports whether actor may see ticket. The error is non-nil
// only when the membership lookup fails.
func (e *Engine) AuthorizeRead(ctx context.Context, actor domain.Actor, ticket *domain.MaintenanceRequest) (bool, error) {
	switch actor.Role {
	case domain.RoleEmployee:
		return ticket.CreatedByID == actor.ID, nil
	case domain.RoleTechnician:
		return e.inTeam(ctx, actor, ticket)
	case domain.RoleAdmin:
		return true, nil
	default:
		return false, nil
	}
}

// ReadScope returns the list filter equivalent to AuthorizeRead for actor.
func (e *Engine) ReadScope(ctx context.Context, actor domain.Actor) (Scope, error) {
	caps, ok := domain.CapabilitiesOf(actor.Role)
	if !ok {
		// Unknown roles see nothing.
		return Scope{Kind: domain.ReadScopeTeams, UserID: actor.ID}, nil
	}
	switch caps.ReadScope {
	case domain.ReadScopeOwn, domain.ReadScopeAll:
		return Scope{Kind: caps.ReadScope, UserID: actor.ID}, nil
	default:
		teams, err := e.members.TeamsOf(ctx, actor.ID)
		if err != nil {
			return Scope{}, fmt.Errorf("resolve teams: %w", err)
		}
		return Scope{Kind: domain.ReadScopeTeams, UserID: actor.ID, TeamIDs: teams}, nil
	}
}

// AuthorizeUpdate filters a general field update. It never infers a status
// change from an assignment. Team membership scopes reads only; technician
// writes are gated by the current assignee.
func (e *Engine) AuthorizeUpdate(_ context.Context, actor domain.Actor, ticket *domain.MaintenanceRequest, req RequestedPatch) (SanitizedPatch, error) {
	var out SanitizedPatch
	switch actor.Role {
	case domain.RoleEmployee:
		return SanitizedPatch{}, deny(ReasonRoleNotPermitted, "Employees cannot update maintenance requests")
	case domain.RoleTechnician:
		if ticket.IsAssigned() && !ticket.AssignedTo(actor.ID) {
			return SanitizedPatch{}, deny(ReasonAssignedToOther, "This request is assigned to another technician")
		}
		if req.selfAssign() {
			out.AssignedToID = domain.Some(actor.ID)
		}
		copyAllowed(req, TechnicianUpdateFields, &out)
		out.Guard = guardFor(ticket)
	case domain.RoleAdmin:
		copyAllowed(req, AdminUpdateFields, &out)
	default:
		return SanitizedPatch{}, deny(ReasonRoleNotPermitted, "unknown role")
	}

	if err := e.checkStatus(ticket, out); err != nil {
		return SanitizedPatch{}, err
	}
	return out, nil
}

// AuthorizeAssign filters a request on the assignment endpoint, the only path
// that moves a request to ASSIGNED.
func (e *Engine) AuthorizeAssign(_ context.Context, actor domain.Actor, ticket *domain.MaintenanceRequest, req RequestedPatch) (SanitizedPatch, error) {
	var out SanitizedPatch
	switch actor.Role {
	case domain.RoleEmployee:
		return SanitizedPatch{}, deny(ReasonRoleNotPermitted, "Employees cannot assign requests")
	case domain.RoleTechnician:
		if ticket.IsAssigned() && !ticket.AssignedTo(actor.ID) {
			return SanitizedPatch{}, deny(ReasonAssignedToOther, "Request already assigned to another technician")
		}
		if !req.selfAssign() {
			return SanitizedPatch{}, deny(ReasonSelfAssignOnly, "Technician can only assign themselves")
		}
		out.AssignedToID = domain.Some(actor.ID)
		out.Status = domain.Some(domain.StatusAssigned)
		out.Guard = guardFor(ticket)
	case domain.RoleAdmin:
		// Admins may hand the request to any technician; membership of the
		// assignee is not checked.
		copyAllowed(req, AdminAssignFields, &out)
		if out.AssignedToID.Set() {
			out.Status = domain.Some(domain.StatusAssigned)
		}
	default:
		return SanitizedPatch{}, deny(ReasonRoleNotPermitted, "unknown role")
	}

	if err := e.checkStatus(ticket, out); err != nil {
		return SanitizedPatch{}, err
	}
	return out, nil
}

func (e *Engine) inTeam(ctx context.Context, actor domain.Actor, ticket *domain.MaintenanceRequest) (bool, error) {
	if ticket.TeamID == nil || *ticket.TeamID == "" {
		return false, nil
	}
	ok, err := e.members.IsMember(ctx, actor.ID, *ticket.TeamID)
	if err != nil {
		return false, fmt.Errorf("check team membership: %w", err)
	}
	return ok, nil
}

func (e *Engine) checkStatus(ticket *domain.MaintenanceRequest, out SanitizedPatch) error {
	if !out.Status.Set() {
		return nil
	}
	if err := e.statuses.Validate(ticket.Status, out.Status.Value); err != nil {
		return deny(ReasonInvalidStatusTransition, err.Error())
	}
	return nil
}

func guardFor(ticket *domain.MaintenanceRequest) AssigneeGuard {
	guard := AssigneeGuard{Enabled: true}
	if ticket.IsAssigned() {
		id := *ticket.AssignedToID
		guard.AssignedToID = &id
	}
	return guard
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
