package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/observability"
	"github.com/spec-kit/maintenance-service/internal/policy"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

// maxWriteAttempts bounds re-decisions after a lost assignee race.
const maxWriteAttempts = 3

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// MaintenanceService coordinates maintenance request workflows: fetch,
// decide, conditionally persist.
type MaintenanceService struct {
	requests   repository.MaintenanceRequestRepository
	engine     *policy.Engine
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// MaintenanceDependencies bundles collaborators for the service.
type MaintenanceDependencies struct {
	RequestRepo    repository.MaintenanceRequestRepository
	MembershipRepo policy.MembershipResolver
	// StatusValidator is optional; nil keeps the permissive lifecycle.
	StatusValidator policy.StatusValidator
	Dispatcher      events.Dispatcher
	Metrics         *observability.Metrics
	Logger          *zap.Logger
}

// ListFilter describes a page of the caller's visible requests.
type ListFilter struct {
	Statuses []domain.RequestStatus
	Page     int
	PageSize int
}

// Normalize returns the filter with the page and page size List applies.
func (f ListFilter) Normalize() ListFilter {
	if f.PageSize <= 0 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
	if f.Page < 1 {
		f.Page = 1
	}
	return f
}

// NewMaintenanceService constructs the service.
func NewMaintenanceService(deps MaintenanceDependencies) *MaintenanceService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaintenanceService{
		requests:   deps.RequestRepo,
		engine:     policy.NewEngine(deps.MembershipRepo, deps.StatusValidator),
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// Create stores a new request on behalf of an employee.
func (s *MaintenanceService) Create(ctx context.Context, actor domain.Actor, payload policy.CreatePayload) (*domain.MaintenanceRequest, error) {
	req, err := s.engine.AuthorizeCreate(actor, payload)
	if err != nil {
		return nil, s.denied(ctx, "create", actor, "", err)
	}
	s.metrics.RecordDecision("create", "allow")

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create maintenance request: %w", err)
	}
	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestCreated,
		RequestID: req.ID,
		Actor:     eventActor(actor),
		Payload: events.RequestCreatedPayload{
			MaintenanceFor: req.MaintenanceFor,
			Priority:       req.Priority,
			Subject:        req.Subject,
		},
	})
	return req, nil
}

// Get returns a request the actor may read. Existence is checked before
// authorization.
func (s *MaintenanceService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.MaintenanceRequest, error) {
	ticket, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.engine.AuthorizeRead(ctx, actor, ticket)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.metrics.RecordDecision("read", "forbidden")
		return nil, apperrors.NewForbidden("Forbidden", nil)
	}
	s.metrics.RecordDecision("read", "allow")
	return ticket, nil
}

// List returns the actor's visible requests, newest first.
func (s *MaintenanceService) List(ctx context.Context, actor domain.Actor, filter ListFilter) ([]domain.MaintenanceRequest, error) {
	scope, err := s.engine.ReadScope(ctx, actor)
	if err != nil {
		return nil, err
	}

	filter = filter.Normalize()
	repoFilter := repository.MaintenanceRequestFilter{
		Statuses: filter.Statuses,
		Limit:    filter.PageSize,
		Offset:   (filter.Page - 1) * filter.PageSize,
	}
	switch scope.Kind {
	case domain.ReadScopeOwn:
		repoFilter.CreatedByID = &scope.UserID
	case domain.ReadScopeTeams:
		repoFilter.RestrictTeams = true
		repoFilter.TeamIDs = scope.TeamIDs
	case domain.ReadScopeAll:
	}
	return s.requests.List(ctx, repoFilter)
}

// Update applies a general field update.
func (s *MaintenanceService) Update(ctx context.Context, actor domain.Actor, id string, req policy.RequestedPatch) (*domain.MaintenanceRequest, error) {
	return s.mutate(ctx, "update", actor, id, req, s.engine.AuthorizeUpdate)
}

// Assign applies an assignment request.
func (s *MaintenanceService) Assign(ctx context.Context, actor domain.Actor, id string, req policy.RequestedPatch) (*domain.MaintenanceRequest, error) {
	return s.mutate(ctx, "assign", actor, id, req, s.engine.AuthorizeAssign)
}

type decideFunc func(context.Context, domain.Actor, *domain.MaintenanceRequest, policy.RequestedPatch) (policy.SanitizedPatch, error)

// mutate runs fetch, decide and a conditional write. When the stored assignee
// moved under a guarded write the decision is re-run against fresh state, so
// the loser of a race ends with a denial rather than an overwrite.
func (s *MaintenanceService) mutate(ctx context.Context, op string, actor domain.Actor, id string, req policy.RequestedPatch, decide decideFunc) (*domain.MaintenanceRequest, error) {
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		ticket, err := s.fetch(ctx, id)
		if err != nil {
			return nil, err
		}

		patch, err := decide(ctx, actor, ticket, req)
		if err != nil {
			return nil, s.denied(ctx, op, actor, ticket.ID, err)
		}
		s.metrics.RecordDecision(op, "allow")

		if patch.IsEmpty() {
			return ticket, nil
		}

		updated, err := s.requests.ApplyPatch(ctx, ticket.ID, patch)
		if errors.Is(err, repository.ErrConditionNotMet) {
			s.metrics.RecordGuardRetry()
			s.logger.Warn("assignee changed during write; re-evaluating",
				zap.String("request_id", ticket.ID),
				zap.String("actor_id", actor.ID),
				zap.Int("attempt", attempt),
			)
			continue
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("maintenance request", map[string]any{"id": id})
		}
		if err != nil {
			return nil, fmt.Errorf("apply patch: %w", err)
		}

		s.publishChange(ctx, op, actor, ticket, updated, patch)
		return updated, nil
	}

	return nil, apperrors.NewConflict("maintenance request changed concurrently, retry the request", map[string]any{"id": id})
}

func (s *MaintenanceService) fetch(ctx context.Context, id string) (*domain.MaintenanceRequest, error) {
	ticket, err := s.requests.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound("maintenance request", map[string]any{"id": id})
	}
	if err != nil {
		return nil, fmt.Errorf("get maintenance request: %w", err)
	}
	return ticket, nil
}

// denied converts a policy denial into a DomainError carrying the reason.
// Other errors, such as membership lookup failures, pass through.
func (s *MaintenanceService) denied(ctx context.Context, op string, actor domain.Actor, requestID string, err error) error {
	d, ok := policy.AsDenial(err)
	if !ok {
		return err
	}

	s.metrics.RecordDecision(op, string(d.Reason))
	s.logger.Debug("request denied",
		zap.String("operation", op),
		zap.String("actor_id", actor.ID),
		zap.String("role", string(actor.Role)),
		zap.String("request_id", requestID),
		zap.String("reason", string(d.Reason)),
	)
	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestDenied,
		RequestID: requestID,
		Actor:     eventActor(actor),
		Payload:   events.RequestDeniedPayload{Operation: op, Reason: string(d.Reason)},
	})

	details := map[string]any{"reason": string(d.Reason)}
	if d.Reason.InvalidInput() {
		return apperrors.NewValidationError(d.Message, details)
	}
	return apperrors.NewForbidden(d.Message, details)
}

func (s *MaintenanceService) publishChange(ctx context.Context, op string, actor domain.Actor, before, after *domain.MaintenanceRequest, patch policy.SanitizedPatch) {
	if op == "assign" || patch.AssignedToID.Present {
		s.publishEvent(ctx, events.Event{
			Type:      events.EventRequestAssigned,
			RequestID: after.ID,
			Actor:     eventActor(actor),
			Payload: events.RequestAssignedPayload{
				PreviousAssigneeID: before.AssignedToID,
				AssigneeID:         after.AssignedToID,
				TeamID:             after.TeamID,
			},
		})
		if op == "assign" {
			return
		}
	}

	fields := make([]string, 0, len(patch.Fields()))
	for _, f := range patch.Fields() {
		fields = append(fields, string(f))
	}
	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestUpdated,
		RequestID: after.ID,
		Actor:     eventActor(actor),
		Payload: events.RequestUpdatedPayload{
			Fields:    fields,
			OldStatus: before.Status,
			NewStatus: after.Status,
		},
	})
}

func (s *MaintenanceService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = newEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = now()
	}
	s.dispatcher.Publish(ctx, event)
}

func newEventID() string { return uuid.NewString() }

func now() time.Time { return time.Now().UTC() }

func eventActor(actor domain.Actor) events.Actor {
	return events.Actor{UserID: actor.ID, Role: actor.Role}
}
