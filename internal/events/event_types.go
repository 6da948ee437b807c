package events

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated  EventType = "maintenance_request.created"
	EventRequestUpdated  EventType = "maintenance_request.updated"
	EventRequestAssigned EventType = "maintenance_request.assigned"
	EventRequestDenied   EventType = "maintenance_request.denied"
	EventTeamMemberAdded EventType = "team_member.added"
	EventTeamMemberGone  EventType = "team_member.removed"
)

// Actor identifies who triggered an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RequestID string      `json:"request_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	MaintenanceFor domain.MaintenanceFor `json:"maintenance_for"`
	Priority       string                `json:"priority"`
	Subject        string                `json:"subject"`
}

// RequestUpdatedPayload lists the fields written by an update.
type RequestUpdatedPayload struct {
	Fields    []string             `json:"fields"`
	OldStatus domain.RequestStatus `json:"old_status"`
	NewStatus domain.RequestStatus `json:"new_status"`
}

// RequestAssignedPayload payload.
type RequestAssignedPayload struct {
	PreviousAssigneeID *string `json:"previous_assignee_id,omitempty"`
	AssigneeID         *string `json:"assignee_id,omitempty"`
	TeamID             *string `json:"team_id,omitempty"`
}

// RequestDeniedPayload payload.
type RequestDeniedPayload struct {
	Operation string `json:"operation"`
	Reason    string `json:"reason"`
}

// TeamMemberPayload payload.
type TeamMemberPayload struct {
	UserID string `json:"user_id"`
	TeamID string `json:"team_id"`
}
