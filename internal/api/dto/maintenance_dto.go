package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/policy"
)

// CreateMaintenanceRequest payload.
type CreateMaintenanceRequest struct {
	Subject         string                `json:"subject"`
	Description     string                `json:"description"`
	MaintenanceFor  domain.MaintenanceFor `json:"maintenanceFor"`
	MaintenanceType string                `json:"maintenanceType"`
	EquipmentID     *string               `json:"equipmentId"`
	WorkCenterID    *string               `json:"workCenterId"`
	CategoryID      string                `json:"categoryId"`
	Priority        string                `json:"priority"`
}

// ToPayload converts the body into the policy input.
func (r CreateMaintenanceRequest) ToPayload() policy.CreatePayload {
	return policy.CreatePayload{
		Subject:         r.Subject,
		Description:     r.Description,
		MaintenanceFor:  domain.MaintenanceFor(strings.TrimSpace(string(r.MaintenanceFor))),
		MaintenanceType: r.MaintenanceType,
		EquipmentID:     r.EquipmentID,
		WorkCenterID:    r.WorkCenterID,
		CategoryID:      r.CategoryID,
		Priority:        r.Priority,
	}
}

// PatchMaintenanceRequest is shared by the update and assign endpoints. Keys
// absent from the body stay absent; explicit nulls are kept as nulls.
type PatchMaintenanceRequest struct {
	AssignToSelf  domain.Field[bool]                 `json:"assignToSelf"`
	TeamID        domain.Field[string]               `json:"teamId"`
	AssignedToID  domain.Field[string]               `json:"assignedToId"`
	Status        domain.Field[domain.RequestStatus] `json:"status"`
	ScheduledDate domain.Field[Date]                 `json:"scheduledDate"`
	DurationHours domain.Field[float64]              `json:"durationHours"`
}

// ToPatch converts the body into the policy input.
func (r PatchMaintenanceRequest) ToPatch() policy.RequestedPatch {
	patch := policy.RequestedPatch{
		AssignToSelf:  r.AssignToSelf,
		TeamID:        r.TeamID,
		AssignedToID:  r.AssignedToID,
		Status:        r.Status,
		DurationHours: r.DurationHours,
	}
	switch {
	case r.ScheduledDate.Present && r.ScheduledDate.Null:
		patch.ScheduledDate = domain.Null[time.Time]()
	case r.ScheduledDate.Set():
		patch.ScheduledDate = domain.Some(r.ScheduledDate.Value.Time)
	}
	return patch
}

// Date accepts RFC3339 timestamps or plain YYYY-MM-DD dates. An empty string
// decodes to the zero time.
type Date struct {
	time.Time
}

const dateOnly = "2006-01-02"

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		d.Time = time.Time{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(dateOnly, raw)
	if err != nil {
		return fmt.Errorf("invalid date %q", raw)
	}
	d.Time = t
	return nil
}

// MaintenanceRequestResponse is the wire form of a request.
type MaintenanceRequestResponse struct {
	ID              string                `json:"id"`
	Subject         string                `json:"subject"`
	Description     string                `json:"description"`
	MaintenanceFor  domain.MaintenanceFor `json:"maintenanceFor"`
	MaintenanceType string                `json:"maintenanceType"`
	EquipmentID     *string               `json:"equipmentId"`
	WorkCenterID    *string               `json:"workCenterId"`
	CategoryID      string                `json:"categoryId"`
	Priority        string                `json:"priority"`
	Status          domain.RequestStatus  `json:"status"`
	TeamID          *string               `json:"teamId"`
	AssignedToID    *string               `json:"assignedToId"`
	ScheduledDate   *time.Time            `json:"scheduledDate"`
	DurationHours   *float64              `json:"durationHours"`
	CreatedByID     string                `json:"createdById"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

// NewMaintenanceRequestResponse maps a domain request.
func NewMaintenanceRequestResponse(req *domain.MaintenanceRequest) MaintenanceRequestResponse {
	return MaintenanceRequestResponse{
		ID:              req.ID,
		Subject:         req.Subject,
		Description:     req.Description,
		MaintenanceFor:  req.MaintenanceFor,
		MaintenanceType: req.MaintenanceType,
		EquipmentID:     req.EquipmentID,
		WorkCenterID:    req.WorkCenterID,
		CategoryID:      req.CategoryID,
		Priority:        req.Priority,
		Status:          req.Status,
		TeamID:          req.TeamID,
		AssignedToID:    req.AssignedToID,
		ScheduledDate:   req.ScheduledDate,
		DurationHours:   req.DurationHours,
		CreatedByID:     req.CreatedByID,
		CreatedAt:       req.CreatedAt,
		UpdatedAt:       req.UpdatedAt,
	}
}

// ListQuery captures query filters for the list endpoint.
type ListQuery struct {
	Statuses []domain.RequestStatus
	Page     int
	PageSize int
}

// TeamMemberResponse acknowledges a membership change.
type TeamMemberResponse struct {
	TeamID string `json:"teamId"`
	UserID string `json:"userId"`
	Member bool   `json:"member"`
}

// TeamsResponse lists a user's teams.
type TeamsResponse struct {
	UserID  string   `json:"userId"`
	TeamIDs []string `json:"teamIds"`
}
