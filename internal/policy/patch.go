package policy

import (
	"strings"
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// PatchField names a mutable maintenance request field.
type PatchField string

const (
	FieldTeamID        PatchField = "teamId"
	FieldAssignedToID  PatchField = "assignedToId"
	FieldStatus        PatchField = "status"
	FieldScheduledDate PatchField = "scheduledDate"
	FieldDurationHours PatchField = "durationHours"
)

// Allow-lists per role and operation. Requested fields outside the list are
// dropped without error. Technician self-assignment is driven by
// RequestedPatch.AssignToSelf, not by an assignedToId value.
var (
	TechnicianUpdateFields = []PatchField{FieldStatus, FieldScheduledDate, FieldDurationHours}
	AdminUpdateFields      = []PatchField{FieldTeamID, FieldAssignedToID, FieldStatus, FieldScheduledDate, FieldDurationHours}
	AdminAssignFields      = []PatchField{FieldTeamID, FieldAssignedToID}
)

// CreatePayload is the caller-supplied data for a new request.
type CreatePayload struct {
	Subject         string
	Description     string
	MaintenanceFor  domain.MaintenanceFor
	MaintenanceType string
	EquipmentID     *string
	WorkCenterID    *string
	CategoryID      string
	Priority        string
}

// RequestedPatch is the caller-supplied mutation. Only present fields count as
// requested.
type RequestedPatch struct {
	AssignToSelf  domain.Field[bool]
	TeamID        domain.Field[string]
	AssignedToID  domain.Field[string]
	Status        domain.Field[domain.RequestStatus]
	ScheduledDate domain.Field[time.Time]
	DurationHours domain.Field[float64]
}

func (p RequestedPatch) selfAssign() bool {
	return p.AssignToSelf.Set() && p.AssignToSelf.Value
}

// AssigneeGuard is a write precondition on the stored assignee. When Enabled,
// the store must apply the patch only if assigned_to_id still equals
// AssignedToID (nil meaning unassigned).
type AssigneeGuard struct {
	Enabled      bool
	AssignedToID *string
}

// SanitizedPatch is the subset of a requested mutation that survived policy
// filtering. It is safe to persist as-is.
type SanitizedPatch struct {
	TeamID        domain.Field[string]
	AssignedToID  domain.Field[string]
	Status        domain.Field[domain.RequestStatus]
	ScheduledDate domain.Field[time.Time]
	DurationHours domain.Field[float64]
	Guard         AssigneeGuard
}

// Fields lists the fields the patch writes, in a stable order.
func (p SanitizedPatch) Fields() []PatchField {
	var fields []PatchField
	if p.TeamID.Present {
		fields = append(fields, FieldTeamID)
	}
	if p.AssignedToID.Present {
		fields = append(fields, FieldAssignedToID)
	}
	if p.Status.Present {
		fields = append(fields, FieldStatus)
	}
	if p.ScheduledDate.Present {
		fields = append(fields, FieldScheduledDate)
	}
	if p.DurationHours.Present {
		fields = append(fields, FieldDurationHours)
	}
	return fields
}

// IsEmpty reports whether the patch writes nothing.
func (p SanitizedPatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// copyAllowed moves allow-listed fields from req into out. Empty strings and
// zero values count as absent; explicit null clears nullable fields. A null
// status is dropped since status is never empty.
func copyAllowed(req RequestedPatch, allowed []PatchField, out *SanitizedPatch) {
	for _, field := range allowed {
		switch field {
		case FieldTeamID:
			out.TeamID = nullableString(req.TeamID)
		case FieldAssignedToID:
			out.AssignedToID = nullableString(req.AssignedToID)
		case FieldStatus:
			if req.Status.Set() && strings.TrimSpace(string(req.Status.Value)) != "" {
				out.Status = domain.Some(domain.RequestStatus(strings.TrimSpace(string(req.Status.Value))))
			}
		case FieldScheduledDate:
			switch {
			case req.ScheduledDate.Present && req.ScheduledDate.Null:
				out.ScheduledDate = domain.Null[time.Time]()
			case req.ScheduledDate.Set() && !req.ScheduledDate.Value.IsZero():
				out.ScheduledDate = domain.Some(req.ScheduledDate.Value.UTC())
			}
		case FieldDurationHours:
			switch {
			case req.DurationHours.Present && req.DurationHours.Null:
				out.DurationHours = domain.Null[float64]()
			case req.DurationHours.Set() && req.DurationHours.Value != 0:
				out.DurationHours = domain.Some(req.DurationHours.Value)
			}
		}
	}
}

func nullableString(f domain.Field[string]) domain.Field[string] {
	switch {
	case f.Present && f.Null:
		return domain.Null[string]()
	case f.Set() && strings.TrimSpace(f.Value) != "":
		return domain.Some(strings.TrimSpace(f.Value))
	}
	return domain.Field[string]{}
}
