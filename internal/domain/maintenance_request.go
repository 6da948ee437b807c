package domain

import "time"

// RequestStatus is the lifecycle state of a maintenance request. Values other
// than the constants below are accepted from technicians and admins.
type RequestStatus string

const (
	StatusNew        RequestStatus = "NEW"
	StatusAssigned   RequestStatus = "ASSIGNED"
	StatusInProgress RequestStatus = "IN_PROGRESS"
	StatusCompleted  RequestStatus = "COMPLETED"
	StatusCancelled  RequestStatus = "CANCELLED"
)

// MaintenanceFor selects what the request targets.
type MaintenanceFor string

const (
	MaintenanceForEquipment  MaintenanceFor = "EQUIPMENT"
	MaintenanceForWorkCenter MaintenanceFor = "WORK_CENTER"
)

// Valid reports whether m is a known target kind.
func (m MaintenanceFor) Valid() bool {
	return m == MaintenanceForEquipment || m == MaintenanceForWorkCenter
}

// MaintenanceRequest is the ticket aggregate. Exactly one of EquipmentID and
// WorkCenterID is set, matching MaintenanceFor.
type MaintenanceRequest struct {
	ID              string
	Subject         string
	Description     string
	MaintenanceFor  MaintenanceFor
	MaintenanceType string
	EquipmentID     *string
	WorkCenterID    *string
	CategoryID      string
	Priority        string
	Status          RequestStatus
	TeamID          *string
	AssignedToID    *string
	ScheduledDate   *time.Time
	DurationHours   *float64
	CreatedByID     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsAssigned reports whether a technician holds the request.
func (r *MaintenanceRequest) IsAssigned() bool {
	return r.AssignedToID != nil && *r.AssignedToID != ""
}

// AssignedTo reports whether userID holds the request.
func (r *MaintenanceRequest) AssignedTo(userID string) bool {
	return r.IsAssigned() && *r.AssignedToID == userID
}
