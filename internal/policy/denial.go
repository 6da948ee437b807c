package policy

import "errors"

// DenyReason names why a requested operation was refused.
type DenyReason string

const (
	ReasonRoleNotPermitted        DenyReason = "RoleNotPermitted"
	ReasonAssignedToOther         DenyReason = "AssignedToOther"
	ReasonSelfAssignOnly          DenyReason = "SelfAssignOnly"
	ReasonMissingFields           DenyReason = "MissingFields"
	ReasonInvalidTarget           DenyReason = "InvalidTarget"
	ReasonInvalidStatusTransition DenyReason = "InvalidStatusTransition"
)

// InvalidInput reports whether the reason stems from a malformed creation
// payload rather than from the actor's permissions.
func (r DenyReason) InvalidInput() bool {
	return r == ReasonMissingFields || r == ReasonInvalidTarget
}

// Denial is the expected negative outcome of a decision. It is returned as an
// error value and never raised as a panic.
type Denial struct {
	Reason  DenyReason
	Message string
}

func (d *Denial) Error() string {
	return string(d.Reason) + ": " + d.Message
}

func deny(reason DenyReason, message string) *Denial {
	return &Denial{Reason: reason, Message: message}
}

// AsDenial extracts a Denial from err.
func AsDenial(err error) (*Denial, bool) {
	var d *Denial
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}
