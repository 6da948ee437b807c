package policy

import (
	"fmt"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// StatusValidator decides whether a ticket may move from current to next.
// Stricter lifecycle graphs plug in here without touching the engine.
type StatusValidator interface {
	Validate(current, next domain.RequestStatus) error
}

// StatusValidatorFunc adapts a function to StatusValidator.
type StatusValidatorFunc func(current, next domain.RequestStatus) error

// Validate calls f.
func (f StatusValidatorFunc) Validate(current, next domain.RequestStatus) error {
	return f(current, next)
}

// PermissiveStatusValidator accepts any status string except a move back
// into NEW, which only creation may produce.
type PermissiveStatusValidator struct{}

// Validate implements StatusValidator.
func (PermissiveStatusValidator) Validate(current, next domain.RequestStatus) error {
	if next == domain.StatusNew && current != domain.StatusNew {
		return fmt.Errorf("cannot move request from %s back to %s", current, next)
	}
	return nil
}
