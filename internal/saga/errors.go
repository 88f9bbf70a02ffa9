package saga

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a saga ID is unknown to the store.
var ErrNotFound = errors.New("submission not found")

// ErrStopped is returned by Workflow calls after Run has returned.
var ErrStopped = errors.New("submission workflow stopped")

// Reasons carried by IllegalStateError.
const (
	ReasonNotStarted         = "submission not started"
	ReasonAlreadyStarted     = "submission already in progress"
	ReasonSummaryIncomplete  = "financial summary incomplete"
	ReasonCalculationPending = "calculation not complete"
	ReasonDeclarationMissing = "declaration incomplete"
	ReasonNotFailed          = "submission has not failed"
	ReasonSummaryLocked      = "financial summary can no longer be changed"
	ReasonNothingToResume    = "nothing to resume"
	ReasonOutcomeUnknown     = "submission outcome unknown; check your HMRC account before resubmitting"
)

// IllegalStateError explains why an operation is not allowed in the current state.
type IllegalStateError struct {
	Op     string
	State  State
	Reason string
}

func (e *IllegalStateError) Error() string {
	return fmt.Sprintf("Cannot %s: %s", e.Op, e.Reason)
}

func illegal(op string, state State, reason string) error {
	return &IllegalStateError{Op: op, State: state, Reason: reason}
}

// IsIllegalState reports whether err is an IllegalStateError.
func IsIllegalState(err error) bool {
	var target *IllegalStateError
	return errors.As(err, &target)
}
