package service

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrNotFound means the reservation does not exist in this club.
	ErrNotFound = errors.New("reservation not found")
	// ErrUnauthorized means the caller may not act on this reservation.
	ErrUnauthorized = errors.New("not authorized for this reservation")
	// ErrNoTransition means the reservation exists but is not in a state
	// the requested transition applies to.
	ErrNoTransition = errors.New("reservation is not pending approval")
)

// ValidationError is a policy or shape problem with a booking request. It is
// deterministic: retrying the same request yields the same error.
type ValidationError struct {
	// VehicleID names the vehicle the problem applies to, when the problem
	// is vehicle-specific.
	VehicleID *uuid.UUID
	Reason    string
}

func (e *ValidationError) Error() string { return e.Reason }

// ValidationErrors aggregates every problem found in a single booking
// request, so a multi-vehicle caller can report them all at once.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Reason
	}
	return strings.Join(msgs, "; ")
}

// VehicleConflict pairs a conflict with the vehicle it was found on.
type VehicleConflict struct {
	VehicleID *uuid.UUID
	Conflict  Conflict
}

// ConflictError means the requested window is already occupied. RaceLost
// distinguishes a conflict discovered during the serialized commit, after
// the advisory pass came back clear, from one visible up front.
type ConflictError struct {
	Conflicts []VehicleConflict
	RaceLost  bool
}

func (e *ConflictError) Error() string {
	msgs := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		msgs[i] = c.Conflict.Message()
	}
	return strings.Join(msgs, "; ")
}

// IsConflict reports whether err is a ConflictError, returning it if so.
func IsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsValidation reports whether err is a validation failure, returning the
// aggregated reasons if so.
func IsValidation(err error) (ValidationErrors, bool) {
	var many ValidationErrors
	if errors.As(err, &many) {
		return many, true
	}
	var one *ValidationError
	if errors.As(err, &one) {
		return ValidationErrors{one}, true
	}
	return nil, false
}
