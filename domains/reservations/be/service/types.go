package service

import (
	"time"

	"github.com/google/uuid"
)

// Status enumerates the reservation lifecycle. Reservations are never
// deleted; cancellation is terminal and preserves history.
type Status string

const (
	StatusActive          Status = "active"
	StatusPendingApproval Status = "pending_approval"
	StatusCancelled       Status = "cancelled"
)

// Blocking reports whether a reservation in this status occupies its window
// for conflict purposes.
func (s Status) Blocking() bool {
	return s == StatusActive || s == StatusPendingApproval
}

// Reservation is one member's hold on a vehicle for a time window. VehicleID
// is nil in single-vehicle deployments. Start and end always fall on the same
// calendar date.
type Reservation struct {
	ID          uuid.UUID
	MemberID    uuid.UUID
	VehicleID   *uuid.UUID
	Date        time.Time
	Start       time.Time
	End         time.Time
	Status      Status
	Notes       string
	CreatedAt   time.Time
	CancelledAt *time.Time
}

// CalendarEntry is a reservation joined with its owner's display name, for
// the calendar feeds.
type CalendarEntry struct {
	Reservation
	MemberName     string
	MemberUsername string
}

// MemberUsage is one row of the usage stats report.
type MemberUsage struct {
	FullName  string
	Past      int
	Upcoming  int
	Total     int
	Cancelled int
}

// Conflict describes the party already occupying a requested window: either
// another member's reservation or a blackout period.
type Conflict struct {
	// MemberName is set when the conflicting party is a reservation.
	MemberName string
	// BlackoutReason is set when the conflicting party is a blackout.
	BlackoutReason string
	Start          time.Time
	End            time.Time
}

// IsBlackout reports whether the conflicting party is a blackout period.
func (c Conflict) IsBlackout() bool {
	return c.BlackoutReason != "" || c.MemberName == ""
}

// Message renders the member-facing description of the conflict.
func (c Conflict) Message() string {
	if c.IsBlackout() {
		if c.BlackoutReason == "" {
			return "That time falls within a blackout period."
		}
		return "That time falls within a blackout period: " + c.BlackoutReason + "."
	}
	return "That time overlaps with " + c.MemberName + "'s reservation."
}
