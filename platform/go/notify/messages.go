package notify

import (
	"fmt"
	"time"
)

// Messages builds the notification copy for one club. AppURL points at the
// club's member-facing site; ClubName signs each message.
type Messages struct {
	ClubName    string
	VehicleNoun string // "boat" or "aircraft"
	AppURL      string
}

func (m Messages) signoff() string {
	return fmt.Sprintf("— %s", m.ClubName)
}

func longDate(d time.Time) string {
	return d.Format("Monday, January 2, 2006")
}

func clock(t time.Time) string {
	return t.Format("3:04 PM")
}

// ReservationConfirmed is sent after a booking commits in active status.
func (m Messages) ReservationConfirmed(to Contact, start, end time.Time) (string, string) {
	subject := fmt.Sprintf("Reservation Confirmed — %s", longDate(start))
	body := fmt.Sprintf(
		"Hi %s,\n\nYour %s reservation is confirmed:\n\n  Date: %s\n  Time: %s – %s\n\nManage your trips at: %s\n\n%s",
		to.FullName, m.VehicleNoun, longDate(start), clock(start), clock(end), m.AppURL, m.signoff(),
	)
	return subject, body
}

// ReservationCancelled is sent after a cancellation commits.
func (m Messages) ReservationCancelled(to Contact, date time.Time) (string, string) {
	subject := fmt.Sprintf("Reservation Cancelled — %s", longDate(date))
	body := fmt.Sprintf(
		"Hi %s,\n\nYour reservation for %s has been cancelled.\n\nBook again at: %s\n\n%s",
		to.FullName, longDate(date), m.AppURL, m.signoff(),
	)
	return subject, body
}

// ReservationApproved is sent when an admin approves a pending reservation.
func (m Messages) ReservationApproved(to Contact, start, end time.Time) (string, string) {
	subject := fmt.Sprintf("Reservation Approved — %s", longDate(start))
	body := fmt.Sprintf(
		"Hi %s,\n\nYour reservation request has been approved!\n\n  Date: %s\n  Time: %s – %s\n\nView it at: %s\n\n%s",
		to.FullName, longDate(start), clock(start), clock(end), m.AppURL, m.signoff(),
	)
	return subject, body
}

// ApprovalNeeded is sent to each admin when a booking lands in pending_approval.
func (m Messages) ApprovalNeeded(memberName string, date time.Time) (string, string) {
	subject := fmt.Sprintf("Approval Needed — %s", memberName)
	body := fmt.Sprintf(
		"A reservation request is waiting for approval:\n\n  Member: %s\n  Date:   %s\n\nReview at: %s/admin/approvals\n\n%s",
		memberName, longDate(date), m.AppURL, m.signoff(),
	)
	return subject, body
}

// WaitlistAvailable is sent to a waitlisted member once their desired date
// opens up.
func (m Messages) WaitlistAvailable(to Contact, desiredDate time.Time) (string, string) {
	subject := fmt.Sprintf("%s Available — %s", capitalize(m.VehicleNoun), longDate(desiredDate))
	body := fmt.Sprintf(
		"Hi %s,\n\nGood news! The %s is now available on %s.\n\nBook now (before someone else does):\n%s/reserve/%s\n\n%s",
		to.FullName, m.VehicleNoun, longDate(desiredDate), m.AppURL, desiredDate.Format("2006-01-02"), m.signoff(),
	)
	return subject, body
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-('a'-'A')) + s[1:]
	}
	return s
}
