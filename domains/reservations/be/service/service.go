// Package service implements the reservation engine: conflict-checked,
// limit-governed booking with an approval workflow, cancellation, calendar
// feeds and usage stats. All writes go through a per-club serialized commit
// so concurrent requests for the same window resolve to exactly one winner.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	fleetservice "github.com/clubreserve/clubreserve/domains/fleet/be/service"
	membersservice "github.com/clubreserve/clubreserve/domains/members/be/service"
	settingsservice "github.com/clubreserve/clubreserve/domains/settings/be/service"
	"github.com/clubreserve/clubreserve/platform/go/club"
	"github.com/clubreserve/clubreserve/platform/go/metrics"
	"github.com/clubreserve/clubreserve/platform/go/notify"
	"github.com/clubreserve/clubreserve/platform/go/persistence"
)

// Repository abstracts the per-club reservations table. FindOverlap is the
// advisory check; CreateAll is the serialized commit that re-checks inside
// the club's booking lock before inserting, all rows or none.
type Repository interface {
	FindOverlap(ctx context.Context, db *persistence.Handle, vehicleID *uuid.UUID, start, end time.Time) (*Conflict, error)
	CountBlocking(ctx context.Context, db *persistence.Handle, memberID uuid.UUID, from time.Time) (int, error)
	BlockingDates(ctx context.Context, db *persistence.Handle, memberID uuid.UUID, from time.Time) ([]time.Time, error)
	CreateAll(ctx context.Context, db *persistence.Handle, rs []Reservation) error
	Get(ctx context.Context, db *persistence.Handle, id uuid.UUID) (Reservation, error)
	Cancel(ctx context.Context, db *persistence.Handle, id uuid.UUID, at time.Time) (bool, error)
	Transition(ctx context.Context, db *persistence.Handle, id uuid.UUID, from, to Status, at time.Time) (bool, error)
	ListRange(ctx context.Context, db *persistence.Handle, from, to time.Time) ([]CalendarEntry, error)
	UsageStats(ctx context.Context, db *persistence.Handle, now time.Time) ([]MemberUsage, error)
}

// MemberDirectory is the slice of the members domain the engine needs.
type MemberDirectory interface {
	Get(ctx context.Context, db *persistence.Handle, id uuid.UUID) (membersservice.Member, error)
	ListAdmins(ctx context.Context, db *persistence.Handle) ([]membersservice.Member, error)
}

// SettingsSource loads the club's booking rule parameters.
type SettingsSource interface {
	Load(ctx context.Context, db *persistence.Handle) (settingsservice.Settings, error)
}

// VehicleDirectory is the slice of the fleet domain the engine needs.
type VehicleDirectory interface {
	GetVehicle(ctx context.Context, db *persistence.Handle, id uuid.UUID) (fleetservice.Vehicle, error)
	ListVehicles(ctx context.Context, db *persistence.Handle, activeOnly bool) ([]fleetservice.Vehicle, error)
}

// CancellationListener is told, after commit, that a date gained capacity.
// The waitlist coordinator implements it.
type CancellationListener interface {
	OnCancellation(ctx context.Context, cc club.Context, date time.Time)
}

// Actor identifies who is performing an operation, for authorization.
type Actor struct {
	MemberID uuid.UUID
	IsAdmin  bool
}

// BookInput is one booking request. VehicleIDs is empty in single-vehicle
// deployments and names one or more vehicles otherwise; a multi-vehicle
// request commits all reservations or none.
type BookInput struct {
	MemberID   uuid.UUID
	VehicleIDs []uuid.UUID
	Start      time.Time
	End        time.Time
	Notes      string
}

// CancelOutcome reports what a cancel call did. Cancellation is idempotent:
// repeating it is not an error, but only the first call frees the window.
type CancelOutcome struct {
	Reservation      Reservation
	AlreadyCancelled bool
}

// Config collects the engine's collaborators.
type Config struct {
	Repo     Repository
	Members  MemberDirectory
	Settings SettingsSource
	Fleet    VehicleDirectory
	Sender   notify.Sender
	Metrics  *metrics.Engine
	Logger   *zap.Logger
	// BaseDomain builds member-facing links: https://<subdomain>.<BaseDomain>.
	BaseDomain string
	// Waitlist is optional; when nil, cancellations notify nobody.
	Waitlist CancellationListener
	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// Service is the reservation engine.
type Service struct {
	repo     Repository
	members  MemberDirectory
	settings SettingsSource
	fleet    VehicleDirectory
	sender   notify.Sender
	metrics  *metrics.Engine
	logger   *zap.Logger
	base     string
	waitlist CancellationListener
	now      func() time.Time
}

// New constructs the engine. Everything except Waitlist is required.
func New(cfg Config) *Service {
	switch {
	case cfg.Repo == nil:
		panic("reservations repo is required")
	case cfg.Members == nil:
		panic("member directory is required")
	case cfg.Settings == nil:
		panic("settings source is required")
	case cfg.Fleet == nil:
		panic("vehicle directory is required")
	case cfg.Sender == nil:
		panic("notification sender is required")
	case cfg.Metrics == nil:
		panic("metrics engine is required")
	case cfg.Logger == nil:
		panic("logger is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		repo:     cfg.Repo,
		members:  cfg.Members,
		settings: cfg.Settings,
		fleet:    cfg.Fleet,
		sender:   cfg.Sender,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		base:     cfg.BaseDomain,
		waitlist: cfg.Waitlist,
		now:      cfg.Now,
	}
}

// SetCancellationListener wires the waitlist coordinator after construction.
func (s *Service) SetCancellationListener(l CancellationListener) { s.waitlist = l }

func (s *Service) messages(c club.Club) notify.Messages {
	return notify.Messages{
		ClubName:    c.Name,
		VehicleNoun: c.VehicleType.Noun(),
		AppURL:      fmt.Sprintf("https://%s.%s", c.Subdomain, s.base),
	}
}

// Book validates and commits a reservation request. Validation (window
// shape, member limits, advisory overlap scan) happens outside the club's
// booking lock; the lock is held only for the authoritative re-check and
// insert, so losing a race returns a ConflictError with RaceLost set rather
// than a double booking.
func (s *Service) Book(ctx context.Context, cc club.Context, in BookInput) ([]Reservation, error) {
	now := s.now()

	member, err := s.members.Get(ctx, cc.DB, in.MemberID)
	if err != nil {
		return nil, fmt.Errorf("load member: %w", err)
	}
	st, err := s.settings.Load(ctx, cc.DB)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	limits := LimitsFor(st, member)

	var problems ValidationErrors
	problems = append(problems, s.checkWindow(in, limits, now)...)

	// Vehicle set: explicit ids, or a single nil slot for single-vehicle
	// deployments.
	slots := make([]*uuid.UUID, 0, len(in.VehicleIDs))
	if len(in.VehicleIDs) == 0 {
		slots = append(slots, nil)
	} else {
		seen := make(map[uuid.UUID]struct{}, len(in.VehicleIDs))
		for _, id := range in.VehicleIDs {
			if _, dup := seen[id]; dup {
				problems = append(problems, &ValidationError{Reason: "the same vehicle is listed twice"})
				continue
			}
			seen[id] = struct{}{}
			id := id
			slots = append(slots, &id)
		}
		for _, vid := range slots {
			v, err := s.fleet.GetVehicle(ctx, cc.DB, *vid)
			if err != nil {
				problems = append(problems, &ValidationError{VehicleID: vid, Reason: "that vehicle does not exist"})
				continue
			}
			if !v.IsActive {
				problems = append(problems, &ValidationError{VehicleID: vid, Reason: v.Name + " is not available for booking"})
			}
		}
	}

	// Member limits. The whole request counts against the pending cap, so a
	// two-vehicle booking needs two free slots.
	pending, err := s.repo.CountBlocking(ctx, cc.DB, member.ID, now)
	if err != nil {
		return nil, fmt.Errorf("count pending: %w", err)
	}
	if pending+len(slots) > limits.MaxPending {
		problems = append(problems, &ValidationError{
			Reason: fmt.Sprintf("you already have %d upcoming reservations (limit %d)", pending, limits.MaxPending),
		})
	}
	dates, err := s.repo.BlockingDates(ctx, cc.DB, member.ID, now)
	if err != nil {
		return nil, fmt.Errorf("load reservation dates: %w", err)
	}
	if ViolatesRun(append(dates, in.Start), limits.MaxConsecutiveDays) {
		problems = append(problems, &ValidationError{
			Reason: fmt.Sprintf("that booking would exceed %d consecutive days", limits.MaxConsecutiveDays),
		})
	}

	if len(problems) > 0 {
		s.metrics.BookingsRejected.Inc()
		return nil, problems
	}

	// Advisory overlap scan, outside the lock. Catches most conflicts early
	// and cheaply; the commit re-checks under the lock.
	var conflicts []VehicleConflict
	for _, vid := range slots {
		c, err := s.repo.FindOverlap(ctx, cc.DB, vid, in.Start, in.End)
		if err != nil {
			return nil, fmt.Errorf("overlap scan: %w", err)
		}
		if c != nil {
			conflicts = append(conflicts, VehicleConflict{VehicleID: vid, Conflict: *c})
		}
	}
	if len(conflicts) > 0 {
		s.metrics.BookingConflicts.WithLabelValues("advisory").Inc()
		return nil, &ConflictError{Conflicts: conflicts}
	}

	status := StatusActive
	if st.ApprovalRequired() {
		status = StatusPendingApproval
	}
	rs := make([]Reservation, len(slots))
	for i, vid := range slots {
		rs[i] = Reservation{
			ID:        uuid.New(),
			MemberID:  member.ID,
			VehicleID: vid,
			Date:      dayOf(in.Start),
			Start:     in.Start,
			End:       in.End,
			Status:    status,
			Notes:     in.Notes,
			CreatedAt: now,
		}
	}
	if err := s.repo.CreateAll(ctx, cc.DB, rs); err != nil {
		if ce, ok := IsConflict(err); ok {
			s.metrics.BookingConflicts.WithLabelValues("commit").Inc()
			ce.RaceLost = true
			return nil, ce
		}
		return nil, fmt.Errorf("commit booking: %w", err)
	}
	s.metrics.BookingsGranted.Inc()
	s.logger.Info("booking committed",
		zap.String("member_id", member.ID.String()),
		zap.Time("start", in.Start),
		zap.Time("end", in.End),
		zap.Int("vehicles", len(rs)),
		zap.String("status", string(status)),
	)

	msgs := s.messages(cc.Club)
	if status == StatusPendingApproval {
		s.notifyAdmins(ctx, cc, msgs, member.FullName, in.Start)
	} else {
		subject, body := msgs.ReservationConfirmed(contact(member), in.Start, in.End)
		s.send(contact(member), subject, body)
	}
	return rs, nil
}

// checkWindow validates the shape of the requested window against the
// member's effective limits. Pure with respect to storage.
func (s *Service) checkWindow(in BookInput, limits Limits, now time.Time) ValidationErrors {
	var problems ValidationErrors
	if !in.End.After(in.Start) {
		problems = append(problems, &ValidationError{Reason: "end time must be after start time"})
		return problems
	}
	if !dayOf(in.Start).Equal(dayOf(in.End)) {
		problems = append(problems, &ValidationError{Reason: "reservations cannot cross midnight"})
	}
	if !in.Start.After(now) {
		problems = append(problems, &ValidationError{Reason: "reservations must start in the future"})
	}
	if dayOf(in.Start).After(dayOf(now).AddDate(0, 0, limits.MaxAdvanceDays)) {
		problems = append(problems, &ValidationError{
			Reason: fmt.Sprintf("reservations can be made at most %d days in advance", limits.MaxAdvanceDays),
		})
	}
	d := in.End.Sub(in.Start)
	if d < time.Duration(limits.MinHours)*time.Hour {
		problems = append(problems, &ValidationError{
			Reason: fmt.Sprintf("reservations must be at least %d hours", limits.MinHours),
		})
	}
	if d > time.Duration(limits.MaxHours)*time.Hour {
		problems = append(problems, &ValidationError{
			Reason: fmt.Sprintf("reservations cannot be longer than %d hours", limits.MaxHours),
		})
	}
	// Named-vehicle requests come from multi-vehicle clubs, whose calendar
	// runs on a half-hour grid.
	if len(in.VehicleIDs) > 0 && (!onGrid(in.Start) || !onGrid(in.End)) {
		problems = append(problems, &ValidationError{Reason: "times must fall on 30-minute boundaries"})
	}
	return problems
}

// Cancel marks a reservation cancelled. The owner or any admin may cancel.
// Repeated cancels are reported, not rejected, and trigger no second round
// of waitlist notifications.
func (s *Service) Cancel(ctx context.Context, cc club.Context, id uuid.UUID, actor Actor) (CancelOutcome, error) {
	r, err := s.repo.Get(ctx, cc.DB, id)
	if err != nil {
		return CancelOutcome{}, err
	}
	if r.MemberID != actor.MemberID && !actor.IsAdmin {
		return CancelOutcome{}, ErrUnauthorized
	}
	if r.Status == StatusCancelled {
		return CancelOutcome{Reservation: r, AlreadyCancelled: true}, nil
	}

	now := s.now()
	changed, err := s.repo.Cancel(ctx, cc.DB, id, now)
	if err != nil {
		return CancelOutcome{}, fmt.Errorf("cancel reservation: %w", err)
	}
	if !changed {
		// Lost a race with another cancel of the same row.
		r.Status = StatusCancelled
		return CancelOutcome{Reservation: r, AlreadyCancelled: true}, nil
	}
	r.Status = StatusCancelled
	r.CancelledAt = &now
	s.metrics.Cancellations.Inc()
	s.logger.Info("reservation cancelled",
		zap.String("reservation_id", id.String()),
		zap.String("by_member_id", actor.MemberID.String()),
		zap.Bool("by_admin", actor.IsAdmin && actor.MemberID != r.MemberID),
	)

	if owner, err := s.members.Get(ctx, cc.DB, r.MemberID); err == nil {
		subject, body := s.messages(cc.Club).ReservationCancelled(contact(owner), r.Date)
		s.send(contact(owner), subject, body)
	}
	if s.waitlist != nil {
		s.waitlist.OnCancellation(ctx, cc, r.Date)
	}
	return CancelOutcome{Reservation: r}, nil
}

// Approve transitions a pending reservation to active and notifies the
// member. Returns ErrNoTransition when the reservation exists but is not
// pending, so a double approve is a visible no-op rather than a silent one.
func (s *Service) Approve(ctx context.Context, cc club.Context, id uuid.UUID) (Reservation, error) {
	r, err := s.repo.Get(ctx, cc.DB, id)
	if err != nil {
		return Reservation{}, err
	}
	changed, err := s.repo.Transition(ctx, cc.DB, id, StatusPendingApproval, StatusActive, s.now())
	if err != nil {
		return Reservation{}, fmt.Errorf("approve reservation: %w", err)
	}
	if !changed {
		return Reservation{}, ErrNoTransition
	}
	r.Status = StatusActive
	s.metrics.Approvals.WithLabelValues("approved").Inc()

	if owner, err := s.members.Get(ctx, cc.DB, r.MemberID); err == nil {
		subject, body := s.messages(cc.Club).ReservationApproved(contact(owner), r.Start, r.End)
		s.send(contact(owner), subject, body)
	}
	return r, nil
}

// Deny transitions a pending reservation to cancelled. A denied window is
// freed capacity, so the waitlist is told just like a member cancellation.
func (s *Service) Deny(ctx context.Context, cc club.Context, id uuid.UUID) (Reservation, error) {
	r, err := s.repo.Get(ctx, cc.DB, id)
	if err != nil {
		return Reservation{}, err
	}
	now := s.now()
	changed, err := s.repo.Transition(ctx, cc.DB, id, StatusPendingApproval, StatusCancelled, now)
	if err != nil {
		return Reservation{}, fmt.Errorf("deny reservation: %w", err)
	}
	if !changed {
		return Reservation{}, ErrNoTransition
	}
	r.Status = StatusCancelled
	r.CancelledAt = &now
	s.metrics.Approvals.WithLabelValues("denied").Inc()

	if owner, err := s.members.Get(ctx, cc.DB, r.MemberID); err == nil {
		subject, body := s.messages(cc.Club).ReservationCancelled(contact(owner), r.Date)
		s.send(contact(owner), subject, body)
	}
	if s.waitlist != nil {
		s.waitlist.OnCancellation(ctx, cc, r.Date)
	}
	return r, nil
}

// Get returns one reservation.
func (s *Service) Get(ctx context.Context, cc club.Context, id uuid.UUID) (Reservation, error) {
	return s.repo.Get(ctx, cc.DB, id)
}

// Calendar returns all reservations whose date falls in [from, to],
// cancelled ones included, joined with owner names for display.
func (s *Service) Calendar(ctx context.Context, cc club.Context, from, to time.Time) ([]CalendarEntry, error) {
	if to.Before(from) {
		return nil, &ValidationError{Reason: "range end precedes range start"}
	}
	return s.repo.ListRange(ctx, cc.DB, dayOf(from), dayOf(to))
}

// Day returns one day's calendar.
func (s *Service) Day(ctx context.Context, cc club.Context, date time.Time) ([]CalendarEntry, error) {
	return s.repo.ListRange(ctx, cc.DB, dayOf(date), dayOf(date))
}

// UsageStats aggregates per-member reservation counts for the admin report.
func (s *Service) UsageStats(ctx context.Context, cc club.Context) ([]MemberUsage, error) {
	return s.repo.UsageStats(ctx, cc.DB, s.now())
}

func (s *Service) notifyAdmins(ctx context.Context, cc club.Context, msgs notify.Messages, memberName string, start time.Time) {
	admins, err := s.members.ListAdmins(ctx, cc.DB)
	if err != nil {
		s.logger.Warn("listing admins for approval notice failed", zap.Error(err))
		return
	}
	subject, body := msgs.ApprovalNeeded(memberName, start)
	for _, a := range admins {
		s.send(contact(a), subject, body)
	}
}

// send delivers one notification, counting failures. Never returns an error:
// notification trouble must not affect the state change that triggered it.
func (s *Service) send(to notify.Contact, subject, body string) {
	if !s.sender.Send(to, subject, body) {
		s.metrics.NotifyFailures.Inc()
	}
}

func contact(m membersservice.Member) notify.Contact {
	return notify.Contact{Email: m.Email, FullName: m.FullName}
}
