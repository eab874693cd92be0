// Package service coordinates the per-date waitlist. Members join a date
// they could not book; when a cancellation frees that date, everyone still
// waiting is told once. The notified flag is the dedup: a second
// cancellation on the same date re-notifies nobody.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clubreserve/clubreserve/platform/go/club"
	"github.com/clubreserve/clubreserve/platform/go/metrics"
	"github.com/clubreserve/clubreserve/platform/go/notify"
	"github.com/clubreserve/clubreserve/platform/go/persistence"
)

// Entry is one member's interest in one date. A member holds at most one
// entry per date.
type Entry struct {
	ID          uuid.UUID
	MemberID    uuid.UUID
	DesiredDate time.Time
	Notes       string
	Notified    bool
	CreatedAt   time.Time
}

// PendingEntry is an un-notified entry joined with the member's contact
// details, ready for delivery.
type PendingEntry struct {
	Entry
	Contact notify.Contact
}

// Repository abstracts the per-club waitlist_entries table.
type Repository interface {
	// Upsert stores the entry unless the member already waits on that date;
	// it returns the stored entry and whether this call created it.
	Upsert(ctx context.Context, db *persistence.Handle, e Entry) (Entry, bool, error)
	Delete(ctx context.Context, db *persistence.Handle, memberID uuid.UUID, date time.Time) (bool, error)
	ListForMember(ctx context.Context, db *persistence.Handle, memberID uuid.UUID, from time.Time) ([]Entry, error)
	ListPending(ctx context.Context, db *persistence.Handle, date time.Time) ([]PendingEntry, error)
	MarkNotified(ctx context.Context, db *persistence.Handle, id uuid.UUID) error
}

// Config collects the coordinator's collaborators.
type Config struct {
	Repo    Repository
	Sender  notify.Sender
	Metrics *metrics.Engine
	Logger  *zap.Logger
	// BaseDomain builds member-facing links: https://<subdomain>.<BaseDomain>.
	BaseDomain string
	Now        func() time.Time
}

// Service is the waitlist coordinator.
type Service struct {
	repo    Repository
	sender  notify.Sender
	metrics *metrics.Engine
	logger  *zap.Logger
	base    string
	now     func() time.Time
}

// New constructs the coordinator.
func New(cfg Config) *Service {
	switch {
	case cfg.Repo == nil:
		panic("waitlist repo is required")
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
		repo:    cfg.Repo,
		sender:  cfg.Sender,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
		base:    cfg.BaseDomain,
		now:     cfg.Now,
	}
}

// Join adds the member to a date's waitlist. Joining twice is not an error:
// the existing entry is returned unchanged, notified flag included.
func (s *Service) Join(ctx context.Context, cc club.Context, memberID uuid.UUID, date time.Time, notes string) (Entry, error) {
	day := dayOf(date)
	if day.Before(dayOf(s.now())) {
		return Entry{}, fmt.Errorf("cannot join the waitlist for a past date")
	}
	e, created, err := s.repo.Upsert(ctx, cc.DB, Entry{
		ID:          uuid.New(),
		MemberID:    memberID,
		DesiredDate: day,
		Notes:       notes,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return Entry{}, fmt.Errorf("join waitlist: %w", err)
	}
	if created {
		s.logger.Info("waitlist joined",
			zap.String("member_id", memberID.String()),
			zap.Time("date", day),
		)
	}
	return e, nil
}

// Leave removes the member from a date's waitlist. Leaving a list the member
// is not on is a no-op.
func (s *Service) Leave(ctx context.Context, cc club.Context, memberID uuid.UUID, date time.Time) error {
	_, err := s.repo.Delete(ctx, cc.DB, memberID, dayOf(date))
	if err != nil {
		return fmt.Errorf("leave waitlist: %w", err)
	}
	return nil
}

// ListForMember returns the member's upcoming waitlist entries.
func (s *Service) ListForMember(ctx context.Context, cc club.Context, memberID uuid.UUID) ([]Entry, error) {
	return s.repo.ListForMember(ctx, cc.DB, memberID, dayOf(s.now()))
}

// OnCancellation tells everyone still waiting on the freed date, once each.
// Best-effort end to end: delivery failures are logged and counted, and the
// entry is marked notified either way so nobody is spammed on the next
// cancellation.
func (s *Service) OnCancellation(ctx context.Context, cc club.Context, date time.Time) {
	day := dayOf(date)
	pending, err := s.repo.ListPending(ctx, cc.DB, day)
	if err != nil {
		s.logger.Warn("waitlist scan failed", zap.Time("date", day), zap.Error(err))
		return
	}
	if len(pending) == 0 {
		return
	}

	msgs := notify.Messages{
		ClubName:    cc.Club.Name,
		VehicleNoun: cc.Club.VehicleType.Noun(),
		AppURL:      fmt.Sprintf("https://%s.%s", cc.Club.Subdomain, s.base),
	}
	for _, p := range pending {
		subject, body := msgs.WaitlistAvailable(p.Contact, p.DesiredDate)
		if s.sender.Send(p.Contact, subject, body) {
			s.metrics.WaitlistNotifications.Inc()
		} else {
			s.metrics.NotifyFailures.Inc()
		}
		if err := s.repo.MarkNotified(ctx, cc.DB, p.ID); err != nil {
			s.logger.Warn("marking waitlist entry notified failed",
				zap.String("entry_id", p.ID.String()), zap.Error(err))
		}
	}
	s.logger.Info("waitlist notified",
		zap.Time("date", day),
		zap.Int("members", len(pending)),
	)
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
