// Package service runs the member message board. Announcements pin to the
// top of the board, then everything else newest first. Any member may post;
// the announcement flag only sticks for admins, and a message is deleted by
// its author or an admin, nobody else.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clubreserve/clubreserve/platform/go/persistence"
)

// ErrNotFound means the message id does not resolve.
var ErrNotFound = errors.New("message not found")

// ErrForbidden means the actor is neither the author nor an admin.
var ErrForbidden = errors.New("not your message")

// Message is one board post.
type Message struct {
	ID             uuid.UUID
	MemberID       uuid.UUID
	Title          string
	Body           string
	IsAnnouncement bool
	CreatedAt      time.Time
}

// BoardEntry is a message joined with its author's display name.
type BoardEntry struct {
	Message
	AuthorName     string
	AuthorUsername string
}

// Actor identifies who is posting or deleting, for authorization.
type Actor struct {
	MemberID uuid.UUID
	IsAdmin  bool
}

// Repository abstracts the per-club messages table.
type Repository interface {
	Insert(ctx context.Context, db *persistence.Handle, m Message) error
	Get(ctx context.Context, db *persistence.Handle, id uuid.UUID) (Message, error)
	Delete(ctx context.Context, db *persistence.Handle, id uuid.UUID) error
	// List returns announcements first, then the rest newest first.
	List(ctx context.Context, db *persistence.Handle) ([]BoardEntry, error)
}

// Config collects the board's collaborators.
type Config struct {
	Repo Repository
	Now  func() time.Time
}

// Service is the message board.
type Service struct {
	repo Repository
	now  func() time.Time
}

// New constructs the board.
func New(cfg Config) *Service {
	if cfg.Repo == nil {
		panic("messages repo is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{repo: cfg.Repo, now: cfg.Now}
}

// List returns the whole board in display order.
func (s *Service) List(ctx context.Context, db *persistence.Handle) ([]BoardEntry, error) {
	return s.repo.List(ctx, db)
}

// Post publishes a message. A non-admin asking for an announcement gets a
// plain post; the flag is dropped, not rejected.
func (s *Service) Post(ctx context.Context, db *persistence.Handle, actor Actor, title, body string, announcement bool) (Message, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" || body == "" {
		return Message{}, fmt.Errorf("title and body are required")
	}

	m := Message{
		ID:             uuid.New(),
		MemberID:       actor.MemberID,
		Title:          title,
		Body:           body,
		IsAnnouncement: announcement && actor.IsAdmin,
		CreatedAt:      s.now(),
	}
	if err := s.repo.Insert(ctx, db, m); err != nil {
		return Message{}, fmt.Errorf("post message: %w", err)
	}
	return m, nil
}

// Delete removes a message. Only the author or an admin may do it.
func (s *Service) Delete(ctx context.Context, db *persistence.Handle, id uuid.UUID, actor Actor) error {
	m, err := s.repo.Get(ctx, db, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin && m.MemberID != actor.MemberID {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, db, id)
}
