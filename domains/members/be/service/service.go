// Package service exposes member reads: identity, contact details, and the
// per-member limit overrides consumed by the reservation limit policy.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clubreserve/clubreserve/platform/go/persistence"
)

// ErrNotFound means the member reference does not resolve to an active row.
var ErrNotFound = errors.New("member not found")

// Member is one club member. Account lifecycle (creation, password setup,
// sessions) is handled outside the core; the engine only reads.
type Member struct {
	ID           uuid.UUID
	Username     string
	FullName     string
	Email        string
	PasswordHash string
	IsAdmin      bool
	IsActive     bool
	// MaxPendingOverride and MaxConsecutiveOverride replace the club-wide
	// limits for this member when set.
	MaxPendingOverride     *int
	MaxConsecutiveOverride *int
	CreatedAt              time.Time
}

// Repository abstracts the per-club members table.
type Repository interface {
	Get(ctx context.Context, db *persistence.Handle, id uuid.UUID) (Member, error)
	ListAdmins(ctx context.Context, db *persistence.Handle) ([]Member, error)
}

// Service provides member lookups.
type Service struct {
	repo Repository
}

// New constructs a members Service.
func New(repo Repository) *Service {
	if repo == nil {
		panic("members repo is required")
	}
	return &Service{repo: repo}
}

// Get returns an active member by id.
func (s *Service) Get(ctx context.Context, db *persistence.Handle, id uuid.UUID) (Member, error) {
	return s.repo.Get(ctx, db, id)
}

// ListAdmins returns the club's active administrators, used for
// approval-needed notifications.
func (s *Service) ListAdmins(ctx context.Context, db *persistence.Handle) ([]Member, error) {
	return s.repo.ListAdmins(ctx, db)
}

// VerifyPassword checks a plaintext password against the member's bcrypt
// hash. The provisioning collaborator seeds bcrypt hashes, so this is the
// only hash format accepted.
func VerifyPassword(m Member, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(plaintext)) == nil
}
