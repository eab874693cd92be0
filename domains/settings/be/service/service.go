// Package service loads and interprets per-club settings: booking rule
// parameters, feature flags, and the checklist override.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/clubreserve/clubreserve/platform/go/club"
	"github.com/clubreserve/clubreserve/platform/go/persistence"
)

// Setting keys with engine significance.
const (
	KeyApprovalRequired   = "approval_required"
	KeyMinHours           = "min_hours"
	KeyMaxHours           = "max_hours"
	KeyMaxAdvanceDays     = "max_advance_days"
	KeyMaxConsecutiveDays = "max_consecutive_days"
	KeyMaxPending         = "max_pending"
	KeyChecklistJSON      = "checklist_json"
)

// Engine rule defaults applied when a club has no explicit setting.
const (
	DefaultMinHours           = 2
	DefaultMaxHours           = 6
	DefaultMaxAdvanceDays     = 60
	DefaultMaxConsecutiveDays = 3
	DefaultMaxPending         = 7
)

// ErrInvalidChecklist is returned when a checklist override fails schema
// validation.
var ErrInvalidChecklist = errors.New("checklist json rejected by schema")

// Settings is a club's key/value configuration with typed accessors.
type Settings map[string]string

func (s Settings) intOr(key string, fallback int) int {
	raw, ok := s[key]
	if !ok {
		return fallback
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func (s Settings) boolOr(key string, fallback bool) bool {
	raw, ok := s[key]
	if !ok {
		return fallback
	}
	return strings.EqualFold(strings.TrimSpace(raw), "true")
}

// ApprovalRequired reports whether new bookings start in pending_approval.
func (s Settings) ApprovalRequired() bool { return s.boolOr(KeyApprovalRequired, false) }

// MinHours is the minimum reservation length in hours.
func (s Settings) MinHours() int { return s.intOr(KeyMinHours, DefaultMinHours) }

// MaxHours is the maximum reservation length in hours.
func (s Settings) MaxHours() int { return s.intOr(KeyMaxHours, DefaultMaxHours) }

// MaxAdvanceDays bounds how far ahead a reservation may start.
func (s Settings) MaxAdvanceDays() int { return s.intOr(KeyMaxAdvanceDays, DefaultMaxAdvanceDays) }

// MaxConsecutiveDays is the club-wide consecutive-day run limit.
func (s Settings) MaxConsecutiveDays() int {
	return s.intOr(KeyMaxConsecutiveDays, DefaultMaxConsecutiveDays)
}

// MaxPending is the club-wide cap on future non-cancelled reservations.
func (s Settings) MaxPending() int { return s.intOr(KeyMaxPending, DefaultMaxPending) }

// DefaultsFor seeds the settings appropriate for a vehicle type, matching
// what the provisioning collaborator writes for a fresh club.
func DefaultsFor(vehicleType club.VehicleType) Settings {
	common := Settings{
		KeyApprovalRequired:   "false",
		KeyMinHours:           strconv.Itoa(DefaultMinHours),
		KeyMaxHours:           strconv.Itoa(DefaultMaxHours),
		KeyMaxAdvanceDays:     strconv.Itoa(DefaultMaxAdvanceDays),
		KeyMaxConsecutiveDays: strconv.Itoa(DefaultMaxConsecutiveDays),
		KeyMaxPending:         strconv.Itoa(DefaultMaxPending),
	}
	if vehicleType == club.VehicleBoat {
		common["marina_phone"] = ""
	} else {
		common["fbo_phone"] = ""
	}
	return common
}

// Repository abstracts the club_settings table.
type Repository interface {
	Load(ctx context.Context, db *persistence.Handle) (Settings, error)
	Set(ctx context.Context, db *persistence.Handle, key, value string) error
}

// Service provides settings reads and guarded writes.
type Service struct {
	repo Repository
}

// New constructs a settings Service.
func New(repo Repository) *Service {
	if repo == nil {
		panic("settings repo is required")
	}
	return &Service{repo: repo}
}

// Load returns the club's full settings map.
func (s *Service) Load(ctx context.Context, db *persistence.Handle) (Settings, error) {
	return s.repo.Load(ctx, db)
}

// Set writes one plain setting.
func (s *Service) Set(ctx context.Context, db *persistence.Handle, key, value string) error {
	if key == KeyChecklistJSON {
		return s.SetChecklist(ctx, db, value)
	}
	return s.repo.Set(ctx, db, key, value)
}

// SetChecklist validates the checklist payload against the checklist schema
// before storing it, so templates never see malformed overrides.
func (s *Service) SetChecklist(ctx context.Context, db *persistence.Handle, raw string) error {
	if err := ValidateChecklist(raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidChecklist, err)
	}
	return s.repo.Set(ctx, db, KeyChecklistJSON, raw)
}
