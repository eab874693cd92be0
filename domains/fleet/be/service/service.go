// Package service manages a club's fleet: the vehicle registry and
// administrator-declared blackout periods.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clubreserve/clubreserve/platform/go/persistence"
)

// ErrNotFound means the vehicle reference does not resolve.
var ErrNotFound = errors.New("vehicle not found")

// Vehicle belongs to exactly one club. UsageHours is mutated only by trip-log
// check-in, never by the reservation engine.
type Vehicle struct {
	ID           uuid.UUID
	Name         string
	Registration string
	IsActive     bool
	UsageHours   float64
	CreatedAt    time.Time
}

// Blackout is an interval during which a vehicle (or the whole fleet, when
// VehicleID is nil) cannot be booked. It conflicts like a reservation but has
// no owner and is never member-cancelled.
type Blackout struct {
	ID        uuid.UUID
	VehicleID *uuid.UUID
	Start     time.Time
	End       time.Time
	Reason    string
	CreatedBy string
	CreatedAt time.Time
}

// Repository abstracts the per-club vehicles and blackout_periods tables.
type Repository interface {
	ListVehicles(ctx context.Context, db *persistence.Handle, activeOnly bool) ([]Vehicle, error)
	GetVehicle(ctx context.Context, db *persistence.Handle, id uuid.UUID) (Vehicle, error)
	CreateVehicle(ctx context.Context, db *persistence.Handle, v Vehicle) (Vehicle, error)
	RetireVehicle(ctx context.Context, db *persistence.Handle, id uuid.UUID) error
	CreateBlackout(ctx context.Context, db *persistence.Handle, b Blackout) (Blackout, error)
	ListBlackouts(ctx context.Context, db *persistence.Handle, from, to time.Time) ([]Blackout, error)
}

// Service provides fleet operations.
type Service struct {
	repo Repository
}

// New constructs a fleet Service.
func New(repo Repository) *Service {
	if repo == nil {
		panic("fleet repo is required")
	}
	return &Service{repo: repo}
}

// ListVehicles returns the club's vehicles.
func (s *Service) ListVehicles(ctx context.Context, db *persistence.Handle, activeOnly bool) ([]Vehicle, error) {
	return s.repo.ListVehicles(ctx, db, activeOnly)
}

// GetVehicle returns one vehicle by id.
func (s *Service) GetVehicle(ctx context.Context, db *persistence.Handle, id uuid.UUID) (Vehicle, error) {
	return s.repo.GetVehicle(ctx, db, id)
}

// CreateVehicle registers a vehicle.
func (s *Service) CreateVehicle(ctx context.Context, db *persistence.Handle, name, registration string) (Vehicle, error) {
	if name == "" {
		return Vehicle{}, fmt.Errorf("vehicle name is required")
	}
	return s.repo.CreateVehicle(ctx, db, Vehicle{
		ID:           uuid.New(),
		Name:         name,
		Registration: registration,
		IsActive:     true,
	})
}

// RetireVehicle flags a vehicle inactive. Existing reservations keep their
// history; new bookings against it fail vehicle resolution.
func (s *Service) RetireVehicle(ctx context.Context, db *persistence.Handle, id uuid.UUID) error {
	return s.repo.RetireVehicle(ctx, db, id)
}

// DeclareBlackout records a blackout window for one vehicle or, with a nil
// vehicle id, the entire fleet.
func (s *Service) DeclareBlackout(ctx context.Context, db *persistence.Handle, vehicleID *uuid.UUID, start, end time.Time, reason, createdBy string) (Blackout, error) {
	if !end.After(start) {
		return Blackout{}, fmt.Errorf("blackout end must be after start")
	}
	if vehicleID != nil {
		if _, err := s.repo.GetVehicle(ctx, db, *vehicleID); err != nil {
			return Blackout{}, err
		}
	}
	return s.repo.CreateBlackout(ctx, db, Blackout{
		ID:        uuid.New(),
		VehicleID: vehicleID,
		Start:     start,
		End:       end,
		Reason:    reason,
		CreatedBy: createdBy,
	})
}

// ListBlackouts returns blackouts overlapping [from, to).
func (s *Service) ListBlackouts(ctx context.Context, db *persistence.Handle, from, to time.Time) ([]Blackout, error) {
	return s.repo.ListBlackouts(ctx, db, from, to)
}
