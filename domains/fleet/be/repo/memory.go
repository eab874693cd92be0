package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clubreserve/clubreserve/domains/fleet/be/service"
	"github.com/clubreserve/clubreserve/platform/go/persistence"
)

// MemoryRepository holds fleet state in memory, for tests.
type MemoryRepository struct {
	mu        sync.RWMutex
	vehicles  map[uuid.UUID]service.Vehicle
	blackouts []service.Blackout
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{vehicles: make(map[uuid.UUID]service.Vehicle)}
}

func (r *MemoryRepository) ListVehicles(ctx context.Context, _ *persistence.Handle, activeOnly bool) ([]service.Vehicle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []service.Vehicle
	for _, v := range r.vehicles {
		if activeOnly && !v.IsActive {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepository) GetVehicle(ctx context.Context, _ *persistence.Handle, id uuid.UUID) (service.Vehicle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vehicles[id]
	if !ok {
		return service.Vehicle{}, service.ErrNotFound
	}
	return v, nil
}

func (r *MemoryRepository) CreateVehicle(ctx context.Context, _ *persistence.Handle, v service.Vehicle) (service.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v.CreatedAt = time.Now().UTC()
	r.vehicles[v.ID] = v
	return v, nil
}

func (r *MemoryRepository) RetireVehicle(ctx context.Context, _ *persistence.Handle, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[id]
	if !ok {
		return service.ErrNotFound
	}
	v.IsActive = false
	r.vehicles[id] = v
	return nil
}

func (r *MemoryRepository) CreateBlackout(ctx context.Context, _ *persistence.Handle, b service.Blackout) (service.Blackout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.CreatedAt = time.Now().UTC()
	r.blackouts = append(r.blackouts, b)
	return b, nil
}

func (r *MemoryRepository) ListBlackouts(ctx context.Context, _ *persistence.Handle, from, to time.Time) ([]service.Blackout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []service.Blackout
	for _, b := range r.blackouts {
		if b.Start.Before(to) && b.End.After(from) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// Ensure interface compliance.
var _ service.Repository = (*MemoryRepository)(nil)
