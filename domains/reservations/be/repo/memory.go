package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	fleetservice "github.com/clubreserve/clubreserve/domains/fleet/be/service"
	"github.com/clubreserve/clubreserve/domains/reservations/be/service"
	"github.com/clubreserve/clubreserve/platform/go/persistence"
)

// MemoryRepository is the in-memory reservations store for unit tests. A
// single mutex serializes CreateAll the way the database's booking lock
// does, so concurrency tests exercise the same exactly-one-winner contract.
type MemoryRepository struct {
	mu           sync.Mutex
	reservations map[uuid.UUID]service.Reservation
	blackouts    []fleetservice.Blackout
	// Names maps member ids to display names for conflict messages.
	Names map[uuid.UUID]string
}

// NewMemoryRepository constructs an empty store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		reservations: make(map[uuid.UUID]service.Reservation),
		Names:        make(map[uuid.UUID]string),
	}
}

// AddBlackout registers a blackout the overlap scan will honor.
func (r *MemoryRepository) AddBlackout(b fleetservice.Blackout) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blackouts = append(r.blackouts, b)
}

func sameVehicle(a, b *uuid.UUID) bool {
	// NULL matches everything: fleet-wide rows conflict with named vehicles
	// and the reverse.
	if a == nil || b == nil {
		return true
	}
	return *a == *b
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

func (r *MemoryRepository) findOverlapLocked(vehicleID *uuid.UUID, start, end time.Time) *service.Conflict {
	var best *service.Conflict
	for _, res := range r.reservations {
		if !res.Status.Blocking() || !sameVehicle(res.VehicleID, vehicleID) {
			continue
		}
		if overlaps(res.Start, res.End, start, end) {
			if best == nil || res.Start.Before(best.Start) {
				best = &service.Conflict{MemberName: r.Names[res.MemberID], Start: res.Start, End: res.End}
			}
		}
	}
	if best != nil {
		return best
	}
	for _, b := range r.blackouts {
		if !sameVehicle(b.VehicleID, vehicleID) {
			continue
		}
		if overlaps(b.Start, b.End, start, end) {
			return &service.Conflict{BlackoutReason: b.Reason, Start: b.Start, End: b.End}
		}
	}
	return nil
}

func (r *MemoryRepository) FindOverlap(ctx context.Context, db *persistence.Handle, vehicleID *uuid.UUID, start, end time.Time) (*service.Conflict, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findOverlapLocked(vehicleID, start, end), nil
}

func (r *MemoryRepository) CountBlocking(ctx context.Context, db *persistence.Handle, memberID uuid.UUID, from time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, res := range r.reservations {
		if res.MemberID == memberID && res.Status.Blocking() && res.End.After(from) {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) BlockingDates(ctx context.Context, db *persistence.Handle, memberID uuid.UUID, from time.Time) ([]time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var dates []time.Time
	for _, res := range r.reservations {
		if res.MemberID == memberID && res.Status.Blocking() && res.End.After(from) {
			dates = append(dates, res.Date)
		}
	}
	return dates, nil
}

func (r *MemoryRepository) CreateAll(ctx context.Context, db *persistence.Handle, rs []service.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range rs {
		if c := r.findOverlapLocked(res.VehicleID, res.Start, res.End); c != nil {
			return &service.ConflictError{Conflicts: []service.VehicleConflict{
				{VehicleID: res.VehicleID, Conflict: *c},
			}}
		}
	}
	for _, res := range rs {
		r.reservations[res.ID] = res
	}
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, db *persistence.Handle, id uuid.UUID) (service.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[id]
	if !ok {
		return service.Reservation{}, service.ErrNotFound
	}
	return res, nil
}

func (r *MemoryRepository) Cancel(ctx context.Context, db *persistence.Handle, id uuid.UUID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[id]
	if !ok || res.Status == service.StatusCancelled {
		return false, nil
	}
	res.Status = service.StatusCancelled
	res.CancelledAt = &at
	r.reservations[id] = res
	return true, nil
}

func (r *MemoryRepository) Transition(ctx context.Context, db *persistence.Handle, id uuid.UUID, from, to service.Status, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[id]
	if !ok || res.Status != from {
		return false, nil
	}
	res.Status = to
	if to == service.StatusCancelled {
		res.CancelledAt = &at
	}
	r.reservations[id] = res
	return true, nil
}

func (r *MemoryRepository) ListRange(ctx context.Context, db *persistence.Handle, from, to time.Time) ([]service.CalendarEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var entries []service.CalendarEntry
	for _, res := range r.reservations {
		if res.Date.Before(from) || res.Date.After(to) {
			continue
		}
		entries = append(entries, service.CalendarEntry{
			Reservation: res,
			MemberName:  r.Names[res.MemberID],
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Start.Before(entries[j].Start) })
	return entries, nil
}

func (r *MemoryRepository) UsageStats(ctx context.Context, db *persistence.Handle, now time.Time) ([]service.MemberUsage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byMember := make(map[uuid.UUID]*service.MemberUsage)
	for _, res := range r.reservations {
		u, ok := byMember[res.MemberID]
		if !ok {
			u = &service.MemberUsage{FullName: r.Names[res.MemberID]}
			byMember[res.MemberID] = u
		}
		switch {
		case res.Status == service.StatusCancelled:
			u.Cancelled++
		case res.End.After(now):
			u.Upcoming++
			u.Total++
		default:
			u.Past++
			u.Total++
		}
	}
	stats := make([]service.MemberUsage, 0, len(byMember))
	for _, u := range byMember {
		stats = append(stats, *u)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Total != stats[j].Total {
			return stats[i].Total > stats[j].Total
		}
		return stats[i].FullName < stats[j].FullName
	})
	return stats, nil
}

// All returns every stored reservation, for test assertions.
func (r *MemoryRepository) All() []service.Reservation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]service.Reservation, 0, len(r.reservations))
	for _, res := range r.reservations {
		out = append(out, res)
	}
	return out
}

// Ensure interface compliance.
var _ service.Repository = (*MemoryRepository)(nil)
