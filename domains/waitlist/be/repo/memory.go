package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clubreserve/clubreserve/domains/waitlist/be/service"
	"github.com/clubreserve/clubreserve/platform/go/notify"
	"github.com/clubreserve/clubreserve/platform/go/persistence"
)

// MemoryRepository is the in-memory waitlist store for unit tests.
type MemoryRepository struct {
	mu      sync.Mutex
	entries map[uuid.UUID]service.Entry
	// Contacts maps member ids to contact details for ListPending.
	Contacts map[uuid.UUID]notify.Contact
}

// NewMemoryRepository constructs an empty store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		entries:  make(map[uuid.UUID]service.Entry),
		Contacts: make(map[uuid.UUID]notify.Contact),
	}
}

func (r *MemoryRepository) Upsert(ctx context.Context, db *persistence.Handle, e service.Entry) (service.Entry, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.entries {
		if existing.MemberID == e.MemberID && existing.DesiredDate.Equal(e.DesiredDate) {
			return existing, false, nil
		}
	}
	r.entries[e.ID] = e
	return e, true, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, db *persistence.Handle, memberID uuid.UUID, date time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.entries {
		if e.MemberID == memberID && e.DesiredDate.Equal(date) {
			delete(r.entries, id)
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) ListForMember(ctx context.Context, db *persistence.Handle, memberID uuid.UUID, from time.Time) ([]service.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []service.Entry
	for _, e := range r.entries {
		if e.MemberID == memberID && !e.DesiredDate.Before(from) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DesiredDate.Before(out[j].DesiredDate) })
	return out, nil
}

func (r *MemoryRepository) ListPending(ctx context.Context, db *persistence.Handle, date time.Time) ([]service.PendingEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []service.PendingEntry
	for _, e := range r.entries {
		if e.Notified || !e.DesiredDate.Equal(date) {
			continue
		}
		out = append(out, service.PendingEntry{Entry: e, Contact: r.Contacts[e.MemberID]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) MarkNotified(ctx context.Context, db *persistence.Handle, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil
	}
	e.Notified = true
	r.entries[id] = e
	return nil
}

// Entries returns every stored entry, for test assertions.
func (r *MemoryRepository) Entries() []service.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]service.Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out
}

// Ensure interface compliance.
var _ service.Repository = (*MemoryRepository)(nil)
