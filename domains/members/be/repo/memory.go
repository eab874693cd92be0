package repo

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/clubreserve/clubreserve/domains/members/be/service"
	"github.com/clubreserve/clubreserve/platform/go/persistence"
)

// MemoryRepository holds members in memory, for tests.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]service.Member
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[uuid.UUID]service.Member)}
}

// Put inserts or replaces a member.
func (r *MemoryRepository) Put(m service.Member) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[m.ID] = m
}

func (r *MemoryRepository) Get(ctx context.Context, _ *persistence.Handle, id uuid.UUID) (service.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	if !ok || !m.IsActive {
		return service.Member{}, service.ErrNotFound
	}
	return m, nil
}

func (r *MemoryRepository) ListAdmins(ctx context.Context, _ *persistence.Handle) ([]service.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var admins []service.Member
	for _, m := range r.byID {
		if m.IsAdmin && m.IsActive {
			admins = append(admins, m)
		}
	}
	sort.Slice(admins, func(i, j int) bool { return admins[i].FullName < admins[j].FullName })
	return admins, nil
}

// Ensure interface compliance.
var _ service.Repository = (*MemoryRepository)(nil)
