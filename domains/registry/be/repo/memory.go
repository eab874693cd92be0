package repo

import (
	"context"
	"sort"
	"sync"

	"github.com/clubreserve/clubreserve/domains/registry/be/service"
	"github.com/clubreserve/clubreserve/platform/go/club"
)

// MemoryRepository is a simple in-memory registry suitable for tests and
// single-club development mode.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	byName map[string]club.Club
	audit  []service.AuditEntry
}

// NewMemoryRepository constructs a MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1, byName: make(map[string]club.Club)}
}

func (r *MemoryRepository) GetByShortName(ctx context.Context, shortName string) (club.Club, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byName[shortName]
	if !ok || !c.IsActive {
		return club.Club{}, service.ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]club.Club, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clubs := make([]club.Club, 0, len(r.byName))
	for _, c := range r.byName {
		clubs = append(clubs, c)
	}
	sort.Slice(clubs, func(i, j int) bool { return clubs[i].Name < clubs[j].Name })
	return clubs, nil
}

func (r *MemoryRepository) Create(ctx context.Context, c club.Club) (club.Club, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byName[c.ShortName]; ok && existing.IsActive {
		return club.Club{}, service.ErrConflict
	}
	c.ID = r.nextID
	r.nextID++
	r.byName[c.ShortName] = c
	return c, nil
}

func (r *MemoryRepository) Deactivate(ctx context.Context, shortName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byName[shortName]
	if !ok {
		return service.ErrNotFound
	}
	c.IsActive = false
	r.byName[shortName] = c
	return nil
}

func (r *MemoryRepository) AppendAudit(ctx context.Context, entry service.AuditEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audit = append(r.audit, entry)
}

// AuditEntries returns a copy of the recorded audit log, for assertions.
func (r *MemoryRepository) AuditEntries() []service.AuditEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]service.AuditEntry, len(r.audit))
	copy(out, r.audit)
	return out
}

// Ensure interface compliance.
var _ service.Repository = (*MemoryRepository)(nil)
