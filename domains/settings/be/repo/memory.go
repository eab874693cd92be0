package repo

import (
	"context"
	"sync"

	"github.com/clubreserve/clubreserve/domains/settings/be/service"
	"github.com/clubreserve/clubreserve/platform/go/persistence"
)

// MemoryRepository holds one club's settings in memory, for tests.
type MemoryRepository struct {
	mu   sync.RWMutex
	data service.Settings
}

// NewMemoryRepository seeds a repository with the given settings.
func NewMemoryRepository(seed service.Settings) *MemoryRepository {
	data := make(service.Settings, len(seed))
	for k, v := range seed {
		data[k] = v
	}
	return &MemoryRepository{data: data}
}

func (r *MemoryRepository) Load(ctx context.Context, _ *persistence.Handle) (service.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(service.Settings, len(r.data))
	for k, v := range r.data {
		out[k] = v
	}
	return out, nil
}

func (r *MemoryRepository) Set(ctx context.Context, _ *persistence.Handle, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[key] = value
	return nil
}

// Ensure interface compliance.
var _ service.Repository = (*MemoryRepository)(nil)
