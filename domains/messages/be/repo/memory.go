package repo

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/clubreserve/clubreserve/domains/messages/be/service"
	"github.com/clubreserve/clubreserve/platform/go/persistence"
)

// MemoryRepository is the in-memory board used by tests.
type MemoryRepository struct {
	mu       sync.Mutex
	messages map[uuid.UUID]service.Message
	// Names maps member ids to display names for board listings.
	Names map[uuid.UUID]string
}

// NewMemoryRepository constructs an empty board.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		messages: make(map[uuid.UUID]service.Message),
		Names:    make(map[uuid.UUID]string),
	}
}

func (r *MemoryRepository) Insert(ctx context.Context, db *persistence.Handle, m service.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[m.ID] = m
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, db *persistence.Handle, id uuid.UUID) (service.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok {
		return service.Message{}, service.ErrNotFound
	}
	return m, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, db *persistence.Handle, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.messages[id]; !ok {
		return service.ErrNotFound
	}
	delete(r.messages, id)
	return nil
}

func (r *MemoryRepository) List(ctx context.Context, db *persistence.Handle) ([]service.BoardEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]service.BoardEntry, 0, len(r.messages))
	for _, m := range r.messages {
		entries = append(entries, service.BoardEntry{Message: m, AuthorName: r.Names[m.MemberID]})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsAnnouncement != entries[j].IsAnnouncement {
			return entries[i].IsAnnouncement
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

// Ensure interface compliance.
var _ service.Repository = (*MemoryRepository)(nil)
