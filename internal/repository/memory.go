package repository

import (
	"context"
	"sync"

	"tasksync/internal/models"
)

// MemoryStateRepository keeps the sync state in process memory. It is the
// fallback when redis is absent or down.
type MemoryStateRepository struct {
	mu    sync.RWMutex
	state *models.SyncState
}

func NewMemoryStateRepository() *MemoryStateRepository {
	return &MemoryStateRepository{}
}

func (r *MemoryStateRepository) GetState(ctx context.Context) (*models.SyncState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.state == nil {
		return nil, nil
	}
	copied := *r.state
	return &copied, nil
}

func (r *MemoryStateRepository) SetState(ctx context.Context, state *models.SyncState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *state
	r.state = &copied
	return nil
}
