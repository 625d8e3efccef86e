package repository

import (
	"context"
	"testing"
	"time"

	"tasksync/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStateRepository(t *testing.T) {
	repo := NewMemoryStateRepository()
	ctx := context.Background()

	state, err := repo.GetState(ctx)
	require.NoError(t, err)
	assert.Nil(t, state)

	now := time.Now().UTC()
	require.NoError(t, repo.SetState(ctx, &models.SyncState{
		LastSyncAt: &now,
		Online:     true,
		UpdatedAt:  now,
	}))

	got, err := repo.GetState(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Online)
	require.NotNil(t, got.LastSyncAt)
	assert.WithinDuration(t, now, *got.LastSyncAt, time.Second)
}

func TestMemoryStateRepositoryCopies(t *testing.T) {
	repo := NewMemoryStateRepository()
	ctx := context.Background()

	state := &models.SyncState{Online: true, UpdatedAt: time.Now()}
	require.NoError(t, repo.SetState(ctx, state))

	// Mutating the caller's struct must not leak into the stored copy.
	state.Online = false

	got, err := repo.GetState(ctx)
	require.NoError(t, err)
	assert.True(t, got.Online)
}
