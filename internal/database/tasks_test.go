package database

import (
	"context"
	"testing"
	"time"

	"tasksync/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTask(id, title string) *models.Task {
	now := time.Now().UTC()
	return &models.Task{
		ID:         id,
		Title:      title,
		CreatedAt:  now,
		UpdatedAt:  now,
		SyncStatus: models.SyncStatusPending,
	}
}

func TestTaskCRUD(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	task := newTask("t-1", "write report")
	require.NoError(t, db.CreateTask(ctx, task))

	got, err := db.GetTask(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, "write report", got.Title)
	assert.Equal(t, models.SyncStatusPending, got.SyncStatus)
	assert.Nil(t, got.ServerID)
	assert.Nil(t, got.LastSyncedAt)

	got.Title = "write quarterly report"
	got.Completed = true
	got.UpdatedAt = time.Now().UTC()
	require.NoError(t, db.UpdateTask(ctx, got))

	updated, err := db.GetTask(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, "write quarterly report", updated.Title)
	assert.True(t, updated.Completed)

	_, err = db.GetTask(ctx, "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestSoftDeleteExcludedFromList(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	require.NoError(t, db.CreateTask(ctx, newTask("t-1", "keep")))
	require.NoError(t, db.CreateTask(ctx, newTask("t-2", "drop")))

	require.NoError(t, db.MarkTaskDeleted(ctx, "t-2", time.Now().UTC()))

	tasks, err := db.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t-1", tasks[0].ID)

	// The row itself survives so the delete can still sync.
	deleted, err := db.GetTask(ctx, "t-2")
	require.NoError(t, err)
	assert.True(t, deleted.Deleted)
	assert.Equal(t, models.SyncStatusPending, deleted.SyncStatus)
}

func TestSyncStatusTransitions(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	require.NoError(t, db.CreateTask(ctx, newTask("t-1", "a")))
	require.NoError(t, db.CreateTask(ctx, newTask("t-2", "b")))

	require.NoError(t, db.SetTasksSyncStatus(ctx, []string{"t-1", "t-2"}, models.SyncStatusInProgress))

	first, err := db.GetTask(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusInProgress, first.SyncStatus)

	syncedAt := time.Now().UTC()
	require.NoError(t, db.MarkTaskSynced(ctx, "t-1", "srv-42", syncedAt))

	synced, err := db.GetTask(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSynced, synced.SyncStatus)
	require.NotNil(t, synced.ServerID)
	assert.Equal(t, "srv-42", *synced.ServerID)
	require.NotNil(t, synced.LastSyncedAt)

	require.NoError(t, db.SetTaskSyncStatus(ctx, "t-2", models.SyncStatusFailed))
	failed, err := db.GetTask(ctx, "t-2")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusFailed, failed.SyncStatus)
}
