package database

import (
	"context"
	"testing"
	"time"

	"tasksync/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteTaskUpsertIdempotent(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	task := &models.RemoteTask{
		ServerID:  "srv-1",
		ClientID:  "t-1",
		Title:     "original",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.UpsertRemoteTask(ctx, task))

	// Redelivered create with the same client id rewrites instead of duplicating.
	task.Title = "redelivered"
	task.UpdatedAt = now.Add(time.Second)
	require.NoError(t, db.UpsertRemoteTask(ctx, task))

	count, err := db.CountRemoteTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := db.GetRemoteTaskByClientID(ctx, "t-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "redelivered", got.Title)
	assert.Equal(t, "srv-1", got.ServerID)
}

func TestRemoteTaskMissingLookup(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	got, err := db.GetRemoteTaskByClientID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRemoteTaskDeleteIdempotent(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, db.UpsertRemoteTask(ctx, &models.RemoteTask{
		ServerID:  "srv-1",
		ClientID:  "t-1",
		Title:     "doomed",
		CreatedAt: now,
		UpdatedAt: now,
	}))

	require.NoError(t, db.MarkRemoteTaskDeleted(ctx, "t-1", now.Add(time.Second)))
	require.NoError(t, db.MarkRemoteTaskDeleted(ctx, "t-1", now.Add(2*time.Second)))
	// Missing rows are fine too.
	require.NoError(t, db.MarkRemoteTaskDeleted(ctx, "never-existed", now))

	got, err := db.GetRemoteTaskByClientID(ctx, "t-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Deleted)
}
