package database

import (
	"context"
	"testing"
	"time"

	"tasksync/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeadLetterAppendAndList(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	base := time.Now().UTC()

	older := &models.DeadLetterEntry{
		ID:         "dl-1",
		EntryID:    "m-1",
		TaskID:     "t-1",
		Operation:  models.OpCreate,
		Snapshot:   models.TaskSnapshot{ID: "t-1", Title: "first"},
		Error:      "remote timeout",
		RetryCount: 3,
		FailedAt:   base,
	}
	newer := &models.DeadLetterEntry{
		ID:         "dl-2",
		EntryID:    "m-2",
		TaskID:     "t-2",
		Operation:  models.OpDelete,
		Snapshot:   models.TaskSnapshot{ID: "t-2", Title: "second", Deleted: true},
		Error:      "remote rejected",
		RetryCount: 3,
		FailedAt:   base.Add(time.Minute),
	}

	require.NoError(t, db.InsertDeadLetter(ctx, older))
	require.NoError(t, db.InsertDeadLetter(ctx, newer))

	entries, err := db.GetDeadLetters(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Most recent first.
	assert.Equal(t, "dl-2", entries[0].ID)
	assert.Equal(t, "dl-1", entries[1].ID)
	assert.Equal(t, "remote timeout", entries[1].Error)
	assert.Equal(t, "first", entries[1].Snapshot.Title)

	count, err := db.CountDeadLetters(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
