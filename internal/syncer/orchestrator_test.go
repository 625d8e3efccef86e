package syncer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tasksync/internal/models"
	"tasksync/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRemote scripts the authority side for orchestrator tests.
type fakeRemote struct {
	t            *testing.T
	batchCalls   int
	failBatches  map[int]bool         // 1-based batch call index -> respond 500
	itemStatuses map[string]string    // client id -> forced status
	received     [][]models.BatchItem // items per call
}

func (f *fakeRemote) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/batch", func(w http.ResponseWriter, r *http.Request) {
		f.batchCalls++

		var req models.BatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			f.t.Errorf("decode batch request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.received = append(f.received, req.Items)

		if f.failBatches[f.batchCalls] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		resp := models.BatchResponse{}
		for _, item := range req.Items {
			outcome := models.ProcessedItem{
				ClientID: item.ClientID,
				ServerID: "srv-" + item.TaskID,
				Status:   models.ItemStatusSuccess,
			}
			if status, ok := f.itemStatuses[item.ClientID]; ok && status == models.ItemStatusError {
				outcome = models.ProcessedItem{
					ClientID: item.ClientID,
					Status:   models.ItemStatusError,
					Error:    "scripted rejection",
				}
			}
			resp.ProcessedItems = append(resp.ProcessedItems, outcome)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
	return mux
}

func newTestOrchestrator(t *testing.T, baseURL string, batchSize int) (*Orchestrator, *RetryManager, *repository.MemoryStateRepository) {
	t.Helper()
	logger := zerolog.Nop()
	db := newTestDB(t)
	manager := NewRetryManager(db, nil, nil, models.DefaultMaxRetries, &logger)
	state := repository.NewMemoryStateRepository()

	orch := NewOrchestrator(
		db,
		NewProber(baseURL, time.Second, &logger),
		NewClient(baseURL, time.Second, db, &logger),
		manager,
		state,
		nil,
		batchSize,
		&logger,
	)
	return orch, manager, state
}

func TestRunCycleUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	orch, manager, state := newTestOrchestrator(t, srv.URL, 10)
	ctx := context.Background()
	seedTaskWithMutation(t, orch.db, "t-1")

	result := orch.RunCycle(ctx)

	assert.False(t, result.Success)
	assert.Zero(t, result.SyncedItems)
	assert.Zero(t, result.FailedItems)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unreachable")

	// The mutation log is untouched: no retries consumed.
	entries, err := orch.db.GetPendingMutations(ctx, manager.MaxRetries())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Zero(t, entries[0].RetryCount)

	persisted, err := state.GetState(ctx)
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.False(t, persisted.Online)
}

func TestRunCycleEmptyBacklog(t *testing.T) {
	remote := &fakeRemote{t: t}
	srv := httptest.NewServer(remote.handler())
	defer srv.Close()

	orch, _, _ := newTestOrchestrator(t, srv.URL, 10)

	result := orch.RunCycle(context.Background())

	assert.True(t, result.Success)
	assert.Zero(t, result.SyncedItems)
	assert.Zero(t, remote.batchCalls)
}

func TestRunCycleSyncsBacklog(t *testing.T) {
	remote := &fakeRemote{t: t}
	srv := httptest.NewServer(remote.handler())
	defer srv.Close()

	orch, manager, state := newTestOrchestrator(t, srv.URL, 2)
	ctx := context.Background()

	seedTaskWithMutation(t, orch.db, "t-1")
	seedTaskWithMutation(t, orch.db, "t-2")
	seedTaskWithMutation(t, orch.db, "t-3")

	result := orch.RunCycle(ctx)

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.SyncedItems)
	assert.Zero(t, result.FailedItems)
	assert.Equal(t, 2, remote.batchCalls, "3 entries at batch size 2")

	entries, err := orch.db.GetPendingMutations(ctx, manager.MaxRetries())
	require.NoError(t, err)
	assert.Empty(t, entries)

	task, err := orch.db.GetTask(ctx, "t-2")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSynced, task.SyncStatus)
	require.NotNil(t, task.ServerID)
	assert.Equal(t, "srv-t-2", *task.ServerID)

	persisted, err := state.GetState(ctx)
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.True(t, persisted.Online)
	assert.NotNil(t, persisted.LastSyncAt)
}

func TestRunCycleItemErrorConsumesRetry(t *testing.T) {
	remote := &fakeRemote{t: t}
	srv := httptest.NewServer(remote.handler())
	defer srv.Close()

	orch, manager, _ := newTestOrchestrator(t, srv.URL, 10)
	ctx := context.Background()

	seedTaskWithMutation(t, orch.db, "t-good")
	bad := seedTaskWithMutation(t, orch.db, "t-bad")
	remote.itemStatuses = map[string]string{bad.ID: models.ItemStatusError}

	result := orch.RunCycle(ctx)

	assert.False(t, result.Success)
	assert.Equal(t, 1, result.SyncedItems)
	assert.Equal(t, 1, result.FailedItems)

	entries, err := orch.db.GetPendingMutations(ctx, manager.MaxRetries())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, bad.ID, entries[0].ID)
	assert.Equal(t, 1, entries[0].RetryCount)

	task, err := orch.db.GetTask(ctx, "t-bad")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusError, task.SyncStatus)
}

func TestFailedCycleDoesNotAdvanceLastSync(t *testing.T) {
	remote := &fakeRemote{t: t}
	srv := httptest.NewServer(remote.handler())
	defer srv.Close()

	orch, _, state := newTestOrchestrator(t, srv.URL, 10)
	ctx := context.Background()

	seedTaskWithMutation(t, orch.db, "t-ok")
	result := orch.RunCycle(ctx)
	require.True(t, result.Success)

	persisted, err := state.GetState(ctx)
	require.NoError(t, err)
	require.NotNil(t, persisted.LastSyncAt)
	lastSync := *persisted.LastSyncAt

	// A reachable cycle where every item fails keeps the old position.
	entry := seedTaskWithMutation(t, orch.db, "t-bad")
	remote.itemStatuses = map[string]string{entry.ID: models.ItemStatusError}

	result = orch.RunCycle(ctx)
	require.False(t, result.Success)

	persisted, err = state.GetState(ctx)
	require.NoError(t, err)
	assert.True(t, persisted.Online)
	require.NotNil(t, persisted.LastSyncAt)
	assert.Equal(t, lastSync, *persisted.LastSyncAt)
}

func TestRunCycleTransportFailureFailsWholeBatch(t *testing.T) {
	remote := &fakeRemote{t: t, failBatches: map[int]bool{1: true}}
	srv := httptest.NewServer(remote.handler())
	defer srv.Close()

	orch, manager, _ := newTestOrchestrator(t, srv.URL, 2)
	ctx := context.Background()

	seedTaskWithMutation(t, orch.db, "t-1")
	seedTaskWithMutation(t, orch.db, "t-2")
	seedTaskWithMutation(t, orch.db, "t-3")

	result := orch.RunCycle(ctx)

	// First batch (2 entries) failed end-to-end, second batch succeeded.
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.SyncedItems)
	assert.Equal(t, 2, result.FailedItems)
	assert.Equal(t, 2, remote.batchCalls)

	entries, err := orch.db.GetPendingMutations(ctx, manager.MaxRetries())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, 1, entry.RetryCount)
	}
}

func TestRunCycleDeadLettersAfterMaxRetries(t *testing.T) {
	remote := &fakeRemote{t: t}
	srv := httptest.NewServer(remote.handler())
	defer srv.Close()

	orch, _, _ := newTestOrchestrator(t, srv.URL, 10)
	ctx := context.Background()

	entry := seedTaskWithMutation(t, orch.db, "t-1")
	remote.itemStatuses = map[string]string{entry.ID: models.ItemStatusError}

	for i := 0; i < models.DefaultMaxRetries; i++ {
		result := orch.RunCycle(ctx)
		assert.False(t, result.Success, "cycle %d", i+1)
	}

	// Terminal: the entry is gone, a dead letter references it, the task is failed.
	total, err := orch.db.CountMutations(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)

	deadLetters, err := orch.db.GetDeadLetters(ctx)
	require.NoError(t, err)
	require.Len(t, deadLetters, 1)
	assert.Equal(t, entry.ID, deadLetters[0].EntryID)

	task, err := orch.db.GetTask(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusFailed, task.SyncStatus)

	// Further cycles have nothing to send.
	result := orch.RunCycle(ctx)
	assert.True(t, result.Success)
	assert.Zero(t, result.SyncedItems)
}
