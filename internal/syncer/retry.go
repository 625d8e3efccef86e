package syncer

import (
	"context"
	"encoding/json"
	"time"

	"tasksync/internal/database"
	"tasksync/internal/domain"
	"tasksync/internal/events"
	"tasksync/internal/metrics"
	"tasksync/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const deadLetterKey = "tasksync:deadletter"

// RetryManager tracks per-entry retry counts and evicts entries that
// exhaust their retries to the dead-letter store. Dead letters are also
// mirrored to a redis list when a client is configured.
type RetryManager struct {
	db         *database.DB
	redis      *redis.Client
	bus        domain.EventPublisher
	maxRetries int
	logger     *zerolog.Logger
}

func NewRetryManager(db *database.DB, redisClient *redis.Client, bus domain.EventPublisher, maxRetries int, logger *zerolog.Logger) *RetryManager {
	if maxRetries <= 0 {
		maxRetries = models.DefaultMaxRetries
	}
	return &RetryManager{
		db:         db,
		redis:      redisClient,
		bus:        bus,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

func (m *RetryManager) MaxRetries() int {
	return m.maxRetries
}

// HandleSuccess removes the entry and marks the task synced with the
// server-assigned id.
func (m *RetryManager) HandleSuccess(ctx context.Context, entry *models.MutationEntry, item models.ProcessedItem) error {
	if err := m.db.DeleteMutation(ctx, entry.ID); err != nil {
		return err
	}
	return m.db.MarkTaskSynced(ctx, entry.TaskID, item.ServerID, time.Now().UTC())
}

// HandleFailure advances the entry's retry state machine. Below the bound
// the retry count is incremented and the task marked error, eligible again
// on the next cycle. At the bound the entry moves to the dead-letter store,
// the task is marked failed and the entry is removed from the log. That
// transition is terminal.
func (m *RetryManager) HandleFailure(ctx context.Context, entry *models.MutationEntry, cause error) error {
	attempt := entry.RetryCount + 1
	if attempt < m.maxRetries {
		if err := m.db.IncrementMutationRetry(ctx, entry.ID, cause.Error()); err != nil {
			return err
		}
		return m.db.SetTaskSyncStatus(ctx, entry.TaskID, models.SyncStatusError)
	}

	deadLetter := &models.DeadLetterEntry{
		ID:         uuid.NewString(),
		EntryID:    entry.ID,
		TaskID:     entry.TaskID,
		Operation:  entry.Operation,
		Snapshot:   entry.Snapshot,
		Error:      cause.Error(),
		RetryCount: attempt,
		FailedAt:   time.Now().UTC(),
	}

	if err := m.db.InsertDeadLetter(ctx, deadLetter); err != nil {
		return err
	}
	if err := m.db.DeleteMutation(ctx, entry.ID); err != nil {
		return err
	}
	if err := m.db.SetTaskSyncStatus(ctx, entry.TaskID, models.SyncStatusFailed); err != nil {
		return err
	}

	m.mirrorDeadLetter(ctx, deadLetter)
	metrics.IncDeadLettered()

	if m.bus != nil {
		_ = m.bus.PublishJSON(events.EventEntryDeadLettered, events.DeadLetterEventPayload{
			EntryID:   entry.ID,
			TaskID:    entry.TaskID,
			Operation: entry.Operation,
			Error:     cause.Error(),
		})
	}

	m.logger.Warn().
		Str("entry_id", entry.ID).
		Str("task_id", entry.TaskID).
		Str("operation", entry.Operation).
		Int("retry_count", attempt).
		Msg("mutation evicted to dead letter")

	return nil
}

func (m *RetryManager) mirrorDeadLetter(ctx context.Context, entry *models.DeadLetterEntry) {
	if m.redis == nil {
		return
	}
	data, err := json.Marshal(entry)
	if err != nil {
		m.logger.Error().Err(err).Str("entry_id", entry.EntryID).Msg("encode dead letter mirror")
		return
	}
	if err := m.redis.LPush(ctx, deadLetterKey, data).Err(); err != nil {
		m.logger.Error().Err(err).Str("entry_id", entry.EntryID).Msg("dead letter mirror push")
	}
}
