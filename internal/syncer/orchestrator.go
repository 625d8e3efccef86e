package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tasksync/internal/database"
	"tasksync/internal/domain"
	"tasksync/internal/events"
	"tasksync/internal/metrics"
	"tasksync/internal/models"

	"github.com/rs/zerolog"
)

// Orchestrator drives one full sync cycle: probe, fetch pending log,
// batch, send, apply outcomes, update status. Cycles never overlap and
// batches within a cycle run strictly sequentially, so per-task ordering
// and retry accounting stay deterministic.
type Orchestrator struct {
	db        *database.DB
	prober    *Prober
	client    *Client
	retries   *RetryManager
	state     domain.StateRepository
	bus       domain.EventPublisher
	batchSize int
	logger    *zerolog.Logger

	mu sync.Mutex
}

func NewOrchestrator(
	db *database.DB,
	prober *Prober,
	client *Client,
	retries *RetryManager,
	state domain.StateRepository,
	bus domain.EventPublisher,
	batchSize int,
	logger *zerolog.Logger,
) *Orchestrator {
	if batchSize <= 0 {
		batchSize = models.DefaultBatchSize
	}
	return &Orchestrator{
		db:        db,
		prober:    prober,
		client:    client,
		retries:   retries,
		state:     state,
		bus:       bus,
		batchSize: batchSize,
		logger:    logger,
	}
}

// RunCycle processes the entire backlog at invocation time. A batch failure
// does not abort subsequent batches; overall success means zero failed
// items across the cycle.
func (o *Orchestrator) RunCycle(ctx context.Context) models.SyncResult {
	o.mu.Lock()
	defer o.mu.Unlock()

	var result models.SyncResult

	if !o.prober.IsReachable(ctx) {
		result.Errors = append(result.Errors, "remote unreachable")
		o.finishCycle(ctx, false, &result)
		return result
	}

	entries, err := o.db.GetPendingMutations(ctx, o.retries.MaxRetries())
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("fetch pending mutations: %v", err))
		o.finishCycle(ctx, true, &result)
		return result
	}

	if len(entries) == 0 {
		result.Success = true
		o.finishCycle(ctx, true, &result)
		return result
	}

	o.logger.Info().Int("pending", len(entries)).Int("batch_size", o.batchSize).Msg("sync cycle started")

	for _, batch := range Partition(entries, o.batchSize) {
		o.processBatch(ctx, batch, &result)
	}

	result.Success = result.FailedItems == 0
	o.finishCycle(ctx, true, &result)
	return result
}

func (o *Orchestrator) processBatch(ctx context.Context, batch []models.MutationEntry, result *models.SyncResult) {
	resp, err := o.client.SendBatch(ctx, batch)
	if err != nil {
		// Whole-batch transport failure: every entry fails individually.
		result.Errors = append(result.Errors, fmt.Sprintf("batch send failed: %v", err))
		for i := range batch {
			if ferr := o.retries.HandleFailure(ctx, &batch[i], err); ferr != nil {
				o.logger.Error().Err(ferr).Str("entry_id", batch[i].ID).Msg("record batch failure")
			}
			result.FailedItems++
		}
		return
	}

	outcomes := make(map[string]models.ProcessedItem, len(resp.ProcessedItems))
	for _, item := range resp.ProcessedItems {
		outcomes[item.ClientID] = item
	}

	for i := range batch {
		entry := &batch[i]
		item, ok := outcomes[entry.ID]
		if !ok {
			missing := errors.New("remote returned no outcome for entry")
			if ferr := o.retries.HandleFailure(ctx, entry, missing); ferr != nil {
				o.logger.Error().Err(ferr).Str("entry_id", entry.ID).Msg("record missing outcome")
			}
			result.FailedItems++
			result.Errors = append(result.Errors, fmt.Sprintf("entry %s: no outcome returned", entry.ID))
			continue
		}

		if item.Status == models.ItemStatusSuccess {
			if err := o.retries.HandleSuccess(ctx, entry, item); err != nil {
				o.logger.Error().Err(err).Str("entry_id", entry.ID).Msg("record item success")
				result.FailedItems++
				result.Errors = append(result.Errors, fmt.Sprintf("entry %s: %v", entry.ID, err))
				continue
			}
			result.SyncedItems++
			continue
		}

		itemErr := errors.New(item.Error)
		if item.Error == "" {
			itemErr = errors.New("remote reported item error")
		}
		if ferr := o.retries.HandleFailure(ctx, entry, itemErr); ferr != nil {
			o.logger.Error().Err(ferr).Str("entry_id", entry.ID).Msg("record item failure")
		}
		result.FailedItems++
		result.Errors = append(result.Errors, fmt.Sprintf("entry %s: %s", entry.ID, itemErr))
	}
}

// finishCycle records metrics, persists the sync position and publishes the
// cycle event. reachable=false means the cycle aborted on the probe and the
// mutation log was left untouched.
func (o *Orchestrator) finishCycle(ctx context.Context, reachable bool, result *models.SyncResult) {
	metrics.ObserveCycle(result.Success, result.SyncedItems, result.FailedItems)
	if pending, err := o.db.CountPendingMutations(ctx, o.retries.MaxRetries()); err == nil {
		metrics.SetPendingMutations(pending)
	}

	if o.state != nil {
		now := time.Now().UTC()
		state := &models.SyncState{Online: reachable, UpdatedAt: now}
		// LastSyncAt only advances on a successful cycle; a failed or
		// aborted one keeps the previous position.
		if reachable && result.Success {
			state.LastSyncAt = &now
		} else if prev, err := o.state.GetState(ctx); err == nil && prev != nil {
			state.LastSyncAt = prev.LastSyncAt
		}
		if err := o.state.SetState(ctx, state); err != nil {
			o.logger.Error().Err(err).Msg("persist sync state")
		}
	}

	if o.bus != nil {
		_ = o.bus.PublishJSON(events.EventCycleCompleted, events.CycleEventPayload{
			Success:     result.Success,
			SyncedItems: result.SyncedItems,
			FailedItems: result.FailedItems,
			Errors:      result.Errors,
		})
	}

	o.logger.Info().
		Bool("success", result.Success).
		Int("synced", result.SyncedItems).
		Int("failed", result.FailedItems).
		Msg("sync cycle finished")
}
