// Package remote implements the authority side of the sync protocol:
// batch ingestion with integrity verification and last-write-wins conflict
// resolution against the server's own store.
package remote

import (
	"context"
	"fmt"
	"time"

	"tasksync/internal/database"
	"tasksync/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Resolver decides the final state of each incoming item. Items are
// processed one at a time; a failure in one item never aborts its siblings.
type Resolver struct {
	db     *database.DB
	logger *zerolog.Logger
}

func NewResolver(db *database.DB, logger *zerolog.Logger) *Resolver {
	return &Resolver{db: db, logger: logger}
}

// Process resolves every item in order and returns one outcome per item.
func (r *Resolver) Process(ctx context.Context, items []models.BatchItem) []models.ProcessedItem {
	outcomes := make([]models.ProcessedItem, 0, len(items))
	for _, item := range items {
		outcomes = append(outcomes, r.resolveItem(ctx, item))
	}
	return outcomes
}

func (r *Resolver) resolveItem(ctx context.Context, item models.BatchItem) models.ProcessedItem {
	var (
		task *models.RemoteTask
		err  error
	)

	switch item.Operation {
	case models.OpCreate:
		task, err = r.applyCreate(ctx, item)
	case models.OpUpdate:
		task, err = r.applyUpdate(ctx, item)
	case models.OpDelete:
		task, err = r.applyDelete(ctx, item)
	default:
		err = fmt.Errorf("unknown operation: %s", item.Operation)
	}

	if err != nil {
		r.logger.Warn().Err(err).Str("client_id", item.ClientID).Str("operation", item.Operation).Msg("item resolution failed")
		return models.ProcessedItem{
			ClientID: item.ClientID,
			Status:   models.ItemStatusError,
			Error:    err.Error(),
		}
	}

	resolved := task.Snapshot()
	return models.ProcessedItem{
		ClientID:     item.ClientID,
		ServerID:     task.ServerID,
		Status:       models.ItemStatusSuccess,
		ResolvedData: &resolved,
	}
}

// applyCreate creates the task from the incoming payload. Keyed on the
// client's task id, so a redelivered create upserts instead of duplicating.
func (r *Resolver) applyCreate(ctx context.Context, item models.BatchItem) (*models.RemoteTask, error) {
	existing, err := r.db.GetRemoteTaskByClientID(ctx, item.TaskID)
	if err != nil {
		return nil, err
	}

	task := remoteTaskFromSnapshot(item.TaskID, item.Data)
	if existing != nil {
		task.ServerID = existing.ServerID
		task.CreatedAt = existing.CreatedAt
	} else {
		task.ServerID = uuid.NewString()
	}

	if err := r.db.UpsertRemoteTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// applyUpdate looks up the server's current version. Absent tasks degrade
// to create, so updates to unknown tasks are never silently lost. Present
// tasks follow last-write-wins: a strictly newer server version is
// preserved unchanged (ties favor the client).
func (r *Resolver) applyUpdate(ctx context.Context, item models.BatchItem) (*models.RemoteTask, error) {
	existing, err := r.db.GetRemoteTaskByClientID(ctx, item.TaskID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return r.applyCreate(ctx, item)
	}

	if existing.UpdatedAt.After(item.Data.UpdatedAt) {
		return existing, nil
	}

	updated := remoteTaskFromSnapshot(item.TaskID, item.Data)
	updated.ServerID = existing.ServerID
	updated.CreatedAt = existing.CreatedAt
	if err := r.db.UpdateRemoteTask(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// applyDelete idempotently marks the task deleted; deleting an unknown or
// already-deleted task still succeeds with a deleted-flagged payload.
func (r *Resolver) applyDelete(ctx context.Context, item models.BatchItem) (*models.RemoteTask, error) {
	now := time.Now().UTC()
	if err := r.db.MarkRemoteTaskDeleted(ctx, item.TaskID, now); err != nil {
		return nil, err
	}

	existing, err := r.db.GetRemoteTaskByClientID(ctx, item.TaskID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	// Nothing to delete: answer with the incoming payload flagged deleted.
	task := remoteTaskFromSnapshot(item.TaskID, item.Data)
	task.ServerID = uuid.NewString()
	task.Deleted = true
	task.UpdatedAt = now
	return task, nil
}

func remoteTaskFromSnapshot(clientID string, data models.TaskSnapshot) *models.RemoteTask {
	return &models.RemoteTask{
		ClientID:    clientID,
		Title:       data.Title,
		Description: data.Description,
		Completed:   data.Completed,
		Deleted:     data.Deleted,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}
}
