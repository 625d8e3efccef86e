package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tasksync/internal/models"
)

// GetRemoteTaskByClientID looks up the authority's copy of a task by the
// originating client id. Returns (nil, nil) when no row exists.
func (db *DB) GetRemoteTaskByClientID(ctx context.Context, clientID string) (*models.RemoteTask, error) {
	query := `SELECT server_id, client_id, title, description, completed, deleted, created_at, updated_at
              FROM remote_tasks WHERE client_id = ?`

	var task models.RemoteTask
	var description sql.NullString
	err := db.db.QueryRowContext(ctx, query, clientID).Scan(
		&task.ServerID,
		&task.ClientID,
		&task.Title,
		&description,
		&task.Completed,
		&task.Deleted,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get remote task: %w", err)
	}

	task.Description = description.String
	return &task, nil
}

// UpsertRemoteTask inserts the authority's copy of a task, or rewrites it
// when the client id was seen before. Keyed on client_id so at-least-once
// redelivery of a create does not duplicate rows.
func (db *DB) UpsertRemoteTask(ctx context.Context, task *models.RemoteTask) error {
	query := `INSERT INTO remote_tasks (server_id, client_id, title, description, completed, deleted, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(client_id) DO UPDATE SET
                  title = excluded.title,
                  description = excluded.description,
                  completed = excluded.completed,
                  deleted = excluded.deleted,
                  updated_at = excluded.updated_at`

	_, err := db.db.ExecContext(ctx, query,
		task.ServerID,
		task.ClientID,
		task.Title,
		task.Description,
		task.Completed,
		task.Deleted,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert remote task: %w", err)
	}
	return nil
}

// UpdateRemoteTask rewrites the data columns of an existing remote task.
func (db *DB) UpdateRemoteTask(ctx context.Context, task *models.RemoteTask) error {
	query := `UPDATE remote_tasks SET title = ?, description = ?, completed = ?, deleted = ?, updated_at = ?
              WHERE client_id = ?`

	_, err := db.db.ExecContext(ctx, query,
		task.Title,
		task.Description,
		task.Completed,
		task.Deleted,
		task.UpdatedAt,
		task.ClientID,
	)
	if err != nil {
		return fmt.Errorf("failed to update remote task: %w", err)
	}
	return nil
}

// MarkRemoteTaskDeleted flags the remote task deleted. Idempotent: marking
// an already-deleted or missing task is not an error.
func (db *DB) MarkRemoteTaskDeleted(ctx context.Context, clientID string, at time.Time) error {
	query := `UPDATE remote_tasks SET deleted = 1, updated_at = ? WHERE client_id = ? AND deleted = 0`

	_, err := db.db.ExecContext(ctx, query, at, clientID)
	if err != nil {
		return fmt.Errorf("failed to mark remote task deleted: %w", err)
	}
	return nil
}

// CountRemoteTasks reports how many live rows the authority holds.
func (db *DB) CountRemoteTasks(ctx context.Context) (int, error) {
	var count int
	err := db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM remote_tasks`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count remote tasks: %w", err)
	}
	return count, nil
}
