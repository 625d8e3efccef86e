package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"tasksync/internal/models"
)

// ErrTaskNotFound is returned when a task id matches no row.
var ErrTaskNotFound = errors.New("task not found")

const taskColumns = `id, title, description, completed, created_at, updated_at, deleted, sync_status, server_id, last_synced_at`

// CreateTask inserts a new task row.
func (db *DB) CreateTask(ctx context.Context, task *models.Task) error {
	query := `INSERT INTO tasks (` + taskColumns + `)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.db.ExecContext(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.Completed,
		task.CreatedAt,
		task.UpdatedAt,
		task.Deleted,
		task.SyncStatus,
		task.ServerID,
		task.LastSyncedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// GetTask returns a task by id, including soft-deleted rows. Callers that
// serve normal reads must check the Deleted flag.
func (db *DB) GetTask(ctx context.Context, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`

	task, err := scanTask(db.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// ListTasks returns all tasks that are not soft-deleted, oldest first.
func (db *DB) ListTasks(ctx context.Context) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE deleted = 0 ORDER BY created_at ASC, id ASC`

	rows, err := db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// UpdateTask rewrites the task's data columns and bumps updated_at.
func (db *DB) UpdateTask(ctx context.Context, task *models.Task) error {
	query := `UPDATE tasks SET title = ?, description = ?, completed = ?, updated_at = ?, sync_status = ? WHERE id = ?`

	result, err := db.db.ExecContext(ctx, query,
		task.Title,
		task.Description,
		task.Completed,
		task.UpdatedAt,
		task.SyncStatus,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return requireRow(result)
}

// MarkTaskDeleted soft-deletes the task. The row stays until its delete
// mutation propagates to the remote.
func (db *DB) MarkTaskDeleted(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE tasks SET deleted = 1, updated_at = ?, sync_status = ? WHERE id = ?`

	result, err := db.db.ExecContext(ctx, query, at, models.SyncStatusPending, id)
	if err != nil {
		return fmt.Errorf("failed to mark task deleted: %w", err)
	}
	return requireRow(result)
}

// SetTaskSyncStatus updates the sync status of a single task.
func (db *DB) SetTaskSyncStatus(ctx context.Context, id, status string) error {
	query := `UPDATE tasks SET sync_status = ? WHERE id = ?`

	_, err := db.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to set task sync status: %w", err)
	}
	return nil
}

// SetTasksSyncStatus updates the sync status of every listed task in one
// statement. Used to flip a whole batch to in-progress before transmission.
func (db *DB) SetTasksSyncStatus(ctx context.Context, ids []string, status string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	query := `UPDATE tasks SET sync_status = ? WHERE id IN (` + placeholders + `)`

	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, status)
	for _, id := range ids {
		args = append(args, id)
	}

	_, err := db.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to set tasks sync status: %w", err)
	}
	return nil
}

// MarkTaskSynced records a successful sync: status, server id and timestamp.
func (db *DB) MarkTaskSynced(ctx context.Context, id, serverID string, at time.Time) error {
	query := `UPDATE tasks SET sync_status = ?, server_id = ?, last_synced_at = ? WHERE id = ?`

	_, err := db.db.ExecContext(ctx, query, models.SyncStatusSynced, serverID, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark task synced: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var task models.Task
	var description sql.NullString
	var serverID sql.NullString
	var lastSyncedAt sql.NullTime

	err := row.Scan(
		&task.ID,
		&task.Title,
		&description,
		&task.Completed,
		&task.CreatedAt,
		&task.UpdatedAt,
		&task.Deleted,
		&task.SyncStatus,
		&serverID,
		&lastSyncedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Description = description.String
	if serverID.Valid {
		task.ServerID = &serverID.String
	}
	if lastSyncedAt.Valid {
		task.LastSyncedAt = &lastSyncedAt.Time
	}
	return &task, nil
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTaskNotFound
	}
	return nil
}
