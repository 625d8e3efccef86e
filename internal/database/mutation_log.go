package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"tasksync/internal/models"
)

// EnqueueMutation appends an entry to the mutation log with retry count 0.
func (db *DB) EnqueueMutation(ctx context.Context, entry *models.MutationEntry) error {
	payload, err := json.Marshal(entry.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode mutation payload: %w", err)
	}

	query := `INSERT INTO sync_queue (id, task_id, operation, payload, created_at, retry_count, last_error)
              VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = db.db.ExecContext(ctx, query,
		entry.ID,
		entry.TaskID,
		entry.Operation,
		string(payload),
		entry.CreatedAt,
		entry.RetryCount,
		entry.LastError,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue mutation: %w", err)
	}
	return nil
}

// GetPendingMutations returns entries with retry count below maxRetries in
// global chronological order. An entity's mutations are enqueued in time
// order, so per-task ordering holds without grouping by task id; sorting by
// task id lexically would starve tasks whose ids sort late.
func (db *DB) GetPendingMutations(ctx context.Context, maxRetries int) ([]models.MutationEntry, error) {
	query := `SELECT id, task_id, operation, payload, created_at, retry_count, last_error
              FROM sync_queue
              WHERE retry_count < ?
              ORDER BY created_at ASC, id ASC`

	rows, err := db.db.QueryContext(ctx, query, maxRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending mutations: %w", err)
	}
	defer rows.Close()

	var entries []models.MutationEntry
	for rows.Next() {
		entry, err := scanMutation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mutation: %w", err)
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// DeleteMutation removes an entry, either after a successful sync or after
// eviction to the dead-letter store.
func (db *DB) DeleteMutation(ctx context.Context, id string) error {
	_, err := db.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete mutation: %w", err)
	}
	return nil
}

// IncrementMutationRetry bumps the retry count and records the error that
// caused the failure.
func (db *DB) IncrementMutationRetry(ctx context.Context, id, errMsg string) error {
	query := `UPDATE sync_queue SET retry_count = retry_count + 1, last_error = ? WHERE id = ?`

	_, err := db.db.ExecContext(ctx, query, errMsg, id)
	if err != nil {
		return fmt.Errorf("failed to increment mutation retry: %w", err)
	}
	return nil
}

// CountMutations reports the total mutation log size, retried or not.
func (db *DB) CountMutations(ctx context.Context) (int, error) {
	var count int
	err := db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_queue`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count mutations: %w", err)
	}
	return count, nil
}

// CountPendingMutations reports the backlog size for the status endpoint.
func (db *DB) CountPendingMutations(ctx context.Context, maxRetries int) (int, error) {
	var count int
	err := db.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sync_queue WHERE retry_count < ?`, maxRetries,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending mutations: %w", err)
	}
	return count, nil
}

func scanMutation(row rowScanner) (*models.MutationEntry, error) {
	var entry models.MutationEntry
	var payload string
	var lastError sql.NullString

	err := row.Scan(
		&entry.ID,
		&entry.TaskID,
		&entry.Operation,
		&payload,
		&entry.CreatedAt,
		&entry.RetryCount,
		&lastError,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(payload), &entry.Snapshot); err != nil {
		return nil, fmt.Errorf("decode mutation payload: %w", err)
	}
	if lastError.Valid {
		entry.LastError = &lastError.String
	}
	return &entry, nil
}
