package database

import (
	"context"
	"encoding/json"
	"fmt"

	"tasksync/internal/models"
)

// InsertDeadLetter appends a permanently failed mutation. The dead-letter
// table is append-only; rows are never updated.
func (db *DB) InsertDeadLetter(ctx context.Context, entry *models.DeadLetterEntry) error {
	payload, err := json.Marshal(entry.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode dead letter payload: %w", err)
	}

	query := `INSERT INTO dead_letter (id, entry_id, task_id, operation, payload, error, retry_count, failed_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = db.db.ExecContext(ctx, query,
		entry.ID,
		entry.EntryID,
		entry.TaskID,
		entry.Operation,
		string(payload),
		entry.Error,
		entry.RetryCount,
		entry.FailedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert dead letter: %w", err)
	}
	return nil
}

// GetDeadLetters returns every dead-lettered mutation, most recent first.
func (db *DB) GetDeadLetters(ctx context.Context) ([]models.DeadLetterEntry, error) {
	query := `SELECT id, entry_id, task_id, operation, payload, error, retry_count, failed_at
              FROM dead_letter ORDER BY failed_at DESC, id DESC`

	rows, err := db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get dead letters: %w", err)
	}
	defer rows.Close()

	var entries []models.DeadLetterEntry
	for rows.Next() {
		var entry models.DeadLetterEntry
		var payload string
		err := rows.Scan(
			&entry.ID,
			&entry.EntryID,
			&entry.TaskID,
			&entry.Operation,
			&payload,
			&entry.Error,
			&entry.RetryCount,
			&entry.FailedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dead letter: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &entry.Snapshot); err != nil {
			return nil, fmt.Errorf("decode dead letter payload: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// CountDeadLetters reports the size of the dead-letter store.
func (db *DB) CountDeadLetters(ctx context.Context) (int, error) {
	var count int
	err := db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dead_letter`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count dead letters: %w", err)
	}
	return count, nil
}
