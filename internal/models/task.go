package models

import "time"

// Task is the locally owned record that reconciles with the remote authority.
// A soft-deleted task is excluded from normal reads but keeps syncing until
// its delete propagates.
type Task struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Completed    bool       `json:"completed"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Deleted      bool       `json:"deleted"`
	SyncStatus   string     `json:"sync_status"`
	ServerID     *string    `json:"server_id,omitempty"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}

// TaskSnapshot is the task's data as captured at enqueue time. It is what
// travels over the wire and what the checksum is computed from, so field
// order must stay stable.
type TaskSnapshot struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Deleted     bool      `json:"deleted"`
}

// Snapshot captures the task's current data, dropping sync bookkeeping.
func (t *Task) Snapshot() TaskSnapshot {
	return TaskSnapshot{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		Deleted:     t.Deleted,
	}
}
