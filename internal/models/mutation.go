package models

import "time"

// MutationEntry is one pending local change awaiting synchronization.
// Entries for the same task are processed in the order they were created;
// RetryCount only grows and is bounded before eviction to the dead letter.
type MutationEntry struct {
	ID         string       `json:"id"`
	TaskID     string       `json:"task_id"`
	Operation  string       `json:"operation"`
	Snapshot   TaskSnapshot `json:"snapshot"`
	CreatedAt  time.Time    `json:"created_at"`
	RetryCount int          `json:"retry_count"`
	LastError  *string      `json:"last_error,omitempty"`
}

// DeadLetterEntry records a mutation that permanently failed after
// exhausting its retries. Append-only; never mutated.
type DeadLetterEntry struct {
	ID         string       `json:"id"`
	EntryID    string       `json:"entry_id"`
	TaskID     string       `json:"task_id"`
	Operation  string       `json:"operation"`
	Snapshot   TaskSnapshot `json:"snapshot"`
	Error      string       `json:"error"`
	RetryCount int          `json:"retry_count"`
	FailedAt   time.Time    `json:"failed_at"`
}
