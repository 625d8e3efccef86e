package models

import "time"

// RemoteTask is the authority's copy of a task, keyed by a server-assigned
// id. ClientID maps back to the originating task so redelivered creates
// upsert instead of duplicating.
type RemoteTask struct {
	ServerID    string    `json:"server_id"`
	ClientID    string    `json:"client_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	Deleted     bool      `json:"deleted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot renders the remote task in wire form.
func (r *RemoteTask) Snapshot() TaskSnapshot {
	return TaskSnapshot{
		ID:          r.ClientID,
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Deleted:     r.Deleted,
	}
}
