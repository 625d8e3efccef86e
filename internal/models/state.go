package models

import "time"

// SyncState is the node's last-known sync position, persisted across
// restarts so GET /status survives a process bounce. LastSyncAt is the
// time of the last successful cycle, not the last attempt.
type SyncState struct {
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
	Online     bool       `json:"online"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
