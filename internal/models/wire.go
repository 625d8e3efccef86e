package models

import "time"

// BatchItem is one mutation as transmitted to the remote authority.
// ClientID is the mutation entry id, used to correlate outcomes.
type BatchItem struct {
	ClientID  string       `json:"client_id"`
	TaskID    string       `json:"task_id"`
	Operation string       `json:"operation"`
	Data      TaskSnapshot `json:"data"`
}

// BatchRequest is the payload of POST /batch. Checksum is optional; when
// present the remote recomputes it and rejects the whole batch on mismatch.
type BatchRequest struct {
	Items           []BatchItem `json:"items"`
	ClientTimestamp time.Time   `json:"client_timestamp"`
	Checksum        string      `json:"checksum,omitempty"`
}

// ProcessedItem is the per-item outcome returned by the remote authority.
type ProcessedItem struct {
	ClientID     string        `json:"client_id"`
	ServerID     string        `json:"server_id,omitempty"`
	Status       string        `json:"status"`
	ResolvedData *TaskSnapshot `json:"resolved_data,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// BatchResponse carries one outcome per submitted item, in order.
type BatchResponse struct {
	ProcessedItems []ProcessedItem `json:"processed_items"`
}

// SyncResult accumulates the outcome of one full sync cycle.
type SyncResult struct {
	Success     bool     `json:"success"`
	SyncedItems int      `json:"synced_items"`
	FailedItems int      `json:"failed_items"`
	Errors      []string `json:"errors"`
}

// StatusReport is returned by GET /status on the local node.
type StatusReport struct {
	PendingSyncCount  int        `json:"pending_sync_count"`
	LastSyncTimestamp *time.Time `json:"last_sync_timestamp"`
	IsOnline          bool       `json:"is_online"`
	SyncQueueSize     int        `json:"sync_queue_size"`
}
