package models

// Sync status of a task, tracked on the local node.
const (
	SyncStatusPending    = "pending"
	SyncStatusInProgress = "in-progress"
	SyncStatusSynced     = "synced"
	SyncStatusError      = "error"
	SyncStatusFailed     = "failed"
)

// Mutation operations recorded in the mutation log.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Per-item outcome statuses returned by the remote authority.
const (
	ItemStatusSuccess = "success"
	ItemStatusError   = "error"
)

const (
	DefaultBatchSize  = 50
	DefaultMaxRetries = 3
)
