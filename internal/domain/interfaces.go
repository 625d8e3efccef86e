package domain

import (
	"context"

	"tasksync/internal/models"
)

// StateRepository persists the node's sync position.
type StateRepository interface {
	GetState(ctx context.Context) (*models.SyncState, error)
	SetState(ctx context.Context, state *models.SyncState) error
}

// EventPublisher decouples components from the concrete event bus.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SyncRunner executes one on-demand sync cycle.
type SyncRunner interface {
	RunCycle(ctx context.Context) models.SyncResult
}

// ConnectivityProber reports whether the remote authority answers.
type ConnectivityProber interface {
	IsReachable(ctx context.Context) bool
}
