package repository

import (
	"context"
	"sync/atomic"
	"time"

	"tasksync/internal/domain"
	"tasksync/internal/models"

	"github.com/rs/zerolog"
)

// FailoverStateRepository prefers the primary repository and falls back to
// the secondary while the primary is down, retrying it periodically.
type FailoverStateRepository struct {
	primary   domain.StateRepository
	fallback  domain.StateRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64 // unix nanos of the last failed primary attempt
}

const recoveryInterval = time.Minute

func NewFailoverStateRepository(primary, fallback domain.StateRepository, logger *zerolog.Logger) *FailoverStateRepository {
	return &FailoverStateRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverStateRepository) GetState(ctx context.Context) (*models.SyncState, error) {
	if !r.isDown.Load() {
		state, err := r.primary.GetState(ctx)
		if err == nil {
			return state, nil
		}
		r.logger.Error().Err(err).Msg("primary state repository failed, falling back to memory")
		r.markDown()
	}

	if r.shouldRecover() {
		state, err := r.primary.GetState(ctx)
		if err == nil {
			r.isDown.Store(false)
			return state, nil
		}
		r.markDown()
	}

	return r.fallback.GetState(ctx)
}

func (r *FailoverStateRepository) SetState(ctx context.Context, state *models.SyncState) error {
	// Always keep the fallback current so a primary outage loses nothing.
	if err := r.fallback.SetState(ctx, state); err != nil {
		return err
	}

	if !r.isDown.Load() {
		if err := r.primary.SetState(ctx, state); err != nil {
			r.logger.Error().Err(err).Msg("primary state repository write failed")
			r.markDown()
		}
		return nil
	}

	if r.shouldRecover() {
		if err := r.primary.SetState(ctx, state); err == nil {
			r.isDown.Store(false)
		} else {
			r.markDown()
		}
	}
	return nil
}

func (r *FailoverStateRepository) markDown() {
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverStateRepository) shouldRecover() bool {
	if !r.isDown.Load() {
		return false
	}
	last := time.Unix(0, r.lastCheck.Load())
	return time.Since(last) > recoveryInterval
}
