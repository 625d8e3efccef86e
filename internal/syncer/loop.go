package syncer

import (
	"context"
	"time"

	"tasksync/internal/domain"

	"github.com/rs/zerolog"
)

// Loop runs sync cycles on an interval, backing off while consecutive
// cycles fail and resetting once one succeeds.
type Loop struct {
	orch     domain.SyncRunner
	interval time.Duration
	policy   RetryPolicy
	logger   *zerolog.Logger
}

func NewLoop(orch domain.SyncRunner, interval time.Duration, policy RetryPolicy, logger *zerolog.Logger) *Loop {
	if interval <= 0 {
		interval = time.Minute
	}
	if policy.InitialDelay == 0 {
		policy.InitialDelay = 2 * time.Second
	}
	if policy.MaxDelay == 0 {
		policy.MaxDelay = time.Minute
	}
	if policy.BackoffFactor == 0 {
		policy.BackoffFactor = 2
	}
	return &Loop{orch: orch, interval: interval, policy: policy, logger: logger}
}

// Start blocks until ctx is done.
func (l *Loop) Start(ctx context.Context) {
	l.logger.Info().Dur("interval", l.interval).Msg("sync loop started")
	defer l.logger.Info().Msg("sync loop stopped")

	failures := 0
	for {
		delay := l.interval
		if failures > 0 {
			delay = l.policy.NextDelay(failures)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		result := l.orch.RunCycle(ctx)
		if result.Success {
			failures = 0
			continue
		}
		failures++
		l.logger.Warn().Int("consecutive_failures", failures).Msg("sync cycle failed")
	}
}
