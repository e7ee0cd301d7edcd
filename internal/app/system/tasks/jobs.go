// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper drops idle rate-limit buckets and reports how many it removed.
type Sweeper interface {
	Sweep() int
}

// PendingCounter reports the number of undelivered outbox entries.
type PendingCounter interface {
	CountPending(ctx context.Context) (int64, error)
}

// LimiterSweepJob creates a job that evicts idle buckets from limiter so
// per-IP and per-email state does not grow without bound.
func LimiterSweepJob(name string, limiter Sweeper, logger *zap.Logger) Job {
	return Job{
		Name:     name,
		Interval: 5 * time.Minute,
		Run: func(ctx context.Context) error {
			if n := limiter.Sweep(); n > 0 {
				logger.Debug("rate limiter swept", zap.String("limiter", name), zap.Int("removed", n))
			}
			return nil
		},
	}
}

// OutboxBacklogJob creates a job that warns while notifications are waiting
// in the outbox.
func OutboxBacklogJob(outbox PendingCounter, logger *zap.Logger) Job {
	return Job{
		Name:     "outbox-backlog",
		Interval: 10 * time.Minute,
		Run: func(ctx context.Context) error {
			n, err := outbox.CountPending(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Warn("notifications waiting in outbox", zap.Int64("pending", n))
			}
			return nil
		},
	}
}
