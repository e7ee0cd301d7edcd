// internal/app/system/workers/outboxretry.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/mentorhub/internal/app/system/metrics"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Outbox is the parked-notification queue the worker drains.
type Outbox interface {
	Due(ctx context.Context, now time.Time, limit int64) ([]models.OutboxEntry, error)
	Delivered(ctx context.Context, id primitive.ObjectID) error
	Failed(ctx context.Context, id primitive.ObjectID, attempts int, cause error, next time.Time, abandon bool) error
}

// NotificationWriter inserts a notification. Inserts must be idempotent on
// the notification id.
type NotificationWriter interface {
	Insert(ctx context.Context, n models.Notification) (models.Notification, error)
}

// OutboxRetryConfig tunes the retry loop.
type OutboxRetryConfig struct {
	Interval    time.Duration // how often to look for due entries
	BaseBackoff time.Duration // delay after the first failed retry, doubled each time
	MaxBackoff  time.Duration
	MaxAttempts int   // attempts (including the original write) before abandoning
	BatchSize   int64 // entries per tick
}

func (c OutboxRetryConfig) withDefaults() OutboxRetryConfig {
	if c.Interval <= 0 {
		c.Interval = 30 * time.Second
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 30 * time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 30 * time.Minute
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 8
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	return c
}

// Backoff returns the delay before the next attempt after attempts failures.
func (c OutboxRetryConfig) Backoff(attempts int) time.Duration {
	c = c.withDefaults()
	d := c.BaseBackoff
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= c.MaxBackoff {
			return c.MaxBackoff
		}
	}
	return d
}

// OutboxRetry is a background worker that re-attempts notification writes
// parked in the outbox.
type OutboxRetry struct {
	outbox  Outbox
	writer  NotificationWriter
	metrics *metrics.Metrics
	log     *zap.Logger
	cfg     OutboxRetryConfig
	now     func() time.Time
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewOutboxRetry creates a new outbox retry worker.
func NewOutboxRetry(outbox Outbox, writer NotificationWriter, m *metrics.Metrics, logger *zap.Logger, cfg OutboxRetryConfig) *OutboxRetry {
	return &OutboxRetry{
		outbox:  outbox,
		writer:  writer,
		metrics: m,
		log:     logger,
		cfg:     cfg.withDefaults(),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
}

// SetClock replaces the worker's time source.
func (w *OutboxRetry) SetClock(now func() time.Time) { w.now = now }

// Start begins the background retry loop.
func (w *OutboxRetry) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("outbox retry worker started",
		zap.Duration("interval", w.cfg.Interval),
		zap.Int("max_attempts", w.cfg.MaxAttempts))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *OutboxRetry) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("outbox retry worker stopped")
}

func (w *OutboxRetry) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			w.RunOnce(ctx)
			cancel()
		}
	}
}

// RunOnce processes one batch of due entries and returns how many were
// delivered.
func (w *OutboxRetry) RunOnce(ctx context.Context) int {
	now := w.now().UTC()
	due, err := w.outbox.Due(ctx, now, w.cfg.BatchSize)
	if err != nil {
		w.log.Error("failed to load due outbox entries", zap.Error(err))
		return 0
	}

	delivered := 0
	for _, e := range due {
		if _, err := w.writer.Insert(ctx, e.Notification); err != nil {
			w.fail(ctx, e, err, now)
			continue
		}
		if err := w.outbox.Delivered(ctx, e.ID); err != nil {
			w.log.Warn("delivered outbox entry could not be removed",
				zap.String("entry_id", e.ID.Hex()), zap.Error(err))
		}
		w.metrics.Delivered()
		delivered++
	}

	if delivered > 0 {
		w.log.Info("delivered parked notifications", zap.Int("count", delivered))
	}
	return delivered
}

func (w *OutboxRetry) fail(ctx context.Context, e models.OutboxEntry, cause error, now time.Time) {
	attempts := e.Attempts + 1
	abandon := attempts >= w.cfg.MaxAttempts
	next := now.Add(w.cfg.Backoff(attempts))

	if err := w.outbox.Failed(ctx, e.ID, attempts, cause, next, abandon); err != nil {
		w.log.Error("failed to record outbox attempt",
			zap.String("entry_id", e.ID.Hex()), zap.Error(err))
	}

	fields := []zap.Field{
		zap.String("entry_id", e.ID.Hex()),
		zap.String("user_id", e.Notification.UserID),
		zap.String("type", e.Notification.Type),
		zap.Int("attempts", attempts),
		zap.Error(cause),
	}
	if abandon {
		w.metrics.Abandoned()
		w.log.Error("abandoning notification after max attempts", fields...)
		return
	}
	w.metrics.Retried()
	w.log.Warn("notification retry failed", append(fields, zap.Time("next_attempt_at", next))...)
}
