// internal/app/system/tasks/scheduler.go
// Package tasks runs periodic maintenance jobs.
package tasks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is one periodic task. Run is called every Interval until the
// scheduler stops; an error is logged and the job keeps its schedule.
type Job struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler owns one goroutine per job.
type Scheduler struct {
	jobs   []Job
	log    *zap.Logger
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewScheduler creates a scheduler for jobs. Nothing runs until Start.
func NewScheduler(logger *zap.Logger, jobs ...Job) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{jobs: jobs, log: logger, stopCh: make(chan struct{})}
}

// Start launches every job.
func (s *Scheduler) Start() {
	for _, j := range s.jobs {
		if j.Interval <= 0 || j.Run == nil {
			s.log.Warn("task skipped: no interval or run func", zap.String("task", j.Name))
			continue
		}
		s.wg.Add(1)
		go s.loop(j)
	}
	s.log.Info("task scheduler started", zap.Int("jobs", len(s.jobs)))
}

// Stop signals every job and waits for in-flight runs to finish. It is
// safe to call more than once.
func (s *Scheduler) Stop() {
	s.once.Do(func() {
		close(s.stopCh)
		s.wg.Wait()
		s.log.Info("task scheduler stopped")
	})
}

func (s *Scheduler) loop(j Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.runOnce(j)
		}
	}
}

func (s *Scheduler) runOnce(j Job) {
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := j.Run(ctx); err != nil {
		s.log.Warn("task failed", zap.String("task", j.Name), zap.Error(err))
	}
}
