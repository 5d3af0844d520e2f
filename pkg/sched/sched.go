// Package sched runs the daily push on a cron schedule.
package sched

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler wraps a cron runner with context-aware jobs, per-job run
// bookkeeping, and overlap suppression.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger

	mu   sync.Mutex
	jobs map[string]*jobState
}

type jobState struct {
	running bool
	lastRun time.Time
	lastErr error
}

// JobStatus is a point-in-time view of one registered job.
type JobStatus struct {
	Name      string    `json:"name"`
	Running   bool      `json:"running"`
	LastRun   time.Time `json:"last_run"`
	LastError string    `json:"last_error,omitempty"`
}

// New creates a scheduler in the given location. Pass nil for local time.
func New(loc *time.Location, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []cron.Option{}
	if loc != nil {
		opts = append(opts, cron.WithLocation(loc))
	}
	return &Scheduler{
		cron:   cron.New(opts...),
		logger: logger,
		jobs:   make(map[string]*jobState),
	}
}

// Add registers a job under a standard 5-field cron spec.
func (s *Scheduler) Add(spec, name string, job Job) error {
	s.mu.Lock()
	if _, exists := s.jobs[name]; exists {
		s.mu.Unlock()
		return fmt.Errorf("sched: job %s already registered", name)
	}
	s.jobs[name] = &jobState{}
	s.mu.Unlock()

	_, err := s.cron.AddFunc(spec, func() {
		s.run(name, job)
	})
	if err != nil {
		return fmt.Errorf("sched: add %s (%q): %w", name, spec, err)
	}
	return nil
}

// run executes one job invocation. A fire that overlaps a still-running
// invocation of the same job is skipped, not queued; the daily pipelines
// are idempotent per day, so the next fire covers the missed one.
func (s *Scheduler) run(name string, job Job) {
	s.mu.Lock()
	state := s.jobs[name]
	if state.running {
		s.mu.Unlock()
		s.logger.Warn("scheduled job still running, skipping this fire", zap.String("job", name))
		return
	}
	state.running = true
	s.mu.Unlock()

	start := time.Now()
	s.logger.Info("scheduled job starting", zap.String("job", name))
	err := job(context.Background())

	s.mu.Lock()
	state.running = false
	state.lastRun = start
	state.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled job failed",
			zap.String("job", name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return
	}
	s.logger.Info("scheduled job finished",
		zap.String("job", name),
		zap.Duration("elapsed", time.Since(start)))
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// Next reports when the next job fires. Zero when nothing is scheduled.
func (s *Scheduler) Next() time.Time {
	var next time.Time
	for _, e := range s.cron.Entries() {
		if next.IsZero() || e.Next.Before(next) {
			next = e.Next
		}
	}
	return next
}

// Status reports the bookkeeping for every registered job.
func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.jobs))
	for name, state := range s.jobs {
		js := JobStatus{
			Name:    name,
			Running: state.running,
			LastRun: state.lastRun,
		}
		if state.lastErr != nil {
			js.LastError = state.lastErr.Error()
		}
		out = append(out, js)
	}
	return out
}
