// Package worker runs scheduled background jobs.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/custodia-labs/pickup-core/internal/core/services"
)

// Job is one scheduled unit of work.
type Job struct {
	Name     string
	Schedule string // standard five-field cron expression
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

// RetentionJob wraps the retention sweeper as a scheduled job.
func RetentionJob(sweeper *services.RetentionSweeper, schedule string) Job {
	return Job{
		Name:     services.RetentionLockName,
		Schedule: schedule,
		Timeout:  10 * time.Minute,
		Run: func(ctx context.Context) error {
			_, err := sweeper.Run(ctx)
			return err
		},
	}
}

// Worker runs jobs on their cron schedules.
// Jobs never overlap with themselves; a run still in progress causes the next tick to be skipped.
type Worker struct {
	logger *slog.Logger
	jobs   []Job

	mu      sync.Mutex
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
}

// WorkerConfig holds configuration for the worker.
type WorkerConfig struct {
	Jobs   []Job
	Logger *slog.Logger
}

// NewWorker creates a new job worker.
func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		logger: logger,
		jobs:   cfg.Jobs,
	}
}

// Start registers every job and begins scheduling.
// Returns an error if any schedule fails to parse; nothing is started in that case.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	cl := cronLogger{w.logger}
	c := cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))

	jobCtx, cancel := context.WithCancel(ctx)
	for _, job := range w.jobs {
		if _, err := c.AddFunc(job.Schedule, func() { w.execute(jobCtx, job) }); err != nil {
			cancel()
			return fmt.Errorf("schedule job %s: %w", job.Name, err)
		}
		w.logger.Info("job scheduled", "job", job.Name, "schedule", job.Schedule)
	}

	c.Start()
	w.cron = c
	w.ctx = jobCtx
	w.cancel = cancel
	w.running = true

	w.logger.Info("worker started", "jobs", len(w.jobs))
	return nil
}

// Stop halts scheduling, cancels running jobs and waits for them to return.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	c, cancel := w.cron, w.cancel
	w.running = false
	w.mu.Unlock()

	cancel()
	<-c.Stop().Done()

	w.logger.Info("worker stopped")
}

// RunNow executes the named job immediately, outside its schedule.
func (w *Worker) RunNow(ctx context.Context, name string) error {
	for _, job := range w.jobs {
		if job.Name == name {
			return w.execute(ctx, job)
		}
	}
	return fmt.Errorf("unknown job: %s", name)
}

func (w *Worker) execute(ctx context.Context, job Job) error {
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	logger := w.logger.With("job", job.Name)
	start := time.Now()

	err := job.Run(ctx)
	if err != nil {
		logger.Error("job failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return err
	}
	logger.Info("job completed", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// cronLogger routes cron's internal logging to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
