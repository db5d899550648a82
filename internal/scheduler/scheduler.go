package scheduler

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Job is a background task run on a cron schedule.
type Job interface {
	Run() error
	Name() string
}

// Scheduler manages background jobs.
type Scheduler struct {
	cron *cron.Cron
}

// New creates a new scheduler.
func New() *Scheduler {
	return &Scheduler{cron: cron.New()}
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("Scheduler stopped")
}

// AddJob registers a job with a cron schedule ("@every 5m", "@hourly", ...).
// A failing job is logged and retried on its next tick.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if err := job.Run(); err != nil {
			slog.Error("Job failed", slog.String("job", job.Name()), slog.Any("error", err))
			return
		}
		slog.Debug("Job completed", slog.String("job", job.Name()))
	})
	if err != nil {
		return err
	}
	slog.Info("Job registered", slog.String("job", job.Name()), slog.String("schedule", schedule))
	return nil
}

// RunNow executes a job immediately, outside its schedule.
func (s *Scheduler) RunNow(job Job) error {
	slog.Info("Running job immediately", slog.String("job", job.Name()))
	return job.Run()
}
