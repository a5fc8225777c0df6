package engine

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
	"github.com/jon4hz/symlinkarr/internal/scheduler"
)

const (
	reconcileJobID        = "reconcile"
	clearMetadataJobID    = "clear_metadata_cache"
	clearMetadataSchedule = "0 0 * * 0" // Every Sunday at midnight
)

// GetScheduler returns the scheduler instance.
func (e *Engine) GetScheduler() *scheduler.Scheduler {
	return e.scheduler
}

// Run starts the scheduled jobs and blocks until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	e.scheduler.Start()

	<-ctx.Done()
	return nil
}

// Close stops the engine and cleans up resources.
func (e *Engine) Close() error {
	return e.scheduler.Stop()
}

// setupJobs configures all scheduled jobs.
func (e *Engine) setupJobs() error {
	// reconcile as singleton, runs never overlap
	if err := e.scheduler.AddSingletonJob(
		reconcileJobID,
		"Reconcile",
		e.cfg.Schedule,
		gocron.CronJob(e.cfg.Schedule, false),
		e.Reconcile,
		true,
	); err != nil {
		return fmt.Errorf("failed to add reconcile job: %w", err)
	}

	if err := e.scheduler.AddSingletonJob(
		clearMetadataJobID,
		"Clear Metadata Cache",
		clearMetadataSchedule,
		gocron.CronJob(clearMetadataSchedule, false),
		e.metadata.Clear,
		false,
	); err != nil {
		return fmt.Errorf("failed to add clear metadata cache job: %w", err)
	}

	log.Info("Scheduled jobs configured successfully")
	return nil
}
