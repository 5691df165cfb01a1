package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/startera/internal/constants"
	"github.com/startera/internal/db"
)

// Worker polls for pending jobs and processes them one at a time
type Worker struct {
	processor    *Processor
	db           *db.DB
	pollInterval time.Duration
	logger       *slog.Logger
	workerID     string // Unique ID for this worker instance
}

// NewWorker creates a new job worker
func NewWorker(processor *Processor, database *db.DB, pollInterval time.Duration, logger *slog.Logger) *Worker {
	return &Worker{
		processor:    processor,
		db:           database,
		pollInterval: pollInterval,
		logger:       logger,
		workerID:     uuid.New().String(),
	}
}

// Start runs the worker loop until ctx is cancelled. A job in progress is finished before it returns.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("job worker starting", "poll_interval", w.pollInterval, "worker_id", w.workerID)

	// jobs left running by a previous process will never finish
	if n, err := w.db.MarkStaleJobsAsFailed(constants.JobStaleThreshold); err != nil {
		w.logger.Error("failed to recover stale jobs", "error", err)
	} else if n > 0 {
		w.logger.Warn("marked stale jobs as failed", "count", n)
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	cleanup := time.NewTicker(constants.JobHistoryCleanupInterval)
	defer cleanup.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("job worker stopped")
			return
		case <-cleanup.C:
			w.performCleanup()
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// drain processes pending jobs until none are left or ctx ends
func (w *Worker) drain(ctx context.Context) {
	for ctx.Err() == nil {
		if !w.processNext(ctx) {
			return
		}
	}
}

// processNext claims and runs one job. It reports whether a job was found.
func (w *Worker) processNext(ctx context.Context) bool {
	job, err := w.db.ClaimPendingJob(w.workerID)
	if err != nil {
		w.logger.Error("failed to claim pending job", "error", err)
		return false
	}
	if job == nil {
		return false
	}

	startTime := time.Now()
	if err := w.processor.ProcessJob(ctx, job); err != nil {
		w.logger.Error("failed to record job result", "job_id", job.ID, "error", err, "duration", time.Since(startTime))
	}
	return true
}

func (w *Worker) performCleanup() {
	n, err := w.db.CleanupOldFinishedJobs(constants.JobHistoryKeepCount)
	if err != nil {
		w.logger.Error("failed to cleanup old jobs", "error", err)
		return
	}
	w.logger.Debug("job cleanup completed", "removed", n)
}
