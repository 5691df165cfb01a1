package jobs

import (
	"context"
	"log/slog"

	"github.com/startera/internal/constants"
	"github.com/startera/internal/db"
	"github.com/startera/internal/domain"
)

// Processor handles the execution of background jobs
type Processor struct {
	registry    *HandlerRegistry
	db          *db.DB
	maxAttempts int
	logger      *slog.Logger
}

// NewProcessor creates a processor with the verification mail handler registered
func NewProcessor(database *db.DB, mailer domain.Mailer, logger *slog.Logger) *Processor {
	registry := NewHandlerRegistry()
	registry.Register(constants.JobTypeVerificationMail, NewVerificationMailHandler(mailer, logger))

	return &Processor{
		registry:    registry,
		db:          database,
		maxAttempts: constants.JobMaxAttempts,
		logger:      logger,
	}
}

// ProcessJob runs a claimed job. A failed attempt goes back to pending until maxAttempts is reached.
// The job must already be marked running by ClaimPendingJob.
func (p *Processor) ProcessJob(ctx context.Context, job *db.Job) error {
	p.logger.InfoContext(ctx, "processing job", "job_id", job.ID, "type", job.Type, "attempt", job.Attempts)

	handler, err := p.registry.GetHandler(job.Type)
	if err != nil {
		p.logger.ErrorContext(ctx, "unknown job type", "job_id", job.ID, "type", job.Type, "error", err)
		return p.db.UpdateJobCompleted(job.ID, constants.JobStatusFailed, stringPtr(err.Error()))
	}

	if err := handler.Handle(ctx, job); err != nil {
		errorMsg := err.Error()
		if job.Attempts < p.maxAttempts {
			p.logger.WarnContext(ctx, "job attempt failed, will retry", "job_id", job.ID, "attempt", job.Attempts, "error", err)
			return p.db.ReleaseJobClaim(job.ID, &errorMsg)
		}
		p.logger.ErrorContext(ctx, "job failed", "job_id", job.ID, "type", job.Type, "attempts", job.Attempts, "error", err)
		return p.db.UpdateJobCompleted(job.ID, constants.JobStatusFailed, &errorMsg)
	}

	p.logger.InfoContext(ctx, "job completed successfully", "job_id", job.ID, "type", job.Type)
	return p.db.UpdateJobCompleted(job.ID, constants.JobStatusCompleted, nil)
}

func stringPtr(s string) *string {
	return &s
}
