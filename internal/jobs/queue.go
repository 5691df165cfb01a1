package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/startera/internal/constants"
	"github.com/startera/internal/db"
	"github.com/startera/internal/domain"
)

// MailQueue is a domain.Mailer that stores the message as a job for the worker to deliver
type MailQueue struct {
	db     *db.DB
	logger *slog.Logger
}

// NewMailQueue creates a queue backed by the jobs table
func NewMailQueue(database *db.DB, logger *slog.Logger) *MailQueue {
	return &MailQueue{db: database, logger: logger}
}

// SendVerificationCode enqueues the e-mail and returns once it is stored
func (q *MailQueue) SendVerificationCode(ctx context.Context, email, code string) error {
	data, err := json.Marshal(VerificationMailPayload{Email: email, Code: code})
	if err != nil {
		return err
	}
	payload := string(data)

	job := db.NewJob(constants.JobTypeVerificationMail, &payload)
	if err := q.db.CreateJob(job); err != nil {
		return domain.WrapDatabaseOperation("enqueue verification mail", err)
	}
	q.logger.DebugContext(ctx, "verification mail queued", "job_id", job.ID, "email", email)
	return nil
}
