package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/startera/internal/db"
	"github.com/startera/internal/domain"
)

// VerificationMailHandler delivers a queued verification code
type VerificationMailHandler struct {
	mailer domain.Mailer
	logger *slog.Logger
}

// NewVerificationMailHandler creates a handler sending through mailer
func NewVerificationMailHandler(mailer domain.Mailer, logger *slog.Logger) *VerificationMailHandler {
	return &VerificationMailHandler{mailer: mailer, logger: logger}
}

// Handle decodes the payload and sends the e-mail
func (h *VerificationMailHandler) Handle(ctx context.Context, job *db.Job) error {
	if job.Payload == nil {
		return errors.New("verification mail job has no payload")
	}
	var payload VerificationMailPayload
	if err := json.Unmarshal([]byte(*job.Payload), &payload); err != nil {
		return fmt.Errorf("invalid verification mail payload: %w", err)
	}
	if payload.Email == "" || payload.Code == "" {
		return errors.New("verification mail payload is missing email or code")
	}

	if err := h.mailer.SendVerificationCode(ctx, payload.Email, payload.Code); err != nil {
		return err
	}
	h.logger.DebugContext(ctx, "verification mail delivered", "job_id", job.ID, "email", payload.Email)
	return nil
}
