package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/startera/internal/constants"
)

// User represents a registered account
type User struct {
	ID               string     `json:"id" db:"id"`
	Email            string     `json:"email" db:"email"`
	PasswordHash     string     `json:"-" db:"password_hash"` // Never expose password in JSON
	VerificationCode *string    `json:"-" db:"verification_code"`
	CodeExpiresAt    *time.Time `json:"-" db:"code_expires_at"`
	IsVerified       bool       `json:"is_verified" db:"is_verified"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	VerifiedAt       *time.Time `json:"verified_at" db:"verified_at"` // NULL until the code is confirmed
}

// ChatMessage is a single stored chat turn
type ChatMessage struct {
	ID        int64     `json:"id" db:"id"`
	UserEmail string    `json:"user_email,omitempty" db:"user_email"` // empty for anonymous chats
	Role      string    `json:"role" db:"role"`                       // user or bot
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Job is a unit of background work, such as an outgoing verification e-mail
type Job struct {
	ID           string     `json:"id" db:"id"`
	Type         string     `json:"type" db:"type"`
	Payload      *string    `json:"payload,omitempty" db:"payload"` // JSON encoded, shape depends on Type
	Status       string     `json:"status" db:"status"`
	Attempts     int        `json:"attempts" db:"attempts"`
	ErrorMessage *string    `json:"error_message,omitempty" db:"error_message"`
	WorkerID     *string    `json:"-" db:"worker_id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// NewJob creates a pending job
func NewJob(jobType string, payload *string) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Payload:   payload,
		Status:    constants.JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewUser creates a new unverified User with a generated UUID
func NewUser(email, passwordHash string) *User {
	return &User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
}
