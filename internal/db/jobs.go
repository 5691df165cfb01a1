package db

import (
	"database/sql"
	"errors"
	"time"

	"github.com/startera/internal/constants"
)

const jobColumns = "id, type, payload, status, attempts, error_message, worker_id, created_at, updated_at, completed_at"

// CreateJob inserts a pending job
func (db *DB) CreateJob(job *Job) error {
	_, err := db.Exec(
		"INSERT INTO jobs (id, type, payload, status, attempts, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		job.ID, job.Type, nullString(job.Payload), job.Status, job.Attempts, job.CreatedAt.UTC(), job.UpdatedAt.UTC(),
	)
	return err
}

// GetJob retrieves a job by ID. Returns sql.ErrNoRows when absent.
func (db *DB) GetJob(id string) (*Job, error) {
	return scanJob(db.QueryRow("SELECT "+jobColumns+" FROM jobs WHERE id = ?", id))
}

// ClaimPendingJob marks the oldest pending job running for workerID and returns it.
// Returns nil, nil when nothing is pending.
func (db *DB) ClaimPendingJob(workerID string) (*Job, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var id string
	err = tx.QueryRow(
		"SELECT id FROM jobs WHERE status = ? ORDER BY created_at ASC, id ASC LIMIT 1",
		constants.JobStatusPending,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	result, err := tx.Exec(
		"UPDATE jobs SET status = ?, worker_id = ?, attempts = attempts + 1, updated_at = ? WHERE id = ? AND status = ?",
		constants.JobStatusRunning, workerID, time.Now().UTC(), id, constants.JobStatusPending,
	)
	if err != nil {
		return nil, err
	}
	if n, err := result.RowsAffected(); err != nil || n == 0 {
		return nil, err
	}

	job, err := scanJob(tx.QueryRow("SELECT "+jobColumns+" FROM jobs WHERE id = ?", id))
	if err != nil {
		return nil, err
	}
	return job, tx.Commit()
}

// UpdateJobCompleted records the final status of a job
func (db *DB) UpdateJobCompleted(id, status string, errorMessage *string) error {
	now := time.Now().UTC()
	result, err := db.Exec(
		"UPDATE jobs SET status = ?, error_message = ?, worker_id = NULL, updated_at = ?, completed_at = ? WHERE id = ?",
		status, nullString(errorMessage), now, now, id,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// ReleaseJobClaim returns a running job to pending so another attempt can pick it up
func (db *DB) ReleaseJobClaim(id string, errorMessage *string) error {
	result, err := db.Exec(
		"UPDATE jobs SET status = ?, error_message = ?, worker_id = NULL, updated_at = ? WHERE id = ? AND status = ?",
		constants.JobStatusPending, nullString(errorMessage), time.Now().UTC(), id, constants.JobStatusRunning,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// MarkStaleJobsAsFailed fails jobs left running longer than threshold, e.g. after a crash
func (db *DB) MarkStaleJobsAsFailed(threshold time.Duration) (int64, error) {
	now := time.Now().UTC()
	result, err := db.Exec(
		"UPDATE jobs SET status = ?, error_message = ?, worker_id = NULL, updated_at = ?, completed_at = ? WHERE status = ? AND updated_at < ?",
		constants.JobStatusFailed, "stale: worker stopped before completion", now, now, constants.JobStatusRunning, now.Add(-threshold),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// CleanupOldFinishedJobs keeps only the newest keep completed or failed jobs
func (db *DB) CleanupOldFinishedJobs(keep int) (int64, error) {
	result, err := db.Exec(
		`DELETE FROM jobs WHERE status IN (?, ?) AND id NOT IN (
			SELECT id FROM jobs WHERE status IN (?, ?) ORDER BY completed_at DESC, id DESC LIMIT ?
		)`,
		constants.JobStatusCompleted, constants.JobStatusFailed,
		constants.JobStatusCompleted, constants.JobStatusFailed, keep,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*Job, error) {
	job := &Job{}
	var payload, errorMessage, workerID sql.NullString
	var completedAt sql.NullTime

	if err := row.Scan(&job.ID, &job.Type, &payload, &job.Status, &job.Attempts, &errorMessage, &workerID,
		&job.CreatedAt, &job.UpdatedAt, &completedAt); err != nil {
		return nil, err
	}

	if payload.Valid {
		job.Payload = &payload.String
	}
	if errorMessage.Valid {
		job.ErrorMessage = &errorMessage.String
	}
	if workerID.Valid {
		job.WorkerID = &workerID.String
	}
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	return job, nil
}
