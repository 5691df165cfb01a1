package db

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/startera/internal/constants"
)

func createTestJob(t *testing.T, database *DB, createdAt time.Time) *Job {
	t.Helper()
	payload := `{"email":"ada@example.com","code":"123456"}`
	job := NewJob(constants.JobTypeVerificationMail, &payload)
	job.CreatedAt = createdAt
	job.UpdatedAt = createdAt
	if err := database.CreateJob(job); err != nil {
		t.Fatalf("Failed to create job: %v", err)
	}
	return job
}

func TestClaimPendingJob_OldestFirst(t *testing.T) {
	database := setupTestDB(t)
	base := time.Now().UTC().Add(-time.Minute)

	second := createTestJob(t, database, base.Add(time.Second))
	first := createTestJob(t, database, base)

	claimed, err := database.ClaimPendingJob("worker-1")
	if err != nil {
		t.Fatalf("Failed to claim job: %v", err)
	}
	if claimed == nil || claimed.ID != first.ID {
		t.Fatalf("Expected to claim %s, got %+v", first.ID, claimed)
	}
	if claimed.Status != constants.JobStatusRunning {
		t.Errorf("Expected status running, got %s", claimed.Status)
	}
	if claimed.Attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", claimed.Attempts)
	}
	if claimed.WorkerID == nil || *claimed.WorkerID != "worker-1" {
		t.Errorf("Expected worker-1 as claimant, got %v", claimed.WorkerID)
	}
	if claimed.Payload == nil || *claimed.Payload == "" {
		t.Errorf("Expected payload to round-trip")
	}

	next, err := database.ClaimPendingJob("worker-1")
	if err != nil {
		t.Fatalf("Failed to claim job: %v", err)
	}
	if next == nil || next.ID != second.ID {
		t.Fatalf("Expected to claim %s, got %+v", second.ID, next)
	}

	none, err := database.ClaimPendingJob("worker-1")
	if err != nil {
		t.Fatalf("Failed to claim job: %v", err)
	}
	if none != nil {
		t.Errorf("Expected no pending job, got %+v", none)
	}
}

func TestJobReleaseAndComplete(t *testing.T) {
	database := setupTestDB(t)
	job := createTestJob(t, database, time.Now().UTC())

	if _, err := database.ClaimPendingJob("w"); err != nil {
		t.Fatalf("Failed to claim job: %v", err)
	}

	msg := "smtp unavailable"
	if err := database.ReleaseJobClaim(job.ID, &msg); err != nil {
		t.Fatalf("Failed to release job: %v", err)
	}
	released, err := database.GetJob(job.ID)
	if err != nil {
		t.Fatalf("Failed to get job: %v", err)
	}
	if released.Status != constants.JobStatusPending {
		t.Errorf("Expected status pending, got %s", released.Status)
	}
	if released.ErrorMessage == nil || *released.ErrorMessage != msg {
		t.Errorf("Expected error message %q, got %v", msg, released.ErrorMessage)
	}
	if released.WorkerID != nil {
		t.Errorf("Expected claim to be cleared, got %v", *released.WorkerID)
	}

	// releasing a job that is not running is a miss
	if err := database.ReleaseJobClaim(job.ID, nil); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Expected sql.ErrNoRows, got %v", err)
	}

	reclaimed, err := database.ClaimPendingJob("w")
	if err != nil || reclaimed == nil {
		t.Fatalf("Failed to reclaim job: %v", err)
	}
	if reclaimed.Attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", reclaimed.Attempts)
	}

	if err := database.UpdateJobCompleted(job.ID, constants.JobStatusCompleted, nil); err != nil {
		t.Fatalf("Failed to complete job: %v", err)
	}
	done, err := database.GetJob(job.ID)
	if err != nil {
		t.Fatalf("Failed to get job: %v", err)
	}
	if done.Status != constants.JobStatusCompleted {
		t.Errorf("Expected status completed, got %s", done.Status)
	}
	if done.CompletedAt == nil {
		t.Errorf("Expected completed_at to be set")
	}
	if done.ErrorMessage != nil {
		t.Errorf("Expected error message to be cleared, got %q", *done.ErrorMessage)
	}

	if err := database.UpdateJobCompleted("missing", constants.JobStatusFailed, nil); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Expected sql.ErrNoRows for unknown job, got %v", err)
	}
}

func TestMarkStaleJobsAsFailed(t *testing.T) {
	database := setupTestDB(t)
	stale := createTestJob(t, database, time.Now().UTC().Add(-time.Hour))
	if _, err := database.ClaimPendingJob("w"); err != nil {
		t.Fatalf("Failed to claim job: %v", err)
	}
	if _, err := database.Exec("UPDATE jobs SET updated_at = ? WHERE id = ?", time.Now().UTC().Add(-time.Hour), stale.ID); err != nil {
		t.Fatalf("Failed to age job: %v", err)
	}
	fresh := createTestJob(t, database, time.Now().UTC())

	n, err := database.MarkStaleJobsAsFailed(10 * time.Minute)
	if err != nil {
		t.Fatalf("Failed to mark stale jobs: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 stale job, got %d", n)
	}

	got, _ := database.GetJob(stale.ID)
	if got.Status != constants.JobStatusFailed {
		t.Errorf("Expected stale job failed, got %s", got.Status)
	}
	got, _ = database.GetJob(fresh.ID)
	if got.Status != constants.JobStatusPending {
		t.Errorf("Expected pending job untouched, got %s", got.Status)
	}
}

func TestCleanupOldFinishedJobs(t *testing.T) {
	database := setupTestDB(t)
	base := time.Now().UTC().Add(-time.Hour)

	var finished []*Job
	for i := 0; i < 3; i++ {
		job := createTestJob(t, database, base.Add(time.Duration(i)*time.Second))
		if err := database.UpdateJobCompleted(job.ID, constants.JobStatusCompleted, nil); err != nil {
			t.Fatalf("Failed to complete job: %v", err)
		}
		if _, err := database.Exec("UPDATE jobs SET completed_at = ? WHERE id = ?", base.Add(time.Duration(i)*time.Minute), job.ID); err != nil {
			t.Fatalf("Failed to set completed_at: %v", err)
		}
		finished = append(finished, job)
	}
	pending := createTestJob(t, database, base)

	n, err := database.CleanupOldFinishedJobs(1)
	if err != nil {
		t.Fatalf("Failed to clean up jobs: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 jobs removed, got %d", n)
	}

	if _, err := database.GetJob(finished[2].ID); err != nil {
		t.Errorf("Expected newest finished job kept, got %v", err)
	}
	if _, err := database.GetJob(finished[0].ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Expected oldest finished job removed, got %v", err)
	}
	if _, err := database.GetJob(pending.ID); err != nil {
		t.Errorf("Expected pending job kept, got %v", err)
	}
}
