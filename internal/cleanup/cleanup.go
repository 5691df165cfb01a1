package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/startera/internal/db"
)

// CleanupResult represents the result of a cleanup step
type CleanupResult struct {
	Step         string        `json:"step"`
	Success      bool          `json:"success"`
	Affected     int64         `json:"affected"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// CleanupOperation represents a single cleanup step
type CleanupOperation struct {
	Name     string
	Executor func() (int64, error)
}

// CleanupManager purges expired verification codes and abandoned accounts
type CleanupManager struct {
	database      *db.DB
	unverifiedTTL time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(database *db.DB, unverifiedTTL time.Duration, logger *slog.Logger) *CleanupManager {
	return &CleanupManager{
		database:      database,
		unverifiedTTL: unverifiedTTL,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Run executes every cleanup step; a failing step does not stop later ones
func (cm *CleanupManager) Run() ([]CleanupResult, error) {
	startTime := cm.now()

	operations := []CleanupOperation{
		{
			Name: "Clear expired verification codes",
			Executor: func() (int64, error) {
				return cm.database.ClearExpiredVerificationCodes(startTime)
			},
		},
		{
			Name: "Delete stale unverified accounts",
			Executor: func() (int64, error) {
				if cm.unverifiedTTL <= 0 {
					return 0, nil
				}
				return cm.database.DeleteUnverifiedUsersBefore(startTime.Add(-cm.unverifiedTTL))
			},
		},
	}

	results := make([]CleanupResult, 0, len(operations))
	var lastError error
	for _, operation := range operations {
		start := time.Now()
		affected, err := operation.Executor()
		result := CleanupResult{
			Step:     operation.Name,
			Success:  err == nil,
			Affected: affected,
			Duration: time.Since(start),
		}
		if err != nil {
			result.ErrorMessage = err.Error()
			lastError = err
			cm.logger.Error("Cleanup step failed", "step", operation.Name, "error", err)
		}
		results = append(results, result)
	}

	var total int64
	for _, result := range results {
		total += result.Affected
	}
	cm.logger.Info("Account cleanup completed",
		"totalSteps", len(operations),
		"affectedRows", total,
		"totalDuration", time.Since(startTime),
	)

	if lastError != nil {
		return results, fmt.Errorf("cleanup completed with errors: %w", lastError)
	}
	return results, nil
}

// Scheduler runs the cleanup manager on a cron schedule
type Scheduler struct {
	cron    *cron.Cron
	manager *CleanupManager
	logger  *slog.Logger
}

// NewScheduler registers the manager under spec (standard cron or @descriptor)
func NewScheduler(manager *CleanupManager, spec string, logger *slog.Logger) (*Scheduler, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if _, err := manager.Run(); err != nil {
			logger.Warn("scheduled cleanup finished with errors", "error", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", spec, err)
	}
	return &Scheduler{cron: c, manager: manager, logger: logger}, nil
}

// Start begins running scheduled jobs in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("cleanup scheduler started", "entries", len(s.cron.Entries()))
}

// Stop halts the scheduler and waits for a running job or ctx
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("cleanup scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("cleanup scheduler stop timed out")
	}
}
