package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/startera/internal/constants"
	"github.com/startera/internal/domain"
)

// CircuitState represents the state of a circuit breaker
type CircuitState string

const (
	StateClosed   CircuitState = "closed"    // Normal operation, calls pass through
	StateOpen     CircuitState = "open"      // Calls fail fast
	StateHalfOpen CircuitState = "half-open" // Trial calls decide whether the model recovered
)

// CircuitStats holds statistics about the circuit
type CircuitStats struct {
	State           CircuitState
	Failures        int
	Successes       int
	LastFailure     time.Time
	LastStateChange time.Time
}

// CircuitOpenError is returned while the circuit is open
type CircuitOpenError struct {
	Model string
	Stats CircuitStats
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit breaker open for model %s (failures: %d, state: %s)",
		e.Model, e.Stats.Failures, e.Stats.State)
}

// BreakerResponder stops calling a failing chat model for a cooldown period
type BreakerResponder struct {
	next   domain.ChatResponder
	model  string
	logger *slog.Logger
	now    func() time.Time

	threshold         int           // consecutive failures before opening
	cooldown          time.Duration // how long to stay open before a trial call
	halfOpenSuccesses int           // trial successes needed to close again

	mu              sync.Mutex
	state           CircuitState
	failures        int
	successes       int
	trialSuccesses  int
	lastFailure     time.Time
	lastStateChange time.Time
}

// NewBreakerResponder wraps next with the default thresholds
func NewBreakerResponder(next domain.ChatResponder, model string, logger *slog.Logger) *BreakerResponder {
	return &BreakerResponder{
		next:              next,
		model:             model,
		logger:            logger,
		now:               time.Now,
		threshold:         constants.ChatBreakerThreshold,
		cooldown:          constants.ChatBreakerCooldown,
		halfOpenSuccesses: constants.ChatBreakerHalfOpenSuccesses,
		state:             StateClosed,
	}
}

// Reply forwards to the wrapped responder unless the circuit is open
func (b *BreakerResponder) Reply(ctx context.Context, systemPrompt, message string) (string, error) {
	if err := b.allow(); err != nil {
		b.logger.WarnContext(ctx, "chat model call skipped", "model", b.model, "error", err)
		return "", err
	}

	reply, err := b.next.Reply(ctx, systemPrompt, message)
	if err != nil {
		b.recordFailure(ctx)
		return "", err
	}
	b.recordSuccess(ctx)
	return reply, nil
}

// State returns the current circuit state
func (b *BreakerResponder) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stats returns a snapshot of the circuit
func (b *BreakerResponder) Stats() CircuitStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.statsLocked()
}

func (b *BreakerResponder) statsLocked() CircuitStats {
	return CircuitStats{
		State:           b.state,
		Failures:        b.failures,
		Successes:       b.successes,
		LastFailure:     b.lastFailure,
		LastStateChange: b.lastStateChange,
	}
}

func (b *BreakerResponder) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return nil
	}
	if b.now().Sub(b.lastStateChange) < b.cooldown {
		return &CircuitOpenError{Model: b.model, Stats: b.statsLocked()}
	}
	b.transition(StateHalfOpen)
	return nil
}

func (b *BreakerResponder) recordSuccess(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.successes++
	b.failures = 0
	if b.state != StateHalfOpen {
		return
	}
	b.trialSuccesses++
	if b.trialSuccesses >= b.halfOpenSuccesses {
		b.transition(StateClosed)
		b.logger.InfoContext(ctx, "chat model circuit closed", "model", b.model)
	}
}

func (b *BreakerResponder) recordFailure(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = b.now()

	switch b.state {
	case StateClosed:
		if b.failures >= b.threshold {
			b.transition(StateOpen)
			b.logger.WarnContext(ctx, "chat model circuit opened", "model", b.model, "failures", b.failures)
		}
	case StateHalfOpen:
		b.transition(StateOpen)
		b.logger.WarnContext(ctx, "chat model circuit reopened", "model", b.model)
	}
}

func (b *BreakerResponder) transition(state CircuitState) {
	b.state = state
	b.lastStateChange = b.now()
	b.trialSuccesses = 0
}
