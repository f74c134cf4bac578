// Package service provides the activity executor that runs side-effecting
// lifecycle steps with bounded retries, plus the order intake stub.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/allisson/orderflow/internal/clock"
	orderDomain "github.com/allisson/orderflow/internal/order/domain"
)

// ErrRetryExhausted marks a step that failed on every allowed attempt.
var ErrRetryExhausted = errors.New("retry attempts exhausted")

// RetryPolicy configures how a step is retried. Zero values produce sensible
// defaults (see withDefaults).
type RetryPolicy struct {
	// MaxAttempts is the maximum number of times a step is called.
	MaxAttempts int

	// InitialInterval is the wait time before the second attempt.
	InitialInterval time.Duration

	// BackoffCoefficient multiplies the interval after each failure.
	// 1.0 = constant interval, 2.0 = exponential backoff.
	BackoffCoefficient float64

	// MaxInterval caps the wait time between attempts. 0 means uncapped.
	MaxInterval time.Duration

	// NonRetryable lists errors that abort the retry loop immediately,
	// even when MaxAttempts has not been reached (e.g. an explicit
	// payment decline).
	NonRetryable []error
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 5
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = 250 * time.Millisecond
	}
	if p.BackoffCoefficient <= 0 {
		p.BackoffCoefficient = 2.0
	}
	return p
}

// EventRecorder appends entries to the lifecycle audit log.
type EventRecorder interface {
	Append(ctx context.Context, event *orderDomain.Event) error
}

// Executor runs lifecycle steps with the configured retry policy and emits a
// step event per attempt. Exhausting retries surfaces ErrRetryExhausted to
// the caller; failures are never swallowed.
type Executor struct {
	policy RetryPolicy
	faults *FaultInjector
	events EventRecorder
	clock  clock.Clock
	logger *slog.Logger
}

// NewExecutor creates a new Executor. faults may be nil to disable injection.
func NewExecutor(
	policy RetryPolicy,
	faults *FaultInjector,
	events EventRecorder,
	clk clock.Clock,
	logger *slog.Logger,
) *Executor {
	return &Executor{
		policy: policy.withDefaults(),
		faults: faults,
		events: events,
		clock:  clk,
		logger: logger,
	}
}

// Execute runs fn for the named step until it succeeds, the retry budget is
// exhausted, or the context is cancelled.
func (e *Executor) Execute(ctx context.Context, orderID, step string, fn func(ctx context.Context) error) error {
	e.appendEvent(ctx, orderID, orderDomain.EventStepStarted, map[string]any{"step": step})

	interval := e.policy.InitialInterval
	var lastErr error

	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		lastErr = e.attempt(ctx, step, fn)
		if lastErr == nil {
			e.appendEvent(ctx, orderID, orderDomain.EventStepSucceeded, map[string]any{
				"step":    step,
				"attempt": attempt,
			})
			return nil
		}

		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			return lastErr
		}

		if e.nonRetryable(lastErr) {
			e.appendEvent(ctx, orderID, orderDomain.EventStepFailed, map[string]any{
				"step":    step,
				"attempt": attempt,
				"error":   lastErr.Error(),
			})
			return lastErr
		}

		if attempt == e.policy.MaxAttempts {
			break
		}

		e.appendEvent(ctx, orderID, orderDomain.EventStepRetried, map[string]any{
			"step":    step,
			"attempt": attempt,
			"error":   lastErr.Error(),
		})
		if e.logger != nil {
			e.logger.Warn("step attempt failed",
				slog.String("order_id", orderID),
				slog.String("step", step),
				slog.Int("attempt", attempt),
				slog.Any("error", lastErr),
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}

		interval = time.Duration(float64(interval) * e.policy.BackoffCoefficient)
		if e.policy.MaxInterval > 0 && interval > e.policy.MaxInterval {
			interval = e.policy.MaxInterval
		}
	}

	e.appendEvent(ctx, orderID, orderDomain.EventStepFailed, map[string]any{
		"step":     step,
		"attempts": e.policy.MaxAttempts,
		"error":    lastErr.Error(),
	})

	return fmt.Errorf("%w (step=%s attempts=%d): %w", ErrRetryExhausted, step, e.policy.MaxAttempts, lastErr)
}

func (e *Executor) nonRetryable(err error) bool {
	for _, target := range e.policy.NonRetryable {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// attempt runs a single call, routed through the fault injector first.
func (e *Executor) attempt(ctx context.Context, step string, fn func(ctx context.Context) error) error {
	if e.faults.ShouldFail(step) {
		return fmt.Errorf("injected fault on step %s", step)
	}
	return fn(ctx)
}

func (e *Executor) appendEvent(
	ctx context.Context,
	orderID string,
	eventType orderDomain.EventType,
	payload map[string]any,
) {
	event := &orderDomain.Event{
		OrderID:   orderID,
		Type:      eventType,
		Payload:   payload,
		CreatedAt: e.clock.Now(),
	}
	if err := e.events.Append(ctx, event); err != nil && e.logger != nil {
		e.logger.Error("failed to append step event",
			slog.String("order_id", orderID),
			slog.String("type", string(eventType)),
			slog.Any("error", err),
		)
	}
}
