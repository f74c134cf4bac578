package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/orderflow/internal/clock"
	orderDomain "github.com/allisson/orderflow/internal/order/domain"
)

// memoryRecorder collects appended events for assertions.
type memoryRecorder struct {
	mu     sync.Mutex
	events []*orderDomain.Event
}

func (m *memoryRecorder) Append(ctx context.Context, event *orderDomain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *memoryRecorder) types() []orderDomain.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]orderDomain.EventType, 0, len(m.events))
	for _, event := range m.events {
		types = append(types, event.Type)
	}
	return types
}

func fastPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:        3,
		InitialInterval:    time.Millisecond,
		BackoffCoefficient: 2.0,
		MaxInterval:        5 * time.Millisecond,
	}
}

func TestExecutor_Execute_Success(t *testing.T) {
	recorder := &memoryRecorder{}
	executor := NewExecutor(fastPolicy(), nil, recorder, clock.NewSystem(), nil)

	calls := 0
	err := executor.Execute(context.Background(), "order-1", "receive", func(ctx context.Context) error {
		calls++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []orderDomain.EventType{
		orderDomain.EventStepStarted,
		orderDomain.EventStepSucceeded,
	}, recorder.types())
}

func TestExecutor_Execute_RetryThenSuccess(t *testing.T) {
	recorder := &memoryRecorder{}
	executor := NewExecutor(fastPolicy(), nil, recorder, clock.NewSystem(), nil)

	calls := 0
	err := executor.Execute(context.Background(), "order-1", "charge", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient failure")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []orderDomain.EventType{
		orderDomain.EventStepStarted,
		orderDomain.EventStepRetried,
		orderDomain.EventStepRetried,
		orderDomain.EventStepSucceeded,
	}, recorder.types())
}

func TestExecutor_Execute_Exhaustion(t *testing.T) {
	recorder := &memoryRecorder{}
	executor := NewExecutor(fastPolicy(), nil, recorder, clock.NewSystem(), nil)

	calls := 0
	err := executor.Execute(context.Background(), "order-1", "charge", func(ctx context.Context) error {
		calls++
		return errors.New("permanent failure")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetryExhausted)
	assert.Equal(t, 3, calls)

	types := recorder.types()
	assert.Equal(t, orderDomain.EventStepStarted, types[0])
	assert.Equal(t, orderDomain.EventStepFailed, types[len(types)-1])
}

func TestExecutor_Execute_NonRetryable(t *testing.T) {
	declined := errors.New("card declined")
	policy := fastPolicy()
	policy.NonRetryable = []error{declined}

	recorder := &memoryRecorder{}
	executor := NewExecutor(policy, nil, recorder, clock.NewSystem(), nil)

	calls := 0
	err := executor.Execute(context.Background(), "order-1", "charge", func(ctx context.Context) error {
		calls++
		return declined
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, declined)
	assert.NotErrorIs(t, err, ErrRetryExhausted)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []orderDomain.EventType{
		orderDomain.EventStepStarted,
		orderDomain.EventStepFailed,
	}, recorder.types())
}

func TestExecutor_Execute_ContextCancelled(t *testing.T) {
	recorder := &memoryRecorder{}
	executor := NewExecutor(fastPolicy(), nil, recorder, clock.NewSystem(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := executor.Execute(ctx, "order-1", "charge", func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("transient failure")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestExecutor_Execute_FaultInjection(t *testing.T) {
	recorder := &memoryRecorder{}
	faults := NewFaultInjector(true, 2)
	executor := NewExecutor(fastPolicy(), faults, recorder, clock.NewSystem(), nil)

	// First call passes through, second is injected, third passes.
	calls := 0
	err := executor.Execute(context.Background(), "order-1", "validate", func(ctx context.Context) error {
		calls++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)

	err = executor.Execute(context.Background(), "order-1", "validate", func(ctx context.Context) error {
		calls++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Contains(t, recorder.types(), orderDomain.EventStepRetried)
}

func TestFaultInjector_Disabled(t *testing.T) {
	var faults *FaultInjector
	assert.False(t, faults.ShouldFail("charge"))

	faults = NewFaultInjector(false, 3)
	for i := 0; i < 10; i++ {
		assert.False(t, faults.ShouldFail("charge"))
	}
}

func TestFaultInjector_Period(t *testing.T) {
	faults := NewFaultInjector(true, 3)

	results := make([]bool, 0, 6)
	for i := 0; i < 6; i++ {
		results = append(results, faults.ShouldFail("charge"))
	}

	assert.Equal(t, []bool{false, false, true, false, false, true}, results)
	// Counters are independent per step.
	assert.False(t, faults.ShouldFail("validate"))
}

func TestCatalogIntake_Receive(t *testing.T) {
	intake := NewCatalogIntake()

	items, err := intake.Receive(context.Background(), "order-1")

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(2548), orderDomain.TotalCents(items))
}
