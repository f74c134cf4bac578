package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/orderflow/internal/clock"
	apperrors "github.com/allisson/orderflow/internal/errors"
	orderDomain "github.com/allisson/orderflow/internal/order/domain"
	paymentDomain "github.com/allisson/orderflow/internal/payment/domain"
	paymentService "github.com/allisson/orderflow/internal/payment/service"
)

// memoryPaymentRepository is an in-memory ledger with the same semantics as
// the SQL repositories: insert-if-absent reservation and monotone finalize.
type memoryPaymentRepository struct {
	mu       sync.Mutex
	payments map[string]*paymentDomain.Payment
}

func newMemoryPaymentRepository() *memoryPaymentRepository {
	return &memoryPaymentRepository{payments: make(map[string]*paymentDomain.Payment)}
}

func (m *memoryPaymentRepository) Reserve(ctx context.Context, paymentID, orderID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.payments[paymentID]; ok {
		return false, nil
	}
	m.payments[paymentID] = &paymentDomain.Payment{
		PaymentID: paymentID,
		OrderID:   orderID,
		Status:    paymentDomain.StatusReserved,
	}
	return true, nil
}

func (m *memoryPaymentRepository) GetByID(ctx context.Context, paymentID string) (*paymentDomain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	payment, ok := m.payments[paymentID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *payment
	return &copied, nil
}

func (m *memoryPaymentRepository) MarkCharged(ctx context.Context, paymentID string, amountCents int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	payment, ok := m.payments[paymentID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if payment.Status == paymentDomain.StatusReserved {
		payment.Status = paymentDomain.StatusCharged
		payment.AmountCents = amountCents
	}
	return nil
}

func (m *memoryPaymentRepository) MarkFailed(ctx context.Context, paymentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	payment, ok := m.payments[paymentID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if payment.Status == paymentDomain.StatusReserved {
		payment.Status = paymentDomain.StatusFailed
	}
	return nil
}

type memoryEventRecorder struct {
	mu     sync.Mutex
	events []*orderDomain.Event
}

func (m *memoryEventRecorder) Append(ctx context.Context, event *orderDomain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *memoryEventRecorder) types() []orderDomain.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]orderDomain.EventType, 0, len(m.events))
	for _, event := range m.events {
		types = append(types, event.Type)
	}
	return types
}

func TestChargeUseCase_FreshCharge(t *testing.T) {
	repo := newMemoryPaymentRepository()
	gateway := paymentService.NewSimulatedGateway(nil)
	recorder := &memoryEventRecorder{}
	uc := NewChargeUseCase(repo, gateway, recorder, clock.NewSystem(), nil)

	payment, err := uc.Charge(context.Background(), "pay-1", "order-1", 2548)

	require.NoError(t, err)
	assert.Equal(t, paymentDomain.StatusCharged, payment.Status)
	assert.Equal(t, int64(2548), payment.AmountCents)
	assert.Equal(t, 1, gateway.ChargeCount())
	assert.Equal(t, []orderDomain.EventType{
		orderDomain.EventPaymentReserved,
		orderDomain.EventPaymentCharged,
	}, recorder.types())
}

func TestChargeUseCase_DuplicateCharge(t *testing.T) {
	repo := newMemoryPaymentRepository()
	gateway := paymentService.NewSimulatedGateway(nil)
	recorder := &memoryEventRecorder{}
	uc := NewChargeUseCase(repo, gateway, recorder, clock.NewSystem(), nil)

	first, err := uc.Charge(context.Background(), "pay-1", "order-1", 2548)
	require.NoError(t, err)

	second, err := uc.Charge(context.Background(), "pay-1", "order-1", 2548)
	require.NoError(t, err)

	assert.Equal(t, first.AmountCents, second.AmountCents)
	assert.Equal(t, paymentDomain.StatusCharged, second.Status)
	assert.Equal(t, 1, gateway.ChargeCount())
	assert.Contains(t, recorder.types(), orderDomain.EventPaymentAlreadyCharged)
}

func TestChargeUseCase_Declined(t *testing.T) {
	repo := newMemoryPaymentRepository()
	gateway := paymentService.NewSimulatedGateway(nil)
	recorder := &memoryEventRecorder{}
	uc := NewChargeUseCase(repo, gateway, recorder, clock.NewSystem(), nil)

	// The simulated gateway declines non-positive amounts.
	_, err := uc.Charge(context.Background(), "pay-1", "order-1", 0)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPaymentDeclined)

	stored, getErr := repo.GetByID(context.Background(), "pay-1")
	require.NoError(t, getErr)
	assert.Equal(t, paymentDomain.StatusFailed, stored.Status)
	assert.Contains(t, recorder.types(), orderDomain.EventPaymentFailed)

	// A later call for the same id returns the failed outcome without
	// touching the gateway.
	_, err = uc.Charge(context.Background(), "pay-1", "order-1", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPaymentDeclined)
	assert.Equal(t, 0, gateway.ChargeCount())
}

func TestChargeUseCase_ReattemptAfterCrash(t *testing.T) {
	repo := newMemoryPaymentRepository()
	// Simulate a crash between the reservation and the external call.
	_, err := repo.Reserve(context.Background(), "pay-1", "order-1")
	require.NoError(t, err)

	gateway := paymentService.NewSimulatedGateway(nil)
	recorder := &memoryEventRecorder{}
	uc := NewChargeUseCase(repo, gateway, recorder, clock.NewSystem(), nil)

	payment, err := uc.Charge(context.Background(), "pay-1", "order-1", 2548)

	require.NoError(t, err)
	assert.Equal(t, paymentDomain.StatusCharged, payment.Status)
	assert.Equal(t, 1, gateway.ChargeCount())
	assert.Contains(t, recorder.types(), orderDomain.EventPaymentRetryAfterCrash)
}

func TestChargeUseCase_ConcurrentCharges(t *testing.T) {
	repo := newMemoryPaymentRepository()
	gateway := paymentService.NewSimulatedGateway(nil)
	recorder := &memoryEventRecorder{}
	uc := NewChargeUseCase(repo, gateway, recorder, clock.NewSystem(), nil)

	const callers = 20
	var wg sync.WaitGroup
	errs := make(chan error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Charge(context.Background(), "pay-1", "order-1", 2548)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	// Exactly one external charge effect regardless of caller count.
	assert.Equal(t, 1, gateway.ChargeCount())

	stored, err := repo.GetByID(context.Background(), "pay-1")
	require.NoError(t, err)
	assert.Equal(t, paymentDomain.StatusCharged, stored.Status)
	assert.Equal(t, int64(2548), stored.AmountCents)
}
