package usecase

import (
	"context"
	"time"

	"github.com/allisson/orderflow/internal/metrics"
	orderDomain "github.com/allisson/orderflow/internal/order/domain"
)

// useCaseWithMetrics decorates UseCase with metrics instrumentation.
type useCaseWithMetrics struct {
	next    UseCase
	metrics metrics.LifecycleMetrics
}

// NewUseCaseWithMetrics wraps a UseCase with metrics recording.
func NewUseCaseWithMetrics(useCase UseCase, m metrics.LifecycleMetrics) UseCase {
	return &useCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (u *useCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	u.metrics.RecordOperation(ctx, operation, status)
	u.metrics.RecordDuration(ctx, operation, time.Since(start), status)
}

func (u *useCaseWithMetrics) Start(ctx context.Context, orderID, paymentID string) (*StatusInfo, error) {
	start := time.Now()
	info, err := u.next.Start(ctx, orderID, paymentID)
	u.record(ctx, "order_start", start, err)
	return info, err
}

func (u *useCaseWithMetrics) Approve(ctx context.Context, orderID string) error {
	start := time.Now()
	err := u.next.Approve(ctx, orderID)
	u.record(ctx, "order_approve", start, err)
	return err
}

func (u *useCaseWithMetrics) Cancel(ctx context.Context, orderID, reason string) error {
	start := time.Now()
	err := u.next.Cancel(ctx, orderID, reason)
	u.record(ctx, "order_cancel", start, err)
	return err
}

func (u *useCaseWithMetrics) UpdateAddress(ctx context.Context, orderID string, address orderDomain.Address) error {
	start := time.Now()
	err := u.next.UpdateAddress(ctx, orderID, address)
	u.record(ctx, "order_update_address", start, err)
	return err
}

func (u *useCaseWithMetrics) Status(ctx context.Context, orderID string) (*StatusInfo, error) {
	start := time.Now()
	info, err := u.next.Status(ctx, orderID)
	u.record(ctx, "order_status", start, err)
	return info, err
}

func (u *useCaseWithMetrics) ListEvents(
	ctx context.Context,
	orderID string,
	offset, limit int,
) ([]*orderDomain.Event, error) {
	start := time.Now()
	events, err := u.next.ListEvents(ctx, orderID, offset, limit)
	u.record(ctx, "order_list_events", start, err)
	return events, err
}

func (u *useCaseWithMetrics) Resume(ctx context.Context) error {
	start := time.Now()
	err := u.next.Resume(ctx)
	u.record(ctx, "order_resume", start, err)
	return err
}

func (u *useCaseWithMetrics) Shutdown(ctx context.Context) error {
	return u.next.Shutdown(ctx)
}
