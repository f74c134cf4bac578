// Package usecase implements the idempotent charge protocol.
package usecase

import (
	"context"

	orderDomain "github.com/allisson/orderflow/internal/order/domain"
	paymentDomain "github.com/allisson/orderflow/internal/payment/domain"
)

// PaymentRepository defines payment ledger operations.
type PaymentRepository interface {
	// Reserve inserts a reservation row keyed by payment id with a zero
	// amount, returning true only when the row was freshly inserted.
	Reserve(ctx context.Context, paymentID, orderID string) (bool, error)
	GetByID(ctx context.Context, paymentID string) (*paymentDomain.Payment, error)
	MarkCharged(ctx context.Context, paymentID string, amountCents int64) error
	MarkFailed(ctx context.Context, paymentID string) error
}

// Gateway is the external payment mechanism. It is assumed to be idempotent
// per payment id; the protocol re-invokes it after a crash mid-charge.
type Gateway interface {
	Charge(ctx context.Context, paymentID, orderID string, amountCents int64) error
}

// EventRecorder appends entries to the lifecycle audit log.
type EventRecorder interface {
	Append(ctx context.Context, event *orderDomain.Event) error
}

// ChargeUseCase is the idempotent charge protocol: invoking Charge more than
// once for the same payment id converges to exactly one terminal outcome.
type ChargeUseCase interface {
	Charge(ctx context.Context, paymentID, orderID string, amountCents int64) (*paymentDomain.Payment, error)
}
