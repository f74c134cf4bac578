// Package usecase implements the order lifecycle orchestrator: a per-order
// single-writer state machine driven by a mailbox, with durable snapshots
// that survive process restarts.
package usecase

import (
	"context"

	orderDomain "github.com/allisson/orderflow/internal/order/domain"
	paymentDomain "github.com/allisson/orderflow/internal/payment/domain"
	shippingDomain "github.com/allisson/orderflow/internal/shipping/domain"
)

// OrderRepository defines order snapshot persistence operations.
type OrderRepository interface {
	Upsert(ctx context.Context, order *orderDomain.Order) error
	GetByID(ctx context.Context, id string) (*orderDomain.Order, error)
	ListNonTerminal(ctx context.Context) ([]*orderDomain.Order, error)
}

// EventRepository defines lifecycle audit log operations.
type EventRepository interface {
	Append(ctx context.Context, event *orderDomain.Event) error
	ListByOrderID(ctx context.Context, orderID string, offset, limit int) ([]*orderDomain.Event, error)
}

// ShippingEnqueuer inserts the durable shipping handoff row. It is called
// inside the same transaction that advances the order to shipping-started.
type ShippingEnqueuer interface {
	Create(ctx context.Context, request *shippingDomain.ShippingRequest) error
}

// Charger runs the idempotent charge protocol.
type Charger interface {
	Charge(ctx context.Context, paymentID, orderID string, amountCents int64) (*paymentDomain.Payment, error)
}

// Intake resolves the line items for a newly received order.
type Intake interface {
	Receive(ctx context.Context, orderID string) ([]orderDomain.LineItem, error)
}

// StepExecutor runs a named lifecycle step with retries.
type StepExecutor interface {
	Execute(ctx context.Context, orderID, step string, fn func(ctx context.Context) error) error
}

// StatusInfo is the point-in-time view of one order returned by queries.
type StatusInfo struct {
	OrderID   string            `json:"order_id"`
	Step      orderDomain.State `json:"step"`
	LastError string            `json:"last_error,omitempty"`
}

// UseCase defines the order lifecycle operations.
type UseCase interface {
	// Start begins the lifecycle for a new order, or returns the current
	// state when the order already exists and is not terminal. Starting a
	// terminal order fails with ErrTerminalState.
	Start(ctx context.Context, orderID, paymentID string) (*StatusInfo, error)

	// Approve delivers an approve signal. Signals are accepted in any
	// order state; states past review record and ignore them.
	Approve(ctx context.Context, orderID string) error

	// Cancel delivers a cancel signal with an optional reason.
	Cancel(ctx context.Context, orderID, reason string) error

	// UpdateAddress delivers an address change. It applies up to the
	// moment the shipping handoff is enqueued and is ignored afterwards.
	UpdateAddress(ctx context.Context, orderID string, address orderDomain.Address) error

	// Status returns the current state of an order, live or finished.
	Status(ctx context.Context, orderID string) (*StatusInfo, error)

	// ListEvents returns the order's audit log, newest first.
	ListEvents(ctx context.Context, orderID string, offset, limit int) ([]*orderDomain.Event, error)

	// Resume restores every non-terminal order from the store after a
	// restart and continues each one from its persisted state.
	Resume(ctx context.Context) error

	// Shutdown stops all order workers and waits for them to drain.
	Shutdown(ctx context.Context) error
}
