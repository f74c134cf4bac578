// Package usecase implements the detached shipping dispatcher. It consumes
// durable shipping requests independently of the order workers that enqueued
// them, so parent completion, teardown, or restarts never stop a shipment.
package usecase

import (
	"context"

	orderDomain "github.com/allisson/orderflow/internal/order/domain"
	shippingDomain "github.com/allisson/orderflow/internal/shipping/domain"
)

// ShippingRequestRepository defines shipping request persistence operations.
type ShippingRequestRepository interface {
	GetPending(ctx context.Context, limit int) ([]*shippingDomain.ShippingRequest, error)
	Update(ctx context.Context, request *shippingDomain.ShippingRequest) error
}

// Carrier runs the two shipment steps against the external carrier.
type Carrier interface {
	Prepare(ctx context.Context, request *shippingDomain.ShippingRequest) error
	Dispatch(ctx context.Context, request *shippingDomain.ShippingRequest) error
}

// StepExecutor runs a named step with retries. The dispatcher shares the
// executor contract with the order orchestrator so prepare and dispatch get
// the same retry policy, fault injection, and step events.
type StepExecutor interface {
	Execute(ctx context.Context, orderID, step string, fn func(ctx context.Context) error) error
}

// OrderAnnotator surfaces dispatch failures on the parent order without
// changing its lifecycle state.
type OrderAnnotator interface {
	GetByID(ctx context.Context, id string) (*orderDomain.Order, error)
	Upsert(ctx context.Context, order *orderDomain.Order) error
}

// EventRecorder appends entries to the lifecycle audit log.
type EventRecorder interface {
	Append(ctx context.Context, event *orderDomain.Event) error
}

// UseCase defines the shipping dispatcher operations.
type UseCase interface {
	// Start runs the polling loop until the context is cancelled.
	Start(ctx context.Context) error

	// ProcessRequests handles one batch of pending shipping requests.
	ProcessRequests(ctx context.Context) error
}
