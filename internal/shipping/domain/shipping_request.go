// Package domain defines the shipping request entities for the detached
// shipping sub-process.
package domain

import (
	"time"

	"github.com/google/uuid"

	orderDomain "github.com/allisson/orderflow/internal/order/domain"
)

// Status is the processing state of a shipping request.
type Status string

const (
	StatusPending   Status = "pending"
	StatusProcessed Status = "processed"
	StatusFailed    Status = "failed"
)

// ShippingRequest is the durable handoff from the order orchestrator to the
// shipping dispatcher. The address is snapshotted at enqueue time; the parent
// order retains no write access once the row exists, so parent completion or
// removal cannot affect the request.
type ShippingRequest struct {
	ID          uuid.UUID
	OrderID     string
	Address     orderDomain.Address
	Status      Status
	Retries     int
	LastError   *string
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
