// Package domain defines the payment ledger entities.
package domain

import "time"

// Status is the charge state of a payment. Transitions are monotone:
// Reserved moves to Charged or Failed and is never reversed.
type Status string

const (
	StatusReserved Status = "reserved"
	StatusCharged  Status = "charged"
	StatusFailed   Status = "failed"
)

// Terminal reports whether the payment reached its final outcome.
func (s Status) Terminal() bool {
	return s == StatusCharged || s == StatusFailed
}

// Payment is one row of the idempotent payment ledger, keyed by the
// caller-supplied payment id. At most one row exists per payment id; the row
// is reserved with a zero amount before the external charge call and
// finalized afterwards.
type Payment struct {
	PaymentID   string
	OrderID     string
	Status      Status
	AmountCents int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
