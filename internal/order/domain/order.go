// Package domain defines the core order lifecycle entities and state model.
package domain

import "time"

// State is the lifecycle state of an order. States only ever advance; once a
// terminal state is reached the order is immutable.
type State string

const (
	StateReceived        State = "RECEIVED"
	StateAwaitingReview  State = "AWAITING_REVIEW"
	StateCharging        State = "CHARGING"
	StateShippingStarted State = "SHIPPING_STARTED"
	StateCompleted       State = "COMPLETED"

	// Terminal failure outcomes. Cancelled and ReviewTimedOut leave the
	// lifecycle before charging; PaymentFailed and Failed after it started.
	StateCancelled      State = "CANCELLED"
	StateReviewTimedOut State = "REVIEW_TIMED_OUT"
	StatePaymentFailed  State = "PAYMENT_FAILED"
	StateFailed         State = "FAILED"
)

// stateRank defines the total ordering used to guarantee that the sequence
// of observed states for a single order is non-decreasing. Terminal failure
// states rank alongside the last non-terminal state they can be reached from.
var stateRank = map[State]int{
	StateReceived:        1,
	StateAwaitingReview:  2,
	StateCancelled:       3,
	StateReviewTimedOut:  3,
	StateCharging:        3,
	StateFailed:          4,
	StatePaymentFailed:   4,
	StateShippingStarted: 4,
	StateCompleted:       5,
}

// Rank returns the position of the state in the lifecycle ordering.
// Unknown states rank below every valid state.
func (s State) Rank() int {
	return stateRank[s]
}

// Terminal reports whether no further transition can occur from the state.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateCancelled, StateReviewTimedOut, StatePaymentFailed, StateFailed:
		return true
	default:
		return false
	}
}

// AcceptsSignals reports whether an external cancel signal is still honored
// in this state. Received and AwaitingReview are the only states that accept
// it; approve is stricter and is only honored in AwaitingReview.
func (s State) AcceptsSignals() bool {
	return s == StateReceived || s == StateAwaitingReview
}

// Address is the structured shipping destination for an order.
type Address struct {
	Line1 string `json:"line1"`
	City  string `json:"city"`
	State string `json:"state"`
	Zip   string `json:"zip"`
}

// LineItem is a single purchasable entry on an order. Line items are produced
// by the receive step and are not persisted; only their total matters for the
// charge.
type LineItem struct {
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
	UnitCents int64  `json:"unit_cents"`
}

// TotalCents returns the charge amount for a set of line items.
func TotalCents(items []LineItem) int64 {
	var total int64
	for _, item := range items {
		total += int64(item.Quantity) * item.UnitCents
	}
	return total
}

// Order is the durable snapshot of one order's lifecycle. Exactly one live
// orchestrator instance mutates a given order at any time; the snapshot exists
// so status reads survive instance teardown and process restarts.
type Order struct {
	ID        string
	State     State
	PaymentID string
	Address   *Address
	LastError *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SetError records the most recent failure reason surfaced by status queries.
func (o *Order) SetError(message string) {
	o.LastError = &message
}

// ErrorMessage returns the recorded failure reason or the empty string.
func (o *Order) ErrorMessage() string {
	if o.LastError == nil {
		return ""
	}
	return *o.LastError
}
