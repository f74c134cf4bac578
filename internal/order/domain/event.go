package domain

import "time"

// EventType tags an entry in the append-only lifecycle audit log.
type EventType string

const (
	EventStepStarted   EventType = "step_started"
	EventStepRetried   EventType = "step_retried"
	EventStepSucceeded EventType = "step_succeeded"
	EventStepFailed    EventType = "step_failed"

	EventSignalReceived EventType = "signal_received"
	EventSignalIgnored  EventType = "signal_ignored"

	EventTimerFired     EventType = "timer_fired"
	EventTimerCancelled EventType = "timer_cancelled"

	EventPaymentReserved        EventType = "payment_reserved"
	EventPaymentCharged         EventType = "payment_charged"
	EventPaymentAlreadyCharged  EventType = "payment_already_charged"
	EventPaymentRetryAfterCrash EventType = "payment_retry_after_crash"
	EventPaymentFailed          EventType = "payment_failed"

	EventShippingEnqueued   EventType = "shipping_enqueued"
	EventShippingDispatched EventType = "shipping_dispatched"
	EventShippingFailed     EventType = "shipping_failed"

	EventOrderResumed EventType = "order_resumed"
)

// Event records one lifecycle transition, retry, or error for an order.
// Events are append-only and used for audit and debugging; replay correctness
// is owned by the orchestrator's persisted snapshots, not by this log.
type Event struct {
	ID        int64
	OrderID   string
	Type      EventType
	Payload   map[string]any
	CreatedAt time.Time
}
