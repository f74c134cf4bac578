package dto

import (
	"time"

	orderDomain "github.com/allisson/orderflow/internal/order/domain"
	orderUseCase "github.com/allisson/orderflow/internal/order/usecase"
)

// OrderStatusResponse represents an order's lifecycle position in API responses.
type OrderStatusResponse struct {
	OrderID   string `json:"order_id"`
	Step      string `json:"step"`
	LastError string `json:"last_error,omitempty"`
}

// MapStatusToResponse converts a status snapshot to an API response.
func MapStatusToResponse(info *orderUseCase.StatusInfo) OrderStatusResponse {
	return OrderStatusResponse{
		OrderID:   info.OrderID,
		Step:      string(info.Step),
		LastError: info.LastError,
	}
}

// SignalAcceptedResponse acknowledges a delivered signal. Signals are
// fire-and-forget: acceptance does not imply the signal changed the order.
type SignalAcceptedResponse struct {
	Status string `json:"status"`
}

// NewSignalAcceptedResponse creates the standard signal acknowledgement.
func NewSignalAcceptedResponse() SignalAcceptedResponse {
	return SignalAcceptedResponse{Status: "accepted"}
}

// EventResponse represents one audit log entry in API responses.
type EventResponse struct {
	ID        int64          `json:"id"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// ListEventsResponse is the paginated audit log view for one order.
type ListEventsResponse struct {
	OrderID string          `json:"order_id"`
	Events  []EventResponse `json:"events"`
	Offset  int             `json:"offset"`
	Limit   int             `json:"limit"`
}

// MapEventsToResponse converts audit log entries to the API response.
func MapEventsToResponse(orderID string, events []*orderDomain.Event, offset, limit int) ListEventsResponse {
	mapped := make([]EventResponse, 0, len(events))
	for _, event := range events {
		mapped = append(mapped, EventResponse{
			ID:        event.ID,
			Type:      string(event.Type),
			Payload:   event.Payload,
			CreatedAt: event.CreatedAt,
		})
	}
	return ListEventsResponse{
		OrderID: orderID,
		Events:  mapped,
		Offset:  offset,
		Limit:   limit,
	}
}
