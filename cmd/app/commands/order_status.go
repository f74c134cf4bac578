package commands

import (
	"context"
	"fmt"
	"net/url"

	"github.com/allisson/orderflow/internal/config"
	"github.com/allisson/orderflow/internal/order/http/dto"
)

// RunOrderStatus fetches and prints the current state of an order.
func RunOrderStatus(ctx context.Context, io IOTuple, orderID string) error {
	if orderID == "" {
		return fmt.Errorf("order id is required")
	}

	cfg := config.Load()
	client := newAPIClient(cfg.APIBaseURL)

	var status dto.OrderStatusResponse
	path := fmt.Sprintf("/v1/orders/%s/status", url.PathEscape(orderID))
	if err := client.do(ctx, "GET", path, nil, &status); err != nil {
		return fmt.Errorf("failed to get order status: %w", err)
	}

	return printJSON(io.Writer, status)
}

// RunOrderEvents fetches and prints a page of the order's audit log, newest
// first.
func RunOrderEvents(ctx context.Context, io IOTuple, orderID string, offset, limit int) error {
	if orderID == "" {
		return fmt.Errorf("order id is required")
	}

	cfg := config.Load()
	client := newAPIClient(cfg.APIBaseURL)

	var events dto.ListEventsResponse
	path := fmt.Sprintf(
		"/v1/orders/%s/events?offset=%d&limit=%d",
		url.PathEscape(orderID), offset, limit,
	)
	if err := client.do(ctx, "GET", path, nil, &events); err != nil {
		return fmt.Errorf("failed to list order events: %w", err)
	}

	return printJSON(io.Writer, events)
}
