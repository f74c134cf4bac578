package commands

import (
	"context"
	"fmt"
	"net/url"

	"github.com/allisson/orderflow/internal/config"
	"github.com/allisson/orderflow/internal/order/http/dto"
)

// RunApproveOrder sends an approve signal to an order under review.
func RunApproveOrder(ctx context.Context, io IOTuple, orderID string) error {
	if orderID == "" {
		return fmt.Errorf("order id is required")
	}

	cfg := config.Load()
	client := newAPIClient(cfg.APIBaseURL)

	var accepted dto.SignalAcceptedResponse
	path := fmt.Sprintf("/v1/orders/%s/signals/approve", url.PathEscape(orderID))
	if err := client.do(ctx, "POST", path, nil, &accepted); err != nil {
		return fmt.Errorf("failed to approve order: %w", err)
	}

	return printJSON(io.Writer, accepted)
}

// RunCancelOrder sends a cancel signal with an optional reason.
func RunCancelOrder(ctx context.Context, io IOTuple, orderID, reason string) error {
	if orderID == "" {
		return fmt.Errorf("order id is required")
	}

	cfg := config.Load()
	client := newAPIClient(cfg.APIBaseURL)

	var accepted dto.SignalAcceptedResponse
	path := fmt.Sprintf("/v1/orders/%s/signals/cancel", url.PathEscape(orderID))
	if err := client.do(ctx, "POST", path, dto.CancelOrderRequest{Reason: reason}, &accepted); err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}

	return printJSON(io.Writer, accepted)
}

// RunUpdateAddress sends an address change signal. The change applies only
// while the order has not yet handed off to shipping.
func RunUpdateAddress(ctx context.Context, io IOTuple, orderID, line1, city, state, zip string) error {
	if orderID == "" {
		return fmt.Errorf("order id is required")
	}

	cfg := config.Load()
	client := newAPIClient(cfg.APIBaseURL)

	request := dto.UpdateAddressRequest{
		Line1: line1,
		City:  city,
		State: state,
		Zip:   zip,
	}

	var accepted dto.SignalAcceptedResponse
	path := fmt.Sprintf("/v1/orders/%s/signals/update-address", url.PathEscape(orderID))
	if err := client.do(ctx, "POST", path, request, &accepted); err != nil {
		return fmt.Errorf("failed to update address: %w", err)
	}

	return printJSON(io.Writer, accepted)
}
