package commands

import (
	"context"
	"fmt"
	"net/url"

	"github.com/allisson/orderflow/internal/config"
	"github.com/allisson/orderflow/internal/order/http/dto"
)

// RunStartOrder starts the lifecycle of an order through the API and prints
// the resulting status. Starting an order that already exists returns its
// current state instead of an error.
func RunStartOrder(ctx context.Context, io IOTuple, orderID, paymentID string) error {
	if orderID == "" {
		return fmt.Errorf("order id is required")
	}
	if paymentID == "" {
		return fmt.Errorf("payment id is required")
	}

	cfg := config.Load()
	client := newAPIClient(cfg.APIBaseURL)

	var status dto.OrderStatusResponse
	path := fmt.Sprintf("/v1/orders/%s/start", url.PathEscape(orderID))
	if err := client.do(ctx, "POST", path, dto.StartOrderRequest{PaymentID: paymentID}, &status); err != nil {
		return fmt.Errorf("failed to start order: %w", err)
	}

	return printJSON(io.Writer, status)
}
