package service

import (
	"context"

	orderDomain "github.com/allisson/orderflow/internal/order/domain"
)

// CatalogIntake resolves the line items for a newly received order. The real
// upstream is an order-capture system; this implementation serves a fixed
// catalog so the charge amount is deterministic.
type CatalogIntake struct{}

// NewCatalogIntake creates a new CatalogIntake.
func NewCatalogIntake() *CatalogIntake {
	return &CatalogIntake{}
}

// Receive returns the line items for the order.
func (c *CatalogIntake) Receive(ctx context.Context, orderID string) ([]orderDomain.LineItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return []orderDomain.LineItem{
		{SKU: "SKU-100", Quantity: 2, UnitCents: 999},
		{SKU: "SKU-200", Quantity: 1, UnitCents: 550},
	}, nil
}
