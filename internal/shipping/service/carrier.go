// Package service provides the external carrier boundary for the shipping
// sub-process.
package service

import (
	"context"
	"log/slog"

	apperrors "github.com/allisson/orderflow/internal/errors"
	shippingDomain "github.com/allisson/orderflow/internal/shipping/domain"
)

// FailureSource decides whether a carrier call must fail. The fault
// injector used for lifecycle steps satisfies it.
type FailureSource interface {
	ShouldFail(step string) bool
}

// SimulatedCarrier stands in for the external shipping carrier. Dispatching
// logs the handoff; a failure source can force failures to exercise the
// dispatcher's retry handling.
type SimulatedCarrier struct {
	faults FailureSource
	logger *slog.Logger
}

// NewSimulatedCarrier creates a new SimulatedCarrier. faults may be nil.
func NewSimulatedCarrier(faults FailureSource, logger *slog.Logger) *SimulatedCarrier {
	return &SimulatedCarrier{
		faults: faults,
		logger: logger,
	}
}

// Prepare stages the shipment with the carrier ahead of dispatch.
func (c *SimulatedCarrier) Prepare(ctx context.Context, request *shippingDomain.ShippingRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if c.faults != nil && c.faults.ShouldFail("prepare") {
		return apperrors.New("carrier rejected the preparation")
	}

	if c.logger != nil {
		c.logger.Info("shipping request prepared",
			slog.String("shipping_request_id", request.ID.String()),
			slog.String("order_id", request.OrderID),
		)
	}

	return nil
}

// Dispatch hands the shipping request to the carrier.
func (c *SimulatedCarrier) Dispatch(ctx context.Context, request *shippingDomain.ShippingRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if c.faults != nil && c.faults.ShouldFail("dispatch") {
		return apperrors.New("carrier rejected the dispatch")
	}

	if c.logger != nil {
		c.logger.Info("shipping request dispatched to carrier",
			slog.String("shipping_request_id", request.ID.String()),
			slog.String("order_id", request.OrderID),
		)
	}

	return nil
}
