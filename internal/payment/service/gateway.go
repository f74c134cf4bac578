// Package service provides the external payment mechanism boundary.
package service

import (
	"context"
	"log/slog"
	"sync"

	apperrors "github.com/allisson/orderflow/internal/errors"
)

// SimulatedGateway stands in for the external payment provider. It is
// idempotent per payment id: charging the same id twice is a no-op, which is
// the assumption the charge protocol's crash-recovery window relies on.
type SimulatedGateway struct {
	mu      sync.Mutex
	charged map[string]int64
	logger  *slog.Logger
}

// NewSimulatedGateway creates a new SimulatedGateway.
func NewSimulatedGateway(logger *slog.Logger) *SimulatedGateway {
	return &SimulatedGateway{
		charged: make(map[string]int64),
		logger:  logger,
	}
}

// Charge performs the simulated external charge call. Zero and negative
// amounts are declined; a repeated call for an already-charged payment id
// succeeds without a second effect.
func (g *SimulatedGateway) Charge(ctx context.Context, paymentID, orderID string, amountCents int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if amountCents <= 0 {
		return apperrors.Wrap(apperrors.ErrPaymentDeclined, "non-positive amount")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if previous, ok := g.charged[paymentID]; ok {
		if g.logger != nil {
			g.logger.Info("duplicate charge call collapsed",
				slog.String("payment_id", paymentID),
				slog.Int64("amount_cents", previous),
			)
		}
		return nil
	}

	g.charged[paymentID] = amountCents

	if g.logger != nil {
		g.logger.Info("external charge performed",
			slog.String("payment_id", paymentID),
			slog.String("order_id", orderID),
			slog.Int64("amount_cents", amountCents),
		)
	}

	return nil
}

// ChargeCount returns how many distinct payment ids produced a real charge
// effect. Exposed for tests asserting at-most-once external effects.
func (g *SimulatedGateway) ChargeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.charged)
}
