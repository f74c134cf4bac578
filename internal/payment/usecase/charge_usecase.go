package usecase

import (
	"context"
	"log/slog"

	"github.com/allisson/orderflow/internal/clock"
	apperrors "github.com/allisson/orderflow/internal/errors"
	orderDomain "github.com/allisson/orderflow/internal/order/domain"
	paymentDomain "github.com/allisson/orderflow/internal/payment/domain"
)

// chargeUseCase implements ChargeUseCase against the payment ledger.
type chargeUseCase struct {
	paymentRepo PaymentRepository
	gateway     Gateway
	events      EventRecorder
	clock       clock.Clock
	logger      *slog.Logger
}

// NewChargeUseCase creates a new ChargeUseCase.
func NewChargeUseCase(
	paymentRepo PaymentRepository,
	gateway Gateway,
	events EventRecorder,
	clk clock.Clock,
	logger *slog.Logger,
) ChargeUseCase {
	return &chargeUseCase{
		paymentRepo: paymentRepo,
		gateway:     gateway,
		events:      events,
		clock:       clk,
		logger:      logger,
	}
}

// Charge runs the idempotent charge protocol:
//
//  1. Insert a reservation row keyed by payment id (a no-op if the key exists).
//  2. On a fresh reservation, perform the external charge call and finalize
//     the row to charged or failed.
//  3. On an existing row, return its terminal outcome without re-invoking the
//     external call; a row still reserved means a previous attempt crashed
//     mid-charge, and the external call is re-attempted. That re-attempt is
//     the one at-least-once window of the protocol; it is surfaced on the
//     audit log and tolerated because the gateway is idempotent per payment id.
func (u *chargeUseCase) Charge(
	ctx context.Context,
	paymentID, orderID string,
	amountCents int64,
) (*paymentDomain.Payment, error) {
	inserted, err := u.paymentRepo.Reserve(ctx, paymentID, orderID)
	if err != nil {
		return nil, err
	}

	if inserted {
		u.appendEvent(ctx, orderID, orderDomain.EventPaymentReserved, map[string]any{
			"payment_id": paymentID,
		})
		return u.performCharge(ctx, paymentID, orderID, amountCents)
	}

	payment, err := u.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	switch payment.Status {
	case paymentDomain.StatusCharged:
		u.appendEvent(ctx, orderID, orderDomain.EventPaymentAlreadyCharged, map[string]any{
			"payment_id":   paymentID,
			"amount_cents": payment.AmountCents,
		})
		return payment, nil

	case paymentDomain.StatusFailed:
		return payment, apperrors.Wrap(apperrors.ErrPaymentDeclined, "payment previously failed")

	default:
		// Row reserved but never finalized: a crash happened between the
		// reservation and the external call's resolution.
		u.appendEvent(ctx, orderID, orderDomain.EventPaymentRetryAfterCrash, map[string]any{
			"payment_id": paymentID,
		})
		if u.logger != nil {
			u.logger.Warn("re-attempting charge for reserved payment",
				slog.String("payment_id", paymentID),
				slog.String("order_id", orderID),
			)
		}
		return u.performCharge(ctx, paymentID, orderID, amountCents)
	}
}

// performCharge invokes the external gateway and finalizes the ledger row.
func (u *chargeUseCase) performCharge(
	ctx context.Context,
	paymentID, orderID string,
	amountCents int64,
) (*paymentDomain.Payment, error) {
	if err := u.gateway.Charge(ctx, paymentID, orderID, amountCents); err != nil {
		if markErr := u.paymentRepo.MarkFailed(ctx, paymentID); markErr != nil {
			return nil, apperrors.Wrap(markErr, "failed to finalize declined payment")
		}
		u.appendEvent(ctx, orderID, orderDomain.EventPaymentFailed, map[string]any{
			"payment_id": paymentID,
			"error":      err.Error(),
		})
		return nil, apperrors.Wrap(apperrors.ErrPaymentDeclined, err.Error())
	}

	if err := u.paymentRepo.MarkCharged(ctx, paymentID, amountCents); err != nil {
		return nil, apperrors.Wrap(err, "failed to finalize charged payment")
	}

	u.appendEvent(ctx, orderID, orderDomain.EventPaymentCharged, map[string]any{
		"payment_id":   paymentID,
		"amount_cents": amountCents,
	})

	return u.paymentRepo.GetByID(ctx, paymentID)
}

// appendEvent records an audit entry; failures are logged, never fatal for
// the charge itself.
func (u *chargeUseCase) appendEvent(
	ctx context.Context,
	orderID string,
	eventType orderDomain.EventType,
	payload map[string]any,
) {
	event := &orderDomain.Event{
		OrderID:   orderID,
		Type:      eventType,
		Payload:   payload,
		CreatedAt: u.clock.Now(),
	}
	if err := u.events.Append(ctx, event); err != nil && u.logger != nil {
		u.logger.Error("failed to append payment event",
			slog.String("order_id", orderID),
			slog.String("type", string(eventType)),
			slog.Any("error", err),
		)
	}
}
