// Package repository provides data persistence implementations for the
// idempotent payment ledger.
package repository

import (
	"context"
	"database/sql"

	"github.com/allisson/orderflow/internal/database"
	apperrors "github.com/allisson/orderflow/internal/errors"
	paymentDomain "github.com/allisson/orderflow/internal/payment/domain"
)

// PostgreSQLPaymentRepository implements the payment ledger for PostgreSQL.
// The ledger is keyed by the caller-supplied payment id, which doubles as the
// idempotency key for the charge protocol.
type PostgreSQLPaymentRepository struct {
	db *sql.DB
}

// NewPostgreSQLPaymentRepository creates a new PostgreSQL payment repository.
func NewPostgreSQLPaymentRepository(db *sql.DB) *PostgreSQLPaymentRepository {
	return &PostgreSQLPaymentRepository{db: db}
}

// Reserve attempts to insert a reservation row for the payment id with a zero
// amount. Returns true when the row was freshly inserted and false when a row
// for the id already existed (a retried or concurrent attempt). The insert is
// conflict-tolerant; concurrent reservations never error.
func (p *PostgreSQLPaymentRepository) Reserve(
	ctx context.Context,
	paymentID, orderID string,
) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO payments (payment_id, order_id, status, amount_cents, created_at, updated_at)
			  VALUES ($1, $2, $3, 0, NOW(), NOW())
			  ON CONFLICT (payment_id) DO NOTHING`

	result, err := querier.ExecContext(ctx, query, paymentID, orderID, string(paymentDomain.StatusReserved))
	if err != nil {
		return false, apperrors.Wrap(err, "failed to reserve payment")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to read reservation result")
	}

	return affected == 1, nil
}

// GetByID retrieves a payment ledger row by its payment id.
func (p *PostgreSQLPaymentRepository) GetByID(
	ctx context.Context,
	paymentID string,
) (*paymentDomain.Payment, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT payment_id, order_id, status, amount_cents, created_at, updated_at
			  FROM payments
			  WHERE payment_id = $1`

	var payment paymentDomain.Payment
	var status string

	err := querier.QueryRowContext(ctx, query, paymentID).Scan(
		&payment.PaymentID,
		&payment.OrderID,
		&status,
		&payment.AmountCents,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		if apperrors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get payment")
	}

	payment.Status = paymentDomain.Status(status)
	return &payment, nil
}

// MarkCharged finalizes a reserved payment to charged with the real amount.
// The status guard keeps the transition monotone: a row already finalized to
// charged or failed is never rewritten.
func (p *PostgreSQLPaymentRepository) MarkCharged(
	ctx context.Context,
	paymentID string,
	amountCents int64,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE payments
			  SET status = $1, amount_cents = $2, updated_at = NOW()
			  WHERE payment_id = $3 AND status = $4`

	_, err := querier.ExecContext(
		ctx,
		query,
		string(paymentDomain.StatusCharged),
		amountCents,
		paymentID,
		string(paymentDomain.StatusReserved),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to mark payment charged")
	}

	return nil
}

// MarkFailed finalizes a reserved payment to failed.
func (p *PostgreSQLPaymentRepository) MarkFailed(ctx context.Context, paymentID string) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE payments
			  SET status = $1, updated_at = NOW()
			  WHERE payment_id = $2 AND status = $3`

	_, err := querier.ExecContext(
		ctx,
		query,
		string(paymentDomain.StatusFailed),
		paymentID,
		string(paymentDomain.StatusReserved),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to mark payment failed")
	}

	return nil
}
