package repository

import (
	"context"
	"database/sql"

	"github.com/allisson/orderflow/internal/database"
	apperrors "github.com/allisson/orderflow/internal/errors"
	paymentDomain "github.com/allisson/orderflow/internal/payment/domain"
)

// MySQLPaymentRepository implements the payment ledger for MySQL.
type MySQLPaymentRepository struct {
	db *sql.DB
}

// NewMySQLPaymentRepository creates a new MySQL payment repository.
func NewMySQLPaymentRepository(db *sql.DB) *MySQLPaymentRepository {
	return &MySQLPaymentRepository{db: db}
}

// Reserve attempts to insert a reservation row for the payment id.
// Returns true when the row was freshly inserted.
func (m *MySQLPaymentRepository) Reserve(
	ctx context.Context,
	paymentID, orderID string,
) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT IGNORE INTO payments (payment_id, order_id, status, amount_cents, created_at, updated_at)
			  VALUES (?, ?, ?, 0, NOW(), NOW())`

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
func (m *MySQLPaymentRepository) GetByID(
	ctx context.Context,
	paymentID string,
) (*paymentDomain.Payment, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT payment_id, order_id, status, amount_cents, created_at, updated_at
			  FROM payments
			  WHERE payment_id = ?`

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
func (m *MySQLPaymentRepository) MarkCharged(
	ctx context.Context,
	paymentID string,
	amountCents int64,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE payments
			  SET status = ?, amount_cents = ?, updated_at = NOW()
			  WHERE payment_id = ? AND status = ?`

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
func (m *MySQLPaymentRepository) MarkFailed(ctx context.Context, paymentID string) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE payments
			  SET status = ?, updated_at = NOW()
			  WHERE payment_id = ? AND status = ?`

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
