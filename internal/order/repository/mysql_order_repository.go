package repository

import (
	"context"
	"database/sql"

	"github.com/allisson/orderflow/internal/database"
	apperrors "github.com/allisson/orderflow/internal/errors"
	orderDomain "github.com/allisson/orderflow/internal/order/domain"
)

// MySQLOrderRepository implements order snapshot persistence for MySQL.
// Mirrors the PostgreSQL implementation with MySQL upsert syntax.
type MySQLOrderRepository struct {
	db *sql.DB
}

// NewMySQLOrderRepository creates a new MySQL order repository.
func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db}
}

// Upsert inserts the order snapshot or updates it in place.
func (m *MySQLOrderRepository) Upsert(ctx context.Context, order *orderDomain.Order) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO orders (id, state, payment_id, address_line1, address_city, address_state, address_zip, last_error, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			  ON DUPLICATE KEY UPDATE
				  state = VALUES(state),
				  payment_id = VALUES(payment_id),
				  address_line1 = VALUES(address_line1),
				  address_city = VALUES(address_city),
				  address_state = VALUES(address_state),
				  address_zip = VALUES(address_zip),
				  last_error = VALUES(last_error),
				  updated_at = VALUES(updated_at)`

	line1, city, state, zip := addressColumns(order.Address)

	_, err := querier.ExecContext(
		ctx,
		query,
		order.ID,
		string(order.State),
		order.PaymentID,
		line1,
		city,
		state,
		zip,
		order.LastError,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to upsert order")
	}

	return nil
}

// GetByID retrieves an order snapshot by id.
func (m *MySQLOrderRepository) GetByID(ctx context.Context, id string) (*orderDomain.Order, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, state, payment_id, address_line1, address_city, address_state, address_zip, last_error, created_at, updated_at
			  FROM orders
			  WHERE id = ?`

	row := querier.QueryRowContext(ctx, query, id)
	order, err := scanOrder(row)
	if err != nil {
		if apperrors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get order")
	}

	return order, nil
}

// ListNonTerminal retrieves orders that have not reached a terminal state.
func (m *MySQLOrderRepository) ListNonTerminal(ctx context.Context) ([]*orderDomain.Order, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, state, payment_id, address_line1, address_city, address_state, address_zip, last_error, created_at, updated_at
			  FROM orders
			  WHERE state NOT IN (?, ?, ?, ?, ?)
			  ORDER BY created_at ASC`

	rows, err := querier.QueryContext(
		ctx,
		query,
		string(orderDomain.StateCompleted),
		string(orderDomain.StateCancelled),
		string(orderDomain.StateReviewTimedOut),
		string(orderDomain.StatePaymentFailed),
		string(orderDomain.StateFailed),
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list non-terminal orders")
	}
	defer func() {
		_ = rows.Close()
	}()

	orders := make([]*orderDomain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan order")
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate orders")
	}

	return orders, nil
}
