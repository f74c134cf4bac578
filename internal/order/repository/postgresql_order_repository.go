// Package repository provides data persistence implementations for order entities.
package repository

import (
	"context"
	"database/sql"

	"github.com/allisson/orderflow/internal/database"
	apperrors "github.com/allisson/orderflow/internal/errors"
	orderDomain "github.com/allisson/orderflow/internal/order/domain"
)

// PostgreSQLOrderRepository implements order snapshot persistence for PostgreSQL.
// Uses transaction support via database.GetTx().
type PostgreSQLOrderRepository struct {
	db *sql.DB
}

// NewPostgreSQLOrderRepository creates a new PostgreSQL order repository.
func NewPostgreSQLOrderRepository(db *sql.DB) *PostgreSQLOrderRepository {
	return &PostgreSQLOrderRepository{db: db}
}

// Upsert inserts the order snapshot or updates it in place. Safe to call on
// every transition; the row is keyed by the caller-supplied order id.
func (p *PostgreSQLOrderRepository) Upsert(ctx context.Context, order *orderDomain.Order) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO orders (id, state, payment_id, address_line1, address_city, address_state, address_zip, last_error, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  ON CONFLICT (id) DO UPDATE SET
				  state = EXCLUDED.state,
				  payment_id = EXCLUDED.payment_id,
				  address_line1 = EXCLUDED.address_line1,
				  address_city = EXCLUDED.address_city,
				  address_state = EXCLUDED.address_state,
				  address_zip = EXCLUDED.address_zip,
				  last_error = EXCLUDED.last_error,
				  updated_at = EXCLUDED.updated_at`

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

// GetByID retrieves an order snapshot by id. Returns apperrors.ErrNotFound
// for unknown ids so status queries can distinguish missing orders.
func (p *PostgreSQLOrderRepository) GetByID(ctx context.Context, id string) (*orderDomain.Order, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, state, payment_id, address_line1, address_city, address_state, address_zip, last_error, created_at, updated_at
			  FROM orders
			  WHERE id = $1`

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

// ListNonTerminal retrieves orders that have not reached a terminal state,
// ordered by creation time. Used by the orchestrator's resume pass at boot.
func (p *PostgreSQLOrderRepository) ListNonTerminal(ctx context.Context) ([]*orderDomain.Order, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, state, payment_id, address_line1, address_city, address_state, address_zip, last_error, created_at, updated_at
			  FROM orders
			  WHERE state NOT IN ($1, $2, $3, $4, $5)
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

// scanTarget abstracts *sql.Row and *sql.Rows for shared scanning.
type scanTarget interface {
	Scan(dest ...any) error
}

func scanOrder(row scanTarget) (*orderDomain.Order, error) {
	var order orderDomain.Order
	var state string
	var line1, city, addrState, zip sql.NullString

	err := row.Scan(
		&order.ID,
		&state,
		&order.PaymentID,
		&line1,
		&city,
		&addrState,
		&zip,
		&order.LastError,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	order.State = orderDomain.State(state)
	if line1.Valid {
		order.Address = &orderDomain.Address{
			Line1: line1.String,
			City:  city.String,
			State: addrState.String,
			Zip:   zip.String,
		}
	}

	return &order, nil
}

func addressColumns(address *orderDomain.Address) (line1, city, state, zip sql.NullString) {
	if address == nil {
		return
	}
	line1 = sql.NullString{String: address.Line1, Valid: true}
	city = sql.NullString{String: address.City, Valid: true}
	state = sql.NullString{String: address.State, Valid: true}
	zip = sql.NullString{String: address.Zip, Valid: true}
	return
}
