// Package repository provides data persistence implementations for shipping requests.
package repository

import (
	"context"
	"database/sql"

	"github.com/allisson/orderflow/internal/database"
	apperrors "github.com/allisson/orderflow/internal/errors"
	orderDomain "github.com/allisson/orderflow/internal/order/domain"
	shippingDomain "github.com/allisson/orderflow/internal/shipping/domain"
)

// PostgreSQLShippingRepository handles shipping request persistence for PostgreSQL.
type PostgreSQLShippingRepository struct {
	db *sql.DB
}

// NewPostgreSQLShippingRepository creates a new PostgreSQLShippingRepository.
func NewPostgreSQLShippingRepository(db *sql.DB) *PostgreSQLShippingRepository {
	return &PostgreSQLShippingRepository{db: db}
}

// Create inserts a new shipping request. Called inside the transaction that
// marks the parent order as shipping-started, so the handoff is atomic.
func (r *PostgreSQLShippingRepository) Create(
	ctx context.Context,
	request *shippingDomain.ShippingRequest,
) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO shipping_requests (id, order_id, address_line1, address_city, address_state, address_zip, status, retries, last_error, processed_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())`

	_, err := querier.ExecContext(
		ctx,
		query,
		request.ID,
		request.OrderID,
		request.Address.Line1,
		request.Address.City,
		request.Address.State,
		request.Address.Zip,
		string(request.Status),
		request.Retries,
		request.LastError,
		request.ProcessedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create shipping request")
	}

	return nil
}

// GetPending retrieves pending shipping requests with a limit. Rows are
// locked with SKIP LOCKED so multiple dispatcher replicas never double-process
// the same request.
func (r *PostgreSQLShippingRepository) GetPending(
	ctx context.Context,
	limit int,
) ([]*shippingDomain.ShippingRequest, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, order_id, address_line1, address_city, address_state, address_zip, status, retries, last_error, processed_at, created_at, updated_at
			  FROM shipping_requests
			  WHERE status = $1
			  ORDER BY created_at ASC
			  LIMIT $2
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, string(shippingDomain.StatusPending), limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list pending shipping requests")
	}
	defer func() {
		_ = rows.Close()
	}()

	var requests []*shippingDomain.ShippingRequest
	for rows.Next() {
		var request shippingDomain.ShippingRequest
		var status string
		var address orderDomain.Address

		err := rows.Scan(
			&request.ID,
			&request.OrderID,
			&address.Line1,
			&address.City,
			&address.State,
			&address.Zip,
			&status,
			&request.Retries,
			&request.LastError,
			&request.ProcessedAt,
			&request.CreatedAt,
			&request.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan shipping request")
		}

		request.Status = shippingDomain.Status(status)
		request.Address = address
		requests = append(requests, &request)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate shipping requests")
	}

	return requests, nil
}

// Update updates a shipping request's processing outcome.
func (r *PostgreSQLShippingRepository) Update(
	ctx context.Context,
	request *shippingDomain.ShippingRequest,
) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE shipping_requests
			  SET status = $1, retries = $2, last_error = $3, processed_at = $4, updated_at = NOW()
			  WHERE id = $5`

	_, err := querier.ExecContext(
		ctx,
		query,
		string(request.Status),
		request.Retries,
		request.LastError,
		request.ProcessedAt,
		request.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update shipping request")
	}

	return nil
}
