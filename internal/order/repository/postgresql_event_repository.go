package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/allisson/orderflow/internal/database"
	apperrors "github.com/allisson/orderflow/internal/errors"
	orderDomain "github.com/allisson/orderflow/internal/order/domain"
)

// PostgreSQLEventRepository implements the append-only lifecycle event log
// for PostgreSQL. Events are never updated or deleted.
type PostgreSQLEventRepository struct {
	db *sql.DB
}

// NewPostgreSQLEventRepository creates a new PostgreSQL event repository.
func NewPostgreSQLEventRepository(db *sql.DB) *PostgreSQLEventRepository {
	return &PostgreSQLEventRepository{db: db}
}

// Append inserts a new lifecycle event. Handles nil payload as database NULL.
func (p *PostgreSQLEventRepository) Append(ctx context.Context, event *orderDomain.Event) error {
	querier := database.GetTx(ctx, p.db)

	var payloadJSON []byte
	var err error

	if event.Payload != nil {
		payloadJSON, err = json.Marshal(event.Payload)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal event payload")
		}
	}

	query := `INSERT INTO events (order_id, type, payload, created_at)
			  VALUES ($1, $2, $3, $4)`

	_, err = querier.ExecContext(
		ctx,
		query,
		event.OrderID,
		string(event.Type),
		payloadJSON,
		event.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to append event")
	}

	return nil
}

// ListByOrderID retrieves events for an order ordered by ID descending
// (newest first) with pagination. Returns an empty slice when no events exist.
func (p *PostgreSQLEventRepository) ListByOrderID(
	ctx context.Context,
	orderID string,
	offset, limit int,
) ([]*orderDomain.Event, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, order_id, type, payload, created_at
			  FROM events
			  WHERE order_id = $1
			  ORDER BY id DESC
			  LIMIT $2 OFFSET $3`

	rows, err := querier.QueryContext(ctx, query, orderID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list events")
	}
	defer func() {
		_ = rows.Close()
	}()

	events := make([]*orderDomain.Event, 0)
	for rows.Next() {
		var event orderDomain.Event
		var eventType string
		var payloadJSON []byte

		err := rows.Scan(
			&event.ID,
			&event.OrderID,
			&eventType,
			&payloadJSON,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan event")
		}

		event.Type = orderDomain.EventType(eventType)

		if payloadJSON != nil {
			if err := json.Unmarshal(payloadJSON, &event.Payload); err != nil {
				return nil, apperrors.Wrap(err, "failed to unmarshal event payload")
			}
		}

		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate events")
	}

	return events, nil
}
