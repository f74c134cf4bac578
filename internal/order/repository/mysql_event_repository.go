package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/allisson/orderflow/internal/database"
	apperrors "github.com/allisson/orderflow/internal/errors"
	orderDomain "github.com/allisson/orderflow/internal/order/domain"
)

// MySQLEventRepository implements the append-only lifecycle event log for MySQL.
type MySQLEventRepository struct {
	db *sql.DB
}

// NewMySQLEventRepository creates a new MySQL event repository.
func NewMySQLEventRepository(db *sql.DB) *MySQLEventRepository {
	return &MySQLEventRepository{db: db}
}

// Append inserts a new lifecycle event.
func (m *MySQLEventRepository) Append(ctx context.Context, event *orderDomain.Event) error {
	querier := database.GetTx(ctx, m.db)

	var payloadJSON []byte
	var err error

	if event.Payload != nil {
		payloadJSON, err = json.Marshal(event.Payload)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal event payload")
		}
	}

	query := `INSERT INTO events (order_id, type, payload, created_at)
			  VALUES (?, ?, ?, ?)`

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

// ListByOrderID retrieves events for an order, newest first, with pagination.
func (m *MySQLEventRepository) ListByOrderID(
	ctx context.Context,
	orderID string,
	offset, limit int,
) ([]*orderDomain.Event, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, order_id, type, payload, created_at
			  FROM events
			  WHERE order_id = ?
			  ORDER BY id DESC
			  LIMIT ? OFFSET ?`

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
