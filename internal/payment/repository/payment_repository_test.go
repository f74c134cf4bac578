package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/orderflow/internal/errors"
	paymentDomain "github.com/allisson/orderflow/internal/payment/domain"
)

var paymentColumns = []string{
	"payment_id", "order_id", "status", "amount_cents", "created_at", "updated_at",
}

func TestPostgreSQLPaymentRepositoryReserve(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	repo := NewPostgreSQLPaymentRepository(db)

	t.Run("fresh reservation", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO payments").
			WithArgs("pay-1", "ord-1", "reserved").
			WillReturnResult(sqlmock.NewResult(0, 1))

		inserted, err := repo.Reserve(context.Background(), "pay-1", "ord-1")
		require.NoError(t, err)
		assert.True(t, inserted)
	})

	t.Run("existing row is a no-op", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO payments").
			WithArgs("pay-1", "ord-1", "reserved").
			WillReturnResult(sqlmock.NewResult(0, 0))

		inserted, err := repo.Reserve(context.Background(), "pay-1", "ord-1")
		require.NoError(t, err)
		assert.False(t, inserted)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLPaymentRepositoryGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	repo := NewPostgreSQLPaymentRepository(db)
	now := time.Now().UTC()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows(paymentColumns).
			AddRow("pay-1", "ord-1", "charged", int64(2548), now, now)
		mock.ExpectQuery("SELECT (.+) FROM payments").WithArgs("pay-1").WillReturnRows(rows)

		payment, err := repo.GetByID(context.Background(), "pay-1")
		require.NoError(t, err)
		assert.Equal(t, paymentDomain.StatusCharged, payment.Status)
		assert.Equal(t, int64(2548), payment.AmountCents)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM payments").
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(paymentColumns))

		_, err := repo.GetByID(context.Background(), "missing")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLPaymentRepositoryFinalize(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	repo := NewPostgreSQLPaymentRepository(db)

	t.Run("mark charged guards on reserved status", func(t *testing.T) {
		mock.ExpectExec("UPDATE payments").
			WithArgs("charged", int64(2548), "pay-1", "reserved").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.MarkCharged(context.Background(), "pay-1", 2548))
	})

	t.Run("mark failed guards on reserved status", func(t *testing.T) {
		mock.ExpectExec("UPDATE payments").
			WithArgs("failed", "pay-1", "reserved").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.MarkFailed(context.Background(), "pay-1"))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLPaymentRepositoryReserve(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	repo := NewMySQLPaymentRepository(db)

	t.Run("fresh reservation", func(t *testing.T) {
		mock.ExpectExec("INSERT IGNORE INTO payments").
			WithArgs("pay-1", "ord-1", "reserved").
			WillReturnResult(sqlmock.NewResult(0, 1))

		inserted, err := repo.Reserve(context.Background(), "pay-1", "ord-1")
		require.NoError(t, err)
		assert.True(t, inserted)
	})

	t.Run("existing row is a no-op", func(t *testing.T) {
		mock.ExpectExec("INSERT IGNORE INTO payments").
			WithArgs("pay-1", "ord-1", "reserved").
			WillReturnResult(sqlmock.NewResult(0, 0))

		inserted, err := repo.Reserve(context.Background(), "pay-1", "ord-1")
		require.NoError(t, err)
		assert.False(t, inserted)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
