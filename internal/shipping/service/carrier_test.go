package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderDomain "github.com/allisson/orderflow/internal/order/domain"
	shippingDomain "github.com/allisson/orderflow/internal/shipping/domain"
)

type stubFailureSource struct {
	failing map[string]bool
}

func (s *stubFailureSource) ShouldFail(step string) bool {
	return s.failing[step]
}

func testRequest() *shippingDomain.ShippingRequest {
	return &shippingDomain.ShippingRequest{
		ID:      uuid.Must(uuid.NewV7()),
		OrderID: "ord-1",
		Address: orderDomain.Address{
			Line1: "100 Main St",
			City:  "Springfield",
			State: "IL",
			Zip:   "62701",
		},
		Status: shippingDomain.StatusPending,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSimulatedCarrier(t *testing.T) {
	t.Run("prepare and dispatch succeed without a failure source", func(t *testing.T) {
		carrier := NewSimulatedCarrier(nil, discardLogger())
		request := testRequest()

		require.NoError(t, carrier.Prepare(context.Background(), request))
		require.NoError(t, carrier.Dispatch(context.Background(), request))
	})

	t.Run("prepare fails when the failure source says so", func(t *testing.T) {
		faults := &stubFailureSource{failing: map[string]bool{"prepare": true}}
		carrier := NewSimulatedCarrier(faults, discardLogger())
		request := testRequest()

		err := carrier.Prepare(context.Background(), request)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "carrier rejected the preparation")

		require.NoError(t, carrier.Dispatch(context.Background(), request))
	})

	t.Run("dispatch fails when the failure source says so", func(t *testing.T) {
		faults := &stubFailureSource{failing: map[string]bool{"dispatch": true}}
		carrier := NewSimulatedCarrier(faults, discardLogger())
		request := testRequest()

		require.NoError(t, carrier.Prepare(context.Background(), request))

		err := carrier.Dispatch(context.Background(), request)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "carrier rejected the dispatch")
	})

	t.Run("cancelled context stops both calls", func(t *testing.T) {
		carrier := NewSimulatedCarrier(nil, discardLogger())
		request := testRequest()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.ErrorIs(t, carrier.Prepare(ctx, request), context.Canceled)
		assert.ErrorIs(t, carrier.Dispatch(ctx, request), context.Canceled)
	})
}
