package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIO() (IOTuple, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return IOTuple{Reader: strings.NewReader(""), Writer: buf}, buf
}

func TestRunStartOrder(t *testing.T) {
	t.Run("missing-order-id", func(t *testing.T) {
		io, _ := testIO()
		err := RunStartOrder(context.Background(), io, "", "pay-1")
		require.Error(t, err)
		require.Contains(t, err.Error(), "order id is required")
	})

	t.Run("missing-payment-id", func(t *testing.T) {
		io, _ := testIO()
		err := RunStartOrder(context.Background(), io, "ord-1", "")
		require.Error(t, err)
		require.Contains(t, err.Error(), "payment id is required")
	})

	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1/orders/ord-1/start", r.URL.Path)

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "pay-1", body["payment_id"])

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"order_id":"ord-1","step":"AWAITING_REVIEW"}`))
		}))
		defer server.Close()
		t.Setenv("API_BASE_URL", server.URL)

		io, buf := testIO()
		err := RunStartOrder(context.Background(), io, "ord-1", "pay-1")
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "AWAITING_REVIEW")
	})

	t.Run("server-error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"terminal_state"}`))
		}))
		defer server.Close()
		t.Setenv("API_BASE_URL", server.URL)

		io, _ := testIO()
		err := RunStartOrder(context.Background(), io, "ord-1", "pay-1")
		require.Error(t, err)
		require.Contains(t, err.Error(), "server returned 409")
	})
}

func TestRunSignalCommands(t *testing.T) {
	t.Run("approve", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/orders/ord-1/signals/approve", r.URL.Path)
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"status":"accepted"}`))
		}))
		defer server.Close()
		t.Setenv("API_BASE_URL", server.URL)

		io, buf := testIO()
		require.NoError(t, RunApproveOrder(context.Background(), io, "ord-1"))
		assert.Contains(t, buf.String(), "accepted")
	})

	t.Run("cancel-with-reason", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/orders/ord-1/signals/cancel", r.URL.Path)

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "customer request", body["reason"])

			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"status":"accepted"}`))
		}))
		defer server.Close()
		t.Setenv("API_BASE_URL", server.URL)

		io, _ := testIO()
		require.NoError(t, RunCancelOrder(context.Background(), io, "ord-1", "customer request"))
	})

	t.Run("update-address", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/orders/ord-1/signals/update-address", r.URL.Path)

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "1 Main St", body["line1"])
			assert.Equal(t, "90210", body["zip"])

			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"status":"accepted"}`))
		}))
		defer server.Close()
		t.Setenv("API_BASE_URL", server.URL)

		io, _ := testIO()
		err := RunUpdateAddress(context.Background(), io, "ord-1", "1 Main St", "Springfield", "CA", "90210")
		require.NoError(t, err)
	})

	t.Run("missing-order-id", func(t *testing.T) {
		io, _ := testIO()
		require.Error(t, RunApproveOrder(context.Background(), io, ""))
		require.Error(t, RunCancelOrder(context.Background(), io, "", ""))
		require.Error(t, RunUpdateAddress(context.Background(), io, "", "a", "b", "c", "d"))
	})
}

func TestRunOrderQueries(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/v1/orders/ord-1/status", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"order_id":"ord-1","step":"COMPLETED"}`))
		}))
		defer server.Close()
		t.Setenv("API_BASE_URL", server.URL)

		io, buf := testIO()
		require.NoError(t, RunOrderStatus(context.Background(), io, "ord-1"))
		assert.Contains(t, buf.String(), "COMPLETED")
	})

	t.Run("events-pagination", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/orders/ord-1/events", r.URL.Path)
			assert.Equal(t, "5", r.URL.Query().Get("offset"))
			assert.Equal(t, "10", r.URL.Query().Get("limit"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"order_id":"ord-1","events":[],"offset":5,"limit":10}`))
		}))
		defer server.Close()
		t.Setenv("API_BASE_URL", server.URL)

		io, _ := testIO()
		require.NoError(t, RunOrderEvents(context.Background(), io, "ord-1", 5, 10))
	})

	t.Run("missing-order-id", func(t *testing.T) {
		io, _ := testIO()
		require.Error(t, RunOrderStatus(context.Background(), io, ""))
		require.Error(t, RunOrderEvents(context.Background(), io, "", 0, 50))
	})
}
