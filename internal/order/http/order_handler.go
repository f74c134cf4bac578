// Package http provides HTTP handlers for the order lifecycle operations.
package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/orderflow/internal/httputil"
	"github.com/allisson/orderflow/internal/order/http/dto"
	orderUseCase "github.com/allisson/orderflow/internal/order/usecase"
	customValidation "github.com/allisson/orderflow/internal/validation"
)

// OrderHandler handles HTTP requests for order lifecycle operations.
type OrderHandler struct {
	useCase orderUseCase.UseCase
	logger  *slog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(useCase orderUseCase.UseCase, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		useCase: useCase,
		logger:  logger,
	}
}

func (h *OrderHandler) orderID(c *gin.Context) (string, bool) {
	orderID := c.Param("order_id")
	if orderID == "" {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("order id cannot be empty"), h.logger)
		return "", false
	}
	return orderID, true
}

// StartHandler begins the lifecycle for an order.
// POST /v1/orders/:order_id/start
// Returns 200 OK with the current state; repeating a start is a no-op.
// Starting an order that already finished returns 409 Conflict.
func (h *OrderHandler) StartHandler(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	var req dto.StartOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	info, err := h.useCase.Start(c.Request.Context(), orderID, req.PaymentID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapStatusToResponse(info))
}

// ApproveHandler delivers an approve signal.
// POST /v1/orders/:order_id/signals/approve
// Returns 202 Accepted; delivery does not imply the signal was applied.
func (h *OrderHandler) ApproveHandler(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	if err := h.useCase.Approve(c.Request.Context(), orderID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusAccepted, dto.NewSignalAcceptedResponse())
}

// CancelHandler delivers a cancel signal with an optional reason.
// POST /v1/orders/:order_id/signals/cancel
// Returns 202 Accepted. The request body may be omitted entirely.
func (h *OrderHandler) CancelHandler(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	var req dto.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	if err := h.useCase.Cancel(c.Request.Context(), orderID, req.Reason); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusAccepted, dto.NewSignalAcceptedResponse())
}

// UpdateAddressHandler delivers an address change.
// POST /v1/orders/:order_id/signals/update-address
// Returns 202 Accepted; changes after the shipping handoff are ignored.
func (h *OrderHandler) UpdateAddressHandler(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	var req dto.UpdateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	if err := h.useCase.UpdateAddress(c.Request.Context(), orderID, req.Address()); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusAccepted, dto.NewSignalAcceptedResponse())
}

// StatusHandler returns the current lifecycle position of an order.
// GET /v1/orders/:order_id/status
// Returns 200 OK, or 404 Not Found for unknown orders.
func (h *OrderHandler) StatusHandler(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	info, err := h.useCase.Status(c.Request.Context(), orderID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapStatusToResponse(info))
}

// ListEventsHandler returns the order's audit log, newest first.
// GET /v1/orders/:order_id/events?offset=N&limit=M
func (h *OrderHandler) ListEventsHandler(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	events, err := h.useCase.ListEvents(c.Request.Context(), orderID, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapEventsToResponse(orderID, events, offset, limit))
}
