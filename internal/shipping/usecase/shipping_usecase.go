package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/allisson/orderflow/internal/clock"
	"github.com/allisson/orderflow/internal/database"
	orderDomain "github.com/allisson/orderflow/internal/order/domain"
	shippingDomain "github.com/allisson/orderflow/internal/shipping/domain"
)

const (
	stepPrepare  = "prepare"
	stepDispatch = "dispatch"
)

// Config holds shipping dispatcher configuration.
type Config struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// ShippingUseCase polls the shipping_requests table and dispatches pending
// requests to the carrier. Each poll runs in one transaction; the SKIP LOCKED
// read keeps concurrent dispatcher replicas from double-processing a request.
type ShippingUseCase struct {
	config       Config
	txManager    database.TxManager
	shippingRepo ShippingRequestRepository
	orderRepo    OrderAnnotator
	carrier      Carrier
	executor     StepExecutor
	events       EventRecorder
	clock        clock.Clock
	logger       *slog.Logger
}

// NewShippingUseCase creates a new ShippingUseCase.
func NewShippingUseCase(
	config Config,
	txManager database.TxManager,
	shippingRepo ShippingRequestRepository,
	orderRepo OrderAnnotator,
	carrier Carrier,
	executor StepExecutor,
	events EventRecorder,
	clk clock.Clock,
	logger *slog.Logger,
) *ShippingUseCase {
	return &ShippingUseCase{
		config:       config,
		txManager:    txManager,
		shippingRepo: shippingRepo,
		orderRepo:    orderRepo,
		carrier:      carrier,
		executor:     executor,
		events:       events,
		clock:        clk,
		logger:       logger,
	}
}

// Start runs the dispatch loop until the context is cancelled.
func (uc *ShippingUseCase) Start(ctx context.Context) error {
	if uc.logger != nil {
		uc.logger.Info("starting shipping dispatcher",
			slog.Duration("interval", uc.config.Interval),
			slog.Int("batch_size", uc.config.BatchSize),
		)
	}

	ticker := time.NewTicker(uc.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if uc.logger != nil {
				uc.logger.Info("stopping shipping dispatcher")
			}
			return ctx.Err()
		case <-ticker.C:
			if err := uc.ProcessRequests(ctx); err != nil {
				if uc.logger != nil {
					uc.logger.Error("failed to process shipping requests", slog.Any("error", err))
				}
			}
		}
	}
}

// ProcessRequests handles one batch of pending requests in a transaction.
func (uc *ShippingUseCase) ProcessRequests(ctx context.Context) error {
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		requests, err := uc.shippingRepo.GetPending(ctx, uc.config.BatchSize)
		if err != nil {
			return err
		}

		if len(requests) == 0 {
			return nil
		}

		if uc.logger != nil {
			uc.logger.Info("processing shipping requests", slog.Int("count", len(requests)))
		}

		for _, request := range requests {
			if err := uc.processRequest(ctx, request); err != nil {
				return err
			}
		}

		return nil
	})
}

// processRequest runs the prepare and dispatch steps for one request and
// records the outcome. Each step goes through the shared executor, so a
// transient carrier failure is retried in place before it costs the request
// one of its dispatcher passes.
func (uc *ShippingUseCase) processRequest(ctx context.Context, request *shippingDomain.ShippingRequest) error {
	dispatchErr := uc.runSteps(ctx, request)
	if dispatchErr == nil {
		now := uc.clock.Now()
		request.Status = shippingDomain.StatusProcessed
		request.ProcessedAt = &now

		if err := uc.shippingRepo.Update(ctx, request); err != nil {
			return err
		}

		uc.appendEvent(ctx, request.OrderID, orderDomain.EventShippingDispatched, map[string]any{
			"shipping_request_id": request.ID.String(),
		})
		return nil
	}

	if uc.logger != nil {
		uc.logger.Error("failed to dispatch shipping request",
			slog.String("shipping_request_id", request.ID.String()),
			slog.String("order_id", request.OrderID),
			slog.Any("error", dispatchErr),
		)
	}

	request.Retries++
	errorMsg := dispatchErr.Error()
	request.LastError = &errorMsg

	if request.Retries >= uc.config.MaxRetries {
		request.Status = shippingDomain.StatusFailed
	}

	if err := uc.shippingRepo.Update(ctx, request); err != nil {
		return err
	}

	if request.Status == shippingDomain.StatusFailed {
		uc.appendEvent(ctx, request.OrderID, orderDomain.EventShippingFailed, map[string]any{
			"shipping_request_id": request.ID.String(),
			"retries":             request.Retries,
			"error":               errorMsg,
		})
		uc.annotateOrder(ctx, request.OrderID, errorMsg)
	}

	return nil
}

// runSteps executes prepare then dispatch for the request.
func (uc *ShippingUseCase) runSteps(ctx context.Context, request *shippingDomain.ShippingRequest) error {
	err := uc.executor.Execute(ctx, request.OrderID, stepPrepare, func(ctx context.Context) error {
		return uc.carrier.Prepare(ctx, request)
	})
	if err != nil {
		return err
	}

	return uc.executor.Execute(ctx, request.OrderID, stepDispatch, func(ctx context.Context) error {
		return uc.carrier.Dispatch(ctx, request)
	})
}

// annotateOrder surfaces the dispatch failure on the parent order's last
// error. The order's state is left untouched: the lifecycle finished when the
// handoff was enqueued, and the sub-process outcome must not rewind it.
func (uc *ShippingUseCase) annotateOrder(ctx context.Context, orderID, errorMsg string) {
	order, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if uc.logger != nil {
			uc.logger.Error("failed to load order for dispatch failure note",
				slog.String("order_id", orderID),
				slog.Any("error", err),
			)
		}
		return
	}

	order.SetError("shipping dispatch failed: " + errorMsg)
	order.UpdatedAt = uc.clock.Now()

	if err := uc.orderRepo.Upsert(ctx, order); err != nil && uc.logger != nil {
		uc.logger.Error("failed to note dispatch failure on order",
			slog.String("order_id", orderID),
			slog.Any("error", err),
		)
	}
}

func (uc *ShippingUseCase) appendEvent(
	ctx context.Context,
	orderID string,
	eventType orderDomain.EventType,
	payload map[string]any,
) {
	event := &orderDomain.Event{
		OrderID:   orderID,
		Type:      eventType,
		Payload:   payload,
		CreatedAt: uc.clock.Now(),
	}
	if err := uc.events.Append(ctx, event); err != nil && uc.logger != nil {
		uc.logger.Error("failed to append shipping event",
			slog.String("order_id", orderID),
			slog.String("type", string(eventType)),
			slog.Any("error", err),
		)
	}
}
