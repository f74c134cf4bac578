package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// LifecycleMetrics records order lifecycle observability data: operation
// counts and latencies, plus a counter of orders reaching each terminal
// state.
type LifecycleMetrics interface {
	// RecordOperation records one lifecycle operation with its status.
	// Operation examples: "order_start", "order_approve", "order_status".
	// Status examples: "success", "error".
	RecordOperation(ctx context.Context, operation, status string)

	// RecordDuration records the duration of a lifecycle operation in
	// seconds as a histogram.
	RecordDuration(ctx context.Context, operation string, duration time.Duration, status string)

	// RecordTerminalState counts an order that finished in the given
	// terminal state.
	RecordTerminalState(ctx context.Context, state string)
}

type lifecycleMetrics struct {
	operationCounter metric.Int64Counter
	durationHisto    metric.Float64Histogram
	finishedCounter  metric.Int64Counter
}

// NewLifecycleMetrics creates a LifecycleMetrics implementation on the given
// meter provider. The namespace prefixes every metric name.
func NewLifecycleMetrics(meterProvider metric.MeterProvider, namespace string) (LifecycleMetrics, error) {
	meter := meterProvider.Meter(namespace)

	operationCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_operations_total", namespace),
		metric.WithDescription("Total number of order lifecycle operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	durationHisto, err := meter.Float64Histogram(
		fmt.Sprintf("%s_operation_duration_seconds", namespace),
		metric.WithDescription("Duration of order lifecycle operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	finishedCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_orders_finished_total", namespace),
		metric.WithDescription("Total number of orders that reached a terminal state"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create finished counter: %w", err)
	}

	return &lifecycleMetrics{
		operationCounter: operationCounter,
		durationHisto:    durationHisto,
		finishedCounter:  finishedCounter,
	}, nil
}

func (l *lifecycleMetrics) RecordOperation(ctx context.Context, operation, status string) {
	l.operationCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}

func (l *lifecycleMetrics) RecordDuration(
	ctx context.Context,
	operation string,
	duration time.Duration,
	status string,
) {
	l.durationHisto.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}

func (l *lifecycleMetrics) RecordTerminalState(ctx context.Context, state string) {
	l.finishedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("state", state),
		),
	)
}

// NoOpLifecycleMetrics is used when metrics are disabled.
type NoOpLifecycleMetrics struct{}

// NewNoOpLifecycleMetrics creates a no-op LifecycleMetrics implementation.
func NewNoOpLifecycleMetrics() LifecycleMetrics {
	return &NoOpLifecycleMetrics{}
}

// RecordOperation does nothing when metrics are disabled.
func (n *NoOpLifecycleMetrics) RecordOperation(ctx context.Context, operation, status string) {}

// RecordDuration does nothing when metrics are disabled.
func (n *NoOpLifecycleMetrics) RecordDuration(
	ctx context.Context,
	operation string,
	duration time.Duration,
	status string,
) {
}

// RecordTerminalState does nothing when metrics are disabled.
func (n *NoOpLifecycleMetrics) RecordTerminalState(ctx context.Context, state string) {}
