package server

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// operationMetrics records per-operation counters and latency through
// the global meter provider. Instrument creation failures are logged
// once and leave the instruments nil; record then no-ops.
type operationMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

func newOperationMetrics() *operationMetrics {
	meter := otel.Meter("stakegov/server")
	m := &operationMetrics{}
	var err error
	m.requests, err = meter.Int64Counter("stakegov.requests",
		metric.WithDescription("Boundary requests by operation and outcome."))
	if err != nil {
		log.Printf("server: requests counter: %v", err)
	}
	m.duration, err = meter.Float64Histogram("stakegov.request.duration",
		metric.WithDescription("Boundary request duration."),
		metric.WithUnit("ms"))
	if err != nil {
		log.Printf("server: duration histogram: %v", err)
	}
	return m
}

func (m *operationMetrics) record(ctx context.Context, op, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	)
	if m.requests != nil {
		m.requests.Add(ctx, 1, attrs)
	}
	if m.duration != nil {
		m.duration.Record(ctx, float64(elapsed.Microseconds())/1000.0, attrs)
	}
}
