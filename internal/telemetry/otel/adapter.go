package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"stakegov/internal/telemetry"
	"stakegov/internal/telemetry/domain"
)

// NewEventEmitter returns an EventEmitter that sends governance events as
// OTel log records via the given LoggerProvider. If provider is nil, a
// no-op emitter is returned.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: provider.Logger("stakegov.events")}
}

// recordLogger is the subset of otellog.Logger the emitter needs.
type recordLogger interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewEventEmitterWithLogger is like NewEventEmitter but takes the record
// sink directly. Used in tests.
func NewEventEmitterWithLogger(logger recordLogger) telemetry.EventEmitter {
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *domain.Event) error { return nil }

type otelEmitter struct {
	logger recordLogger
}

// Emit converts the governance event to an OTel log record and emits it.
// Best-effort; the SDK batches and exports asynchronously.
func (e *otelEmitter) Emit(ctx context.Context, event *domain.Event) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	if !event.CreatedAt.IsZero() {
		rec.SetTimestamp(event.CreatedAt)
	} else {
		rec.SetTimestamp(time.Now().UTC())
	}
	if len(event.Metadata) > 0 {
		rec.SetBody(otellog.BytesValue(event.Metadata))
	}
	if event.ID != "" {
		rec.AddAttributes(otellog.String("event_id", event.ID))
	}
	if event.Type != "" {
		rec.AddAttributes(otellog.String("event_type", event.Type))
	}
	if event.Actor != "" {
		rec.AddAttributes(otellog.String("actor", event.Actor))
	}
	if event.ProposalID != 0 {
		rec.AddAttributes(otellog.Int64("proposal_id", int64(event.ProposalID)))
	}
	if event.Amount != 0 {
		rec.AddAttributes(otellog.Int64("amount", int64(event.Amount)))
	}
	e.logger.Emit(ctx, rec)
	return nil
}
