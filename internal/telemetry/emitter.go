package telemetry

import (
	"context"
	"log"

	"stakegov/internal/telemetry/domain"
)

// EventEmitter emits governance events (e.g. to OTel Logs or Kafka).
// Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *domain.Event) error
}

// Fanout emits each event to every wrapped emitter. A failing emitter is
// logged and does not stop the others.
type Fanout []EventEmitter

// Emit sends the event to all emitters and returns the last error seen.
func (f Fanout) Emit(ctx context.Context, event *domain.Event) error {
	var last error
	for _, e := range f {
		if e == nil {
			continue
		}
		if err := e.Emit(ctx, event); err != nil {
			log.Printf("telemetry: fanout emit failed: %v", err)
			last = err
		}
	}
	return last
}
