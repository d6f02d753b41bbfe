package observe

import (
	"context"
	"log/slog"
)

// SlogObserver emits events to a slog.Logger. The event type becomes the
// log message and Data keys are flattened as top-level attributes.
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver creates a SlogObserver that emits to the given logger.
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogObserver{logger: logger}
}

func (o *SlogObserver) OnEvent(ctx context.Context, event Event) {
	attrs := make([]slog.Attr, 0, len(event.Data)+4)
	if event.BroadcastID != "" {
		attrs = append(attrs, slog.String("broadcast_id", event.BroadcastID))
	}
	if event.Seq != 0 {
		attrs = append(attrs, slog.Int64("seq", event.Seq))
	}
	if event.Store != "" {
		attrs = append(attrs, slog.String("store", event.Store))
	}
	if event.ActionType != "" {
		attrs = append(attrs, slog.String("action", event.ActionType))
	}
	for k, v := range event.Data {
		attrs = append(attrs, slog.Any(k, v))
	}

	o.logger.LogAttrs(ctx, event.Type.Level(), string(event.Type), attrs...)
}
