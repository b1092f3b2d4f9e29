package notify

import (
	"context"
	"log/slog"
)

// Buffer adapts a Publisher into a Sink with a bounded queue so admission
// decisions never block on delivery. When the queue is full the event is
// dropped and counted in the log; notifications are best-effort, the ledger
// row is the source of truth.
type Buffer struct {
	publisher Publisher
	logger    *slog.Logger
	queue     chan Event
}

func NewBuffer(publisher Publisher, size int, logger *slog.Logger) *Buffer {
	return &Buffer{
		publisher: publisher,
		logger:    logger,
		queue:     make(chan Event, size),
	}
}

// Record enqueues the event without blocking.
func (b *Buffer) Record(ctx context.Context, event Event) error {
	select {
	case b.queue <- event:
	default:
		b.logger.WarnContext(ctx, "notification queue full, dropping event",
			"type", string(event.Type),
			"event_id", event.EventID.String(),
		)
	}
	return nil
}

// Run publishes queued events until the context is cancelled.
func (b *Buffer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-b.queue:
			if err := b.publisher.Publish(ctx, event); err != nil && ctx.Err() == nil {
				b.logger.ErrorContext(ctx, "publish admission event failed",
					"type", string(event.Type),
					"event_id", event.EventID.String(),
					"error", err.Error(),
				)
			}
		}
	}
}
