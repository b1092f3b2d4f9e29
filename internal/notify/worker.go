package notify

import (
	"context"
	"log/slog"
	"time"
)

// Worker drains the outbox to the publisher. Delivery is at-least-once:
// an event published but not yet marked may be published again after a crash,
// so consumers must deduplicate on event ID.
type Worker struct {
	outbox    *OutboxStore
	publisher Publisher
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

func NewWorker(outbox *OutboxStore, publisher Publisher, logger *slog.Logger) *Worker {
	return &Worker{
		outbox:    outbox,
		publisher: publisher,
		logger:    logger,
		interval:  time.Second,
		batchSize: 100,
	}
}

// Run polls until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.drain(ctx); err != nil && ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "outbox drain failed", "error", err.Error())
			}
		}
	}
}

func (w *Worker) drain(ctx context.Context) error {
	events, err := w.outbox.Unpublished(ctx, w.batchSize)
	if err != nil {
		return err
	}
	for _, event := range events {
		if err := w.publisher.Publish(ctx, event); err != nil {
			// Leave the row unpublished; the next tick retries.
			return err
		}
		if err := w.outbox.MarkPublished(ctx, event.ID, time.Now()); err != nil {
			return err
		}
	}
	return nil
}
