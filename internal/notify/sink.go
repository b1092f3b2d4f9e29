package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Sink accepts decision events on the admission hot path. Implementations must
// be cheap; anything slow belongs behind the outbox or the buffer.
type Sink interface {
	Record(ctx context.Context, event Event) error
}

// Publisher delivers events to the downstream stream (Kafka in production).
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// LogPublisher writes events to the log. Dev-mode stand-in for Kafka.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	p.Logger.InfoContext(ctx, "admission event",
		"type", string(event.Type),
		"event_id", event.EventID.String(),
		"user_id", event.UserID.String(),
		"position", event.Position,
		"request_id", event.RequestID,
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// MemorySink collects events in memory for tests and single-process mode.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func NewMemorySink() *MemorySink { return &MemorySink{} }

func (s *MemorySink) Record(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of everything recorded so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}
