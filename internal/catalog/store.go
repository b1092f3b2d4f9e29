package catalog

import (
	"context"
	"sync"

	id "pulsefit/pkg/domain"
	"pulsefit/pkg/platform/sentinel"
)

// Store reads event definitions. Put exists so deployments and tests can seed
// the catalog; the editing UI writes through its own layer.
type Store interface {
	Get(ctx context.Context, eventID id.EventID) (*Event, error)
	Put(ctx context.Context, event *Event) error
}

// InMemoryStore holds event definitions in a map.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.EventID]Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.EventID]Event)}
}

func (s *InMemoryStore) Get(_ context.Context, eventID id.EventID) (*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	event, ok := s.events[eventID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	// Copy so callers cannot mutate the stored definition.
	out := event
	if event.MaxAttendees != nil {
		capa := *event.MaxAttendees
		out.MaxAttendees = &capa
	}
	return &out, nil
}

func (s *InMemoryStore) Put(_ context.Context, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ID] = *event
	return nil
}
