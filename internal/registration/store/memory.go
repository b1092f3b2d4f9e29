// Package store provides the registration ledger backends. The in-memory
// ledger serializes per event with a mutex table; the PostgreSQL ledger
// serializes with a row lock on the event inside a transaction.
package store

import (
	"context"
	"sort"
	"sync"

	"pulsefit/internal/registration"
	id "pulsefit/pkg/domain"
	"pulsefit/pkg/platform/sentinel"
)

// InMemoryLedger keeps registration rows per event, each event guarded by its
// own mutex so admissions for different events never block each other.
type InMemoryLedger struct {
	mu     sync.RWMutex
	events map[id.EventID]*eventRows
}

type eventRows struct {
	mu   sync.Mutex
	rows []registration.Registration
}

func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{events: make(map[id.EventID]*eventRows)}
}

func (l *InMemoryLedger) forEvent(eventID id.EventID) *eventRows {
	l.mu.RLock()
	ev := l.events[eventID]
	l.mu.RUnlock()
	if ev != nil {
		return ev
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if ev = l.events[eventID]; ev == nil {
		ev = &eventRows{}
		l.events[eventID] = ev
	}
	return ev
}

// Decide locks the event's rows, runs fn against a staged copy, and commits
// the copy only when fn succeeds. A failing callback leaves the ledger
// untouched, matching the all-or-nothing requirement.
func (l *InMemoryLedger) Decide(ctx context.Context, eventID id.EventID, fn func(rows registration.EventRows) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ev := l.forEvent(eventID)
	ev.mu.Lock()
	defer ev.mu.Unlock()

	txn := &memoryTxn{rows: append([]registration.Registration(nil), ev.rows...)}
	if err := fn(txn); err != nil {
		return err
	}
	ev.rows = txn.rows
	return nil
}

func (l *InMemoryLedger) Counts(_ context.Context, eventID id.EventID) (registration.Counts, error) {
	ev := l.forEvent(eventID)
	ev.mu.Lock()
	defer ev.mu.Unlock()
	return countRows(ev.rows), nil
}

func (l *InMemoryLedger) ListByEvent(_ context.Context, eventID id.EventID) ([]registration.Registration, error) {
	ev := l.forEvent(eventID)
	ev.mu.Lock()
	defer ev.mu.Unlock()

	var registered, waitlisted []registration.Registration
	for _, r := range ev.rows {
		switch r.Status {
		case registration.StatusRegistered:
			registered = append(registered, r)
		case registration.StatusWaitlisted:
			waitlisted = append(waitlisted, r)
		}
	}
	sort.Slice(registered, func(i, j int) bool {
		if registered[i].RequestedAt.Equal(registered[j].RequestedAt) {
			return registered[i].ID.String() < registered[j].ID.String()
		}
		return registered[i].RequestedAt.Before(registered[j].RequestedAt)
	})
	sort.Slice(waitlisted, func(i, j int) bool {
		return *waitlisted[i].Position < *waitlisted[j].Position
	})
	return append(registered, waitlisted...), nil
}

// memoryTxn is the staged view handed to a Decide callback.
type memoryTxn struct {
	rows []registration.Registration
}

func (t *memoryTxn) Counts() (registration.Counts, error) {
	return countRows(t.rows), nil
}

func (t *memoryTxn) Active(userID id.UserID) (*registration.Registration, error) {
	for i := range t.rows {
		if t.rows[i].UserID == userID && t.rows[i].Active() {
			row := t.rows[i]
			return &row, nil
		}
	}
	return nil, nil
}

func (t *memoryTxn) Waitlist() ([]registration.Registration, error) {
	var waitlisted []registration.Registration
	for _, r := range t.rows {
		if r.Status == registration.StatusWaitlisted {
			waitlisted = append(waitlisted, r)
		}
	}
	sort.Slice(waitlisted, func(i, j int) bool {
		return *waitlisted[i].Position < *waitlisted[j].Position
	})
	return waitlisted, nil
}

func (t *memoryTxn) Insert(reg *registration.Registration) error {
	t.rows = append(t.rows, *reg)
	return nil
}

func (t *memoryTxn) Update(reg *registration.Registration) error {
	for i := range t.rows {
		if t.rows[i].ID == reg.ID {
			t.rows[i] = *reg
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func countRows(rows []registration.Registration) registration.Counts {
	var c registration.Counts
	for _, r := range rows {
		switch r.Status {
		case registration.StatusRegistered:
			c.Registered++
		case registration.StatusWaitlisted:
			c.Waitlisted++
		}
	}
	return c
}
