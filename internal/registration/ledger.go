package registration

import (
	"context"

	id "pulsefit/pkg/domain"
)

// Ledger is the authoritative store of registration rows. Implementations
// guarantee per-event serialization: Decide callbacks for one event run
// strictly one at a time, while different events proceed independently.
//
// The ledger exposes no direct status or position setters. All transitions go
// through the EventRows view handed to a Decide callback, and the admission
// service is the only caller of Decide.
type Ledger interface {
	// Decide runs fn with exclusive access to one event's rows. The
	// mutations fn performs commit atomically when it returns nil and are
	// discarded entirely when it returns an error.
	Decide(ctx context.Context, eventID id.EventID, fn func(rows EventRows) error) error

	// Counts reads the committed per-status counts without taking the event
	// lock. Display-only; decisions re-read under Decide.
	Counts(ctx context.Context, eventID id.EventID) (Counts, error)

	// ListByEvent returns the committed rows for an event: registered rows
	// first in RequestedAt order, then waitlisted rows by position.
	// Cancelled rows are not included.
	ListByEvent(ctx context.Context, eventID id.EventID) ([]Registration, error)
}

// EventRows is the transactional view of a single event's rows, valid only
// inside a Decide callback.
type EventRows interface {
	// Counts returns the per-status counts as of this transaction.
	Counts() (Counts, error)

	// Active returns the user's non-cancelled row, or nil.
	Active(userID id.UserID) (*Registration, error)

	// Waitlist returns waitlisted rows in ascending position order.
	Waitlist() ([]Registration, error)

	// Insert adds a new row.
	Insert(reg *Registration) error

	// Update writes back status, position, and decidedAt for an existing row.
	Update(reg *Registration) error
}
