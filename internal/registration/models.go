// Package registration defines the admission-control domain: registration
// ledger rows, capacity snapshots, and the decisions the admission service
// produces for register and cancel requests.
package registration

import (
	"time"

	id "pulsefit/pkg/domain"
)

// Status is the lifecycle state of a registration row.
type Status string

const (
	StatusRegistered Status = "registered"
	StatusWaitlisted Status = "waitlisted"
	StatusCancelled  Status = "cancelled"
)

// Registration is one ledger row. Rows are never deleted; cancellation is a
// status transition so history survives for auditing.
type Registration struct {
	ID      id.RegistrationID
	EventID id.EventID
	UserID  id.UserID
	Status  Status

	// Position is the waitlist rank, meaningful only while Status is
	// waitlisted. Waitlisted rows for one event hold positions 1..k with no
	// gaps, in RequestedAt order.
	Position *int

	RequestedAt time.Time
	DecidedAt   time.Time
}

// Active reports whether the row counts toward the one-active-row-per-user
// invariant.
func (r *Registration) Active() bool {
	return r.Status != StatusCancelled
}

// Counts is the capacity projection for one event.
type Counts struct {
	Registered int
	Waitlisted int
}

// Snapshot is Counts plus the derived seats-left figure for display.
type Snapshot struct {
	RegisteredCount int
	WaitlistCount   int

	// SpotsLeft is nil for events without a seat cap.
	SpotsLeft *int
}

// DecisionKind is the outcome of an admission request.
type DecisionKind string

const (
	DecisionSeated     DecisionKind = "seated"
	DecisionWaitlisted DecisionKind = "waitlisted"
	DecisionCancelled  DecisionKind = "cancelled"
)

// Decision is the successful result of Register or Cancel. Rejections are
// returned as coded errors, not decisions.
type Decision struct {
	Kind DecisionKind

	// Position is set when Kind is waitlisted.
	Position int

	// Promoted identifies the user moved from the waitlist into the freed
	// seat, when a cancellation caused a promotion. The caller uses it to
	// drive notification delivery.
	Promoted *id.UserID
}
