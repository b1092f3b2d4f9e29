// Package catalog exposes a read view of event definitions. Event CRUD is
// owned by the dashboard layer; admission control only ever reads from here.
package catalog

import (
	"time"

	id "pulsefit/pkg/domain"
)

// Event is an event definition as admission control sees it.
type Event struct {
	ID    id.EventID
	Title string

	StartAt time.Time

	// MaxAttendees is the seat capacity. nil means unlimited; 0 means no
	// seats at all (waitlist-only when AllowWaitlist is set).
	MaxAttendees *int

	RequiresRegistration      bool
	RegistrationDeadlineHours int
	AllowWaitlist             bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RegistrationDeadline is the instant after which new registrations close.
func (e *Event) RegistrationDeadline() time.Time {
	return e.StartAt.Add(-time.Duration(e.RegistrationDeadlineHours) * time.Hour)
}

// Unlimited reports whether the event has no seat cap.
func (e *Event) Unlimited() bool {
	return e.MaxAttendees == nil
}
