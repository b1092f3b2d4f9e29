package registration

import (
	"time"

	"pulsefit/internal/catalog"
)

// RegistrationOpen reports whether new registrations are still accepted.
// The window closes RegistrationDeadlineHours before the event starts.
func RegistrationOpen(event *catalog.Event, now time.Time) bool {
	return now.Before(event.RegistrationDeadline())
}

// CancellationAllowed reports whether a user may still withdraw. Cancellation
// stays open past the registration deadline so users are never trapped in a
// commitment, but closes once the event has started.
func CancellationAllowed(event *catalog.Event, now time.Time) bool {
	return now.Before(event.StartAt)
}
