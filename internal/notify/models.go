// Package notify records admission decisions and hands them to downstream
// delivery. The admission service appends one event per decision; delivery
// (email, push) is owned elsewhere and consumes the published stream.
package notify

import (
	"time"

	"github.com/google/uuid"

	id "pulsefit/pkg/domain"
)

// EventType classifies an admission decision event.
type EventType string

const (
	EventSeated     EventType = "registration.seated"
	EventWaitlisted EventType = "registration.waitlisted"
	EventCancelled  EventType = "registration.cancelled"
	EventPromoted   EventType = "registration.promoted"
)

// Event is one admission decision, append-only.
type Event struct {
	ID      uuid.UUID
	Type    EventType
	EventID id.EventID
	UserID  id.UserID

	// Position is the waitlist rank for waitlisted events.
	Position int `json:",omitempty"`

	RequestID  string
	OccurredAt time.Time
}

// NewEvent stamps identity and time onto a decision event.
func NewEvent(eventType EventType, eventID id.EventID, userID id.UserID) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		EventID:    eventID,
		UserID:     userID,
		OccurredAt: time.Now(),
	}
}
