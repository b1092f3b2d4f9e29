// Package domain holds identifier and value types shared across modules.
//
// IDs are distinct types over uuid.UUID so an EventID can never be passed
// where a UserID is expected. Construct them from external input via the
// Parse helpers; direct casting bypasses validation.
package domain

import "github.com/google/uuid"

// EventID identifies an event in the catalog.
type EventID uuid.UUID

// UserID identifies a platform user (client, instructor, or admin).
type UserID uuid.UUID

// RegistrationID identifies a single registration ledger row.
type RegistrationID uuid.UUID

// NewEventID returns a fresh random EventID.
func NewEventID() EventID { return EventID(uuid.New()) }

// NewUserID returns a fresh random UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewRegistrationID returns a fresh random RegistrationID.
func NewRegistrationID() RegistrationID { return RegistrationID(uuid.New()) }

// ParseEventID parses an event ID from its string form.
func ParseEventID(s string) (EventID, error) {
	u, err := uuid.Parse(s)
	return EventID(u), err
}

// ParseUserID parses a user ID from its string form.
func ParseUserID(s string) (UserID, error) {
	u, err := uuid.Parse(s)
	return UserID(u), err
}

func (id EventID) String() string { return uuid.UUID(id).String() }
func (id EventID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id UserID) String() string { return uuid.UUID(id).String() }
func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id RegistrationID) String() string { return uuid.UUID(id).String() }
func (id RegistrationID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
