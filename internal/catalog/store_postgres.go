package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	id "pulsefit/pkg/domain"
	"pulsefit/pkg/platform/sentinel"
)

// PostgresStore reads event definitions from the events table.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, eventID id.EventID) (*Event, error) {
	var e Event
	var eid uuid.UUID
	err := s.db.QueryRow(ctx,
		`SELECT id, title, start_at, max_attendees, requires_registration,
		        registration_deadline_hours, allow_waitlist, created_at, updated_at
		 FROM events WHERE id = $1`,
		uuid.UUID(eventID),
	).Scan(&eid, &e.Title, &e.StartAt, &e.MaxAttendees, &e.RequiresRegistration,
		&e.RegistrationDeadlineHours, &e.AllowWaitlist, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	e.ID = id.EventID(eid)
	return &e, nil
}

func (s *PostgresStore) Put(ctx context.Context, event *Event) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO events (id, title, start_at, max_attendees, requires_registration,
		                     registration_deadline_hours, allow_waitlist, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
		   title = EXCLUDED.title,
		   start_at = EXCLUDED.start_at,
		   max_attendees = EXCLUDED.max_attendees,
		   requires_registration = EXCLUDED.requires_registration,
		   registration_deadline_hours = EXCLUDED.registration_deadline_hours,
		   allow_waitlist = EXCLUDED.allow_waitlist,
		   updated_at = EXCLUDED.updated_at`,
		uuid.UUID(event.ID), event.Title, event.StartAt, event.MaxAttendees,
		event.RequiresRegistration, event.RegistrationDeadlineHours,
		event.AllowWaitlist, event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert event: %w", err)
	}
	return nil
}
