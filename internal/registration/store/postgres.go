package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pulsefit/internal/registration"
	id "pulsefit/pkg/domain"
	"pulsefit/pkg/platform/sentinel"
)

// PostgresLedger stores registration rows in the registrations table.
//
// Per-event serialization comes from a row-level lock: Decide opens a
// transaction and takes SELECT ... FOR UPDATE on the event row, so concurrent
// decisions for the same event queue behind each other while decisions for
// different events run in parallel. The lock is released at commit/rollback,
// which also makes the callback's mutations all-or-nothing.
type PostgresLedger struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) Decide(ctx context.Context, eventID id.EventID, fn func(rows registration.EventRows) error) (err error) {
	tx, err := l.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin decision tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Lock anchor. Every mutation for this event serializes on this row.
	var one int
	err = tx.QueryRow(ctx,
		`SELECT 1 FROM events WHERE id = $1 FOR UPDATE`,
		uuid.UUID(eventID),
	).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("lock event row: %w", err)
	}

	if err = fn(&pgTxn{ctx: ctx, tx: tx, eventID: eventID}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit decision tx: %w", err)
	}
	return nil
}

func (l *PostgresLedger) Counts(ctx context.Context, eventID id.EventID) (registration.Counts, error) {
	var c registration.Counts
	err := l.db.QueryRow(ctx,
		`SELECT count(*) FILTER (WHERE status = 'registered'),
		        count(*) FILTER (WHERE status = 'waitlisted')
		 FROM registrations WHERE event_id = $1`,
		uuid.UUID(eventID),
	).Scan(&c.Registered, &c.Waitlisted)
	if err != nil {
		return registration.Counts{}, fmt.Errorf("count registrations: %w", err)
	}
	return c, nil
}

func (l *PostgresLedger) ListByEvent(ctx context.Context, eventID id.EventID) ([]registration.Registration, error) {
	rows, err := l.db.Query(ctx,
		`SELECT id, event_id, user_id, status, position, requested_at, decided_at
		 FROM registrations
		 WHERE event_id = $1 AND status <> 'cancelled'
		 ORDER BY status = 'waitlisted', position NULLS FIRST, requested_at, id`,
		uuid.UUID(eventID),
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()
	return scanRegistrations(rows)
}

// pgTxn is the transactional view handed to a Decide callback.
type pgTxn struct {
	ctx     context.Context
	tx      pgx.Tx
	eventID id.EventID
}

func (t *pgTxn) Counts() (registration.Counts, error) {
	var c registration.Counts
	err := t.tx.QueryRow(t.ctx,
		`SELECT count(*) FILTER (WHERE status = 'registered'),
		        count(*) FILTER (WHERE status = 'waitlisted')
		 FROM registrations WHERE event_id = $1`,
		uuid.UUID(t.eventID),
	).Scan(&c.Registered, &c.Waitlisted)
	if err != nil {
		return registration.Counts{}, fmt.Errorf("count registrations: %w", err)
	}
	return c, nil
}

func (t *pgTxn) Active(userID id.UserID) (*registration.Registration, error) {
	row := t.tx.QueryRow(t.ctx,
		`SELECT id, event_id, user_id, status, position, requested_at, decided_at
		 FROM registrations
		 WHERE event_id = $1 AND user_id = $2 AND status <> 'cancelled'`,
		uuid.UUID(t.eventID), uuid.UUID(userID),
	)
	reg, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active registration: %w", err)
	}
	return reg, nil
}

func (t *pgTxn) Waitlist() ([]registration.Registration, error) {
	rows, err := t.tx.Query(t.ctx,
		`SELECT id, event_id, user_id, status, position, requested_at, decided_at
		 FROM registrations
		 WHERE event_id = $1 AND status = 'waitlisted'
		 ORDER BY position`,
		uuid.UUID(t.eventID),
	)
	if err != nil {
		return nil, fmt.Errorf("list waitlist: %w", err)
	}
	defer rows.Close()
	return scanRegistrations(rows)
}

func (t *pgTxn) Insert(reg *registration.Registration) error {
	_, err := t.tx.Exec(t.ctx,
		`INSERT INTO registrations (id, event_id, user_id, status, position, requested_at, decided_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.UUID(reg.ID), uuid.UUID(reg.EventID), uuid.UUID(reg.UserID),
		string(reg.Status), reg.Position, reg.RequestedAt, reg.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (t *pgTxn) Update(reg *registration.Registration) error {
	tag, err := t.tx.Exec(t.ctx,
		`UPDATE registrations SET status = $2, position = $3, decided_at = $4
		 WHERE id = $1`,
		uuid.UUID(reg.ID), string(reg.Status), reg.Position, reg.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("update registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row rowScanner) (*registration.Registration, error) {
	var reg registration.Registration
	var regID, eventID, userID uuid.UUID
	var status string
	if err := row.Scan(&regID, &eventID, &userID, &status, &reg.Position,
		&reg.RequestedAt, &reg.DecidedAt); err != nil {
		return nil, err
	}
	reg.ID = id.RegistrationID(regID)
	reg.EventID = id.EventID(eventID)
	reg.UserID = id.UserID(userID)
	reg.Status = registration.Status(status)
	return &reg, nil
}

func scanRegistrations(rows pgx.Rows) ([]registration.Registration, error) {
	var out []registration.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		out = append(out, *reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w", err)
	}
	return out, nil
}
