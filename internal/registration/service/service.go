// Package service implements admission control: the decision, for each
// register or cancel request, of whether a user is seated, queued, or
// rejected, made under a per-event serialization guarantee.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pulsefit/internal/catalog"
	"pulsefit/internal/notify"
	"pulsefit/internal/registration"
	"pulsefit/internal/registration/metrics"
	id "pulsefit/pkg/domain"
	dErrors "pulsefit/pkg/domainerrors"
	"pulsefit/pkg/platform/sentinel"
	"pulsefit/pkg/requestcontext"
)

// Service is the admission controller. It is the only writer of registration
// status transitions; every capacity check happens inside the ledger's
// per-event serialized section, never against a cached count.
type Service struct {
	catalog catalog.Store
	ledger  registration.Ledger
	sink    notify.Sink
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New constructs the admission service. Sink and metrics may be nil.
func New(cat catalog.Store, ledger registration.Ledger, sink notify.Sink, logger *slog.Logger, m *metrics.Metrics) (*Service, error) {
	if cat == nil {
		return nil, fmt.Errorf("event catalog is required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("registration ledger is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{catalog: cat, ledger: ledger, sink: sink, logger: logger, metrics: m}, nil
}

// Register admits the user to the event, queues them, or rejects the request.
//
// The capacity check and the insert happen inside one Decide callback, so two
// concurrent requests can never both observe a free seat and both take it.
// A duplicate submission resolves to ALREADY_REGISTERED without a second row,
// which is what makes the whole call safe to retry on infrastructure errors.
func (s *Service) Register(ctx context.Context, eventID id.EventID, userID id.UserID) (registration.Decision, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveDecision("register", time.Since(start)) }()

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return registration.Decision{}, err
	}
	if !event.RequiresRegistration {
		return registration.Decision{}, dErrors.New(dErrors.CodeInvalidInput, "event does not take registrations")
	}

	now := requestcontext.Now(ctx)
	if !registration.RegistrationOpen(event, now) {
		s.metrics.IncrementOutcome("register", "rejected_deadline")
		return registration.Decision{}, dErrors.New(dErrors.CodeDeadlinePassed, "registration deadline has passed")
	}

	var decision registration.Decision
	err = s.ledger.Decide(ctx, eventID, func(rows registration.EventRows) error {
		active, err := rows.Active(userID)
		if err != nil {
			return err
		}
		if active != nil {
			return dErrors.New(dErrors.CodeAlreadyRegistered, "user already has an active registration")
		}

		counts, err := rows.Counts()
		if err != nil {
			return err
		}

		reg := registration.Registration{
			ID:          id.NewRegistrationID(),
			EventID:     eventID,
			UserID:      userID,
			RequestedAt: now,
			DecidedAt:   now,
		}
		switch {
		case event.Unlimited() || counts.Registered < *event.MaxAttendees:
			reg.Status = registration.StatusRegistered
			decision = registration.Decision{Kind: registration.DecisionSeated}
		case event.AllowWaitlist:
			position := counts.Waitlisted + 1
			reg.Status = registration.StatusWaitlisted
			reg.Position = &position
			decision = registration.Decision{Kind: registration.DecisionWaitlisted, Position: position}
		default:
			return dErrors.New(dErrors.CodeEventFull, "event is full")
		}
		return rows.Insert(&reg)
	})
	if err != nil {
		return registration.Decision{}, s.translate(ctx, "register", err)
	}

	switch decision.Kind {
	case registration.DecisionSeated:
		s.metrics.IncrementOutcome("register", "seated")
		s.record(ctx, notify.EventSeated, eventID, userID, 0)
	case registration.DecisionWaitlisted:
		s.metrics.IncrementOutcome("register", "waitlisted")
		s.record(ctx, notify.EventWaitlisted, eventID, userID, decision.Position)
	}
	return decision, nil
}

// Cancel withdraws the user's active registration. Cancelling a seated user
// promotes the head of the waitlist in strict FIFO order and closes the gap
// in the remaining positions; cancelling a waitlisted user only re-indexes.
func (s *Service) Cancel(ctx context.Context, eventID id.EventID, userID id.UserID) (registration.Decision, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveDecision("cancel", time.Since(start)) }()

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return registration.Decision{}, err
	}
	now := requestcontext.Now(ctx)

	var decision registration.Decision
	err = s.ledger.Decide(ctx, eventID, func(rows registration.EventRows) error {
		active, err := rows.Active(userID)
		if err != nil {
			return err
		}
		if active == nil {
			return dErrors.New(dErrors.CodeNotRegistered, "user has no active registration")
		}
		if !registration.CancellationAllowed(event, now) {
			return dErrors.New(dErrors.CodeEventStarted, "event has already started")
		}

		wasStatus := active.Status
		wasPosition := active.Position

		active.Status = registration.StatusCancelled
		active.Position = nil
		active.DecidedAt = now
		if err := rows.Update(active); err != nil {
			return err
		}
		decision = registration.Decision{Kind: registration.DecisionCancelled}

		waitlist, err := rows.Waitlist()
		if err != nil {
			return err
		}

		if wasStatus == registration.StatusRegistered {
			return s.promoteHead(rows, waitlist, now, &decision)
		}
		return reindexAfterRemoval(rows, waitlist, *wasPosition, now)
	})
	if err != nil {
		return registration.Decision{}, s.translate(ctx, "cancel", err)
	}

	s.metrics.IncrementOutcome("cancel", "cancelled")
	s.record(ctx, notify.EventCancelled, eventID, userID, 0)
	if decision.Promoted != nil {
		s.metrics.IncrementPromotions()
		s.record(ctx, notify.EventPromoted, eventID, *decision.Promoted, 0)
	}
	return decision, nil
}

// promoteHead moves the lowest-position waitlisted row into the freed seat and
// shifts everyone behind it down by one. Promotion order is strict FIFO: the
// positions were assigned in RequestedAt order (ties broken by registration ID
// at assignment time) and are never reordered afterwards.
func (s *Service) promoteHead(rows registration.EventRows, waitlist []registration.Registration, now time.Time, decision *registration.Decision) error {
	if err := checkContiguity(waitlist); err != nil {
		return err
	}
	if len(waitlist) == 0 {
		return nil
	}

	head := waitlist[0]
	head.Status = registration.StatusRegistered
	head.Position = nil
	head.DecidedAt = now
	if err := rows.Update(&head); err != nil {
		return err
	}
	promoted := head.UserID
	decision.Promoted = &promoted

	for i := 1; i < len(waitlist); i++ {
		row := waitlist[i]
		position := i // shifts 1..k-1 onto the remaining rows
		row.Position = &position
		if err := rows.Update(&row); err != nil {
			return err
		}
	}
	return nil
}

// reindexAfterRemoval closes the gap a cancelled waitlisted row left behind.
// No promotion happens; capacity did not change.
func reindexAfterRemoval(rows registration.EventRows, waitlist []registration.Registration, removedPosition int, now time.Time) error {
	expected := 1
	for _, row := range waitlist {
		if row.Position == nil {
			return fmt.Errorf("waitlisted row %s has no position: %w", row.ID, sentinel.ErrInvariant)
		}
		if *row.Position == expected {
			expected++
			continue
		}
		if *row.Position != expected+1 || *row.Position <= removedPosition {
			return fmt.Errorf("waitlist positions not contiguous around %d: %w", *row.Position, sentinel.ErrInvariant)
		}
		position := expected
		row.Position = &position
		if err := rows.Update(&row); err != nil {
			return err
		}
		expected++
	}
	return nil
}

// Snapshot projects the committed counts for display. Callers needing a
// decision go through Register/Cancel, which re-read under the event lock.
func (s *Service) Snapshot(ctx context.Context, eventID id.EventID) (registration.Snapshot, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return registration.Snapshot{}, err
	}
	counts, err := s.ledger.Counts(ctx, eventID)
	if err != nil {
		return registration.Snapshot{}, s.translate(ctx, "snapshot", err)
	}

	snap := registration.Snapshot{
		RegisteredCount: counts.Registered,
		WaitlistCount:   counts.Waitlisted,
	}
	if !event.Unlimited() {
		left := *event.MaxAttendees - counts.Registered
		if left < 0 {
			// The whole engine exists to make this impossible.
			s.logger.ErrorContext(ctx, "capacity invariant violated",
				"event_id", eventID.String(),
				"registered", counts.Registered,
				"max_attendees", *event.MaxAttendees,
			)
			return registration.Snapshot{}, dErrors.Wrap(dErrors.CodeInternal, "capacity invariant violated", sentinel.ErrInvariant)
		}
		snap.SpotsLeft = &left
	}
	return snap, nil
}

// Roster lists the active registrations for an event: seated rows in request
// order, then the waitlist by position.
func (s *Service) Roster(ctx context.Context, eventID id.EventID) ([]registration.Registration, error) {
	if _, err := s.getEvent(ctx, eventID); err != nil {
		return nil, err
	}
	regs, err := s.ledger.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, s.translate(ctx, "roster", err)
	}
	return regs, nil
}

func (s *Service) getEvent(ctx context.Context, eventID id.EventID) (*catalog.Event, error) {
	event, err := s.catalog.Get(ctx, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "event catalog unavailable", err)
	}
	return event, nil
}

// translate maps callback and storage errors onto the caller-facing taxonomy.
// Business outcomes pass through; invariant violations are logged loudly and
// surfaced as internal; everything else is a retryable infrastructure error.
func (s *Service) translate(ctx context.Context, operation string, err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		s.metrics.IncrementOutcome(operation, "rejected_"+string(de.Code))
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "event not found")
	}
	if errors.Is(err, sentinel.ErrInvariant) {
		s.logger.ErrorContext(ctx, "ledger invariant violated",
			"operation", operation,
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
		s.metrics.IncrementOutcome(operation, "invariant_violation")
		return dErrors.Wrap(dErrors.CodeInternal, "ledger invariant violated", err)
	}
	s.metrics.IncrementOutcome(operation, "infrastructure_error")
	return dErrors.Wrap(dErrors.CodeUnavailable, "registration ledger unavailable", err)
}

func (s *Service) record(ctx context.Context, eventType notify.EventType, eventID id.EventID, userID id.UserID, position int) {
	if s.sink == nil {
		return
	}
	event := notify.NewEvent(eventType, eventID, userID)
	event.Position = position
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.sink.Record(ctx, event); err != nil {
		// The ledger row is authoritative; a lost notification is logged,
		// not failed.
		s.logger.ErrorContext(ctx, "record admission event failed",
			"type", string(eventType),
			"event_id", eventID.String(),
			"error", err.Error(),
		)
	}
}

// checkContiguity verifies the waitlist holds positions 1..k. A gap or
// duplicate means the serialization discipline was broken somewhere; it is
// never silently repaired.
func checkContiguity(waitlist []registration.Registration) error {
	for i, row := range waitlist {
		if row.Position == nil {
			return fmt.Errorf("waitlisted row %s has no position: %w", row.ID, sentinel.ErrInvariant)
		}
		if *row.Position != i+1 {
			return fmt.Errorf("waitlist position %d at rank %d: %w", *row.Position, i+1, sentinel.ErrInvariant)
		}
	}
	return nil
}
