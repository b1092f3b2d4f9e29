package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulsefit/internal/registration"
	id "pulsefit/pkg/domain"
	"pulsefit/pkg/platform/sentinel"
)

func newRow(eventID id.EventID, status registration.Status, position *int) registration.Registration {
	now := time.Now()
	return registration.Registration{
		ID:          id.NewRegistrationID(),
		EventID:     eventID,
		UserID:      id.NewUserID(),
		Status:      status,
		Position:    position,
		RequestedAt: now,
		DecidedAt:   now,
	}
}

func intp(n int) *int { return &n }

func TestInMemoryLedger_Decide(t *testing.T) {
	ctx := context.Background()
	eventID := id.NewEventID()

	t.Run("commits mutations on success", func(t *testing.T) {
		ledger := NewInMemoryLedger()
		err := ledger.Decide(ctx, eventID, func(rows registration.EventRows) error {
			return rows.Insert(&registration.Registration{
				ID: id.NewRegistrationID(), EventID: eventID, UserID: id.NewUserID(),
				Status: registration.StatusRegistered,
			})
		})
		require.NoError(t, err)

		counts, err := ledger.Counts(ctx, eventID)
		require.NoError(t, err)
		assert.Equal(t, 1, counts.Registered)
	})

	t.Run("discards mutations on callback error", func(t *testing.T) {
		ledger := NewInMemoryLedger()
		boom := errors.New("boom")
		err := ledger.Decide(ctx, eventID, func(rows registration.EventRows) error {
			require.NoError(t, rows.Insert(&registration.Registration{
				ID: id.NewRegistrationID(), EventID: eventID, UserID: id.NewUserID(),
				Status: registration.StatusRegistered,
			}))
			return boom
		})
		require.ErrorIs(t, err, boom)

		counts, err := ledger.Counts(ctx, eventID)
		require.NoError(t, err)
		assert.Zero(t, counts.Registered, "failed decision must not leave rows behind")
	})

	t.Run("respects cancelled context", func(t *testing.T) {
		ledger := NewInMemoryLedger()
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		err := ledger.Decide(cancelled, eventID, func(registration.EventRows) error {
			t.Fatal("callback must not run")
			return nil
		})
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestInMemoryLedger_TxnView(t *testing.T) {
	ctx := context.Background()
	eventID := id.NewEventID()
	ledger := NewInMemoryLedger()

	seated := newRow(eventID, registration.StatusRegistered, nil)
	first := newRow(eventID, registration.StatusWaitlisted, intp(1))
	second := newRow(eventID, registration.StatusWaitlisted, intp(2))
	cancelled := newRow(eventID, registration.StatusCancelled, nil)

	require.NoError(t, ledger.Decide(ctx, eventID, func(rows registration.EventRows) error {
		for _, r := range []registration.Registration{seated, first, second, cancelled} {
			row := r
			if err := rows.Insert(&row); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, ledger.Decide(ctx, eventID, func(rows registration.EventRows) error {
		counts, err := rows.Counts()
		require.NoError(t, err)
		assert.Equal(t, registration.Counts{Registered: 1, Waitlisted: 2}, counts)

		active, err := rows.Active(seated.UserID)
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, seated.ID, active.ID)

		none, err := rows.Active(cancelled.UserID)
		require.NoError(t, err)
		assert.Nil(t, none, "cancelled rows are not active")

		waitlist, err := rows.Waitlist()
		require.NoError(t, err)
		require.Len(t, waitlist, 2)
		assert.Equal(t, first.ID, waitlist[0].ID)
		assert.Equal(t, second.ID, waitlist[1].ID)

		missing := newRow(eventID, registration.StatusRegistered, nil)
		assert.ErrorIs(t, rows.Update(&missing), sentinel.ErrNotFound)
		return nil
	}))
}

func TestInMemoryLedger_ListByEvent(t *testing.T) {
	ctx := context.Background()
	eventID := id.NewEventID()
	ledger := NewInMemoryLedger()

	base := time.Now()
	early := newRow(eventID, registration.StatusRegistered, nil)
	early.RequestedAt = base
	late := newRow(eventID, registration.StatusRegistered, nil)
	late.RequestedAt = base.Add(time.Minute)
	queued := newRow(eventID, registration.StatusWaitlisted, intp(1))
	queued.RequestedAt = base.Add(2 * time.Minute)
	gone := newRow(eventID, registration.StatusCancelled, nil)

	require.NoError(t, ledger.Decide(ctx, eventID, func(rows registration.EventRows) error {
		// Insert out of order; listing re-sorts.
		for _, r := range []registration.Registration{queued, late, gone, early} {
			row := r
			if err := rows.Insert(&row); err != nil {
				return err
			}
		}
		return nil
	}))

	listed, err := ledger.ListByEvent(ctx, eventID)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, early.ID, listed[0].ID)
	assert.Equal(t, late.ID, listed[1].ID)
	assert.Equal(t, queued.ID, listed[2].ID)
}

func TestInMemoryLedger_ConcurrentDecisions(t *testing.T) {
	ctx := context.Background()
	eventID := id.NewEventID()
	ledger := NewInMemoryLedger()

	const goroutines = 100
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			err := ledger.Decide(ctx, eventID, func(rows registration.EventRows) error {
				counts, err := rows.Counts()
				if err != nil {
					return err
				}
				row := newRow(eventID, registration.StatusWaitlisted, intp(counts.Waitlisted+1))
				return rows.Insert(&row)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	counts, err := ledger.Counts(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, goroutines, counts.Waitlisted)

	// Serialized read-modify-write must produce contiguous positions.
	listed, err := ledger.ListByEvent(ctx, eventID)
	require.NoError(t, err)
	require.Len(t, listed, goroutines)
	for i, row := range listed {
		require.NotNil(t, row.Position)
		assert.Equal(t, i+1, *row.Position)
	}
}
