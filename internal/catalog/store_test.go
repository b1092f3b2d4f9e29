package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "pulsefit/pkg/domain"
	"pulsefit/pkg/platform/sentinel"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("get unknown event", func(t *testing.T) {
		store := NewInMemoryStore()
		_, err := store.Get(ctx, id.NewEventID())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("put then get", func(t *testing.T) {
		store := NewInMemoryStore()
		capacity := 12
		event := &Event{
			ID:                        id.NewEventID(),
			Title:                     "morning yoga",
			StartAt:                   time.Date(2026, 10, 1, 7, 0, 0, 0, time.UTC),
			MaxAttendees:              &capacity,
			RequiresRegistration:      true,
			RegistrationDeadlineHours: 12,
			AllowWaitlist:             true,
		}
		require.NoError(t, store.Put(ctx, event))

		got, err := store.Get(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, event.Title, got.Title)
		require.NotNil(t, got.MaxAttendees)
		assert.Equal(t, 12, *got.MaxAttendees)
	})

	t.Run("put overwrites", func(t *testing.T) {
		store := NewInMemoryStore()
		event := &Event{ID: id.NewEventID(), Title: "v1"}
		require.NoError(t, store.Put(ctx, event))
		event.Title = "v2"
		require.NoError(t, store.Put(ctx, event))

		got, err := store.Get(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, "v2", got.Title)
	})

	t.Run("get returns an isolated copy", func(t *testing.T) {
		store := NewInMemoryStore()
		capacity := 5
		event := &Event{ID: id.NewEventID(), MaxAttendees: &capacity}
		require.NoError(t, store.Put(ctx, event))

		first, err := store.Get(ctx, event.ID)
		require.NoError(t, err)
		*first.MaxAttendees = 99
		first.Title = "mutated"

		second, err := store.Get(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, *second.MaxAttendees, "caller mutation must not leak into the store")
		assert.Empty(t, second.Title)
	})
}

func TestEventRegistrationDeadline(t *testing.T) {
	start := time.Date(2026, 10, 1, 7, 0, 0, 0, time.UTC)

	event := &Event{StartAt: start, RegistrationDeadlineHours: 24}
	assert.Equal(t, start.Add(-24*time.Hour), event.RegistrationDeadline())

	noWindow := &Event{StartAt: start}
	assert.Equal(t, start, noWindow.RegistrationDeadline(),
		"zero hours means registration closes at start")
}

func TestEventUnlimited(t *testing.T) {
	capacity := 0
	assert.True(t, (&Event{}).Unlimited())
	assert.False(t, (&Event{MaxAttendees: &capacity}).Unlimited(),
		"zero capacity is capped, not unlimited")
}
