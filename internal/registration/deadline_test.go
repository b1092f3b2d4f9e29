package registration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pulsefit/internal/catalog"
	id "pulsefit/pkg/domain"
)

func TestRegistrationOpen(t *testing.T) {
	start := time.Date(2026, 9, 12, 18, 0, 0, 0, time.UTC)
	event := &catalog.Event{
		ID:                        id.NewEventID(),
		StartAt:                   start,
		RegistrationDeadlineHours: 24,
	}
	deadline := start.Add(-24 * time.Hour)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"well before deadline", deadline.Add(-48 * time.Hour), true},
		{"one second before deadline", deadline.Add(-time.Second), true},
		{"exactly at deadline", deadline, false},
		{"one second after deadline", deadline.Add(time.Second), false},
		{"after event start", start.Add(time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RegistrationOpen(event, tt.now))
		})
	}
}

func TestRegistrationOpen_NoDeadlineWindow(t *testing.T) {
	start := time.Date(2026, 9, 12, 18, 0, 0, 0, time.UTC)
	event := &catalog.Event{StartAt: start, RegistrationDeadlineHours: 0}

	assert.True(t, RegistrationOpen(event, start.Add(-time.Minute)),
		"zero deadline hours keeps registration open until start")
	assert.False(t, RegistrationOpen(event, start))
}

func TestCancellationAllowed(t *testing.T) {
	start := time.Date(2026, 9, 12, 18, 0, 0, 0, time.UTC)
	event := &catalog.Event{StartAt: start, RegistrationDeadlineHours: 24}

	// Cancellation stays open after the registration deadline.
	assert.True(t, CancellationAllowed(event, start.Add(-time.Hour)))
	assert.True(t, CancellationAllowed(event, start.Add(-time.Second)))
	assert.False(t, CancellationAllowed(event, start))
	assert.False(t, CancellationAllowed(event, start.Add(time.Minute)))
}
