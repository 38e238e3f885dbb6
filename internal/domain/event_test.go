package domain

import (
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEvent() *Event {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return &Event{
		Title:             "Spring Hackathon",
		RegistrationStart: base,
		RegistrationEnd:   base.Add(7 * 24 * time.Hour),
		EventStart:        base.Add(8 * 24 * time.Hour),
		EventEnd:          base.Add(9 * 24 * time.Hour),
	}
}

func TestEvent_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(e *Event)
		errField string
	}{
		{name: "Valid free event", mutate: func(e *Event) {}},
		{
			name:     "Missing title",
			mutate:   func(e *Event) { e.Title = "" },
			errField: "title",
		},
		{
			name:     "Registration closes before it opens",
			mutate:   func(e *Event) { e.RegistrationEnd = e.RegistrationStart.Add(-time.Hour) },
			errField: "registration_end",
		},
		{
			name:     "Event starts before registration closes",
			mutate:   func(e *Event) { e.EventStart = e.RegistrationEnd.Add(-time.Hour) },
			errField: "event_start",
		},
		{
			name:     "Event ends before it starts",
			mutate:   func(e *Event) { e.EventEnd = e.EventStart.Add(-time.Minute) },
			errField: "event_end",
		},
		{
			name: "Submission deadline before start",
			mutate: func(e *Event) {
				start := e.EventStart
				deadline := start.Add(-time.Hour)
				e.SubmissionStart, e.SubmissionDeadline = &start, &deadline
			},
			errField: "submission_deadline",
		},
		{
			name: "Team sizes inverted",
			mutate: func(e *Event) {
				e.IsTeamEvent, e.MinTeamSize, e.MaxTeamSize = true, 4, 2
			},
			errField: "max_team_size",
		},
		{
			name: "Team minimum below one",
			mutate: func(e *Event) {
				e.IsTeamEvent, e.MinTeamSize, e.MaxTeamSize = true, 0, 2
			},
			errField: "min_team_size",
		},
		{
			name:     "Paid event without fee",
			mutate:   func(e *Event) { e.IsPaid, e.Currency = true, "INR" },
			errField: "registration_fee",
		},
		{
			name:     "Paid event without currency",
			mutate:   func(e *Event) { e.IsPaid, e.RegistrationFee = true, 500 },
			errField: "currency",
		},
		{
			name: "Zero capacity",
			mutate: func(e *Event) {
				zero := 0
				e.MaxParticipants = &zero
			},
			errField: "max_participants",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validEvent()
			tt.mutate(e)
			err := e.Validate()
			if tt.errField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			errs, ok := err.(validation.Errors)
			require.True(t, ok, "expected validation.Errors, got %T", err)
			assert.Contains(t, errs, tt.errField)
		})
	}
}

func TestEventStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to EventStatus
		allowed  bool
	}{
		{EventStatusDraft, EventStatusPublished, true},
		{EventStatusDraft, EventStatusCancelled, true},
		{EventStatusDraft, EventStatusCompleted, false},
		{EventStatusPublished, EventStatusOngoing, true},
		{EventStatusPublished, EventStatusCompleted, true},
		{EventStatusActive, EventStatusPublished, false},
		{EventStatusOngoing, EventStatusCompleted, true},
		{EventStatusCompleted, EventStatusPublished, false},
		{EventStatusCancelled, EventStatusDraft, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestEvent_Windows(t *testing.T) {
	e := validEvent()
	deadline := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	e.SubmissionDeadline = &deadline

	assert.True(t, e.RegistrationOpen(e.RegistrationStart))
	assert.True(t, e.RegistrationOpen(e.RegistrationEnd))
	assert.False(t, e.RegistrationOpen(e.RegistrationEnd.Add(time.Second)))

	assert.True(t, e.SubmissionOpen(deadline.Add(-time.Minute)))
	assert.False(t, e.SubmissionOpen(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)))
	assert.True(t, e.SubmissionDeadlinePassed(deadline.Add(time.Second)))

	assert.False(t, e.HasStarted(e.EventStart.Add(-time.Second)))
	assert.True(t, e.HasStarted(e.EventStart))

	assert.True(t, e.FormationOpen(time.Now()), "no formation deadline means always open")
}
