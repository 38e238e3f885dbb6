package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/errors"
)

func draftEvent(mutate func(e *domain.Event)) *domain.Event {
	e := &domain.Event{
		Title:             "Winter Hack",
		RegistrationStart: baseTime,
		RegistrationEnd:   baseTime.Add(24 * time.Hour),
		EventStart:        baseTime.Add(48 * time.Hour),
		EventEnd:          baseTime.Add(72 * time.Hour),
	}
	if mutate != nil {
		mutate(e)
	}
	return e
}

func TestCreateEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.events.CreateEvent(ctx, draftEvent(func(e *domain.Event) {
		e.Status = domain.EventStatusCompleted
		e.MinTeamSize, e.MaxTeamSize = 3, 5
	}))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, domain.EventStatusDraft, created.Status)
	assert.True(t, created.AllowIndividual)
	assert.Zero(t, created.MaxTeamSize)
	assert.Equal(t, baseTime, created.CreatedAt)

	paid, err := f.events.CreateEvent(ctx, draftEvent(func(e *domain.Event) {
		e.IsPaid, e.RegistrationFee = true, 499
	}))
	require.NoError(t, err)
	assert.Equal(t, DefaultCurrency, paid.Currency)

	usd, err := f.events.CreateEvent(ctx, draftEvent(func(e *domain.Event) {
		e.IsPaid, e.RegistrationFee, e.Currency = true, 10, " usd "
	}))
	require.NoError(t, err)
	assert.Equal(t, "USD", usd.Currency)
}

func TestCreateEvent_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *domain.Event)
		field  string
	}{
		{"missing title", func(e *domain.Event) { e.Title = "" }, "title"},
		{"registration ends before it starts", func(e *domain.Event) { e.RegistrationEnd = baseTime.Add(-time.Hour) }, "registration_end"},
		{"event starts before registration closes", func(e *domain.Event) { e.EventStart = baseTime.Add(time.Hour) }, "event_start"},
		{"event ends before it starts", func(e *domain.Event) { e.EventEnd = baseTime.Add(47 * time.Hour) }, "event_end"},
		{"zero capacity", func(e *domain.Event) { e.MaxParticipants = intPtr(0) }, "max_participants"},
		{"team sizes inverted", func(e *domain.Event) { e.IsTeamEvent, e.MinTeamSize, e.MaxTeamSize = true, 4, 2 }, "max_team_size"},
		{"team without minimum", func(e *domain.Event) { e.IsTeamEvent = true }, "min_team_size"},
		{"paid without fee", func(e *domain.Event) { e.IsPaid = true }, "registration_fee"},
		{
			"submission deadline before start",
			func(e *domain.Event) {
				e.HasSubmission = true
				e.SubmissionStart = timePtr(baseTime.Add(50 * time.Hour))
				e.SubmissionDeadline = timePtr(baseTime.Add(49 * time.Hour))
			},
			"submission_deadline",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.events.CreateEvent(context.Background(), draftEvent(tt.mutate))
			requireAppErr(t, err, errors.ErrorTypeValidation)
			appErr, _ := errors.AsAppError(err)
			assert.Contains(t, appErr.Details, tt.field)
		})
	}
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.events.CreateEvent(ctx, draftEvent(nil))
	require.NoError(t, err)

	_, err = f.events.UpdateStatus(ctx, created.ID, "archived")
	requireAppErr(t, err, errors.ErrorTypeValidation)
	_, err = f.events.UpdateStatus(ctx, created.ID, domain.EventStatusOngoing)
	requireAppErr(t, err, errors.ErrorTypeInvalidState)
	_, err = f.events.UpdateStatus(ctx, "missing", domain.EventStatusPublished)
	requireAppErr(t, err, errors.ErrorTypeNotFound)

	steps := []domain.EventStatus{domain.EventStatusPublished, domain.EventStatusOngoing, domain.EventStatusCompleted}
	for _, status := range steps {
		updated, err := f.events.UpdateStatus(ctx, created.ID, status)
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
	}

	_, err = f.events.UpdateStatus(ctx, created.ID, domain.EventStatusCancelled)
	requireAppErr(t, err, errors.ErrorTypeInvalidState)
}

func TestListEvents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	draft, err := f.events.CreateEvent(ctx, draftEvent(nil))
	require.NoError(t, err)
	published := f.publishedEvent(t, nil)

	all, err := f.events.ListEvents(ctx, domain.EventFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyPublished, err := f.events.ListEvents(ctx, domain.EventFilter{Status: domain.EventStatusPublished})
	require.NoError(t, err)
	require.Len(t, onlyPublished, 1)
	assert.Equal(t, published.ID, onlyPublished[0].ID)
	assert.NotEqual(t, draft.ID, onlyPublished[0].ID)

	_, err = f.events.ListEvents(ctx, domain.EventFilter{Status: "archived"})
	requireAppErr(t, err, errors.ErrorTypeValidation)
}

func TestDeleteEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event := f.publishedEvent(t, nil)
	empty := f.publishedEvent(t, nil)

	_, err := f.registrations.Register(ctx, register(event.ID, "u1"))
	require.NoError(t, err)

	requireAppErr(t, f.events.DeleteEvent(ctx, event.ID), errors.ErrorTypeInvalidState)
	requireAppErr(t, f.events.DeleteEvent(ctx, "missing"), errors.ErrorTypeNotFound)

	require.NoError(t, f.events.DeleteEvent(ctx, empty.ID))
	_, err = f.events.GetEvent(ctx, empty.ID)
	requireAppErr(t, err, errors.ErrorTypeNotFound)
}

func TestGetEvent_CacheAside(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, withRedis())
	event := f.publishedEvent(t, nil)
	key := f.cache.redis.KeyBuilder.KeyEvent(event.ID)

	got, err := f.events.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.ID, got.ID)
	f.awaitCached(t, key)

	// served from the cache even when the store changes underneath
	require.NoError(t, f.repos.Events.UpdateStatus(ctx, event.ID, domain.EventStatusPublished, domain.EventStatusOngoing, baseTime))
	cached, err := f.events.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventStatusPublished, cached.Status)

	// status changes through the service invalidate the entry
	_, err = f.events.UpdateStatus(ctx, event.ID, domain.EventStatusCompleted)
	require.NoError(t, err)
	assert.False(t, f.mr.Exists(key))

	fresh, err := f.events.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventStatusCompleted, fresh.Status)
}
