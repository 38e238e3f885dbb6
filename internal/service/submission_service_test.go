package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/errors"
)

var submissionDeadline = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// hackathon is open for registration at baseTime and accepts submissions
// until 2025-01-01T00:00Z.
func hackathon(e *domain.Event) {
	e.HasSubmission = true
	e.EventStart = baseTime.Add(48 * time.Hour)
	e.EventEnd = submissionDeadline.Add(24 * time.Hour)
	e.SubmissionStart = timePtr(baseTime.Add(-time.Hour))
	e.SubmissionDeadline = timePtr(submissionDeadline)
}

func validPayload(title string) domain.SubmissionPayload {
	return domain.SubmissionPayload{
		ProjectTitle:        title,
		SolutionDescription: "Routes study groups by topic",
		TechnologiesUsed:    "Go, Postgres",
		GithubRepoURL:       "https://github.com/example/" + strings.ToLower(title),
	}
}

func registeredFor(t *testing.T, f *fixture, eventID string, users ...string) {
	t.Helper()
	for _, u := range users {
		_, err := f.registrations.Register(context.Background(), register(eventID, u))
		require.NoError(t, err)
	}
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event := f.publishedEvent(t, hackathon)
	registeredFor(t, f, event.ID, "u1")

	sub, err := f.submissions.Submit(ctx, event.ID, "u1", validPayload("Atlas"))
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionSubmitted, sub.Status)
	assert.Contains(t, f.notifier.kinds("u1"), domain.NotifySubmissionReceived)

	// resubmitting replaces the content in place
	f.clock.Set(baseTime.Add(time.Hour))
	updated, err := f.submissions.Submit(ctx, event.ID, "u1", validPayload("Atlas2"))
	require.NoError(t, err)
	assert.Equal(t, sub.ID, updated.ID)
	assert.Equal(t, "Atlas2", updated.ProjectTitle)

	_, err = f.submissions.Submit(ctx, event.ID, "stranger", validPayload("Nope"))
	requireAppErr(t, err, errors.ErrorTypeAuthorization)
}

func TestSubmit_TeamLeaderOwnsSubmission(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event := f.publishedEvent(t, func(e *domain.Event) {
		hackathon(e)
		pairEvent(e)
	})
	team := f.teamOf(t, event.ID, "Pair", "lead", "mate")
	_, err := f.registrations.Register(ctx, domain.RegisterRequest{
		EventID: event.ID, UserID: "lead", ParticipationType: domain.ParticipationTeam, TeamID: team.ID,
	})
	require.NoError(t, err)

	_, err = f.submissions.Submit(ctx, event.ID, "mate", validPayload("Shadow"))
	requireAppErr(t, err, errors.ErrorTypeAuthorization)

	sub, err := f.submissions.Submit(ctx, event.ID, "lead", validPayload("Pairing"))
	require.NoError(t, err)
	require.NotNil(t, sub.TeamID)
	assert.Equal(t, team.ID, *sub.TeamID)
	assert.Equal(t, "lead", sub.UserID)

	requireAppErr(t, f.submissions.Delete(ctx, event.ID, "mate"), errors.ErrorTypeAuthorization)

	_, err = f.submissions.Evaluate(ctx, sub.ID, floatPtr(80), "")
	require.NoError(t, err)
	board, err := f.submissions.Leaderboard(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, board, 1, "one leaderboard row per team")
	assert.Equal(t, team.ID, *board[0].TeamID)
}

func TestSubmit_Rules(t *testing.T) {
	ctx := context.Background()

	long := strings.Repeat("é", domain.MaxDescriptionLength+50)

	tests := []struct {
		name    string
		event   func(e *domain.Event)
		at      time.Time
		payload domain.SubmissionPayload
		want    errors.ErrorType
	}{
		{
			name:    "after the deadline",
			event:   hackathon,
			at:      time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
			payload: validPayload("Late"),
			want:    errors.ErrorTypeInvalidState,
		},
		{
			name:    "before the window opens",
			event:   func(e *domain.Event) { hackathon(e); e.SubmissionStart = timePtr(baseTime.Add(time.Hour)) },
			at:      baseTime,
			payload: validPayload("Early"),
			want:    errors.ErrorTypeInvalidState,
		},
		{
			name:    "event without submissions",
			at:      baseTime,
			payload: validPayload("Wrong"),
			want:    errors.ErrorTypeInvalidState,
		},
		{
			name:    "relative link",
			event:   hackathon,
			at:      baseTime,
			payload: domain.SubmissionPayload{ProjectTitle: "Broken", MVPLink: "/demo"},
			want:    errors.ErrorTypeValidation,
		},
		{
			name:    "non-http link",
			event:   hackathon,
			at:      baseTime,
			payload: domain.SubmissionPayload{ProjectTitle: "Broken", DemoVideoURL: "ftp://files.example.com/demo.mp4"},
			want:    errors.ErrorTypeValidation,
		},
		{
			name:    "long text is truncated not rejected",
			event:   hackathon,
			at:      baseTime,
			payload: domain.SubmissionPayload{ProjectTitle: "Verbose", SolutionDescription: long},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			event := f.publishedEvent(t, tt.event)
			registeredFor(t, f, event.ID, "u1")
			f.clock.Set(tt.at)

			sub, err := f.submissions.Submit(ctx, event.ID, "u1", tt.payload)
			if tt.want == "" {
				require.NoError(t, err)
				assert.Equal(t, domain.MaxDescriptionLength, len([]rune(sub.SolutionDescription)))
				return
			}
			requireAppErr(t, err, tt.want)
		})
	}
}

func TestEvaluate_RanksByScore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, withRedis())
	event := f.publishedEvent(t, hackathon)
	registeredFor(t, f, event.ID, "u1", "u2", "u3")

	first, err := f.submissions.Submit(ctx, event.ID, "u1", validPayload("Alpha"))
	require.NoError(t, err)
	f.clock.Set(baseTime.Add(time.Minute))
	second, err := f.submissions.Submit(ctx, event.ID, "u2", validPayload("Beta"))
	require.NoError(t, err)
	f.clock.Set(baseTime.Add(2 * time.Minute))
	third, err := f.submissions.Submit(ctx, event.ID, "u3", validPayload("Gamma"))
	require.NoError(t, err)

	a, err := f.submissions.Evaluate(ctx, first.ID, floatPtr(90), "strong")
	require.NoError(t, err)
	b, err := f.submissions.Evaluate(ctx, second.ID, floatPtr(70), "good")
	require.NoError(t, err)
	require.NotNil(t, a.Rank)
	require.NotNil(t, b.Rank)
	assert.Equal(t, 1, *a.Rank)
	assert.Equal(t, 2, *b.Rank)

	board, err := f.submissions.Leaderboard(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, first.ID, board[0].SubmissionID)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, second.ID, board[1].SubmissionID)
	assert.Equal(t, 2, board[1].Rank)
	boardKey := f.cache.redis.KeyBuilder.KeyLeaderboard(event.ID)
	f.awaitCached(t, boardKey)

	// an unscored evaluation ranks last; the cached board is invalidated
	_, err = f.submissions.Evaluate(ctx, third.ID, nil, "incomplete")
	require.NoError(t, err)
	board, err = f.submissions.Leaderboard(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, third.ID, board[2].SubmissionID)
	assert.Equal(t, 3, board[2].Rank)
	f.awaitCached(t, boardKey)

	// a re-evaluation can overtake
	_, err = f.submissions.Evaluate(ctx, second.ID, floatPtr(95), "revised")
	require.NoError(t, err)
	board, err = f.submissions.Leaderboard(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, board[0].SubmissionID)

	assert.Contains(t, f.notifier.kinds("u2"), domain.NotifySubmissionEvaluated)

	// evaluated submissions are immutable for the participant
	_, err = f.submissions.Submit(ctx, event.ID, "u1", validPayload("Alpha2"))
	requireAppErr(t, err, errors.ErrorTypeInvalidState)
	requireAppErr(t, f.submissions.Delete(ctx, event.ID, "u1"), errors.ErrorTypeInvalidState)
}

func TestEvaluate_ConcurrentRanksStayDense(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, withRedis())
	event := f.publishedEvent(t, hackathon)

	scores := []float64{42, 97, 63, 88, 15, 71, 55, 90, 30, 76}
	subs := make([]*domain.Submission, len(scores))
	for i := range scores {
		user := fmt.Sprintf("u%d", i)
		registeredFor(t, f, event.ID, user)
		f.clock.Set(baseTime.Add(time.Duration(i) * time.Second))
		sub, err := f.submissions.Submit(ctx, event.ID, user, validPayload(fmt.Sprintf("Project%d", i)))
		require.NoError(t, err)
		subs[i] = sub
	}

	var wg sync.WaitGroup
	errs := make([]error, len(scores))
	for i := range scores {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.submissions.Evaluate(ctx, subs[i].ID, floatPtr(scores[i]), "")
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	want := append([]float64(nil), scores...)
	sort.Sort(sort.Reverse(sort.Float64Slice(want)))

	board, err := f.submissions.Leaderboard(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, board, len(scores))
	for i, entry := range board {
		assert.Equal(t, i+1, entry.Rank)
		require.NotNil(t, entry.Score)
		assert.Equal(t, want[i], *entry.Score)
	}
}

func TestEvaluate_Rules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event := f.publishedEvent(t, hackathon)
	registeredFor(t, f, event.ID, "u1")
	sub, err := f.submissions.Submit(ctx, event.ID, "u1", validPayload("Alpha"))
	require.NoError(t, err)

	_, err = f.submissions.Evaluate(ctx, sub.ID, floatPtr(101), "")
	requireAppErr(t, err, errors.ErrorTypeValidation)
	_, err = f.submissions.Evaluate(ctx, sub.ID, floatPtr(-1), "")
	requireAppErr(t, err, errors.ErrorTypeValidation)
	_, err = f.submissions.Evaluate(ctx, "missing", floatPtr(50), "")
	requireAppErr(t, err, errors.ErrorTypeNotFound)

	require.NoError(t, f.submissions.PublishResults(ctx, event.ID, []domain.Winner{{Position: 1, SubmissionID: sub.ID}}))
	_, err = f.submissions.Evaluate(ctx, sub.ID, floatPtr(50), "too late")
	requireAppErr(t, err, errors.ErrorTypeInvalidState)
}

func TestPublishResults(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, withRedis())
	event := f.publishedEvent(t, hackathon)
	other := f.publishedEvent(t, hackathon)
	registeredFor(t, f, event.ID, "u1", "u2")
	registeredFor(t, f, other.ID, "u3")

	s1, err := f.submissions.Submit(ctx, event.ID, "u1", validPayload("Alpha"))
	require.NoError(t, err)
	s2, err := f.submissions.Submit(ctx, event.ID, "u2", validPayload("Beta"))
	require.NoError(t, err)
	foreign, err := f.submissions.Submit(ctx, other.ID, "u3", validPayload("Gamma"))
	require.NoError(t, err)

	// warm the event cache so publishing must invalidate it
	_, err = f.events.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	f.awaitCached(t, f.cache.redis.KeyBuilder.KeyEvent(event.ID))

	tests := []struct {
		name    string
		winners []domain.Winner
		want    errors.ErrorType
	}{
		{"empty", nil, errors.ErrorTypeValidation},
		{"position zero", []domain.Winner{{Position: 0, SubmissionID: s1.ID}}, errors.ErrorTypeValidation},
		{"duplicate position", []domain.Winner{{1, s1.ID}, {1, s2.ID}}, errors.ErrorTypeValidation},
		{"duplicate submission", []domain.Winner{{1, s1.ID}, {2, s1.ID}}, errors.ErrorTypeValidation},
		{"foreign submission", []domain.Winner{{1, s1.ID}, {2, foreign.ID}}, errors.ErrorTypeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireAppErr(t, f.submissions.PublishResults(ctx, event.ID, tt.winners), tt.want)
		})
	}

	require.NoError(t, f.submissions.PublishResults(ctx, event.ID, []domain.Winner{{1, s2.ID}, {2, s1.ID}}))

	got, err := f.events.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventStatusCompleted, got.Status)

	board, err := f.submissions.Leaderboard(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, s2.ID, board[0].SubmissionID)
	assert.Contains(t, f.notifier.kinds("u1"), domain.NotifyResultsPublished)

	requireAppErr(t, f.submissions.PublishResults(ctx, event.ID, []domain.Winner{{1, s1.ID}}), errors.ErrorTypeInvalidState)
}

func TestDeleteSubmission(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event := f.publishedEvent(t, hackathon)
	registeredFor(t, f, event.ID, "u1", "u2")

	requireAppErr(t, f.submissions.Delete(ctx, event.ID, "u1"), errors.ErrorTypeNotFound)

	_, err := f.submissions.Submit(ctx, event.ID, "u1", validPayload("Alpha"))
	require.NoError(t, err)
	require.NoError(t, f.submissions.Delete(ctx, event.ID, "u1"))
	requireAppErr(t, f.submissions.Delete(ctx, event.ID, "u1"), errors.ErrorTypeNotFound)

	_, err = f.submissions.Submit(ctx, event.ID, "u2", validPayload("Beta"))
	require.NoError(t, err)
	f.clock.Set(submissionDeadline.Add(time.Second))
	requireAppErr(t, f.submissions.Delete(ctx, event.ID, "u2"), errors.ErrorTypeInvalidState)
}
