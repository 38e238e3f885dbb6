package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func score(v float64) *float64 { return &v }

func TestRankSubmissions(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Higher score ranks first", func(t *testing.T) {
		subs := []*Submission{
			{ID: "b", Score: score(70), Status: SubmissionEvaluated, SubmittedAt: t0},
			{ID: "a", Score: score(90), Status: SubmissionEvaluated, SubmittedAt: t0.Add(time.Minute)},
		}
		ranks := RankSubmissions(subs)
		assert.Equal(t, map[string]int{"a": 1, "b": 2}, ranks)
	})

	t.Run("Unevaluated submissions are skipped", func(t *testing.T) {
		subs := []*Submission{
			{ID: "a", Score: score(50), Status: SubmissionEvaluated},
			{ID: "b", Status: SubmissionSubmitted},
		}
		ranks := RankSubmissions(subs)
		assert.Equal(t, map[string]int{"a": 1}, ranks)
	})

	t.Run("Absent scores rank last and ties use submission time", func(t *testing.T) {
		subs := []*Submission{
			{ID: "nil", Status: SubmissionEvaluated, SubmittedAt: t0},
			{ID: "late", Score: score(80), Status: SubmissionEvaluated, SubmittedAt: t0.Add(2 * time.Hour)},
			{ID: "early", Score: score(80), Status: SubmissionEvaluated, SubmittedAt: t0.Add(time.Hour)},
			{ID: "top", Score: score(99), Status: SubmissionEvaluated, SubmittedAt: t0.Add(3 * time.Hour)},
		}
		ranks := RankSubmissions(subs)
		assert.Equal(t, map[string]int{"top": 1, "early": 2, "late": 3, "nil": 4}, ranks)
	})

	t.Run("Ranks are dense", func(t *testing.T) {
		var subs []*Submission
		for i := 0; i < 10; i++ {
			subs = append(subs, &Submission{
				ID:          string(rune('a' + i)),
				Score:       score(float64(i * 7 % 100)),
				Status:      SubmissionEvaluated,
				SubmittedAt: t0,
			})
		}
		ranks := RankSubmissions(subs)
		seen := make(map[int]bool)
		for _, r := range ranks {
			seen[r] = true
		}
		for r := 1; r <= len(subs); r++ {
			assert.True(t, seen[r], "rank %d missing", r)
		}
	})
}

func TestSubmissionPayload_Validate(t *testing.T) {
	tests := []struct {
		name    string
		payload SubmissionPayload
		wantErr bool
	}{
		{name: "No links", payload: SubmissionPayload{ProjectTitle: "Demo"}},
		{name: "Valid links", payload: SubmissionPayload{
			MVPLink:       "https://demo.example.com",
			GithubRepoURL: "https://github.com/org/repo",
			DemoVideoURL:  "http://youtu.be/abc",
		}},
		{name: "Relative link", payload: SubmissionPayload{MVPLink: "/demo"}, wantErr: true},
		{name: "Missing scheme", payload: SubmissionPayload{GithubRepoURL: "github.com/org/repo"}, wantErr: true},
		{name: "Unsupported scheme", payload: SubmissionPayload{DemoVideoURL: "ftp://files.example.com/v.mp4"}, wantErr: true},
		{name: "Title too long", payload: SubmissionPayload{ProjectTitle: strings.Repeat("x", MaxTitleLength+1)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSubmissionPayload_Normalize(t *testing.T) {
	p := SubmissionPayload{
		TechnologiesUsed:    strings.Repeat("g", 300),
		AIToolsIntegrated:   strings.Repeat("é", 257),
		SolutionDescription: strings.Repeat("d", 1200),
	}
	p.Normalize()

	assert.Len(t, p.TechnologiesUsed, MaxShortTextLength)
	assert.Equal(t, MaxShortTextLength, len([]rune(p.AIToolsIntegrated)))
	assert.Len(t, p.SolutionDescription, MaxDescriptionLength)
}

func TestValidateWinners(t *testing.T) {
	tests := []struct {
		name    string
		winners []Winner
		wantErr bool
	}{
		{name: "Valid", winners: []Winner{{1, "a"}, {2, "b"}}},
		{name: "Empty", winners: nil, wantErr: true},
		{name: "Zero position", winners: []Winner{{0, "a"}}, wantErr: true},
		{name: "Duplicate position", winners: []Winner{{1, "a"}, {1, "b"}}, wantErr: true},
		{name: "Duplicate submission", winners: []Winner{{1, "a"}, {2, "a"}}, wantErr: true},
		{name: "Missing submission", winners: []Winner{{1, ""}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWinners(tt.winners)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSplitAmount(t *testing.T) {
	tests := []struct {
		name  string
		total float64
		n     int
		want  []float64
	}{
		{name: "Single payer", total: 500, n: 1, want: []float64{500}},
		{name: "Even split", total: 1000, n: 2, want: []float64{500, 500}},
		{name: "Remainder on first share", total: 500, n: 3, want: []float64{166.68, 166.66, 166.66}},
		{name: "No payers", total: 500, n: 0, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitAmount(tt.total, tt.n)
			require.Len(t, got, len(tt.want))
			var sum float64
			for i := range got {
				assert.InDelta(t, tt.want[i], got[i], 0.001)
				sum += got[i]
			}
			if tt.n > 0 {
				assert.InDelta(t, tt.total, sum, 0.001)
			}
		})
	}
}

func TestTeam_State(t *testing.T) {
	limits := TeamLimits{Min: 2, Max: 3}
	team := &Team{MemberCount: 1}
	assert.Equal(t, TeamStateForming, team.State())
	assert.False(t, team.IsFull(limits))

	team.MemberCount = 3
	team.IsComplete = limits.IsComplete(team.MemberCount)
	assert.Equal(t, TeamStateComplete, team.State())
	assert.True(t, team.IsFull(limits))

	team.IsLocked = true
	assert.Equal(t, TeamStateLocked, team.State())
}

func TestJoinRequest_Responder(t *testing.T) {
	team := &Team{LeaderID: "leader"}
	assert.Equal(t, "leader", (&JoinRequest{UserID: "u2", RequestType: JoinRequestSent}).Responder(team))
	assert.Equal(t, "u2", (&JoinRequest{UserID: "u2", RequestType: JoinRequestReceived}).Responder(team))
}
