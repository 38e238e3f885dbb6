package domain

import (
	"errors"
	"net/url"
	"sort"
	"time"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Free-text limits
const (
	MaxShortTextLength   = 256
	MaxDescriptionLength = 1000
	MaxTitleLength       = 200
)

// Score bounds
const (
	MinScore = 0
	MaxScore = 100
)

type SubmissionStatus string

const (
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionEvaluated SubmissionStatus = "evaluated"
)

// Submission is a participant's project deliverable
type Submission struct {
	ID      string  `json:"id"`
	EventID string  `json:"event_id"`
	UserID  string  `json:"user_id"`
	TeamID  *string `json:"team_id,omitempty"`
	SubmissionPayload
	Score       *float64         `json:"score,omitempty"`
	Feedback    string           `json:"feedback,omitempty"`
	Rank        *int             `json:"rank,omitempty"`
	Status      SubmissionStatus `json:"status"`
	SubmittedAt time.Time        `json:"submitted_at"`
	EvaluatedAt *time.Time       `json:"evaluated_at,omitempty"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// SubmissionPayload is the participant-editable content
type SubmissionPayload struct {
	ProjectTitle        string `json:"project_title"`
	SolutionDescription string `json:"solution_description"`
	TechnologiesUsed    string `json:"technologies_used"`
	AIToolsIntegrated   string `json:"ai_tools_integrated"`
	MVPLink             string `json:"mvp_link,omitempty"`
	DemoVideoURL        string `json:"demo_video_url,omitempty"`
	GithubRepoURL       string `json:"github_repo_url,omitempty"`
	PresentationDeckURL string `json:"presentation_deck_url,omitempty"`
	BannerURL           string `json:"banner_url,omitempty"`
}

var errNotAbsoluteURL = errors.New("must be an absolute http(s) URL")

func absoluteURL(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errNotAbsoluteURL
	}
	return nil
}

// Validate checks that every link present is a well-formed absolute URL
func (p *SubmissionPayload) Validate() error {
	link := []validation.Rule{is.RequestURL, validation.By(absoluteURL)}
	return validation.ValidateStruct(p,
		validation.Field(&p.ProjectTitle, validation.Length(0, MaxTitleLength)),
		validation.Field(&p.MVPLink, link...),
		validation.Field(&p.DemoVideoURL, link...),
		validation.Field(&p.GithubRepoURL, link...),
		validation.Field(&p.PresentationDeckURL, link...),
		validation.Field(&p.BannerURL, link...),
	)
}

// Normalize truncates free-text fields to their limits
func (p *SubmissionPayload) Normalize() {
	p.TechnologiesUsed = truncate(p.TechnologiesUsed, MaxShortTextLength)
	p.AIToolsIntegrated = truncate(p.AIToolsIntegrated, MaxShortTextLength)
	p.SolutionDescription = truncate(p.SolutionDescription, MaxDescriptionLength)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

// Winner is an explicit placement set when results are published
type Winner struct {
	Position     int    `json:"position"`
	SubmissionID string `json:"submission_id"`
}

// ValidateWinners checks positions are >= 1 and both positions and submissions are unique
func ValidateWinners(winners []Winner) error {
	if len(winners) == 0 {
		return errors.New("at least one winner is required")
	}
	positions := make(map[int]bool, len(winners))
	submissions := make(map[string]bool, len(winners))
	for _, w := range winners {
		if w.Position < 1 {
			return errors.New("positions must be 1 or greater")
		}
		if w.SubmissionID == "" {
			return errors.New("submission_id is required")
		}
		if positions[w.Position] {
			return errors.New("positions must be unique")
		}
		if submissions[w.SubmissionID] {
			return errors.New("a submission may only be placed once")
		}
		positions[w.Position] = true
		submissions[w.SubmissionID] = true
	}
	return nil
}

// RankSubmissions orders the evaluated submissions by score descending with
// absent scores last, ties broken by submission time then id, and returns
// the 1-based rank for each submission id.
func RankSubmissions(subs []*Submission) map[string]int {
	evaluated := make([]*Submission, 0, len(subs))
	for _, s := range subs {
		if s.Status == SubmissionEvaluated {
			evaluated = append(evaluated, s)
		}
	}
	sort.SliceStable(evaluated, func(i, j int) bool {
		a, b := evaluated[i], evaluated[j]
		switch {
		case a.Score != nil && b.Score == nil:
			return true
		case a.Score == nil && b.Score != nil:
			return false
		case a.Score != nil && *a.Score != *b.Score:
			return *a.Score > *b.Score
		case !a.SubmittedAt.Equal(b.SubmittedAt):
			return a.SubmittedAt.Before(b.SubmittedAt)
		default:
			return a.ID < b.ID
		}
	})
	ranks := make(map[string]int, len(evaluated))
	for i, s := range evaluated {
		ranks[s.ID] = i + 1
	}
	return ranks
}

// LeaderboardEntry is one ranked row of the public leaderboard
type LeaderboardEntry struct {
	Rank         int      `json:"rank"`
	SubmissionID string   `json:"submission_id"`
	UserID       string   `json:"user_id"`
	TeamID       *string  `json:"team_id,omitempty"`
	ProjectTitle string   `json:"project_title"`
	Score        *float64 `json:"score,omitempty"`
}
