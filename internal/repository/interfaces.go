package repository

import (
	"context"
	"time"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
)

// Lookups return (nil, nil) when the row does not exist. Mutations report
// rule violations through the sentinels in internal/domain.

// EventRepository defines the interface for event data operations
type EventRepository interface {
	// Create stores a new event
	Create(ctx context.Context, event *domain.Event) error

	// GetByID retrieves an event by ID
	GetByID(ctx context.Context, id string) (*domain.Event, error)

	// List returns events ordered by event start
	List(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error)

	// UpdateStatus moves the event from one status to another. It fails with
	// ErrInvalidTransition when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to domain.EventStatus, at time.Time) error

	// Delete removes the event with its submissions, join requests, members
	// and teams. It fails with ErrEventHasRegistrations when any registration exists.
	Delete(ctx context.Context, id string) error
}

// TeamRepository defines the interface for team data operations
type TeamRepository interface {
	// CreateTeam stores the team and its leader membership atomically
	CreateTeam(ctx context.Context, team *domain.Team, leader *domain.TeamMember) error

	// GetTeam retrieves a team with its active members
	GetTeam(ctx context.Context, id string) (*domain.Team, error)

	// GetActiveMembership returns the user's active membership for an event
	GetActiveMembership(ctx context.Context, eventID, userID string) (*domain.TeamMember, error)

	// CreateJoinRequest stores a pending request after re-checking, under the
	// team lock, that the team is unlocked and not full and that the user is
	// not already teamed for the event.
	CreateJoinRequest(ctx context.Context, req *domain.JoinRequest, limits domain.TeamLimits) error

	// GetJoinRequest retrieves a join request by ID
	GetJoinRequest(ctx context.Context, id string) (*domain.JoinRequest, error)

	// ListJoinRequests returns a team's requests, optionally filtered by status
	ListJoinRequests(ctx context.Context, teamID string, status domain.JoinRequestStatus) ([]*domain.JoinRequest, error)

	// AcceptJoinRequest adds the member and closes the request in one
	// transaction, returning the updated team.
	AcceptJoinRequest(ctx context.Context, requestID, responderID string, limits domain.TeamLimits, at time.Time) (*domain.Team, error)

	// RejectJoinRequest closes a pending request
	RejectJoinRequest(ctx context.Context, requestID, responderID string, at time.Time) error

	// RemoveMember marks a non-leader member as left and recomputes completion
	RemoveMember(ctx context.Context, teamID, userID string, limits domain.TeamLimits, at time.Time) (*domain.Team, error)

	// DeleteTeam removes requests, members and the team in one transaction
	DeleteTeam(ctx context.Context, teamID string) error
}

// RegistrationBatch is an all-or-nothing registration write
type RegistrationBatch struct {
	EventID string
	// MaxParticipants is re-checked against the confirmed count under the event row lock
	MaxParticipants *int
	Registrations   []*domain.Registration
	// TeamID, when set, must be unlocked and its active members must be exactly
	// the users in Registrations. The team is locked on success.
	TeamID string
}

// PaymentID returns the payment shared by the batch, if any. A payment that
// already backs a registration fails the batch with ErrPaymentAlreadyUsed.
func (b RegistrationBatch) PaymentID() string {
	for _, reg := range b.Registrations {
		if reg.PaymentID != "" {
			return reg.PaymentID
		}
	}
	return ""
}

// RegistrationRepository defines the interface for registration data operations
type RegistrationRepository interface {
	// CreateRegistrations inserts the batch atomically
	CreateRegistrations(ctx context.Context, batch RegistrationBatch) error

	// GetByEventAndUser retrieves a user's registration for an event
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Registration, error)

	// ListByPaymentID returns the registrations paid with paymentID
	ListByPaymentID(ctx context.Context, paymentID string) ([]*domain.Registration, error)

	// CountConfirmed returns the confirmed registrations of an event
	CountConfirmed(ctx context.Context, eventID string) (int, error)

	// CountByTeam returns the registrations carrying a team ID
	CountByTeam(ctx context.Context, teamID string) (int, error)

	// Delete removes a user's registration, returning ErrRegistrationNotFound when absent
	Delete(ctx context.Context, eventID, userID string) error

	// DeleteTeamRegistrations removes every registration of a team for an
	// event and unlocks the team in one step, returning the affected users.
	// It fails with ErrRegistrationNotFound when the team has none.
	DeleteTeamRegistrations(ctx context.Context, eventID, teamID string) ([]string, error)

	// MarkPaymentFailed flags every registration paid with paymentID
	MarkPaymentFailed(ctx context.Context, paymentID string) (int64, error)
}

// SubmissionRepository defines the interface for submission data operations
type SubmissionRepository interface {
	// Upsert creates or replaces the content of a user's submission. It
	// refuses to overwrite an evaluated submission with ErrSubmissionEvaluated.
	Upsert(ctx context.Context, sub *domain.Submission) (*domain.Submission, error)

	// GetByID retrieves a submission by ID
	GetByID(ctx context.Context, id string) (*domain.Submission, error)

	// GetByEventAndUser retrieves a user's submission for an event
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Submission, error)

	// Evaluate stores score and feedback and marks the submission evaluated
	Evaluate(ctx context.Context, id string, score *float64, feedback string, at time.Time) (*domain.Submission, error)

	// RecomputeRanks reassigns 1-based ranks to the evaluated submissions of
	// an event. Concurrent calls for the same event are serialized.
	RecomputeRanks(ctx context.Context, eventID string) error

	// PublishResults applies explicit winner ranks and completes the event in
	// one transaction.
	PublishResults(ctx context.Context, eventID string, winners []domain.Winner, at time.Time) error

	// Delete removes a submitted (not evaluated) submission
	Delete(ctx context.Context, eventID, userID string) error

	// Leaderboard returns ranked submissions in rank order
	Leaderboard(ctx context.Context, eventID string) ([]*domain.LeaderboardEntry, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Events        EventRepository
	Teams         TeamRepository
	Registrations RegistrationRepository
	Submissions   SubmissionRepository
}
