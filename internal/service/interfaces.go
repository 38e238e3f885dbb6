package service

import (
	"context"
	"time"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
)

// AuthService defines the interface for authentication operations
type AuthService interface {
	// ValidateToken validates a bearer token and returns its claims
	ValidateToken(ctx context.Context, token string) (*domain.AuthClaims, error)

	// IssueToken signs a token for the user, valid for ttl
	IssueToken(user *domain.User, ttl time.Duration) (string, error)
}

// PaymentGateway is the external payment provider
type PaymentGateway interface {
	// CreateOrder opens an order for amount in major currency units
	CreateOrder(ctx context.Context, amount float64, currency, receipt string, notes map[string]string) (*domain.PaymentOrder, error)

	// VerifySignature checks the checkout signature for orderID and paymentID
	VerifySignature(orderID, paymentID, signature string) bool

	// FetchOrder retrieves an order with the notes it was created with
	FetchOrder(ctx context.Context, orderID string) (*domain.PaymentOrder, error)

	// FetchPayment retrieves the provider's record of a payment
	FetchPayment(ctx context.Context, paymentID string) (*domain.PaymentDetails, error)

	// VerifyWebhookSignature checks a webhook body against its signature header
	VerifyWebhookSignature(body []byte, signature string) bool
}

// Notifier hands notifications to the delivery pipeline without blocking.
// Dispatch returns false when the notification was not accepted.
type Notifier interface {
	Dispatch(n domain.Notification) bool
}

// NotificationService is a Notifier with a lifecycle
type NotificationService interface {
	Notifier

	// Start launches the delivery workers
	Start(ctx context.Context) error

	// Stop drains the queue and waits for the workers
	Stop(ctx context.Context) error
}

// EventService manages the event catalogue
type EventService interface {
	CreateEvent(ctx context.Context, event *domain.Event) (*domain.Event, error)
	GetEvent(ctx context.Context, id string) (*domain.Event, error)
	ListEvents(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error)
	UpdateStatus(ctx context.Context, id string, status domain.EventStatus) (*domain.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// RegistrationService handles event registration and payment-gated registration
type RegistrationService interface {
	// Register validates eligibility and registers free events directly.
	// Paid events yield a payment requirement instead of a registration.
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.RegistrationResult, error)

	// Cancel removes the caller's registration before the event starts. A
	// team leader cancels every row of the team and unlocks it.
	Cancel(ctx context.Context, eventID, userID string) error

	// CreatePaymentOrder opens a provider order for a paid registration
	CreatePaymentOrder(ctx context.Context, req domain.RegisterRequest) (*domain.PaymentOrder, error)

	// VerifyPayment checks the checkout proof and finalizes the registration
	VerifyPayment(ctx context.Context, v domain.PaymentVerification) (*domain.RegistrationResult, error)

	// FinalizeFromPayment commits a paid registration once payment is proven.
	// A payment backs a single registration batch; reusing it for another
	// event or user is a conflict.
	FinalizeFromPayment(ctx context.Context, req domain.RegisterRequest, payment domain.CapturedPayment) (*domain.RegistrationResult, error)

	// HandlePaymentWebhook processes an asynchronous provider event
	HandlePaymentWebhook(ctx context.Context, body []byte, signature string) error
}

// TeamService coordinates team formation
type TeamService interface {
	CreateTeam(ctx context.Context, eventID, leaderID, name string) (*domain.Team, error)
	GetTeam(ctx context.Context, teamID string) (*domain.Team, error)
	Invite(ctx context.Context, teamID, inviterID, targetUserID string) (*domain.JoinRequest, error)
	RequestJoin(ctx context.Context, teamID, requesterID string) (*domain.JoinRequest, error)
	Respond(ctx context.Context, teamID, requestID, responderID string, accept bool) (*domain.JoinRequest, error)
	ListJoinRequests(ctx context.Context, teamID, actorID string) ([]*domain.JoinRequest, error)
	Leave(ctx context.Context, teamID, userID string) error
	DeleteTeam(ctx context.Context, teamID, requesterID string) error
}

// SubmissionService handles project submissions and judging
type SubmissionService interface {
	Submit(ctx context.Context, eventID, userID string, payload domain.SubmissionPayload) (*domain.Submission, error)
	Evaluate(ctx context.Context, submissionID string, score *float64, feedback string) (*domain.Submission, error)
	PublishResults(ctx context.Context, eventID string, winners []domain.Winner) error
	Delete(ctx context.Context, eventID, userID string) error
	Leaderboard(ctx context.Context, eventID string) ([]*domain.LeaderboardEntry, error)
}

// Services aggregates all service interfaces
type Services struct {
	Auth          AuthService
	Events        EventService
	Registrations RegistrationService
	Teams         TeamService
	Submissions   SubmissionService
	Notifications NotificationService
	Cache         *CacheService
}
