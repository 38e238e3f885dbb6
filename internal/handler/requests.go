package handler

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
)

// CreateEventRequest is the admin payload for a new event
type CreateEventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`

	RegistrationStart  time.Time  `json:"registration_start"`
	RegistrationEnd    time.Time  `json:"registration_end"`
	EventStart         time.Time  `json:"event_start"`
	EventEnd           time.Time  `json:"event_end"`
	HasSubmission      bool       `json:"has_submission"`
	SubmissionStart    *time.Time `json:"submission_start"`
	SubmissionDeadline *time.Time `json:"submission_deadline"`

	MaxParticipants       *int       `json:"max_participants"`
	IsTeamEvent           bool       `json:"is_team_event"`
	AllowIndividual       bool       `json:"allow_individual"`
	MinTeamSize           int        `json:"min_team_size"`
	MaxTeamSize           int        `json:"max_team_size"`
	TeamFormationDeadline *time.Time `json:"team_formation_deadline"`

	IsPaid          bool    `json:"is_paid"`
	RegistrationFee float64 `json:"registration_fee"`
	Currency        string  `json:"currency"`
}

// Validate checks presence only; scheduling rules are enforced on the event
func (r *CreateEventRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.RegistrationStart, validation.Required),
		validation.Field(&r.RegistrationEnd, validation.Required),
		validation.Field(&r.EventStart, validation.Required),
		validation.Field(&r.EventEnd, validation.Required),
		validation.Field(&r.RegistrationFee, validation.Min(0.0)),
	)
}

func (r *CreateEventRequest) toEvent(createdBy string) *domain.Event {
	return &domain.Event{
		Title:                 r.Title,
		Description:           r.Description,
		RegistrationStart:     r.RegistrationStart.UTC(),
		RegistrationEnd:       r.RegistrationEnd.UTC(),
		EventStart:            r.EventStart.UTC(),
		EventEnd:              r.EventEnd.UTC(),
		HasSubmission:         r.HasSubmission,
		SubmissionStart:       utc(r.SubmissionStart),
		SubmissionDeadline:    utc(r.SubmissionDeadline),
		MaxParticipants:       r.MaxParticipants,
		IsTeamEvent:           r.IsTeamEvent,
		AllowIndividual:       r.AllowIndividual,
		MinTeamSize:           r.MinTeamSize,
		MaxTeamSize:           r.MaxTeamSize,
		TeamFormationDeadline: utc(r.TeamFormationDeadline),
		IsPaid:                r.IsPaid,
		RegistrationFee:       r.RegistrationFee,
		Currency:              r.Currency,
		CreatedBy:             createdBy,
	}
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

// UpdateStatusRequest moves an event through its lifecycle
type UpdateStatusRequest struct {
	Status domain.EventStatus `json:"status"`
}

// Validate implements validation.Validatable
func (r *UpdateStatusRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Status, validation.Required, validation.In(
			domain.EventStatusDraft, domain.EventStatusPublished, domain.EventStatusActive,
			domain.EventStatusOngoing, domain.EventStatusCompleted, domain.EventStatusCancelled,
		)),
	)
}

// RegisterRequest selects how the caller participates
type RegisterRequest struct {
	ParticipationType domain.ParticipationType `json:"participation_type"`
	TeamID            string                   `json:"team_id,omitempty"`
}

var errTeamIDRequired = errors.New("is required for team participation")

// Validate implements validation.Validatable
func (r *RegisterRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ParticipationType, validation.Required, validation.In(domain.ParticipationIndividual, domain.ParticipationTeam)),
		validation.Field(&r.TeamID, validation.By(func(interface{}) error {
			if r.ParticipationType == domain.ParticipationTeam && r.TeamID == "" {
				return errTeamIDRequired
			}
			return nil
		})),
	)
}

func (r *RegisterRequest) toDomain(eventID, userID string) domain.RegisterRequest {
	return domain.RegisterRequest{
		EventID:           eventID,
		UserID:            userID,
		ParticipationType: r.ParticipationType,
		TeamID:            r.TeamID,
	}
}

// VerifyPaymentRequest carries the checkout proof returned to the client
type VerifyPaymentRequest struct {
	RegisterRequest
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// Validate implements validation.Validatable
func (r *VerifyPaymentRequest) Validate() error {
	if err := r.RegisterRequest.Validate(); err != nil {
		return err
	}
	return validation.ValidateStruct(r,
		validation.Field(&r.OrderID, validation.Required),
		validation.Field(&r.PaymentID, validation.Required),
		validation.Field(&r.Signature, validation.Required),
	)
}

// CreateTeamRequest names a new team
type CreateTeamRequest struct {
	Name string `json:"name"`
}

// Validate implements validation.Validatable
func (r *CreateTeamRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.RuneLength(1, domain.MaxTeamNameLength)),
	)
}

// InviteRequest names the user to invite
type InviteRequest struct {
	UserID string `json:"user_id"`
}

// Validate implements validation.Validatable
func (r *InviteRequest) Validate() error {
	return validation.ValidateStruct(r, validation.Field(&r.UserID, validation.Required))
}

// RespondRequest accepts or rejects a join request
type RespondRequest struct {
	Accept *bool `json:"accept"`
}

// Validate implements validation.Validatable
func (r *RespondRequest) Validate() error {
	return validation.ValidateStruct(r, validation.Field(&r.Accept, validation.NotNil))
}

// EvaluateRequest scores a submission; a null score is allowed
type EvaluateRequest struct {
	Score    *float64 `json:"score"`
	Feedback string   `json:"feedback"`
}

// Validate implements validation.Validatable
func (r *EvaluateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Score, validation.Min(float64(domain.MinScore)), validation.Max(float64(domain.MaxScore))),
		validation.Field(&r.Feedback, validation.Length(0, 5000)),
	)
}

// PublishResultsRequest lists the placements for an event
type PublishResultsRequest struct {
	Winners []domain.Winner `json:"winners"`
}

// Validate implements validation.Validatable
func (r *PublishResultsRequest) Validate() error {
	return validation.ValidateStruct(r, validation.Field(&r.Winners, validation.Required))
}
