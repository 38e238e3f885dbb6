package domain

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// EventStatus is the lifecycle status of an event
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusActive    EventStatus = "active"
	EventStatusOngoing   EventStatus = "ongoing"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
)

// eventTransitions lists the statuses reachable from each status.
// Completed and cancelled are terminal.
var eventTransitions = map[EventStatus][]EventStatus{
	EventStatusDraft:     {EventStatusPublished, EventStatusCancelled},
	EventStatusPublished: {EventStatusActive, EventStatusOngoing, EventStatusCancelled, EventStatusCompleted},
	EventStatusActive:    {EventStatusOngoing, EventStatusCompleted, EventStatusCancelled},
	EventStatusOngoing:   {EventStatusCompleted, EventStatusCancelled},
}

// Valid reports whether s is a known status
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusDraft, EventStatusPublished, EventStatusActive,
		EventStatusOngoing, EventStatusCompleted, EventStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the event may move from s to next
func (s EventStatus) CanTransitionTo(next EventStatus) bool {
	for _, allowed := range eventTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Event is a hackathon, workshop or contest with registration rules
type Event struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`

	RegistrationStart  time.Time  `json:"registration_start"`
	RegistrationEnd    time.Time  `json:"registration_end"`
	EventStart         time.Time  `json:"event_start"`
	EventEnd           time.Time  `json:"event_end"`
	HasSubmission      bool       `json:"has_submission"`
	SubmissionStart    *time.Time `json:"submission_start,omitempty"`
	SubmissionDeadline *time.Time `json:"submission_deadline,omitempty"`

	// nil means unlimited
	MaxParticipants *int `json:"max_participants,omitempty"`

	IsTeamEvent           bool       `json:"is_team_event"`
	AllowIndividual       bool       `json:"allow_individual"`
	MinTeamSize           int        `json:"min_team_size"`
	MaxTeamSize           int        `json:"max_team_size"`
	TeamFormationDeadline *time.Time `json:"team_formation_deadline,omitempty"`

	IsPaid          bool    `json:"is_paid"`
	RegistrationFee float64 `json:"registration_fee"`
	Currency        string  `json:"currency"`

	Status    EventStatus `json:"status"`
	CreatedBy string      `json:"created_by,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Validate checks field constraints and the ordering of the scheduling window
func (e *Event) Validate() error {
	err := validation.ValidateStruct(e,
		validation.Field(&e.Title, validation.Required, validation.Length(2, 200)),
		validation.Field(&e.Description, validation.Length(0, 5000)),
		validation.Field(&e.RegistrationStart, validation.Required),
		validation.Field(&e.RegistrationEnd, validation.Required),
		validation.Field(&e.EventStart, validation.Required),
		validation.Field(&e.EventEnd, validation.Required),
		validation.Field(&e.MaxParticipants, validation.NilOrNotEmpty, validation.Min(1)),
		validation.Field(&e.Currency, validation.Length(3, 3)),
	)
	if err != nil {
		return err
	}

	errs := validation.Errors{}
	if e.RegistrationEnd.Before(e.RegistrationStart) {
		errs["registration_end"] = errors.New("must not be before registration_start")
	}
	if e.EventStart.Before(e.RegistrationEnd) {
		errs["event_start"] = errors.New("must not be before registration_end")
	}
	if e.EventEnd.Before(e.EventStart) {
		errs["event_end"] = errors.New("must not be before event_start")
	}
	if e.SubmissionStart != nil && e.SubmissionDeadline != nil && e.SubmissionDeadline.Before(*e.SubmissionStart) {
		errs["submission_deadline"] = errors.New("must not be before submission_start")
	}
	if e.IsTeamEvent {
		if e.MinTeamSize < 1 {
			errs["min_team_size"] = errors.New("must be at least 1")
		} else if e.MaxTeamSize < e.MinTeamSize {
			errs["max_team_size"] = errors.New("must not be less than min_team_size")
		}
	}
	if e.IsPaid && e.RegistrationFee <= 0 {
		errs["registration_fee"] = errors.New("must be greater than 0 for a paid event")
	}
	if e.IsPaid && e.Currency == "" {
		errs["currency"] = errors.New("cannot be blank for a paid event")
	}
	if e.Status != "" && !e.Status.Valid() {
		errs["status"] = errors.New("unknown status")
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// RegistrationOpen reports whether now lies inside the registration window
func (e *Event) RegistrationOpen(now time.Time) bool {
	return !now.Before(e.RegistrationStart) && !now.After(e.RegistrationEnd)
}

// SubmissionOpen reports whether now lies inside the submission window.
// Absent bounds are open-ended.
func (e *Event) SubmissionOpen(now time.Time) bool {
	if e.SubmissionStart != nil && now.Before(*e.SubmissionStart) {
		return false
	}
	if e.SubmissionDeadline != nil && now.After(*e.SubmissionDeadline) {
		return false
	}
	return true
}

// SubmissionDeadlinePassed reports whether a deadline exists and now is past it
func (e *Event) SubmissionDeadlinePassed(now time.Time) bool {
	return e.SubmissionDeadline != nil && now.After(*e.SubmissionDeadline)
}

// FormationOpen reports whether team membership may still change
func (e *Event) FormationOpen(now time.Time) bool {
	return e.TeamFormationDeadline == nil || !now.After(*e.TeamFormationDeadline)
}

// HasStarted reports whether cancellation is no longer allowed
func (e *Event) HasStarted(now time.Time) bool {
	return !now.Before(e.EventStart)
}

// TeamLimits returns the team size bounds of the event
func (e *Event) TeamLimits() TeamLimits {
	return TeamLimits{Min: e.MinTeamSize, Max: e.MaxTeamSize}
}

// EventFilter narrows event listings
type EventFilter struct {
	Status EventStatus
	Limit  int
	Offset int
}
