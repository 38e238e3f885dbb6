package domain

import "errors"

// Store-level sentinels. Services translate them into application errors.
var (
	ErrEventNotFound        = errors.New("event not found")
	ErrTeamNotFound         = errors.New("team not found")
	ErrJoinRequestNotFound  = errors.New("join request not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrSubmissionNotFound   = errors.New("submission not found")
	ErrMemberNotFound       = errors.New("team member not found")

	ErrAlreadyRegistered     = errors.New("user already registered for event")
	ErrCapacityExceeded      = errors.New("event capacity reached")
	ErrTeamNameTaken         = errors.New("team name already taken for event")
	ErrAlreadyInTeam         = errors.New("user already belongs to a team for event")
	ErrPendingRequestExists  = errors.New("a pending request already exists")
	ErrRequestNotPending     = errors.New("join request already responded")
	ErrTeamLocked            = errors.New("team is locked")
	ErrTeamFull              = errors.New("team is full")
	ErrTeamChanged           = errors.New("team membership changed")
	ErrTeamHasRegistrations  = errors.New("team has registrations")
	ErrEventHasRegistrations = errors.New("event has registrations")
	ErrSubmissionEvaluated   = errors.New("submission already evaluated")
	ErrInvalidTransition     = errors.New("invalid event status transition")
	ErrPaymentAlreadyUsed    = errors.New("payment already used for another registration")
)
