package service

import (
	stderrors "errors"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/errors"
)

// storeError translates a store sentinel into an application error. Errors
// that are not sentinels become internal errors carrying msg.
func storeError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsAppError(err); ok {
		return err
	}

	switch {
	case stderrors.Is(err, domain.ErrEventNotFound),
		stderrors.Is(err, domain.ErrTeamNotFound),
		stderrors.Is(err, domain.ErrJoinRequestNotFound),
		stderrors.Is(err, domain.ErrRegistrationNotFound),
		stderrors.Is(err, domain.ErrSubmissionNotFound),
		stderrors.Is(err, domain.ErrMemberNotFound):
		return errors.NewNotFoundError(capitalize(err.Error()))

	case stderrors.Is(err, domain.ErrCapacityExceeded),
		stderrors.Is(err, domain.ErrTeamFull):
		return errors.NewCapacityExceededError(capitalize(err.Error()))

	case stderrors.Is(err, domain.ErrAlreadyRegistered),
		stderrors.Is(err, domain.ErrTeamNameTaken),
		stderrors.Is(err, domain.ErrAlreadyInTeam),
		stderrors.Is(err, domain.ErrPendingRequestExists),
		stderrors.Is(err, domain.ErrTeamChanged),
		stderrors.Is(err, domain.ErrPaymentAlreadyUsed):
		return errors.NewConflictError(capitalize(err.Error()))

	case stderrors.Is(err, domain.ErrRequestNotPending),
		stderrors.Is(err, domain.ErrTeamLocked),
		stderrors.Is(err, domain.ErrTeamHasRegistrations),
		stderrors.Is(err, domain.ErrEventHasRegistrations),
		stderrors.Is(err, domain.ErrSubmissionEvaluated),
		stderrors.Is(err, domain.ErrInvalidTransition):
		return errors.NewInvalidStateError(capitalize(err.Error()))
	}
	return errors.NewInternalError(msg, err)
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// validationError wraps an ozzo-validation result into a validation AppError
func validationError(message string, err error) error {
	details := map[string]interface{}{}
	var fieldErrs validation.Errors
	if stderrors.As(err, &fieldErrs) {
		for field, fieldErr := range fieldErrs {
			details[field] = fieldErr.Error()
		}
	} else if err != nil {
		details["error"] = err.Error()
	}
	return errors.NewValidationError(message, details)
}
