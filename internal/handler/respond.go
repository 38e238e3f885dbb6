package handler

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
	"github.com/tarunbommali/nxtgen-arena-sub001/internal/middleware"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/errors"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/logger"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data interface{}, log *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("Failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error, log *logger.Logger) {
	middleware.WriteError(w, r, err, log)
}

type validatable interface {
	Validate() error
}

// bind decodes the body into dst and validates it
func bind(w http.ResponseWriter, r *http.Request, dst validatable) error {
	if err := decodeJSON(w, r, dst); err != nil {
		return err
	}
	if err := dst.Validate(); err != nil {
		return validationError(err)
	}
	return nil
}

// decodeJSON reads a bounded JSON body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case stderrors.Is(err, io.EOF):
			return errors.NewValidationError("Request body is required", nil)
		case stderrors.As(err, &tooLarge):
			return errors.NewValidationError("Request body is too large", nil)
		default:
			return errors.NewValidationError("Invalid request body", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

func validationError(err error) error {
	if _, ok := errors.AsAppError(err); ok {
		return err
	}
	details := map[string]interface{}{}
	var fields validation.Errors
	if stderrors.As(err, &fields) {
		for field, fieldErr := range fields {
			details[field] = fieldErr.Error()
		}
	} else {
		details["error"] = err.Error()
	}
	return errors.NewValidationError("Invalid request", details)
}

// currentUser returns the authenticated caller. Routes using it are
// mounted behind middleware.Auth.
func currentUser(r *http.Request) (*domain.User, error) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		return nil, errors.NewAuthenticationError("User not authenticated")
	}
	return user, nil
}
