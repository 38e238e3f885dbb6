package handler

import (
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/container"
	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/errors"
)

const devTokenTTL = 24 * time.Hour

// TestingHandler serves development helpers. Routes are only mounted
// outside production, and every call re-checks the environment.
type TestingHandler struct {
	container   *container.Container
	environment string
}

// NewTestingHandler creates a new testing handler
func NewTestingHandler(container *container.Container) *TestingHandler {
	return &TestingHandler{
		container:   container,
		environment: container.GetConfig().Environment,
	}
}

// IssueTokenRequest describes the principal to mint a token for
type IssueTokenRequest struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// Validate implements validation.Validatable
func (r *IssueTokenRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Role, validation.In(domain.RoleStudent, domain.RoleAdmin)),
	)
}

// IssueToken handles POST /api/testing/token
func (h *TestingHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()
	if !h.allowed(w, r) {
		return
	}

	var req IssueTokenRequest
	if err := bind(w, r, &req); err != nil {
		respondError(w, r, err, log)
		return
	}
	if req.UserID == "" {
		req.UserID = uuid.NewString()
	}
	if req.Role == "" {
		req.Role = domain.RoleStudent
	}

	user := &domain.User{ID: req.UserID, Email: req.Email, Name: req.Name, Role: req.Role}
	token, err := h.container.Services.Auth.IssueToken(user, devTokenTTL)
	if err != nil {
		respondError(w, r, err, log)
		return
	}

	log.WithFields(map[string]interface{}{"user_id": user.ID, "role": user.Role}).Info("Testing: issued development token")
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"token":      token,
		"user":       user,
		"expires_in": int(devTokenTTL.Seconds()),
	}, log)
}

// NotificationFailures handles GET /api/testing/notification-failures
func (h *TestingHandler) NotificationFailures(w http.ResponseWriter, r *http.Request) {
	if !h.allowed(w, r) {
		return
	}
	failures := h.container.Dispatcher.Failures()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"environment": h.environment,
		"failures":    failures,
		"count":       len(failures),
	}, h.container.GetLogger())
}

func (h *TestingHandler) allowed(w http.ResponseWriter, r *http.Request) bool {
	if h.container.GetConfig().IsDevelopment() {
		return true
	}
	log := h.container.GetLogger()
	log.Warn("Attempted to access testing endpoint in non-development environment")
	respondError(w, r, errors.NewAuthorizationError("This endpoint is only available in development environment"), log)
	return false
}
