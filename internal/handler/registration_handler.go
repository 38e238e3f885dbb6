package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
	"github.com/tarunbommali/nxtgen-arena-sub001/internal/service"
	"github.com/tarunbommali/nxtgen-arena-sub001/internal/service/payment"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/errors"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/logger"
)

// maxWebhookBytes bounds provider webhook bodies
const maxWebhookBytes = 256 << 10

// RegistrationHandler serves registration and the payment flow around it
type RegistrationHandler struct {
	registrations service.RegistrationService
	logger        *logger.Logger
}

// NewRegistrationHandler creates a new registration handler
func NewRegistrationHandler(registrations service.RegistrationService, log *logger.Logger) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations, logger: log.Named("registration_handler")}
}

// Register handles POST /api/v1/events/{eventID}/registrations.
// Paid events answer 402 with the amount due.
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	var req RegisterRequest
	if err := bind(w, r, &req); err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	result, err := h.registrations.Register(r.Context(), req.toDomain(chi.URLParam(r, "eventID"), user.ID))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	if result.RequiresPayment {
		respondJSON(w, http.StatusPaymentRequired, result, h.logger)
		return
	}
	respondJSON(w, http.StatusCreated, result, h.logger)
}

// Cancel handles DELETE /api/v1/events/{eventID}/registrations/me
func (h *RegistrationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	if err := h.registrations.Cancel(r.Context(), chi.URLParam(r, "eventID"), user.ID); err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateOrder handles POST /api/v1/events/{eventID}/payments/order
func (h *RegistrationHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	var req RegisterRequest
	if err := bind(w, r, &req); err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	order, err := h.registrations.CreatePaymentOrder(r.Context(), req.toDomain(chi.URLParam(r, "eventID"), user.ID))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusCreated, order, h.logger)
}

// VerifyPayment handles POST /api/v1/events/{eventID}/payments/verify
func (h *RegistrationHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	var req VerifyPaymentRequest
	if err := bind(w, r, &req); err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	result, err := h.registrations.VerifyPayment(r.Context(), domain.PaymentVerification{
		RegisterRequest: req.toDomain(chi.URLParam(r, "eventID"), user.ID),
		OrderID:         req.OrderID,
		PaymentID:       req.PaymentID,
		Signature:       req.Signature,
	})
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusCreated, result, h.logger)
}

// Webhook handles POST /api/v1/payments/webhook. The raw body is needed
// for signature verification, so it is read before any decoding.
func (h *RegistrationHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		respondError(w, r, errors.NewValidationError("Failed to read webhook body", nil), h.logger)
		return
	}

	signature := r.Header.Get(payment.SignatureHeader)
	if err := h.registrations.HandlePaymentWebhook(r.Context(), body, signature); err != nil {
		h.logger.Warn("Payment webhook rejected", zap.Error(err))
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.logger)
}
