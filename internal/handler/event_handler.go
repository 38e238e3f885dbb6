package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
	"github.com/tarunbommali/nxtgen-arena-sub001/internal/service"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/errors"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/logger"
)

// EventHandler serves the event catalogue
type EventHandler struct {
	events service.EventService
	logger *logger.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler(events service.EventService, log *logger.Logger) *EventHandler {
	return &EventHandler{events: events, logger: log.Named("events_handler")}
}

// List handles GET /api/v1/events
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.EventFilter{Status: domain.EventStatus(q.Get("status"))}

	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		respondError(w, r, errors.NewValidationError("limit must be a number", nil), h.logger)
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		respondError(w, r, errors.NewValidationError("offset must be a number", nil), h.logger)
		return
	}

	events, err := h.events.ListEvents(r.Context(), filter)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"events": events, "count": len(events)}, h.logger)
}

// Get handles GET /api/v1/events/{eventID}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetEvent(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, event, h.logger)
}

// Create handles POST /api/v1/events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	var req CreateEventRequest
	if err := bind(w, r, &req); err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	event, err := h.events.CreateEvent(r.Context(), req.toEvent(user.ID))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusCreated, event, h.logger)
}

// UpdateStatus handles PATCH /api/v1/events/{eventID}/status
func (h *EventHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := bind(w, r, &req); err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	event, err := h.events.UpdateStatus(r.Context(), chi.URLParam(r, "eventID"), req.Status)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, event, h.logger)
}

// Delete handles DELETE /api/v1/events/{eventID}
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	if err := h.events.DeleteEvent(r.Context(), eventID); err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	h.logger.Debug("Event deleted over HTTP", zap.String("event_id", eventID))
	w.WriteHeader(http.StatusNoContent)
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
