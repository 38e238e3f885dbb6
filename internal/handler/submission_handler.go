package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
	"github.com/tarunbommali/nxtgen-arena-sub001/internal/service"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/logger"
)

// SubmissionHandler serves submissions, judging and the leaderboard
type SubmissionHandler struct {
	submissions service.SubmissionService
	logger      *logger.Logger
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(submissions service.SubmissionService, log *logger.Logger) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, logger: log.Named("submission_handler")}
}

// Submit handles PUT /api/v1/events/{eventID}/submission. Link and window
// checks happen in the service so their precedence stays in one place.
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	var payload domain.SubmissionPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	sub, err := h.submissions.Submit(r.Context(), chi.URLParam(r, "eventID"), user.ID, payload)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, sub, h.logger)
}

// Delete handles DELETE /api/v1/events/{eventID}/submission
func (h *SubmissionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	if err := h.submissions.Delete(r.Context(), chi.URLParam(r, "eventID"), user.ID); err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Leaderboard handles GET /api/v1/events/{eventID}/leaderboard
func (h *SubmissionHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	entries, err := h.submissions.Leaderboard(r.Context(), eventID)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=30")
	respondJSON(w, http.StatusOK, map[string]interface{}{"event_id": eventID, "entries": entries}, h.logger)
}

// Evaluate handles POST /api/v1/submissions/{submissionID}/evaluate
func (h *SubmissionHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := bind(w, r, &req); err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	sub, err := h.submissions.Evaluate(r.Context(), chi.URLParam(r, "submissionID"), req.Score, req.Feedback)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, sub, h.logger)
}

// PublishResults handles POST /api/v1/events/{eventID}/results
func (h *SubmissionHandler) PublishResults(w http.ResponseWriter, r *http.Request) {
	var req PublishResultsRequest
	if err := bind(w, r, &req); err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	eventID := chi.URLParam(r, "eventID")
	if err := h.submissions.PublishResults(r.Context(), eventID, req.Winners); err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"event_id": eventID, "status": domain.EventStatusCompleted}, h.logger)
}
