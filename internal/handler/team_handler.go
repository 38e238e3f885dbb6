package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/service"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/logger"
)

// TeamHandler serves team formation
type TeamHandler struct {
	teams  service.TeamService
	logger *logger.Logger
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(teams service.TeamService, log *logger.Logger) *TeamHandler {
	return &TeamHandler{teams: teams, logger: log.Named("team_handler")}
}

// Create handles POST /api/v1/events/{eventID}/teams
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	var req CreateTeamRequest
	if err := bind(w, r, &req); err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	team, err := h.teams.CreateTeam(r.Context(), chi.URLParam(r, "eventID"), user.ID, req.Name)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusCreated, team, h.logger)
}

// Get handles GET /api/v1/teams/{teamID}
func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	team, err := h.teams.GetTeam(r.Context(), chi.URLParam(r, "teamID"))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, team, h.logger)
}

// Delete handles DELETE /api/v1/teams/{teamID}
func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	if err := h.teams.DeleteTeam(r.Context(), chi.URLParam(r, "teamID"), user.ID); err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Invite handles POST /api/v1/teams/{teamID}/invites
func (h *TeamHandler) Invite(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	var req InviteRequest
	if err := bind(w, r, &req); err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	invite, err := h.teams.Invite(r.Context(), chi.URLParam(r, "teamID"), user.ID, req.UserID)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusCreated, invite, h.logger)
}

// RequestJoin handles POST /api/v1/teams/{teamID}/requests
func (h *TeamHandler) RequestJoin(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	req, err := h.teams.RequestJoin(r.Context(), chi.URLParam(r, "teamID"), user.ID)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusCreated, req, h.logger)
}

// ListRequests handles GET /api/v1/teams/{teamID}/requests
func (h *TeamHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	requests, err := h.teams.ListJoinRequests(r.Context(), chi.URLParam(r, "teamID"), user.ID)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"requests": requests}, h.logger)
}

// Respond handles POST /api/v1/teams/{teamID}/requests/{requestID}/respond
func (h *TeamHandler) Respond(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	var req RespondRequest
	if err := bind(w, r, &req); err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	answered, err := h.teams.Respond(r.Context(), chi.URLParam(r, "teamID"), chi.URLParam(r, "requestID"), user.ID, *req.Accept)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, answered, h.logger)
}

// Leave handles POST /api/v1/teams/{teamID}/leave
func (h *TeamHandler) Leave(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	if err := h.teams.Leave(r.Context(), chi.URLParam(r, "teamID"), user.ID); err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
