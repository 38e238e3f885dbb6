package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
	"github.com/tarunbommali/nxtgen-arena-sub001/internal/repository"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/errors"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/logger"
)

type teamService struct {
	events        repository.EventRepository
	teams         repository.TeamRepository
	registrations repository.RegistrationRepository
	notifier      Notifier
	logger        *logger.Logger
	options
}

// NewTeamService creates the team coordination engine
func NewTeamService(
	events repository.EventRepository,
	teams repository.TeamRepository,
	registrations repository.RegistrationRepository,
	notifier Notifier,
	log *logger.Logger,
	opts ...Option,
) TeamService {
	return &teamService{
		events:        events,
		teams:         teams,
		registrations: registrations,
		notifier:      notifier,
		logger:        log.Named("teams"),
		options:       newOptions(opts),
	}
}

func (s *teamService) CreateTeam(ctx context.Context, eventID, leaderID, name string) (*domain.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.NewValidationError("Team name is required", nil)
	}
	if utf8.RuneCountInString(name) > domain.MaxTeamNameLength {
		return nil, errors.NewValidationError("Team name is too long", map[string]interface{}{"max_length": domain.MaxTeamNameLength})
	}

	event, err := loadEvent(ctx, s.events, eventID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	switch {
	case !event.IsTeamEvent:
		return nil, errors.NewInvalidStateError("Event is not a team event")
	case event.Status != domain.EventStatusPublished:
		return nil, errors.NewInvalidStateError("Event is not open for registration")
	case !event.RegistrationOpen(now):
		return nil, errors.NewInvalidStateError("Registration window is closed")
	}

	membership, err := s.teams.GetActiveMembership(ctx, eventID, leaderID)
	if err != nil {
		return nil, storeError(err, "Failed to check team membership")
	}
	if membership != nil {
		return nil, errors.NewConflictError("Already in a team for this event")
	}

	limits := event.TeamLimits()
	team := &domain.Team{
		ID:         s.newID(),
		EventID:    eventID,
		Name:       name,
		LeaderID:   leaderID,
		IsComplete: limits.IsComplete(1),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	leader := &domain.TeamMember{
		TeamID:   team.ID,
		EventID:  eventID,
		UserID:   leaderID,
		IsLeader: true,
		Status:   domain.MemberStatusActive,
		JoinedAt: now,
	}
	if err := s.teams.CreateTeam(ctx, team, leader); err != nil {
		s.logger.Debug("Team creation refused", zap.String("event_id", eventID), zap.String("name", name), zap.Error(err))
		return nil, storeError(err, "Failed to create team")
	}

	s.logger.Info("Team created", zap.String("team_id", team.ID), zap.String("event_id", eventID), zap.String("leader_id", leaderID))
	return s.GetTeam(ctx, team.ID)
}

func (s *teamService) GetTeam(ctx context.Context, teamID string) (*domain.Team, error) {
	team, err := s.teams.GetTeam(ctx, teamID)
	if err != nil {
		return nil, storeError(err, "Failed to load team")
	}
	if team == nil {
		return nil, errors.NewNotFoundError("Team not found")
	}
	return team, nil
}

// checkJoinable applies the guards shared by invites and join requests
func (s *teamService) checkJoinable(ctx context.Context, team *domain.Team, event *domain.Event, userID string) error {
	if team.IsLocked {
		return errors.NewInvalidStateError("Team is locked")
	}
	if !event.FormationOpen(s.now()) {
		return errors.NewInvalidStateError("Team formation deadline has passed")
	}
	if team.IsFull(event.TeamLimits()) {
		return errors.NewCapacityExceededError("Team is full")
	}
	membership, err := s.teams.GetActiveMembership(ctx, event.ID, userID)
	if err != nil {
		return storeError(err, "Failed to check team membership")
	}
	if membership != nil {
		return errors.NewConflictError("User is already in a team for this event")
	}
	return nil
}

func (s *teamService) createRequest(ctx context.Context, team *domain.Team, event *domain.Event, userID, createdBy string, kind domain.JoinRequestType) (*domain.JoinRequest, error) {
	req := &domain.JoinRequest{
		ID:          s.newID(),
		TeamID:      team.ID,
		EventID:     event.ID,
		UserID:      userID,
		RequestType: kind,
		Status:      domain.JoinRequestPending,
		CreatedBy:   createdBy,
		CreatedAt:   s.now(),
	}
	if err := s.teams.CreateJoinRequest(ctx, req, event.TeamLimits()); err != nil {
		s.logger.Debug("Join request refused", zap.String("team_id", team.ID), zap.String("user_id", userID), zap.Error(err))
		return nil, storeError(err, "Failed to create join request")
	}
	return req, nil
}

func (s *teamService) Invite(ctx context.Context, teamID, inviterID, targetUserID string) (*domain.JoinRequest, error) {
	targetUserID = strings.TrimSpace(targetUserID)
	if targetUserID == "" {
		return nil, errors.NewValidationError("user_id is required", nil)
	}
	if targetUserID == inviterID {
		return nil, errors.NewValidationError("Cannot invite yourself", nil)
	}

	team, event, err := loadTeamWithEvent(ctx, s.teams, s.events, teamID)
	if err != nil {
		return nil, err
	}
	if team.LeaderID != inviterID {
		return nil, errors.NewAuthorizationError("Only the team leader can invite")
	}
	if err := s.checkJoinable(ctx, team, event, targetUserID); err != nil {
		return nil, err
	}

	req, err := s.createRequest(ctx, team, event, targetUserID, inviterID, domain.JoinRequestReceived)
	if err != nil {
		return nil, err
	}

	notify(s.notifier, s.logger, s.options, domain.NotifyTeamInvite, targetUserID, event.ID, map[string]interface{}{
		"team_id":      team.ID,
		"team_name":    team.Name,
		"request_id":   req.ID,
		"request_type": string(req.RequestType),
	})
	s.logger.Info("Team invite sent", zap.String("team_id", teamID), zap.String("user_id", targetUserID))
	return req, nil
}

func (s *teamService) RequestJoin(ctx context.Context, teamID, requesterID string) (*domain.JoinRequest, error) {
	team, event, err := loadTeamWithEvent(ctx, s.teams, s.events, teamID)
	if err != nil {
		return nil, err
	}
	if err := s.checkJoinable(ctx, team, event, requesterID); err != nil {
		return nil, err
	}

	req, err := s.createRequest(ctx, team, event, requesterID, requesterID, domain.JoinRequestSent)
	if err != nil {
		return nil, err
	}

	notify(s.notifier, s.logger, s.options, domain.NotifyTeamInvite, team.LeaderID, event.ID, map[string]interface{}{
		"team_id":      team.ID,
		"team_name":    team.Name,
		"request_id":   req.ID,
		"request_type": string(req.RequestType),
		"requester_id": requesterID,
	})
	s.logger.Info("Join request sent", zap.String("team_id", teamID), zap.String("user_id", requesterID))
	return req, nil
}

func (s *teamService) Respond(ctx context.Context, teamID, requestID, responderID string, accept bool) (*domain.JoinRequest, error) {
	req, err := s.teams.GetJoinRequest(ctx, requestID)
	if err != nil {
		return nil, storeError(err, "Failed to load join request")
	}
	if req == nil || req.TeamID != teamID {
		return nil, errors.NewNotFoundError("Join request not found")
	}
	team, event, err := loadTeamWithEvent(ctx, s.teams, s.events, teamID)
	if err != nil {
		return nil, err
	}
	if req.Responder(team) != responderID {
		return nil, errors.NewAuthorizationError("Not allowed to respond to this request")
	}
	if req.Status != domain.JoinRequestPending {
		return nil, errors.NewInvalidStateError("Join request already responded")
	}

	now := s.now()
	if accept {
		if !event.FormationOpen(now) {
			return nil, errors.NewInvalidStateError("Team formation deadline has passed")
		}
		updated, err := s.teams.AcceptJoinRequest(ctx, requestID, responderID, event.TeamLimits(), now)
		if err != nil {
			s.logger.Debug("Join request accept refused", zap.String("request_id", requestID), zap.Error(err))
			return nil, storeError(err, "Failed to accept join request")
		}
		req.Status = domain.JoinRequestAccepted
		s.logger.Info("Join request accepted",
			zap.String("team_id", teamID),
			zap.String("user_id", req.UserID),
			zap.Int("member_count", updated.MemberCount),
			zap.Bool("is_complete", updated.IsComplete))
	} else {
		if err := s.teams.RejectJoinRequest(ctx, requestID, responderID, now); err != nil {
			return nil, storeError(err, "Failed to reject join request")
		}
		req.Status = domain.JoinRequestRejected
		s.logger.Info("Join request rejected", zap.String("team_id", teamID), zap.String("user_id", req.UserID))
	}

	req.RespondedAt = &now
	req.RespondedBy = responderID
	return req, nil
}

func (s *teamService) ListJoinRequests(ctx context.Context, teamID, actorID string) ([]*domain.JoinRequest, error) {
	team, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.LeaderID != actorID {
		return nil, errors.NewAuthorizationError("Only the team leader can list requests")
	}
	reqs, err := s.teams.ListJoinRequests(ctx, teamID, domain.JoinRequestPending)
	if err != nil {
		return nil, storeError(err, "Failed to list join requests")
	}
	return reqs, nil
}

// checkMutable rejects membership changes once the team is locked or registered
func (s *teamService) checkMutable(ctx context.Context, team *domain.Team) error {
	if team.IsLocked {
		return errors.NewInvalidStateError("Team is locked")
	}
	count, err := s.registrations.CountByTeam(ctx, team.ID)
	if err != nil {
		return storeError(err, "Failed to count team registrations")
	}
	if count > 0 {
		return errors.NewInvalidStateError("Team has registrations")
	}
	return nil
}

func (s *teamService) Leave(ctx context.Context, teamID, userID string) error {
	team, event, err := loadTeamWithEvent(ctx, s.teams, s.events, teamID)
	if err != nil {
		return err
	}
	member := findMember(team, userID)
	if member == nil {
		return errors.NewNotFoundError("Not a member of this team")
	}
	if member.IsLeader {
		return errors.NewAuthorizationError("The leader cannot leave; delete the team instead")
	}
	if err := s.checkMutable(ctx, team); err != nil {
		return err
	}

	updated, err := s.teams.RemoveMember(ctx, teamID, userID, event.TeamLimits(), s.now())
	if err != nil {
		return storeError(err, "Failed to leave team")
	}
	s.logger.Info("Member left team",
		zap.String("team_id", teamID),
		zap.String("user_id", userID),
		zap.Int("member_count", updated.MemberCount))
	return nil
}

func (s *teamService) DeleteTeam(ctx context.Context, teamID, requesterID string) error {
	team, event, err := loadTeamWithEvent(ctx, s.teams, s.events, teamID)
	if err != nil {
		return err
	}
	if team.LeaderID != requesterID {
		return errors.NewAuthorizationError("Only the team leader can delete the team")
	}
	if err := s.checkMutable(ctx, team); err != nil {
		return err
	}
	if !event.FormationOpen(s.now()) {
		return errors.NewInvalidStateError("Team formation deadline has passed")
	}

	if err := s.teams.DeleteTeam(ctx, teamID); err != nil {
		return storeError(err, "Failed to delete team")
	}
	s.logger.Info("Team deleted", zap.String("team_id", teamID), zap.String("event_id", team.EventID))
	return nil
}
