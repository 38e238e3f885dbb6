package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
)

type teamRepo struct{ s *Store }

func sortMembers(ms []domain.TeamMember) {
	sort.Slice(ms, func(i, j int) bool {
		if !ms[i].JoinedAt.Equal(ms[j].JoinedAt) {
			return ms[i].JoinedAt.Before(ms[j].JoinedAt)
		}
		return ms[i].UserID < ms[j].UserID
	})
}

func (r *teamRepo) CreateTeam(ctx context.Context, team *domain.Team, leader *domain.TeamMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.events[team.EventID]; !ok {
		return domain.ErrEventNotFound
	}
	for _, t := range r.s.teams {
		if t.EventID == team.EventID && strings.EqualFold(t.Name, team.Name) {
			return domain.ErrTeamNameTaken
		}
	}
	if r.s.activeMembership(team.EventID, leader.UserID) != nil {
		return domain.ErrAlreadyInTeam
	}

	t := *team
	t.Members = nil
	t.IsLocked = false
	t.UpdatedAt = t.CreatedAt
	r.s.teams[t.ID] = &t

	m := *leader
	m.Status = domain.MemberStatusActive
	r.s.members[memberKey{m.TeamID, m.UserID}] = &m
	return nil
}

func (r *teamRepo) GetTeam(ctx context.Context, id string) (*domain.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.teamView(id), nil
}

func (r *teamRepo) GetActiveMembership(ctx context.Context, eventID, userID string) (*domain.TeamMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.activeMembership(eventID, userID), nil
}

func (r *teamRepo) CreateJoinRequest(ctx context.Context, req *domain.JoinRequest, limits domain.TeamLimits) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	team := r.s.teamView(req.TeamID)
	if team == nil {
		return domain.ErrTeamNotFound
	}
	if team.IsLocked {
		return domain.ErrTeamLocked
	}
	if team.IsFull(limits) {
		return domain.ErrTeamFull
	}
	if r.s.activeMembership(team.EventID, req.UserID) != nil {
		return domain.ErrAlreadyInTeam
	}
	for _, existing := range r.s.requests {
		if existing.TeamID == req.TeamID && existing.UserID == req.UserID && existing.Status == domain.JoinRequestPending {
			return domain.ErrPendingRequestExists
		}
	}

	req.EventID = team.EventID
	req.Status = domain.JoinRequestPending
	r.s.requests[req.ID] = copyRequest(req)
	return nil
}

func (r *teamRepo) GetJoinRequest(ctx context.Context, id string) (*domain.JoinRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, nil
	}
	return copyRequest(req), nil
}

func (r *teamRepo) ListJoinRequests(ctx context.Context, teamID string, status domain.JoinRequestStatus) ([]*domain.JoinRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*domain.JoinRequest, 0)
	for _, req := range r.s.requests {
		if req.TeamID != teamID || (status != "" && req.Status != status) {
			continue
		}
		out = append(out, copyRequest(req))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *teamRepo) AcceptJoinRequest(ctx context.Context, requestID, responderID string, limits domain.TeamLimits, at time.Time) (*domain.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, ok := r.s.requests[requestID]
	if !ok {
		return nil, domain.ErrJoinRequestNotFound
	}
	team := r.s.teamView(req.TeamID)
	if team == nil {
		return nil, domain.ErrTeamNotFound
	}
	if req.Status != domain.JoinRequestPending {
		return nil, domain.ErrRequestNotPending
	}
	if team.IsLocked {
		return nil, domain.ErrTeamLocked
	}
	if team.IsFull(limits) {
		return nil, domain.ErrTeamFull
	}
	if r.s.activeMembership(team.EventID, req.UserID) != nil {
		return nil, domain.ErrAlreadyInTeam
	}

	m := &domain.TeamMember{
		TeamID:   team.ID,
		EventID:  team.EventID,
		UserID:   req.UserID,
		Status:   domain.MemberStatusActive,
		JoinedAt: at,
	}
	r.s.members[memberKey{m.TeamID, m.UserID}] = m

	responded := at
	req.Status = domain.JoinRequestAccepted
	req.RespondedAt = &responded
	req.RespondedBy = responderID

	stored := r.s.teams[team.ID]
	stored.IsComplete = limits.IsComplete(team.MemberCount + 1)
	stored.UpdatedAt = at
	return r.s.teamView(team.ID), nil
}

func (r *teamRepo) RejectJoinRequest(ctx context.Context, requestID, responderID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, ok := r.s.requests[requestID]
	if !ok {
		return domain.ErrJoinRequestNotFound
	}
	if req.Status != domain.JoinRequestPending {
		return domain.ErrRequestNotPending
	}
	responded := at
	req.Status = domain.JoinRequestRejected
	req.RespondedAt = &responded
	req.RespondedBy = responderID
	return nil
}

func (r *teamRepo) RemoveMember(ctx context.Context, teamID, userID string, limits domain.TeamLimits, at time.Time) (*domain.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.teams[teamID]
	if !ok {
		return nil, domain.ErrTeamNotFound
	}
	if stored.IsLocked {
		return nil, domain.ErrTeamLocked
	}
	if r.s.countTeamRegistrations(teamID) > 0 {
		return nil, domain.ErrTeamHasRegistrations
	}
	m, ok := r.s.members[memberKey{teamID, userID}]
	if !ok || m.Status != domain.MemberStatusActive || m.IsLeader {
		return nil, domain.ErrMemberNotFound
	}

	left := at
	m.Status = domain.MemberStatusLeft
	m.LeftAt = &left

	stored.IsComplete = limits.IsComplete(len(r.s.activeMembers(teamID)))
	stored.UpdatedAt = at
	return r.s.teamView(teamID), nil
}

func (r *teamRepo) DeleteTeam(ctx context.Context, teamID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.teams[teamID]
	if !ok {
		return domain.ErrTeamNotFound
	}
	if stored.IsLocked {
		return domain.ErrTeamLocked
	}
	if r.s.countTeamRegistrations(teamID) > 0 {
		return domain.ErrTeamHasRegistrations
	}

	for id, req := range r.s.requests {
		if req.TeamID == teamID {
			delete(r.s.requests, id)
		}
	}
	for k := range r.s.members {
		if k.teamID == teamID {
			delete(r.s.members, k)
		}
	}
	delete(r.s.teams, teamID)
	return nil
}
