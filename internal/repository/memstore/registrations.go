package memstore

import (
	"context"
	"sort"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
	"github.com/tarunbommali/nxtgen-arena-sub001/internal/repository"
)

type registrationRepo struct{ s *Store }

func (r *registrationRepo) CreateRegistrations(ctx context.Context, batch repository.RegistrationBatch) error {
	if len(batch.Registrations) == 0 {
		return nil
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.events[batch.EventID]; !ok {
		return domain.ErrEventNotFound
	}
	if batch.MaxParticipants != nil {
		if r.s.countConfirmed(batch.EventID)+len(batch.Registrations) > *batch.MaxParticipants {
			return domain.ErrCapacityExceeded
		}
	}

	if paymentID := batch.PaymentID(); paymentID != "" {
		for _, reg := range r.s.registrations {
			if reg.PaymentID == paymentID {
				return domain.ErrPaymentAlreadyUsed
			}
		}
	}

	if batch.TeamID != "" {
		team := r.s.teamView(batch.TeamID)
		if team == nil {
			return domain.ErrTeamNotFound
		}
		if team.IsLocked {
			return domain.ErrTeamLocked
		}
		if !sameMembers(team, batch.Registrations) {
			return domain.ErrTeamChanged
		}
	}

	seen := make(map[pairKey]bool, len(batch.Registrations))
	for _, reg := range batch.Registrations {
		k := pairKey{reg.EventID, reg.UserID}
		if _, exists := r.s.registrations[k]; exists || seen[k] {
			return domain.ErrAlreadyRegistered
		}
		seen[k] = true
	}

	for _, reg := range batch.Registrations {
		r.s.registrations[pairKey{reg.EventID, reg.UserID}] = copyRegistration(reg)
	}
	if batch.TeamID != "" {
		r.s.teams[batch.TeamID].IsLocked = true
	}
	return nil
}

func sameMembers(team *domain.Team, regs []*domain.Registration) bool {
	if len(team.Members) != len(regs) {
		return false
	}
	members := make(map[string]bool, len(team.Members))
	for _, m := range team.Members {
		members[m.UserID] = true
	}
	for _, reg := range regs {
		if !members[reg.UserID] {
			return false
		}
	}
	return true
}

func (s *Store) countConfirmed(eventID string) int {
	n := 0
	for k, reg := range s.registrations {
		if k.eventID == eventID && reg.Status == domain.RegistrationConfirmed {
			n++
		}
	}
	return n
}

func (r *registrationRepo) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reg, ok := r.s.registrations[pairKey{eventID, userID}]
	if !ok {
		return nil, nil
	}
	return copyRegistration(reg), nil
}

func (r *registrationRepo) ListByPaymentID(ctx context.Context, paymentID string) ([]*domain.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var regs []*domain.Registration
	for _, reg := range r.s.registrations {
		if paymentID != "" && reg.PaymentID == paymentID {
			regs = append(regs, copyRegistration(reg))
		}
	}
	sort.Slice(regs, func(i, j int) bool {
		if !regs[i].CreatedAt.Equal(regs[j].CreatedAt) {
			return regs[i].CreatedAt.Before(regs[j].CreatedAt)
		}
		return regs[i].ID < regs[j].ID
	})
	return regs, nil
}

func (r *registrationRepo) CountConfirmed(ctx context.Context, eventID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.countConfirmed(eventID), nil
}

func (r *registrationRepo) CountByTeam(ctx context.Context, teamID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.countTeamRegistrations(teamID), nil
}

func (r *registrationRepo) Delete(ctx context.Context, eventID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := pairKey{eventID, userID}
	if _, ok := r.s.registrations[k]; !ok {
		return domain.ErrRegistrationNotFound
	}
	delete(r.s.registrations, k)
	return nil
}

func (r *registrationRepo) DeleteTeamRegistrations(ctx context.Context, eventID, teamID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	team, ok := r.s.teams[teamID]
	if !ok {
		return nil, domain.ErrTeamNotFound
	}
	var users []string
	for k, reg := range r.s.registrations {
		if k.eventID == eventID && reg.TeamID != nil && *reg.TeamID == teamID {
			users = append(users, k.userID)
			delete(r.s.registrations, k)
		}
	}
	if len(users) == 0 {
		return nil, domain.ErrRegistrationNotFound
	}
	sort.Strings(users)
	team.IsLocked = false
	return users, nil
}

func (r *registrationRepo) MarkPaymentFailed(ctx context.Context, paymentID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, reg := range r.s.registrations {
		if paymentID != "" && reg.PaymentID == paymentID {
			reg.PaymentStatus = domain.PaymentStatusFailed
			n++
		}
	}
	return n, nil
}
