// Package memstore is an in-process implementation of the repository
// interfaces. A single mutex serializes every operation, which gives the
// same atomicity the Postgres store gets from row locks.
package memstore

import (
	"sync"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
	"github.com/tarunbommali/nxtgen-arena-sub001/internal/repository"
)

var (
	_ repository.EventRepository        = (*eventRepo)(nil)
	_ repository.TeamRepository         = (*teamRepo)(nil)
	_ repository.RegistrationRepository = (*registrationRepo)(nil)
	_ repository.SubmissionRepository   = (*submissionRepo)(nil)
)

type memberKey struct{ teamID, userID string }

type pairKey struct{ eventID, userID string }

// Store holds every entity in maps keyed by ID
type Store struct {
	mu sync.Mutex

	events        map[string]*domain.Event
	teams         map[string]*domain.Team
	members       map[memberKey]*domain.TeamMember
	requests      map[string]*domain.JoinRequest
	registrations map[pairKey]*domain.Registration
	submissions   map[string]*domain.Submission
}

// New creates an empty store
func New() *Store {
	return &Store{
		events:        make(map[string]*domain.Event),
		teams:         make(map[string]*domain.Team),
		members:       make(map[memberKey]*domain.TeamMember),
		requests:      make(map[string]*domain.JoinRequest),
		registrations: make(map[pairKey]*domain.Registration),
		submissions:   make(map[string]*domain.Submission),
	}
}

// Repositories exposes the store through the repository interfaces
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Events:        &eventRepo{s},
		Teams:         &teamRepo{s},
		Registrations: &registrationRepo{s},
		Submissions:   &submissionRepo{s},
	}
}

func copyEvent(e *domain.Event) *domain.Event {
	c := *e
	return &c
}

func copyRequest(r *domain.JoinRequest) *domain.JoinRequest {
	c := *r
	return &c
}

func copyRegistration(r *domain.Registration) *domain.Registration {
	c := *r
	return &c
}

func copySubmission(s *domain.Submission) *domain.Submission {
	c := *s
	if s.Score != nil {
		v := *s.Score
		c.Score = &v
	}
	if s.Rank != nil {
		v := *s.Rank
		c.Rank = &v
	}
	return &c
}

// activeMembers lists a team's active members, leader first. Callers hold mu.
func (s *Store) activeMembers(teamID string) []domain.TeamMember {
	var leader []domain.TeamMember
	var others []domain.TeamMember
	for k, m := range s.members {
		if k.teamID != teamID || m.Status != domain.MemberStatusActive {
			continue
		}
		if m.IsLeader {
			leader = append(leader, *m)
		} else {
			others = append(others, *m)
		}
	}
	sortMembers(others)
	return append(leader, others...)
}

// teamView returns a detached team with its active members. Callers hold mu.
func (s *Store) teamView(id string) *domain.Team {
	t, ok := s.teams[id]
	if !ok {
		return nil
	}
	c := *t
	c.Members = s.activeMembers(id)
	c.MemberCount = len(c.Members)
	return &c
}

// activeMembership finds the user's active membership for an event. Callers hold mu.
func (s *Store) activeMembership(eventID, userID string) *domain.TeamMember {
	for _, m := range s.members {
		if m.EventID == eventID && m.UserID == userID && m.Status == domain.MemberStatusActive {
			c := *m
			return &c
		}
	}
	return nil
}

func (s *Store) countTeamRegistrations(teamID string) int {
	n := 0
	for _, r := range s.registrations {
		if r.TeamID != nil && *r.TeamID == teamID {
			n++
		}
	}
	return n
}
