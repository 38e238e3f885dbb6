package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
)

type submissionRepo struct{ s *Store }

func (r *submissionRepo) findByEventAndUser(eventID, userID string) *domain.Submission {
	for _, sub := range r.s.submissions {
		if sub.EventID == eventID && sub.UserID == userID {
			return sub
		}
	}
	return nil
}

func (r *submissionRepo) Upsert(ctx context.Context, sub *domain.Submission) (*domain.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing := r.findByEventAndUser(sub.EventID, sub.UserID)
	if existing == nil {
		c := copySubmission(sub)
		c.Status = domain.SubmissionSubmitted
		c.UpdatedAt = c.SubmittedAt
		r.s.submissions[c.ID] = c
		return copySubmission(c), nil
	}
	if existing.Status == domain.SubmissionEvaluated {
		return nil, domain.ErrSubmissionEvaluated
	}
	existing.TeamID = sub.TeamID
	existing.SubmissionPayload = sub.SubmissionPayload
	existing.UpdatedAt = sub.SubmittedAt
	return copySubmission(existing), nil
}

func (r *submissionRepo) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.submissions[id]
	if !ok {
		return nil, nil
	}
	return copySubmission(sub), nil
}

func (r *submissionRepo) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub := r.findByEventAndUser(eventID, userID)
	if sub == nil {
		return nil, nil
	}
	return copySubmission(sub), nil
}

func (r *submissionRepo) Evaluate(ctx context.Context, id string, score *float64, feedback string, at time.Time) (*domain.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.submissions[id]
	if !ok {
		return nil, domain.ErrSubmissionNotFound
	}
	if score != nil {
		v := *score
		sub.Score = &v
	} else {
		sub.Score = nil
	}
	evaluated := at
	sub.Feedback = feedback
	sub.Status = domain.SubmissionEvaluated
	sub.EvaluatedAt = &evaluated
	sub.UpdatedAt = at
	return copySubmission(sub), nil
}

func (r *submissionRepo) RecomputeRanks(ctx context.Context, eventID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var subs []*domain.Submission
	for _, sub := range r.s.submissions {
		if sub.EventID == eventID {
			subs = append(subs, sub)
		}
	}
	for id, rank := range domain.RankSubmissions(subs) {
		v := rank
		r.s.submissions[id].Rank = &v
	}
	return nil
}

func (r *submissionRepo) PublishResults(ctx context.Context, eventID string, winners []domain.Winner, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	event, ok := r.s.events[eventID]
	if !ok {
		return domain.ErrEventNotFound
	}
	if event.Status == domain.EventStatusCompleted || event.Status == domain.EventStatusCancelled {
		return domain.ErrInvalidTransition
	}
	for _, w := range winners {
		sub, ok := r.s.submissions[w.SubmissionID]
		if !ok || sub.EventID != eventID {
			return domain.ErrSubmissionNotFound
		}
	}

	for _, w := range winners {
		rank := w.Position
		sub := r.s.submissions[w.SubmissionID]
		sub.Rank = &rank
		sub.UpdatedAt = at
	}
	event.Status = domain.EventStatusCompleted
	event.UpdatedAt = at
	return nil
}

func (r *submissionRepo) Delete(ctx context.Context, eventID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub := r.findByEventAndUser(eventID, userID)
	if sub == nil {
		return domain.ErrSubmissionNotFound
	}
	if sub.Status == domain.SubmissionEvaluated {
		return domain.ErrSubmissionEvaluated
	}
	delete(r.s.submissions, sub.ID)
	return nil
}

func (r *submissionRepo) Leaderboard(ctx context.Context, eventID string) ([]*domain.LeaderboardEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	entries := make([]*domain.LeaderboardEntry, 0)
	submitted := make(map[string]time.Time)
	for _, sub := range r.s.submissions {
		if sub.EventID != eventID || sub.Rank == nil {
			continue
		}
		e := &domain.LeaderboardEntry{
			Rank:         *sub.Rank,
			SubmissionID: sub.ID,
			UserID:       sub.UserID,
			TeamID:       sub.TeamID,
			ProjectTitle: sub.ProjectTitle,
		}
		if sub.Score != nil {
			v := *sub.Score
			e.Score = &v
		}
		submitted[sub.ID] = sub.SubmittedAt
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Rank != entries[j].Rank {
			return entries[i].Rank < entries[j].Rank
		}
		return submitted[entries[i].SubmissionID].Before(submitted[entries[j].SubmissionID])
	})
	return entries, nil
}
