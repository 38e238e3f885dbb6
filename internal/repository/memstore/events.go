package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
)

type eventRepo struct{ s *Store }

func (r *eventRepo) Create(ctx context.Context, e *domain.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.events[e.ID] = copyEvent(e)
	return nil
}

func (r *eventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return nil, nil
	}
	return copyEvent(e), nil
}

func (r *eventRepo) List(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	events := make([]*domain.Event, 0, len(r.s.events))
	for _, e := range r.s.events {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		events = append(events, copyEvent(e))
	}
	sort.Slice(events, func(i, j int) bool {
		if !events[i].EventStart.Equal(events[j].EventStart) {
			return events[i].EventStart.Before(events[j].EventStart)
		}
		return events[i].ID < events[j].ID
	})

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if filter.Offset >= len(events) {
		return []*domain.Event{}, nil
	}
	events = events[filter.Offset:]
	if len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (r *eventRepo) UpdateStatus(ctx context.Context, id string, from, to domain.EventStatus, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok || e.Status != from {
		return domain.ErrInvalidTransition
	}
	e.Status = to
	e.UpdatedAt = at
	return nil
}

func (r *eventRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[id]; !ok {
		return domain.ErrEventNotFound
	}
	for k := range r.s.registrations {
		if k.eventID == id {
			return domain.ErrEventHasRegistrations
		}
	}

	for sid, sub := range r.s.submissions {
		if sub.EventID == id {
			delete(r.s.submissions, sid)
		}
	}
	for rid, req := range r.s.requests {
		if req.EventID == id {
			delete(r.s.requests, rid)
		}
	}
	for k, m := range r.s.members {
		if m.EventID == id {
			delete(r.s.members, k)
		}
	}
	for tid, t := range r.s.teams {
		if t.EventID == id {
			delete(r.s.teams, tid)
		}
	}
	delete(r.s.events, id)
	return nil
}
