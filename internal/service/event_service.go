package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
	"github.com/tarunbommali/nxtgen-arena-sub001/internal/repository"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/errors"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/logger"
)

// DefaultCurrency applies to paid events created without a currency
const DefaultCurrency = "INR"

type eventService struct {
	events repository.EventRepository
	cache  *CacheService
	logger *logger.Logger
	options
}

// NewEventService creates the event catalogue service
func NewEventService(events repository.EventRepository, cache *CacheService, log *logger.Logger, opts ...Option) EventService {
	return &eventService{
		events:  events,
		cache:   cache,
		logger:  log.Named("events"),
		options: newOptions(opts),
	}
}

func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event) (*domain.Event, error) {
	e := *event
	e.ID = s.newID()
	e.Status = domain.EventStatusDraft
	e.Currency = strings.ToUpper(strings.TrimSpace(e.Currency))
	if e.IsPaid && e.Currency == "" {
		e.Currency = DefaultCurrency
	}
	if !e.IsTeamEvent {
		e.MinTeamSize, e.MaxTeamSize, e.AllowIndividual = 0, 0, true
	}
	now := s.now()
	e.CreatedAt, e.UpdatedAt = now, now

	if err := e.Validate(); err != nil {
		return nil, validationError("Invalid event", err)
	}
	if err := s.events.Create(ctx, &e); err != nil {
		s.logger.Error("Failed to create event", zap.String("title", e.Title), zap.Error(err))
		return nil, storeError(err, "Failed to create event")
	}

	s.logger.Info("Event created", zap.String("event_id", e.ID), zap.String("created_by", e.CreatedBy))
	return &e, nil
}

func (s *eventService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	event, err := s.cache.GetEvent(ctx, id, s.events.GetByID)
	if err != nil {
		return nil, storeError(err, "Failed to load event")
	}
	if event == nil {
		return nil, errors.NewNotFoundError("Event not found")
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, errors.NewValidationError("Unknown event status", map[string]interface{}{"status": filter.Status})
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	events, err := s.events.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "Failed to list events")
	}
	return events, nil
}

func (s *eventService) UpdateStatus(ctx context.Context, id string, status domain.EventStatus) (*domain.Event, error) {
	if !status.Valid() {
		return nil, errors.NewValidationError("Unknown event status", map[string]interface{}{"status": status})
	}

	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Failed to load event")
	}
	if event == nil {
		return nil, errors.NewNotFoundError("Event not found")
	}
	if !event.Status.CanTransitionTo(status) {
		return nil, errors.NewInvalidStateError("Event cannot move from " + string(event.Status) + " to " + string(status))
	}

	now := s.now()
	if err := s.events.UpdateStatus(ctx, id, event.Status, status, now); err != nil {
		s.logger.Warn("Event status update lost a race", zap.String("event_id", id), zap.Error(err))
		return nil, storeError(err, "Failed to update event status")
	}
	s.cache.InvalidateEvent(ctx, id)

	s.logger.Info("Event status updated",
		zap.String("event_id", id),
		zap.String("from", string(event.Status)),
		zap.String("to", string(status)))

	event.Status = status
	event.UpdatedAt = now
	return event, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, id string) error {
	if err := s.events.Delete(ctx, id); err != nil {
		return storeError(err, "Failed to delete event")
	}
	s.cache.InvalidateEvent(ctx, id)
	s.cache.InvalidateLeaderboard(ctx, id)
	s.logger.Info("Event deleted", zap.String("event_id", id))
	return nil
}
