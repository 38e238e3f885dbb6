package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
	"github.com/tarunbommali/nxtgen-arena-sub001/internal/repository"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/errors"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/logger"
)

func loadEvent(ctx context.Context, events repository.EventRepository, id string) (*domain.Event, error) {
	event, err := events.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Failed to load event")
	}
	if event == nil {
		return nil, errors.NewNotFoundError("Event not found")
	}
	return event, nil
}

// loadTeamWithEvent loads a team together with the event it belongs to
func loadTeamWithEvent(ctx context.Context, teams repository.TeamRepository, events repository.EventRepository, teamID string) (*domain.Team, *domain.Event, error) {
	team, err := teams.GetTeam(ctx, teamID)
	if err != nil {
		return nil, nil, storeError(err, "Failed to load team")
	}
	if team == nil {
		return nil, nil, errors.NewNotFoundError("Team not found")
	}
	event, err := loadEvent(ctx, events, team.EventID)
	if err != nil {
		return nil, nil, err
	}
	return team, event, nil
}

func findMember(team *domain.Team, userID string) *domain.TeamMember {
	for i := range team.Members {
		if team.Members[i].UserID == userID {
			return &team.Members[i]
		}
	}
	return nil
}

// notify hands n to the notifier and logs when it is not accepted
func notify(n Notifier, log *logger.Logger, o options, kind domain.NotificationKind, userID, eventID string, data map[string]interface{}) {
	if n == nil {
		return
	}
	notification := domain.Notification{
		ID:        o.newID(),
		Kind:      kind,
		UserID:    userID,
		EventID:   eventID,
		Data:      data,
		CreatedAt: o.now(),
	}
	if !n.Dispatch(notification) {
		log.Warn("Notification dropped",
			zap.String("kind", string(kind)),
			zap.String("user_id", userID),
			zap.String("event_id", eventID))
	}
}
