package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
	"github.com/tarunbommali/nxtgen-arena-sub001/internal/repository"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/errors"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/logger"
)

type submissionService struct {
	events        repository.EventRepository
	teams         repository.TeamRepository
	registrations repository.RegistrationRepository
	submissions   repository.SubmissionRepository
	cache         *CacheService
	notifier      Notifier
	logger        *logger.Logger
	options
}

// NewSubmissionService creates the submission and evaluation engine
func NewSubmissionService(
	events repository.EventRepository,
	teams repository.TeamRepository,
	registrations repository.RegistrationRepository,
	submissions repository.SubmissionRepository,
	cache *CacheService,
	notifier Notifier,
	log *logger.Logger,
	opts ...Option,
) SubmissionService {
	return &submissionService{
		events:        events,
		teams:         teams,
		registrations: registrations,
		submissions:   submissions,
		cache:         cache,
		notifier:      notifier,
		logger:        log.Named("submissions"),
		options:       newOptions(opts),
	}
}

func (s *submissionService) Submit(ctx context.Context, eventID, userID string, payload domain.SubmissionPayload) (*domain.Submission, error) {
	event, err := loadEvent(ctx, s.events, eventID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !event.HasSubmission {
		return nil, errors.NewInvalidStateError("Event does not accept submissions")
	}
	if !event.SubmissionOpen(now) {
		return nil, errors.NewInvalidStateError("Submission window is closed")
	}

	reg, err := s.registrations.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return nil, storeError(err, "Failed to load registration")
	}
	if reg == nil || reg.Status != domain.RegistrationConfirmed {
		return nil, errors.NewAuthorizationError("A confirmed registration is required to submit")
	}
	if err := s.requireTeamLeader(ctx, reg, userID); err != nil {
		return nil, err
	}

	existing, err := s.submissions.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return nil, storeError(err, "Failed to load submission")
	}
	if existing != nil && existing.Status == domain.SubmissionEvaluated {
		return nil, errors.NewInvalidStateError("Submission has already been evaluated")
	}

	if err := payload.Validate(); err != nil {
		return nil, validationError("Invalid submission", err)
	}
	payload.Normalize()

	sub := &domain.Submission{
		ID:                s.newID(),
		EventID:           eventID,
		UserID:            userID,
		TeamID:            reg.TeamID,
		SubmissionPayload: payload,
		SubmittedAt:       now,
	}
	if existing != nil {
		sub.ID = existing.ID
	}

	saved, err := s.submissions.Upsert(ctx, sub)
	if err != nil {
		return nil, storeError(err, "Failed to save submission")
	}

	notify(s.notifier, s.logger, s.options, domain.NotifySubmissionReceived, userID, eventID, map[string]interface{}{
		"submission_id": saved.ID,
		"project_title": saved.ProjectTitle,
		"updated":       existing != nil,
	})
	s.logger.Info("Submission saved",
		zap.String("event_id", eventID),
		zap.String("user_id", userID),
		zap.String("submission_id", saved.ID),
		zap.Bool("updated", existing != nil))
	return saved, nil
}

// requireTeamLeader refuses team members other than the leader. A team has
// a single submission, owned by its leader.
func (s *submissionService) requireTeamLeader(ctx context.Context, reg *domain.Registration, userID string) error {
	if reg == nil || reg.TeamID == nil {
		return nil
	}
	team, err := s.teams.GetTeam(ctx, *reg.TeamID)
	if err != nil {
		return storeError(err, "Failed to load team")
	}
	if team == nil {
		return errors.NewNotFoundError("Team not found")
	}
	if team.LeaderID != userID {
		return errors.NewAuthorizationError("Only the team leader can manage the team submission").
			WithDetail("leader_id", team.LeaderID)
	}
	return nil
}

func (s *submissionService) Evaluate(ctx context.Context, submissionID string, score *float64, feedback string) (*domain.Submission, error) {
	if score != nil && (*score < domain.MinScore || *score > domain.MaxScore) {
		return nil, errors.NewValidationError("Score must be between 0 and 100", map[string]interface{}{"score": *score})
	}

	sub, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return nil, storeError(err, "Failed to load submission")
	}
	if sub == nil {
		return nil, errors.NewNotFoundError("Submission not found")
	}
	event, err := loadEvent(ctx, s.events, sub.EventID)
	if err != nil {
		return nil, err
	}
	if event.Status == domain.EventStatusCompleted {
		return nil, errors.NewInvalidStateError("Results have already been published")
	}

	evaluated, err := s.submissions.Evaluate(ctx, submissionID, score, feedback, s.now())
	if err != nil {
		return nil, storeError(err, "Failed to evaluate submission")
	}

	if err := s.submissions.RecomputeRanks(ctx, sub.EventID); err != nil {
		s.logger.Error("Failed to recompute ranks", zap.String("event_id", sub.EventID), zap.Error(err))
	} else if ranked, err := s.submissions.GetByID(ctx, submissionID); err == nil && ranked != nil {
		evaluated = ranked
	}
	s.cache.InvalidateLeaderboard(ctx, sub.EventID)

	data := map[string]interface{}{"submission_id": submissionID}
	if evaluated.Score != nil {
		data["score"] = *evaluated.Score
	}
	if evaluated.Rank != nil {
		data["rank"] = *evaluated.Rank
	}
	notify(s.notifier, s.logger, s.options, domain.NotifySubmissionEvaluated, sub.UserID, sub.EventID, data)

	s.logger.Info("Submission evaluated", zap.String("submission_id", submissionID), zap.String("event_id", sub.EventID))
	return evaluated, nil
}

func (s *submissionService) PublishResults(ctx context.Context, eventID string, winners []domain.Winner) error {
	if err := domain.ValidateWinners(winners); err != nil {
		return errors.NewValidationError(err.Error(), nil)
	}
	event, err := loadEvent(ctx, s.events, eventID)
	if err != nil {
		return err
	}
	if !event.Status.CanTransitionTo(domain.EventStatusCompleted) {
		return errors.NewInvalidStateError("Results cannot be published for a " + string(event.Status) + " event")
	}

	if err := s.submissions.PublishResults(ctx, eventID, winners, s.now()); err != nil {
		s.logger.Warn("Publishing results refused", zap.String("event_id", eventID), zap.Error(err))
		return storeError(err, "Failed to publish results")
	}
	s.cache.InvalidateEvent(ctx, eventID)
	s.cache.InvalidateLeaderboard(ctx, eventID)

	for _, w := range winners {
		sub, err := s.submissions.GetByID(ctx, w.SubmissionID)
		if err != nil || sub == nil {
			s.logger.Error("Failed to load winning submission for notification", zap.String("submission_id", w.SubmissionID), zap.Error(err))
			continue
		}
		notify(s.notifier, s.logger, s.options, domain.NotifyResultsPublished, sub.UserID, eventID, map[string]interface{}{
			"submission_id": sub.ID,
			"position":      w.Position,
			"event_title":   event.Title,
		})
	}

	s.logger.Info("Results published", zap.String("event_id", eventID), zap.Int("winners", len(winners)))
	return nil
}

func (s *submissionService) Delete(ctx context.Context, eventID, userID string) error {
	event, err := loadEvent(ctx, s.events, eventID)
	if err != nil {
		return err
	}
	sub, err := s.submissions.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return storeError(err, "Failed to load submission")
	}
	if sub == nil {
		reg, err := s.registrations.GetByEventAndUser(ctx, eventID, userID)
		if err != nil {
			return storeError(err, "Failed to load registration")
		}
		if err := s.requireTeamLeader(ctx, reg, userID); err != nil {
			return err
		}
		return errors.NewNotFoundError("Submission not found")
	}
	if sub.Status == domain.SubmissionEvaluated {
		return errors.NewInvalidStateError("Submission has already been evaluated")
	}
	if event.SubmissionDeadlinePassed(s.now()) {
		return errors.NewInvalidStateError("Submission deadline has passed")
	}

	if err := s.submissions.Delete(ctx, eventID, userID); err != nil {
		return storeError(err, "Failed to delete submission")
	}
	s.logger.Info("Submission deleted", zap.String("event_id", eventID), zap.String("user_id", userID))
	return nil
}

func (s *submissionService) Leaderboard(ctx context.Context, eventID string) ([]*domain.LeaderboardEntry, error) {
	if _, err := loadEvent(ctx, s.events, eventID); err != nil {
		return nil, err
	}
	entries, err := s.cache.GetLeaderboard(ctx, eventID, s.submissions.Leaderboard)
	if err != nil {
		return nil, storeError(err, "Failed to load leaderboard")
	}
	return entries, nil
}
