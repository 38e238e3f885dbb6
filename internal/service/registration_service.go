package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
	"github.com/tarunbommali/nxtgen-arena-sub001/internal/repository"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/errors"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/logger"
)

// Webhook event names sent by the payment provider
const (
	WebhookPaymentCaptured = "payment.captured"
	WebhookPaymentFailed   = "payment.failed"
)

type registrationService struct {
	events        repository.EventRepository
	teams         repository.TeamRepository
	registrations repository.RegistrationRepository
	payments      PaymentGateway
	cache         *CacheService
	notifier      Notifier
	logger        *logger.Logger
	options
}

// NewRegistrationService creates the registration engine
func NewRegistrationService(
	events repository.EventRepository,
	teams repository.TeamRepository,
	registrations repository.RegistrationRepository,
	payments PaymentGateway,
	cache *CacheService,
	notifier Notifier,
	log *logger.Logger,
	opts ...Option,
) RegistrationService {
	return &registrationService{
		events:        events,
		teams:         teams,
		registrations: registrations,
		payments:      payments,
		cache:         cache,
		notifier:      notifier,
		logger:        log.Named("registrations"),
		options:       newOptions(opts),
	}
}

// eligibility is what the shared checks resolve for a registration attempt
type eligibility struct {
	event *domain.Event
	team  *domain.Team
	// participants are registered together, the requester first
	participants []string
	kind         domain.ParticipationType
}

func (e *eligibility) amountDue() float64 {
	return domain.RoundMoney(e.event.RegistrationFee * float64(len(e.participants)))
}

func (s *registrationService) checkEligibility(ctx context.Context, req domain.RegisterRequest) (*eligibility, error) {
	event, err := loadEvent(ctx, s.events, req.EventID)
	if err != nil {
		return nil, err
	}
	if event.Status != domain.EventStatusPublished {
		return nil, errors.NewInvalidStateError("Event is not open for registration")
	}
	if !event.RegistrationOpen(s.now()) {
		return nil, errors.NewInvalidStateError("Registration window is closed")
	}

	if event.MaxParticipants != nil {
		count, err := s.registrations.CountConfirmed(ctx, event.ID)
		if err != nil {
			return nil, storeError(err, "Failed to count registrations")
		}
		if count >= *event.MaxParticipants {
			return nil, errors.NewCapacityExceededError("Event is full")
		}
	}

	existing, err := s.registrations.GetByEventAndUser(ctx, event.ID, req.UserID)
	if err != nil {
		return nil, storeError(err, "Failed to load registration")
	}
	if existing != nil {
		return nil, errors.NewConflictError("Already registered for this event")
	}

	kind := req.ParticipationType
	if kind == "" {
		kind = domain.ParticipationIndividual
	}
	switch kind {
	case domain.ParticipationIndividual:
		if event.IsTeamEvent && !event.AllowIndividual {
			return nil, errors.NewInvalidStateError("Event requires team participation")
		}
		return &eligibility{event: event, participants: []string{req.UserID}, kind: kind}, nil
	case domain.ParticipationTeam:
		if !event.IsTeamEvent {
			return nil, errors.NewValidationError("Event does not accept team participation", nil)
		}
	default:
		return nil, errors.NewValidationError("Unknown participation type", map[string]interface{}{"participation_type": kind})
	}

	if req.TeamID == "" {
		return nil, errors.NewValidationError("team_id is required for team participation", nil)
	}
	team, err := s.teams.GetTeam(ctx, req.TeamID)
	if err != nil {
		return nil, storeError(err, "Failed to load team")
	}
	if team == nil || team.EventID != event.ID {
		return nil, errors.NewNotFoundError("Team not found for this event")
	}
	if findMember(team, req.UserID) == nil {
		return nil, errors.NewAuthorizationError("Not a member of this team")
	}
	limits := event.TeamLimits()
	if team.MemberCount < limits.Min || team.MemberCount > limits.Max {
		return nil, errors.NewInvalidStateError(fmt.Sprintf("Team must have between %d and %d members", limits.Min, limits.Max))
	}
	if team.LeaderID != req.UserID {
		return nil, errors.NewAuthorizationError("Only the team leader can register the team")
	}
	if team.IsLocked {
		return nil, errors.NewConflictError("Team is already registered")
	}

	participants := make([]string, 0, len(team.Members))
	participants = append(participants, req.UserID)
	for _, m := range team.Members {
		if m.UserID != req.UserID {
			participants = append(participants, m.UserID)
		}
	}
	return &eligibility{event: event, team: team, participants: participants, kind: kind}, nil
}

// paymentInfo is attached to registrations created after a verified payment
type paymentInfo struct {
	amountPaid float64
	paymentID  string
	orderID    string
}

func (s *registrationService) commit(ctx context.Context, elig *eligibility, payment *paymentInfo) (*domain.RegistrationResult, error) {
	now := s.now()
	regs := make([]*domain.Registration, len(elig.participants))

	var shares []float64
	if payment != nil {
		shares = domain.SplitAmount(payment.amountPaid, len(regs))
	}
	for i, userID := range elig.participants {
		reg := &domain.Registration{
			ID:                s.newID(),
			EventID:           elig.event.ID,
			UserID:            userID,
			ParticipationType: elig.kind,
			PaymentStatus:     domain.PaymentStatusNotApplicable,
			Status:            domain.RegistrationConfirmed,
			CreatedAt:         now,
		}
		if elig.team != nil {
			teamID := elig.team.ID
			reg.TeamID = &teamID
		}
		if payment != nil {
			paidAt := now
			reg.PaymentStatus = domain.PaymentStatusCompleted
			reg.AmountPaid = shares[i]
			reg.PaymentID = payment.paymentID
			reg.OrderID = payment.orderID
			reg.PaidAt = &paidAt
		}
		regs[i] = reg
	}

	batch := repository.RegistrationBatch{
		EventID:         elig.event.ID,
		MaxParticipants: elig.event.MaxParticipants,
		Registrations:   regs,
	}
	if elig.team != nil {
		batch.TeamID = elig.team.ID
	}
	if err := s.registrations.CreateRegistrations(ctx, batch); err != nil {
		s.logger.Warn("Registration rejected by store",
			zap.String("event_id", elig.event.ID),
			zap.String("user_id", elig.participants[0]),
			zap.Error(err))
		if stderrors.Is(err, domain.ErrTeamLocked) {
			return nil, errors.NewConflictError("Team is already registered")
		}
		return nil, storeError(err, "Failed to create registration")
	}

	for _, reg := range regs {
		notify(s.notifier, s.logger, s.options, domain.NotifyRegistrationConfirmed, reg.UserID, reg.EventID, map[string]interface{}{
			"registration_id": reg.ID,
			"event_title":     elig.event.Title,
			"payment_status":  string(reg.PaymentStatus),
		})
	}

	s.logger.Info("Registration confirmed",
		zap.String("event_id", elig.event.ID),
		zap.String("user_id", elig.participants[0]),
		zap.Int("rows", len(regs)),
		zap.Bool("paid", payment != nil))

	result := &domain.RegistrationResult{Registration: regs[0]}
	if len(regs) > 1 {
		result.TeamMembers = regs[1:]
	}
	return result, nil
}

func (s *registrationService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.RegistrationResult, error) {
	elig, err := s.checkEligibility(ctx, req)
	if err != nil {
		s.logger.Debug("Registration refused", zap.String("event_id", req.EventID), zap.String("user_id", req.UserID), zap.Error(err))
		return nil, err
	}

	if elig.event.IsPaid {
		return &domain.RegistrationResult{
			RequiresPayment: true,
			Amount:          elig.amountDue(),
			Currency:        elig.event.Currency,
		}, nil
	}
	return s.commit(ctx, elig, nil)
}

func (s *registrationService) Cancel(ctx context.Context, eventID, userID string) error {
	event, err := loadEvent(ctx, s.events, eventID)
	if err != nil {
		return err
	}
	reg, err := s.registrations.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return storeError(err, "Failed to load registration")
	}
	if reg == nil {
		return errors.NewNotFoundError("Registration not found")
	}
	if event.HasStarted(s.now()) {
		return errors.NewInvalidStateError("Registration cannot be cancelled after the event has started")
	}

	if reg.TeamID != nil {
		team, err := s.teams.GetTeam(ctx, *reg.TeamID)
		if err != nil {
			return storeError(err, "Failed to load team")
		}
		// the leader registered the team and withdraws it as a whole
		if team != nil && team.LeaderID == userID {
			return s.cancelTeam(ctx, event, team)
		}
	}

	if err := s.registrations.Delete(ctx, eventID, userID); err != nil {
		return storeError(err, "Failed to cancel registration")
	}

	notify(s.notifier, s.logger, s.options, domain.NotifyRegistrationCancelled, userID, eventID, map[string]interface{}{
		"event_title": event.Title,
	})
	s.logger.Info("Registration cancelled", zap.String("event_id", eventID), zap.String("user_id", userID))
	return nil
}

func (s *registrationService) cancelTeam(ctx context.Context, event *domain.Event, team *domain.Team) error {
	users, err := s.registrations.DeleteTeamRegistrations(ctx, event.ID, team.ID)
	if err != nil {
		return storeError(err, "Failed to cancel team registration")
	}

	for _, u := range users {
		notify(s.notifier, s.logger, s.options, domain.NotifyRegistrationCancelled, u, event.ID, map[string]interface{}{
			"event_title": event.Title,
			"team_id":     team.ID,
		})
	}
	s.logger.Info("Team registration cancelled",
		zap.String("event_id", event.ID),
		zap.String("team_id", team.ID),
		zap.Int("rows", len(users)))
	return nil
}

func (s *registrationService) CreatePaymentOrder(ctx context.Context, req domain.RegisterRequest) (*domain.PaymentOrder, error) {
	if s.payments == nil {
		return nil, errors.NewExternalError("Payment provider is not configured", nil)
	}
	elig, err := s.checkEligibility(ctx, req)
	if err != nil {
		return nil, err
	}
	if !elig.event.IsPaid {
		return nil, errors.NewInvalidStateError("Event does not require payment")
	}

	notes := req.OrderNotes()
	receipt := "rcpt_" + strings.ReplaceAll(s.newID(), "-", "")
	if len(receipt) > 40 {
		receipt = receipt[:40]
	}

	order, err := s.payments.CreateOrder(ctx, elig.amountDue(), elig.event.Currency, receipt, notes)
	if err != nil {
		s.logger.Error("Failed to create payment order", zap.String("event_id", elig.event.ID), zap.Error(err))
		if _, ok := errors.AsAppError(err); ok {
			return nil, err
		}
		return nil, errors.NewExternalError("Failed to create payment order", err)
	}

	s.logger.Info("Payment order created",
		zap.String("event_id", elig.event.ID),
		zap.String("user_id", req.UserID),
		zap.String("order_id", order.OrderID),
		zap.Float64("amount", order.Amount))
	return order, nil
}

func (s *registrationService) VerifyPayment(ctx context.Context, v domain.PaymentVerification) (*domain.RegistrationResult, error) {
	if s.payments == nil {
		return nil, errors.NewExternalError("Payment provider is not configured", nil)
	}
	if v.OrderID == "" || v.PaymentID == "" || v.Signature == "" {
		return nil, errors.NewValidationError("order_id, payment_id and signature are required", nil)
	}
	if !s.payments.VerifySignature(v.OrderID, v.PaymentID, v.Signature) {
		s.logger.Warn("Payment signature mismatch", zap.String("order_id", v.OrderID), zap.String("payment_id", v.PaymentID))
		return nil, errors.NewValidationError("Invalid payment signature", nil)
	}

	details, err := s.payments.FetchPayment(ctx, v.PaymentID)
	if err != nil {
		return nil, providerError(err, "Failed to fetch payment")
	}
	if details.Status != domain.PaymentCaptured {
		return nil, errors.NewInvalidStateError("Payment is not captured").WithDetail("payment_status", details.Status)
	}
	if details.OrderID != "" && details.OrderID != v.OrderID {
		return nil, errors.NewValidationError("Payment does not belong to this order", nil)
	}

	order, err := s.payments.FetchOrder(ctx, v.OrderID)
	if err != nil {
		return nil, providerError(err, "Failed to fetch payment order")
	}
	if field, ok := orderMatches(order, v.RegisterRequest); !ok {
		s.logger.Warn("Payment order opened for another registration",
			zap.String("order_id", v.OrderID),
			zap.String("payment_id", v.PaymentID),
			zap.String("event_id", v.EventID),
			zap.String("user_id", v.UserID),
			zap.String("field", field))
		return nil, errors.NewAuthorizationError("Payment order was opened for a different registration").WithDetail("field", field)
	}

	return s.FinalizeFromPayment(ctx, v.RegisterRequest, domain.CapturedPayment{
		PaymentID: v.PaymentID,
		OrderID:   v.OrderID,
		Amount:    details.Amount,
		Currency:  details.Currency,
	})
}

// orderMatches compares the notes an order was opened with against the
// registration being finalized, returning the first differing note.
func orderMatches(order *domain.PaymentOrder, req domain.RegisterRequest) (string, bool) {
	want := req.OrderNotes()
	for _, key := range []string{
		domain.OrderNoteEventID,
		domain.OrderNoteUserID,
		domain.OrderNoteParticipationType,
		domain.OrderNoteTeamID,
	} {
		if order.Notes[key] != want[key] {
			return key, false
		}
	}
	return "", true
}

func providerError(err error, msg string) error {
	if _, ok := errors.AsAppError(err); ok {
		return err
	}
	return errors.NewExternalError(msg, err)
}

func (s *registrationService) FinalizeFromPayment(ctx context.Context, req domain.RegisterRequest, payment domain.CapturedPayment) (*domain.RegistrationResult, error) {
	if payment.PaymentID == "" {
		return nil, errors.NewValidationError("payment_id is required", nil)
	}

	acquired, release, err := s.cache.AcquirePaymentLock(ctx, payment.PaymentID)
	if err != nil {
		// the store still refuses a payment that already backs a registration
		s.logger.Warn("Payment lock unavailable, continuing without it", zap.String("payment_id", payment.PaymentID), zap.Error(err))
	} else if !acquired {
		return nil, errors.NewConflictError("Payment is already being processed")
	}
	defer release()

	used, err := s.registrations.ListByPaymentID(ctx, payment.PaymentID)
	if err != nil {
		return nil, storeError(err, "Failed to look up payment")
	}
	if len(used) > 0 {
		return s.replayedPayment(req, payment.PaymentID, used)
	}

	elig, err := s.checkEligibility(ctx, req)
	if err != nil {
		s.logger.Warn("Paid registration refused",
			zap.String("event_id", req.EventID),
			zap.String("user_id", req.UserID),
			zap.String("payment_id", payment.PaymentID),
			zap.Error(err))
		return nil, err
	}
	if !elig.event.IsPaid {
		return nil, errors.NewInvalidStateError("Event does not require payment")
	}
	if !strings.EqualFold(payment.Currency, elig.event.Currency) {
		return nil, errors.NewValidationError("Payment currency does not match the event", map[string]interface{}{
			"expected": elig.event.Currency,
			"paid":     payment.Currency,
		})
	}
	if expected := elig.amountDue(); domain.RoundMoney(payment.Amount) < expected {
		return nil, errors.NewInvalidStateError("Paid amount is below the registration fee").
			WithDetail("expected", expected).
			WithDetail("paid", payment.Amount)
	}

	return s.commit(ctx, elig, &paymentInfo{
		amountPaid: domain.RoundMoney(payment.Amount),
		paymentID:  payment.PaymentID,
		orderID:    payment.OrderID,
	})
}

// replayedPayment answers a payment that already backs registrations. The
// original payer gets the same result again; anyone else is refused.
func (s *registrationService) replayedPayment(req domain.RegisterRequest, paymentID string, used []*domain.Registration) (*domain.RegistrationResult, error) {
	var result *domain.RegistrationResult
	for _, reg := range used {
		if reg.EventID == req.EventID && reg.UserID == req.UserID {
			result = &domain.RegistrationResult{Registration: reg}
			break
		}
	}
	if result == nil {
		s.logger.Warn("Payment reused for another registration",
			zap.String("payment_id", paymentID),
			zap.String("event_id", req.EventID),
			zap.String("user_id", req.UserID),
			zap.String("paid_event_id", used[0].EventID))
		return nil, errors.NewConflictError("Payment has already been used for another registration")
	}
	for _, reg := range used {
		if reg != result.Registration {
			result.TeamMembers = append(result.TeamMembers, reg)
		}
	}
	s.logger.Info("Payment already finalized", zap.String("payment_id", paymentID), zap.String("event_id", req.EventID))
	return result, nil
}

// webhookEvent is the subset of the provider's webhook body we act on
type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Status  string `json:"status"`
				Amount  int64  `json:"amount"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

func (s *registrationService) HandlePaymentWebhook(ctx context.Context, body []byte, signature string) error {
	if s.payments == nil || !s.payments.VerifyWebhookSignature(body, signature) {
		s.logger.Warn("Rejected webhook with invalid signature")
		return errors.NewAuthorizationError("Invalid webhook signature")
	}

	var evt webhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return errors.NewValidationError("Malformed webhook body", map[string]interface{}{"error": err.Error()})
	}
	payment := evt.Payload.Payment.Entity

	switch evt.Event {
	case WebhookPaymentFailed:
		if payment.ID == "" {
			return errors.NewValidationError("Webhook payment id is missing", nil)
		}
		n, err := s.registrations.MarkPaymentFailed(ctx, payment.ID)
		if err != nil {
			s.logger.Error("Failed to mark payment failed", zap.String("payment_id", payment.ID), zap.Error(err))
			return storeError(err, "Failed to record payment failure")
		}
		s.logger.Info("Payment failure recorded", zap.String("payment_id", payment.ID), zap.Int64("registrations", n))
	case WebhookPaymentCaptured:
		s.logger.Info("Payment captured",
			zap.String("payment_id", payment.ID),
			zap.String("order_id", payment.OrderID),
			zap.Int64("amount_minor", payment.Amount))
	default:
		s.logger.Debug("Ignoring webhook event", zap.String("event", evt.Event))
	}
	return nil
}
