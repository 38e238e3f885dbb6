package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
	"github.com/tarunbommali/nxtgen-arena-sub001/internal/repository"
	"github.com/tarunbommali/nxtgen-arena-sub001/internal/repository/memstore"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/errors"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/logger"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/redis"
)

var baseTime = time.Date(2024, 12, 10, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []domain.Notification
	refuse bool
}

func (n *fakeNotifier) Dispatch(notification domain.Notification) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.refuse {
		return false
	}
	n.sent = append(n.sent, notification)
	return true
}

func (n *fakeNotifier) kinds(userID string) []domain.NotificationKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []domain.NotificationKind
	for _, s := range n.sent {
		if s.UserID == userID {
			out = append(out, s.Kind)
		}
	}
	return out
}

// fakeGateway accepts signatures of the form "sig:<order>|<payment>"
type fakeGateway struct {
	mu       sync.Mutex
	payments map[string]*domain.PaymentDetails
	orders   map[string]*domain.PaymentOrder
	fetchErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		payments: make(map[string]*domain.PaymentDetails),
		orders:   make(map[string]*domain.PaymentOrder),
	}
}

func signFor(orderID, paymentID string) string {
	return "sig:" + orderID + "|" + paymentID
}

func (g *fakeGateway) capture(paymentID, orderID string, amount float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payments[paymentID] = &domain.PaymentDetails{ID: paymentID, OrderID: orderID, Status: domain.PaymentCaptured, Amount: amount, Currency: "INR"}
}

func (g *fakeGateway) CreateOrder(ctx context.Context, amount float64, currency, receipt string, notes map[string]string) (*domain.PaymentOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	order := &domain.PaymentOrder{
		OrderID:  fmt.Sprintf("order_%d", len(g.orders)+1),
		Amount:   amount,
		Currency: currency,
		KeyID:    "rzp_test",
		Receipt:  receipt,
		Notes:    notes,
	}
	g.orders[order.OrderID] = order
	c := *order
	return &c, nil
}

func (g *fakeGateway) FetchOrder(ctx context.Context, orderID string) (*domain.PaymentOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.orders[orderID]
	if !ok {
		return nil, errors.NewNotFoundError("Order not found")
	}
	c := *o
	return &c, nil
}

func (g *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return signature == signFor(orderID, paymentID)
}

func (g *fakeGateway) FetchPayment(ctx context.Context, paymentID string) (*domain.PaymentDetails, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	p, ok := g.payments[paymentID]
	if !ok {
		return nil, errors.NewNotFoundError("Payment not found")
	}
	c := *p
	return &c, nil
}

func (g *fakeGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	return signature == "valid"
}

type fixture struct {
	repos    *repository.Repositories
	clock    *fakeClock
	notifier *fakeNotifier
	gateway  *fakeGateway
	cache    *CacheService
	mr       *miniredis.Miniredis

	events        EventService
	registrations RegistrationService
	teams         TeamService
	submissions   SubmissionService
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct{ redis bool }

func withRedis() fixtureOption { return func(c *fixtureConfig) { c.redis = true } }

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	var cfg fixtureConfig
	for _, o := range opts {
		o(&cfg)
	}

	log := logger.NewNop()
	f := &fixture{
		repos:    memstore.New().Repositories(),
		clock:    &fakeClock{now: baseTime},
		notifier: &fakeNotifier{},
		gateway:  newFakeGateway(),
	}

	var rc *redis.Client
	if cfg.redis {
		f.mr = miniredis.RunT(t)
		var err error
		rc, err = redis.NewClient("redis://"+f.mr.Addr(), "test", nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = rc.Close() })
	}
	f.cache = NewCacheService(rc, log, time.Minute)

	svcOpts := []Option{WithClock(f.clock.Now)}
	f.events = NewEventService(f.repos.Events, f.cache, log, svcOpts...)
	f.registrations = NewRegistrationService(f.repos.Events, f.repos.Teams, f.repos.Registrations, f.gateway, f.cache, f.notifier, log, svcOpts...)
	f.teams = NewTeamService(f.repos.Events, f.repos.Teams, f.repos.Registrations, f.notifier, log, svcOpts...)
	f.submissions = NewSubmissionService(f.repos.Events, f.repos.Teams, f.repos.Registrations, f.repos.Submissions, f.cache, f.notifier, log, svcOpts...)
	return f
}

// paidThrough opens an order for req and captures amount against it,
// returning the checkout proof.
func (f *fixture) paidThrough(t *testing.T, req domain.RegisterRequest, paymentID string, amount float64) domain.PaymentVerification {
	t.Helper()
	order, err := f.registrations.CreatePaymentOrder(context.Background(), req)
	require.NoError(t, err)
	f.gateway.capture(paymentID, order.OrderID, amount)
	return domain.PaymentVerification{
		RegisterRequest: req,
		OrderID:         order.OrderID,
		PaymentID:       paymentID,
		Signature:       signFor(order.OrderID, paymentID),
	}
}

func capturedPayment(paymentID string, amount float64) domain.CapturedPayment {
	return domain.CapturedPayment{PaymentID: paymentID, OrderID: "order_" + paymentID, Amount: amount, Currency: "INR"}
}

// publishedEvent creates and publishes an event whose registration window
// contains baseTime.
func (f *fixture) publishedEvent(t *testing.T, mutate func(e *domain.Event)) *domain.Event {
	t.Helper()
	e := &domain.Event{
		Title:             "Build Week",
		RegistrationStart: baseTime.Add(-24 * time.Hour),
		RegistrationEnd:   baseTime.Add(24 * time.Hour),
		EventStart:        baseTime.Add(48 * time.Hour),
		EventEnd:          baseTime.Add(72 * time.Hour),
	}
	if mutate != nil {
		mutate(e)
	}
	created, err := f.events.CreateEvent(context.Background(), e)
	require.NoError(t, err)
	published, err := f.events.UpdateStatus(context.Background(), created.ID, domain.EventStatusPublished)
	require.NoError(t, err)
	return published
}

// teamOf creates a team led by leader and accepts the given members
func (f *fixture) teamOf(t *testing.T, eventID, name, leader string, members ...string) *domain.Team {
	t.Helper()
	ctx := context.Background()
	team, err := f.teams.CreateTeam(ctx, eventID, leader, name)
	require.NoError(t, err)
	for _, m := range members {
		req, err := f.teams.Invite(ctx, team.ID, leader, m)
		require.NoError(t, err)
		_, err = f.teams.Respond(ctx, team.ID, req.ID, m, true)
		require.NoError(t, err)
	}
	team, err = f.teams.GetTeam(ctx, team.ID)
	require.NoError(t, err)
	return team
}

func requireAppErr(t *testing.T, err error, want errors.ErrorType) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, want, errors.TypeOf(err), "unexpected error: %v", err)
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func timePtr(v time.Time) *time.Time { return &v }

// awaitCached blocks until an asynchronous cache fill for key has landed
func (f *fixture) awaitCached(t *testing.T, key string) {
	t.Helper()
	require.Eventually(t, func() bool { return f.mr.Exists(key) }, time.Second, 5*time.Millisecond)
}
