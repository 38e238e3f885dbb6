// Package notification delivers notifications asynchronously through a
// bounded queue drained by a worker pool.
package notification

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
	"github.com/tarunbommali/nxtgen-arena-sub001/internal/service"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/logger"
)

// maxFailureLog bounds the in-memory failure log
const maxFailureLog = 100

// Sender delivers one notification
type Sender interface {
	Send(ctx context.Context, n domain.Notification) error
}

// Config tunes the worker pool
type Config struct {
	Workers      int
	QueueSize    int
	MaxAttempts  int
	RetryBackoff time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 200 * time.Millisecond
	}
	return c
}

// Failure records a notification that exhausted its attempts
type Failure struct {
	Notification domain.Notification `json:"notification"`
	Error        string              `json:"error"`
	Attempts     int                 `json:"attempts"`
	FailedAt     time.Time           `json:"failed_at"`
}

// Dispatcher implements service.NotificationService
type Dispatcher struct {
	sender Sender
	cfg    Config
	logger *logger.Logger

	mu      sync.RWMutex
	queue   chan domain.Notification
	running bool
	cancel  context.CancelFunc
	group   *errgroup.Group

	failMu   sync.Mutex
	failures []Failure
}

var _ service.NotificationService = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher; call Start before dispatching
func NewDispatcher(sender Sender, cfg Config, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		sender: sender,
		cfg:    cfg.withDefaults(),
		logger: log.Named("notifications"),
	}
}

// Start launches the delivery workers
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return nil
	}

	workCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	group, workCtx := errgroup.WithContext(workCtx)
	queue := make(chan domain.Notification, d.cfg.QueueSize)

	for i := 0; i < d.cfg.Workers; i++ {
		group.Go(func() error {
			for n := range queue {
				d.deliver(workCtx, n)
			}
			return nil
		})
	}

	d.queue = queue
	d.cancel = cancel
	d.group = group
	d.running = true
	d.logger.Info("Notification dispatcher started",
		zap.Int("workers", d.cfg.Workers),
		zap.Int("queue_size", d.cfg.QueueSize))
	return nil
}

// Stop closes the queue and waits for the workers to drain it. When ctx
// expires first, in-flight deliveries are cancelled.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	close(d.queue)
	group, cancel := d.group, d.cancel
	d.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- group.Wait() }()

	select {
	case err := <-done:
		cancel()
		d.logger.Info("Notification dispatcher stopped")
		return err
	case <-ctx.Done():
		cancel()
		<-done
		d.logger.Warn("Notification dispatcher stopped before draining the queue")
		return ctx.Err()
	}
}

// Dispatch enqueues n without blocking. It returns false when the queue is
// full or the dispatcher is not running.
func (d *Dispatcher) Dispatch(n domain.Notification) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.running {
		return false
	}
	select {
	case d.queue <- n:
		return true
	default:
		d.logger.Warn("Notification queue full", zap.String("kind", string(n.Kind)), zap.String("user_id", n.UserID))
		return false
	}
}

// Failures returns the most recent deliveries that exhausted their attempts
func (d *Dispatcher) Failures() []Failure {
	d.failMu.Lock()
	defer d.failMu.Unlock()
	out := make([]Failure, len(d.failures))
	copy(out, d.failures)
	return out
}

func (d *Dispatcher) deliver(ctx context.Context, n domain.Notification) {
	var err error
	attempt := 0
	for attempt < d.cfg.MaxAttempts {
		attempt++
		if err = d.sender.Send(ctx, n); err == nil {
			d.logger.Debug("Notification delivered",
				zap.String("id", n.ID),
				zap.String("kind", string(n.Kind)),
				zap.Int("attempt", attempt))
			return
		}
		if stderrors.Is(err, context.Canceled) || attempt == d.cfg.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-time.After(d.cfg.RetryBackoff * time.Duration(attempt)):
			continue
		}
		break
	}

	d.logger.Error("Notification delivery failed",
		zap.String("id", n.ID),
		zap.String("kind", string(n.Kind)),
		zap.String("user_id", n.UserID),
		zap.Int("attempts", attempt),
		zap.Error(err))

	d.failMu.Lock()
	defer d.failMu.Unlock()
	d.failures = append(d.failures, Failure{
		Notification: n,
		Error:        err.Error(),
		Attempts:     attempt,
		FailedAt:     time.Now().UTC(),
	})
	if len(d.failures) > maxFailureLog {
		d.failures = d.failures[len(d.failures)-maxFailureLog:]
	}
}
