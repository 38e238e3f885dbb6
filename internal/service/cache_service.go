package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/logger"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/redis"
)

// CacheService provides cache-aside reads and payment idempotency locks.
// A nil Redis client disables caching: reads go straight to the fallback and
// locks are always granted.
type CacheService struct {
	redis    *redis.Client
	logger   *logger.Logger
	eventTTL time.Duration
}

// NewCacheService creates a new cache service
func NewCacheService(redisClient *redis.Client, log *logger.Logger, eventTTL time.Duration) *CacheService {
	if eventTTL <= 0 {
		eventTTL = redis.TTLEvent
	}
	return &CacheService{
		redis:    redisClient,
		logger:   log.Named("cache"),
		eventTTL: eventTTL,
	}
}

// Enabled reports whether a Redis backend is configured
func (c *CacheService) Enabled() bool {
	return c != nil && c.redis != nil
}

// GetEvent retrieves an event with the cache-aside pattern
func (c *CacheService) GetEvent(ctx context.Context, eventID string, dbFallback func(ctx context.Context, id string) (*domain.Event, error)) (*domain.Event, error) {
	if !c.Enabled() {
		return dbFallback(ctx, eventID)
	}

	key := c.redis.KeyBuilder.KeyEvent(eventID)
	var event domain.Event
	if c.read(ctx, key, &event) {
		return &event, nil
	}

	fresh, err := dbFallback(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if fresh != nil {
		go c.writeAsync(key, fresh, c.eventTTL)
	}
	return fresh, nil
}

// InvalidateEvent drops the cached copy of an event
func (c *CacheService) InvalidateEvent(ctx context.Context, eventID string) {
	if !c.Enabled() {
		return
	}
	c.invalidate(ctx, c.redis.KeyBuilder.KeyEvent(eventID))
}

// GetLeaderboard retrieves a leaderboard with the cache-aside pattern
func (c *CacheService) GetLeaderboard(ctx context.Context, eventID string, dbFallback func(ctx context.Context, id string) ([]*domain.LeaderboardEntry, error)) ([]*domain.LeaderboardEntry, error) {
	if !c.Enabled() {
		return dbFallback(ctx, eventID)
	}

	key := c.redis.KeyBuilder.KeyLeaderboard(eventID)
	var entries []*domain.LeaderboardEntry
	if c.read(ctx, key, &entries) {
		return entries, nil
	}

	fresh, err := dbFallback(ctx, eventID)
	if err != nil {
		return nil, err
	}
	go c.writeAsync(key, fresh, redis.TTLLeaderboard)
	return fresh, nil
}

// InvalidateLeaderboard drops the cached leaderboard of an event
func (c *CacheService) InvalidateLeaderboard(ctx context.Context, eventID string) {
	if !c.Enabled() {
		return
	}
	c.invalidate(ctx, c.redis.KeyBuilder.KeyLeaderboard(eventID))
}

// AcquirePaymentLock takes the finalisation lock for a payment. It returns
// false when another finalisation holds the lock. The release func is never nil.
func (c *CacheService) AcquirePaymentLock(ctx context.Context, paymentID string) (bool, func(), error) {
	if !c.Enabled() {
		return true, func() {}, nil
	}

	key := c.redis.KeyBuilder.KeyPaymentLock(paymentID)
	acquired, err := c.redis.SetNX(ctx, key, time.Now().Unix(), redis.TTLPaymentLock)
	if err != nil {
		return false, func() {}, err
	}
	if !acquired {
		return false, func() {}, nil
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := c.redis.Delete(ctx, key); err != nil {
			c.logger.Error("Failed to release payment lock", zap.String("payment_id", paymentID), zap.Error(err))
		}
	}
	return true, release, nil
}

// HealthCheck performs a health check on the cache system
func (c *CacheService) HealthCheck(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}

	start := time.Now()
	err := c.redis.Health(ctx)
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("Cache health check failed", zap.Duration("duration", duration), zap.Error(err))
		return err
	}
	c.logger.Debug("Cache health check passed", zap.Duration("duration", duration))
	return nil
}

// read decodes key into dst. Misses, Redis errors and corrupt entries all
// report false so the caller falls back to the store.
func (c *CacheService) read(ctx context.Context, key string, dst interface{}) bool {
	data, err := c.redis.Get(ctx, key)
	if err != nil {
		if !redis.IsNil(err) {
			c.logger.Warn("Cache error, falling back to store", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal([]byte(data), dst); err != nil {
		c.logger.Warn("Cache entry corrupted, falling back to store", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *CacheService) writeAsync(key string, value interface{}, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("Failed to marshal value for caching", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.redis.Set(ctx, key, string(data), ttl); err != nil {
		c.logger.Error("Failed to cache value", zap.String("key", key), zap.Error(err))
	}
}

func (c *CacheService) invalidate(ctx context.Context, keys ...string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := c.redis.Delete(ctx, keys...); err != nil {
		c.logger.Error("Failed to invalidate cache keys", zap.Strings("keys", keys), zap.Error(err))
	}
}
