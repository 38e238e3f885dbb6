package service

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/logger"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/redis"
)

func setupCache(t *testing.T) (*miniredis.Miniredis, *CacheService) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redis.NewClient("redis://"+mr.Addr(), "test", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewCacheService(client, logger.NewNop(), time.Minute)
}

type countingLoader struct {
	calls int
	event *domain.Event
	err   error
}

func (l *countingLoader) load(ctx context.Context, id string) (*domain.Event, error) {
	l.calls++
	return l.event, l.err
}

func TestCacheService_GetEvent(t *testing.T) {
	ctx := context.Background()
	mr, cache := setupCache(t)
	loader := &countingLoader{event: &domain.Event{ID: "e1", Title: "Hack"}}
	key := cache.redis.KeyBuilder.KeyEvent("e1")

	got, err := cache.GetEvent(ctx, "e1", loader.load)
	require.NoError(t, err)
	assert.Equal(t, "Hack", got.Title)
	require.Eventually(t, func() bool { return mr.Exists(key) }, time.Second, 5*time.Millisecond)
	assert.Equal(t, time.Minute, mr.TTL(key))

	got, err = cache.GetEvent(ctx, "e1", loader.load)
	require.NoError(t, err)
	assert.Equal(t, "Hack", got.Title)
	assert.Equal(t, 1, loader.calls)

	cache.InvalidateEvent(ctx, "e1")
	assert.False(t, mr.Exists(key))
	_, err = cache.GetEvent(ctx, "e1", loader.load)
	require.NoError(t, err)
	assert.Equal(t, 2, loader.calls)
}

func TestCacheService_Fallbacks(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		setup func(mr *miniredis.Miniredis, key string)
	}{
		{"corrupt entry", func(mr *miniredis.Miniredis, key string) { _ = mr.Set(key, "{not json") }},
		{"redis error", func(mr *miniredis.Miniredis, key string) { mr.SetError("ERR simulated failure") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr, cache := setupCache(t)
			tt.setup(mr, cache.redis.KeyBuilder.KeyEvent("e1"))
			loader := &countingLoader{event: &domain.Event{ID: "e1"}}

			got, err := cache.GetEvent(ctx, "e1", loader.load)
			require.NoError(t, err)
			assert.Equal(t, "e1", got.ID)
			assert.Equal(t, 1, loader.calls)
		})
	}
}

func TestCacheService_DoesNotCacheMissesOrErrors(t *testing.T) {
	ctx := context.Background()
	mr, cache := setupCache(t)
	key := cache.redis.KeyBuilder.KeyEvent("e1")

	missing := &countingLoader{}
	got, err := cache.GetEvent(ctx, "e1", missing.load)
	require.NoError(t, err)
	assert.Nil(t, got)

	broken := &countingLoader{err: stderrors.New("store down")}
	_, err = cache.GetEvent(ctx, "e1", broken.load)
	assert.Error(t, err)

	time.Sleep(20 * time.Millisecond)
	assert.False(t, mr.Exists(key))
}

func TestCacheService_Leaderboard(t *testing.T) {
	ctx := context.Background()
	mr, cache := setupCache(t)
	key := cache.redis.KeyBuilder.KeyLeaderboard("e1")

	calls := 0
	load := func(ctx context.Context, id string) ([]*domain.LeaderboardEntry, error) {
		calls++
		return []*domain.LeaderboardEntry{{Rank: 1, SubmissionID: "s1", ProjectTitle: "Atlas"}}, nil
	}

	board, err := cache.GetLeaderboard(ctx, "e1", load)
	require.NoError(t, err)
	require.Len(t, board, 1)
	require.Eventually(t, func() bool { return mr.Exists(key) }, time.Second, 5*time.Millisecond)
	assert.Equal(t, redis.TTLLeaderboard, mr.TTL(key))

	board, err = cache.GetLeaderboard(ctx, "e1", load)
	require.NoError(t, err)
	assert.Equal(t, "Atlas", board[0].ProjectTitle)
	assert.Equal(t, 1, calls)

	cache.InvalidateLeaderboard(ctx, "e1")
	assert.False(t, mr.Exists(key))
}

func TestCacheService_PaymentLock(t *testing.T) {
	ctx := context.Background()
	mr, cache := setupCache(t)
	key := cache.redis.KeyBuilder.KeyPaymentLock("pay_1")

	ok, release, err := cache.AcquirePaymentLock(ctx, "pay_1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, redis.TTLPaymentLock, mr.TTL(key))

	again, releaseAgain, err := cache.AcquirePaymentLock(ctx, "pay_1")
	require.NoError(t, err)
	assert.False(t, again)
	releaseAgain()
	assert.True(t, mr.Exists(key))

	release()
	assert.False(t, mr.Exists(key))

	ok, release, err = cache.AcquirePaymentLock(ctx, "pay_1")
	require.NoError(t, err)
	assert.True(t, ok)
	release()

	mr.SetError("ERR simulated failure")
	ok, release, err = cache.AcquirePaymentLock(ctx, "pay_2")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.NotNil(t, release)
}

func TestCacheService_Disabled(t *testing.T) {
	ctx := context.Background()

	for name, cache := range map[string]*CacheService{
		"nil redis":    NewCacheService(nil, logger.NewNop(), 0),
		"nil receiver": nil,
	} {
		t.Run(name, func(t *testing.T) {
			assert.False(t, cache.Enabled())

			loader := &countingLoader{event: &domain.Event{ID: "e1"}}
			for i := 0; i < 2; i++ {
				_, err := cache.GetEvent(ctx, "e1", loader.load)
				require.NoError(t, err)
			}
			assert.Equal(t, 2, loader.calls)

			ok, release, err := cache.AcquirePaymentLock(ctx, "pay_1")
			require.NoError(t, err)
			assert.True(t, ok)
			release()

			cache.InvalidateEvent(ctx, "e1")
			cache.InvalidateLeaderboard(ctx, "e1")
			assert.NoError(t, cache.HealthCheck(ctx))
		})
	}
}

func TestCacheService_HealthCheck(t *testing.T) {
	mr, cache := setupCache(t)
	assert.NoError(t, cache.HealthCheck(context.Background()))

	mr.SetError("ERR simulated failure")
	assert.Error(t, cache.HealthCheck(context.Background()))
}
