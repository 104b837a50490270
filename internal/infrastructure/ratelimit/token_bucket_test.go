package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 2, 19, 12, 0, 0, 0, time.UTC)}
}

func TestTokenBucket_AllowUntilEmpty(t *testing.T) {
	clock := newClock()
	tb := newTokenBucket(3, 1, clock.Now)

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
	assert.Equal(t, 0, tb.Tokens())
}

func TestTokenBucket_FractionalRefill(t *testing.T) {
	clock := newClock()
	// 60 por minuto = 1 token por segundo
	tb := newTokenBucket(60, 1, clock.Now)
	for i := 0; i < 60; i++ {
		require.True(t, tb.Allow())
	}
	require.False(t, tb.Allow())

	clock.Advance(500 * time.Millisecond)
	assert.False(t, tb.Allow(), "medio token no alcanza")

	clock.Advance(500 * time.Millisecond)
	assert.True(t, tb.Allow())
}

func TestTokenBucket_CapsAtCapacity(t *testing.T) {
	clock := newClock()
	tb := newTokenBucket(5, 10, clock.Now)

	clock.Advance(time.Hour)
	assert.Equal(t, 5, tb.Tokens())
}

func TestRateLimiterCollection_Allow(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	rl := newRateLimiterCollection(2, clock.Now)

	d, err := rl.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 2, d.Limit)
	assert.Equal(t, 1, d.Remaining)

	d, _ = rl.Allow(ctx, "10.0.0.1")
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	d, _ = rl.Allow(ctx, "10.0.0.1")
	assert.False(t, d.Allowed)
	// 2 por minuto: un token cada 30s
	assert.Equal(t, 30*time.Second, d.RetryAfter)
	assert.Equal(t, clock.Now().Add(30*time.Second), d.ResetAt)

	// otro cliente tiene su propio bucket
	d, _ = rl.Allow(ctx, "10.0.0.2")
	assert.True(t, d.Allowed)
	assert.Equal(t, 2, rl.Clients())
}

func TestRateLimiterCollection_CleanupIdleBuckets(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	rl := newRateLimiterCollection(10, clock.Now)

	_, _ = rl.Allow(ctx, "old-client")
	clock.Advance(time.Hour)
	_, _ = rl.Allow(ctx, "new-client")

	assert.Equal(t, 1, rl.Clients())
}

func TestRateLimiterCollection_Concurrent(t *testing.T) {
	ctx := context.Background()
	rl := NewRateLimiterCollection(50)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, _ := rl.Allow(ctx, "same-client")
			if d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// el refill durante la prueba puede sumar alguno
	assert.GreaterOrEqual(t, allowed, 50)
	assert.LessOrEqual(t, allowed, 52)
}
