package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"btc-price-service/internal/domain/apperror"
	"btc-price-service/internal/infrastructure/config"

	"github.com/avast/retry-go/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func refreshConfig() config.RefreshConfig {
	return config.RefreshConfig{
		Enabled:       true,
		Schedule:      "@every 1m",
		MaxAttempts:   3,
		RetryDelay:    time.Millisecond,
		MaxRetryDelay: 5 * time.Millisecond,
	}
}

func TestNewRefresher_InvalidSchedule(t *testing.T) {
	cfg := refreshConfig()
	cfg.Schedule = "every minute please"

	_, err := NewRefresher(new(MockPriceService), cfg)
	assert.Error(t, err)
}

func TestRefresher_RunOnceRetriesTransientErrors(t *testing.T) {
	ctx := context.Background()
	svc := new(MockPriceService)
	sample := mustSample(t, "50000", time.Now())

	svc.On("RefreshCurrentPrice", ctx).Return(nil, apperror.Network("Failed to connect to CoinGecko API", errors.New("reset"))).Twice()
	svc.On("RefreshCurrentPrice", ctx).Return(sample, nil).Once()

	r, err := NewRefresher(svc, refreshConfig())
	require.NoError(t, err)

	require.NoError(t, r.RunOnce(ctx))
	svc.AssertNumberOfCalls(t, "RefreshCurrentPrice", 3)
}

func TestRefresher_RunOnceGivesUp(t *testing.T) {
	ctx := context.Background()
	svc := new(MockPriceService)
	rateLimited := apperror.RateLimit("CoinGecko API rate limit exceeded. Try again in 60 seconds.", 60*time.Second)
	svc.On("RefreshCurrentPrice", ctx).Return(nil, rateLimited)

	r, err := NewRefresher(svc, refreshConfig())
	require.NoError(t, err)

	start := time.Now()
	err = r.RunOnce(ctx)
	require.Error(t, err)
	assert.Equal(t, apperror.KindRateLimit, apperror.KindOf(err))
	svc.AssertNumberOfCalls(t, "RefreshCurrentPrice", 3)
	// el Retry-After de 60s queda acotado por MaxRetryDelay
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRefresher_DoesNotRetryUnknownSymbol(t *testing.T) {
	ctx := context.Background()
	svc := new(MockPriceService)
	svc.On("RefreshCurrentPrice", ctx).Return(nil, apperror.UnknownSymbol("bitcoin"))

	r, err := NewRefresher(svc, refreshConfig())
	require.NoError(t, err)

	assert.Error(t, r.RunOnce(ctx))
	svc.AssertNumberOfCalls(t, "RefreshCurrentPrice", 1)
}

func TestRefresher_StartStop(t *testing.T) {
	svc := new(MockPriceService)
	svc.On("RefreshCurrentPrice", mock.Anything).Return(mustSample(t, "1", time.Now()), nil).Maybe()

	r, err := NewRefresher(svc, refreshConfig())
	require.NoError(t, err)

	require.NoError(t, r.Start(context.Background()))
	require.NoError(t, r.Start(context.Background()), "Start es idempotente")

	select {
	case <-r.Stop().Done():
	case <-time.After(time.Second):
		t.Fatal("Stop did not finish")
	}

	// Stop sin Start
	<-r.Stop().Done()
}

func TestRateLimitAwareDelay(t *testing.T) {
	cfg := &retry.Config{}
	hint := apperror.RateLimit("slow down", 42*time.Second)

	assert.Equal(t, 42*time.Second, rateLimitAwareDelay(1, hint, cfg))
	assert.Equal(t, 42*time.Second, rateLimitAwareDelay(1, errors.Join(errors.New("wrapped"), hint), cfg))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(apperror.Network("x", nil)))
	assert.True(t, isRetryable(apperror.Database("x", nil)))
	assert.True(t, isRetryable(errors.New("plain")))
	assert.False(t, isRetryable(apperror.Validation("x")))
	assert.False(t, isRetryable(apperror.UnknownSymbol("bitcoin")))
}
