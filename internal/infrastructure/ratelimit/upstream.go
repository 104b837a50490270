package ratelimit

import (
	"context"
	"time"

	"btc-price-service/internal/infrastructure/logging"
)

const (
	// Plan público/demo de CoinGecko: ~30 llamadas por minuto
	CoinGeckoDefaultRequestsPerMinute = 30
	CoinGeckoDefaultBurst             = 5
)

// UpstreamLimiter throttles outbound calls to a third-party API.
// Callers block in Wait until a token is available or ctx ends.
type UpstreamLimiter struct {
	bucket  *TokenBucket
	service string
	after   func(time.Duration) <-chan time.Time
}

// NewUpstreamLimiter crea un limitador de salida. burst <= 0 usa un token.
func NewUpstreamLimiter(service string, requestsPerMinute, burst int) *UpstreamLimiter {
	return newUpstreamLimiter(service, requestsPerMinute, burst, time.Now, time.After)
}

func newUpstreamLimiter(service string, requestsPerMinute, burst int, now func() time.Time, after func(time.Duration) <-chan time.Time) *UpstreamLimiter {
	if burst <= 0 {
		burst = 1
	}

	logging.Info(context.Background(), "Upstream rate limiter initialized", logging.Fields{
		"service":             service,
		"requests_per_minute": requestsPerMinute,
		"burst":               burst,
	})

	return &UpstreamLimiter{
		bucket:  newTokenBucket(burst, float64(requestsPerMinute)/60.0, now),
		service: service,
		after:   after,
	}
}

// Allow consume un token sin esperar
func (u *UpstreamLimiter) Allow() bool {
	return u.bucket.Allow()
}

// Wait blocks until a token is consumed. It returns ctx.Err() when the context ends first.
func (u *UpstreamLimiter) Wait(ctx context.Context) error {
	var waited time.Duration
	for {
		wait, ok := u.reserve()
		if ok {
			if waited > 10*time.Millisecond {
				logging.Debug(ctx, "Upstream rate limiter delayed request", logging.Fields{
					"service":   u.service,
					"wait_time": waited.String(),
				})
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-u.after(wait):
			waited += wait
		}
	}
}

// reserve consume un token o devuelve cuánto falta para el siguiente
func (u *UpstreamLimiter) reserve() (time.Duration, bool) {
	tb := u.bucket
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens >= 1 {
		tb.tokens--
		return 0, true
	}
	return tb.untilNextToken(), false
}
