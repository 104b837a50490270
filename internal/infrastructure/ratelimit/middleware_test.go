package ratelimit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"btc-price-service/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (Decision, error) {
	return Decision{}, ErrUnavailable
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(h http.Handler, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitMiddleware_BlocksAfterLimit(t *testing.T) {
	clock := newClock()
	mw := NewRateLimitMiddleware(newRateLimiterCollection(2, clock.Now), 2)
	h := mw.Handler(okHandler())

	for i := 0; i < 2; i++ {
		rec := doRequest(h, "/api/v1/bitcoin/current-price", "10.0.0.1:5555")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get(HeaderLimit))
		assert.Equal(t, strconv.Itoa(1-i), rec.Header().Get(HeaderRemaining))
		assert.NotEmpty(t, rec.Header().Get(HeaderReset))
	}

	rec := doRequest(h, "/api/v1/bitcoin/current-price", "10.0.0.1:5555")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "0", rec.Header().Get(HeaderRemaining))
	assert.Equal(t, "30", rec.Header().Get(HeaderRetryAfter))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Rate limit exceeded. Maximum 2 requests per minute allowed. Try again in 30 seconds.", body["detail"])
}

func TestRateLimitMiddleware_SkipsPaths(t *testing.T) {
	mw := NewRateLimitMiddleware(newRateLimiterCollection(1, newClock().Now), 1)
	h := mw.Handler(okHandler())

	paths := []string{"/health", "/ready", "/metrics", "/api/v1/health", "/api/v1/health/redis", "/swagger/index.html"}
	for _, p := range paths {
		for i := 0; i < 3; i++ {
			rec := doRequest(h, p, "10.0.0.1:1")
			assert.Equal(t, http.StatusOK, rec.Code, p)
			assert.Empty(t, rec.Header().Get(HeaderLimit), p)
		}
	}
}

func TestRateLimitMiddleware_UnavailableAllows(t *testing.T) {
	mw := NewRateLimitMiddleware(brokenLimiter{}, 10)
	rec := doRequest(mw.Handler(okHandler()), "/api/v1/bitcoin/current-price", "10.0.0.1:1")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "unavailable", rec.Header().Get(HeaderStatus))
}

func TestNewRateLimitMiddlewareWithConfig(t *testing.T) {
	disabled := NewRateLimitMiddlewareWithConfig(config.RateLimitConfig{Enabled: false, RequestsPerMinute: 1}, nil)
	h := disabled.Handler(okHandler())
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doRequest(h, "/api/v1/bitcoin/current-price", "1.1.1.1:1").Code)
	}

	// redis sin cliente cae a memoria
	fallback := NewRateLimitMiddlewareWithConfig(config.RateLimitConfig{Enabled: true, Backend: BackendRedis, RequestsPerMinute: 1}, nil)
	_, isMemory := fallback.limiter.(*RateLimiterCollection)
	assert.True(t, isMemory)
}

func TestGetClientID(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded for", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "10.0.0.1:80", "203.0.113.5"},
		{"real ip", map[string]string{"X-Real-IP": "203.0.113.9"}, "10.0.0.1:80", "203.0.113.9"},
		{"remote ipv4", nil, "192.168.1.2:4444", "192.168.1.2"},
		{"remote ipv6", nil, "[::1]:4444", "::1"},
		{"sin puerto", nil, "192.168.1.2", "192.168.1.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientID(req))
		})
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 1, retryAfterSeconds(0))
	assert.Equal(t, 1, retryAfterSeconds(200*time.Millisecond))
	assert.Equal(t, 31, retryAfterSeconds(30*time.Second+time.Millisecond))
}
