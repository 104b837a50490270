package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"btc-price-service/internal/infrastructure/config"
	"btc-price-service/internal/infrastructure/logging"
	"btc-price-service/internal/infrastructure/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Headers de rate limiting
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderStatus     = "X-RateLimit-Status"
	HeaderRetryAfter = "Retry-After"
)

// Paths that skip rate limiting
var defaultSkipPaths = map[string]bool{
	"/health":                 true,
	"/ready":                  true,
	"/metrics":                true,
	"/docs":                   true,
	"/api/v1/health":          true,
	"/api/v1/health/postgres": true,
	"/api/v1/health/redis":    true,
}

// RateLimitMiddleware provides rate limiting for HTTP requests
type RateLimitMiddleware struct {
	limiter   Limiter
	limit     int
	skipPaths map[string]bool
	enabled   bool
}

// NewRateLimitMiddleware builds the middleware around any Limiter.
func NewRateLimitMiddleware(limiter Limiter, requestsPerMinute int) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter:   limiter,
		limit:     requestsPerMinute,
		skipPaths: defaultSkipPaths,
		enabled:   limiter != nil,
	}
}

// NewRateLimitMiddlewareWithConfig elige el backend según configuración.
// Con backend redis y sin cliente cae al limitador en memoria.
func NewRateLimitMiddlewareWithConfig(cfg config.RateLimitConfig, redisClient *redis.Client) *RateLimitMiddleware {
	if !cfg.Enabled {
		return &RateLimitMiddleware{skipPaths: defaultSkipPaths}
	}

	var limiter Limiter
	switch {
	case cfg.Backend == BackendRedis && redisClient != nil:
		limiter = NewRedisWindowLimiter(redisClient, cfg.RequestsPerMinute)
	default:
		if cfg.Backend == BackendRedis {
			logging.Warn(context.Background(), "Redis rate limiter requested without redis client, using memory", logging.Fields{
				"requests_per_minute": cfg.RequestsPerMinute,
			})
		}
		limiter = NewRateLimiterCollection(cfg.RequestsPerMinute)
	}

	return NewRateLimitMiddleware(limiter, cfg.RequestsPerMinute)
}

// Handler returns the HTTP middleware handler
func (rlm *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rlm.enabled || rlm.skip(r.URL.Path) || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		clientID := getClientID(r)

		decision, err := rlm.limiter.Allow(ctx, clientID)
		if err != nil {
			metrics.RecordRateLimitResult("unavailable")
			logging.ErrorWithError(ctx, "Rate limiter unavailable, allowing request", err, logging.Fields{
				logging.FieldClientIP: clientID,
				"path":                r.URL.Path,
			})
			if errors.Is(err, ErrUnavailable) {
				w.Header().Set(HeaderStatus, "unavailable")
			}
			next.ServeHTTP(w, r)
			return
		}

		setLimitHeaders(w, decision)

		if !decision.Allowed {
			metrics.RecordRateLimitResult("blocked")
			logging.Security().RateLimitExceeded(ctx, clientID, r.URL.Path)
			rlm.writeRateLimitError(w, decision)
			return
		}

		metrics.RecordRateLimitResult("allowed")
		next.ServeHTTP(w, r)
	})
}

func (rlm *RateLimitMiddleware) skip(path string) bool {
	return rlm.skipPaths[path] || strings.HasPrefix(path, "/swagger/")
}

func setLimitHeaders(w http.ResponseWriter, d Decision) {
	w.Header().Set(HeaderLimit, strconv.Itoa(d.Limit))
	w.Header().Set(HeaderRemaining, strconv.Itoa(d.Remaining))
	w.Header().Set(HeaderReset, strconv.FormatInt(d.ResetAt.Unix(), 10))
}

// getClientID extracts a client identifier from the request
func getClientID(r *http.Request) string {
	// proxy / load balancer
	if xForwardedFor := r.Header.Get("X-Forwarded-For"); xForwardedFor != "" {
		parts := strings.Split(xForwardedFor, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}

	if xRealIP := r.Header.Get("X-Real-IP"); xRealIP != "" {
		return xRealIP
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr == "" {
		return "unknown"
	}
	return r.RemoteAddr
}

// retryAfterSeconds redondea hacia arriba, mínimo 1
func retryAfterSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// writeRateLimitError writes a rate limit exceeded error response
func (rlm *RateLimitMiddleware) writeRateLimitError(w http.ResponseWriter, d Decision) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(HeaderRemaining, "0")
	w.Header().Set(HeaderRetryAfter, strconv.Itoa(retryAfterSeconds(d.RetryAfter)))
	w.WriteHeader(http.StatusTooManyRequests)

	_ = json.NewEncoder(w).Encode(map[string]string{
		"detail": fmt.Sprintf("Rate limit exceeded. Maximum %d requests per minute allowed. Try again in %d seconds.",
			rlm.limit, retryAfterSeconds(d.RetryAfter)),
	})
}
