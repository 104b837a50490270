package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// TokenBucket implements a token bucket with fractional refill.
type TokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	tokens     float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	now        func() time.Time
}

// NewTokenBucket creates a full bucket.
// capacity: maximum number of tokens in the bucket
// refillRate: tokens added per second
func NewTokenBucket(capacity int, refillRate float64) *TokenBucket {
	return newTokenBucket(capacity, refillRate, time.Now)
}

func newTokenBucket(capacity int, refillRate float64, now func() time.Time) *TokenBucket {
	return &TokenBucket{
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		refillRate: refillRate,
		lastRefill: now(),
		now:        now,
	}
}

// Allow consumes one token if available
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// Tokens returns the whole tokens currently available
func (tb *TokenBucket) Tokens() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	return int(tb.tokens)
}

// untilNextToken returns how long until one token is available.
// Must be called with lock held
func (tb *TokenBucket) untilNextToken() time.Duration {
	missing := 1 - tb.tokens
	if missing <= 0 || tb.refillRate <= 0 {
		return 0
	}
	return time.Duration(math.Ceil(missing / tb.refillRate * float64(time.Second)))
}

// untilFull returns how long until the bucket is at capacity.
// Must be called with lock held
func (tb *TokenBucket) untilFull() time.Duration {
	missing := tb.capacity - tb.tokens
	if missing <= 0 || tb.refillRate <= 0 {
		return 0
	}
	return time.Duration(math.Ceil(missing / tb.refillRate * float64(time.Second)))
}

// refill adds tokens based on elapsed time since last refill.
// Must be called with lock held
func (tb *TokenBucket) refill() {
	now := tb.now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}

	tb.tokens = math.Min(tb.capacity, tb.tokens+elapsed*tb.refillRate)
	tb.lastRefill = now
}

// RateLimiterCollection keeps one bucket per client. Capacity is the
// per-minute limit and the bucket refills at limit/60 tokens per second.
type RateLimiterCollection struct {
	mu      sync.Mutex
	buckets map[string]*TokenBucket
	limit   int
	now     func() time.Time

	lastCleanup     time.Time
	cleanupInterval time.Duration
	idleAfter       time.Duration
}

// NewRateLimiterCollection crea el limitador en memoria
func NewRateLimiterCollection(requestsPerMinute int) *RateLimiterCollection {
	return newRateLimiterCollection(requestsPerMinute, time.Now)
}

func newRateLimiterCollection(requestsPerMinute int, now func() time.Time) *RateLimiterCollection {
	return &RateLimiterCollection{
		buckets:         make(map[string]*TokenBucket),
		limit:           requestsPerMinute,
		now:             now,
		lastCleanup:     now(),
		cleanupInterval: 10 * time.Minute,
		idleAfter:       30 * time.Minute,
	}
}

// Allow implements Limiter. It never returns an error.
func (rlc *RateLimiterCollection) Allow(_ context.Context, clientID string) (Decision, error) {
	bucket := rlc.getBucket(clientID)

	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	bucket.refill()
	now := bucket.now()

	decision := Decision{Limit: rlc.limit}
	if bucket.tokens >= 1 {
		bucket.tokens--
		decision.Allowed = true
		decision.Remaining = int(bucket.tokens)
		decision.ResetAt = now.Add(bucket.untilFull())
		return decision, nil
	}

	wait := bucket.untilNextToken()
	decision.RetryAfter = wait
	decision.ResetAt = now.Add(wait)
	return decision, nil
}

// getBucket gets or creates the bucket for the client
func (rlc *RateLimiterCollection) getBucket(clientID string) *TokenBucket {
	rlc.mu.Lock()
	defer rlc.mu.Unlock()

	if bucket, ok := rlc.buckets[clientID]; ok {
		return bucket
	}

	bucket := newTokenBucket(rlc.limit, float64(rlc.limit)/60, rlc.now)
	rlc.buckets[clientID] = bucket
	rlc.maybeCleanup()
	return bucket
}

// maybeCleanup drops buckets idle for longer than idleAfter.
// Must be called with rlc.mu held
func (rlc *RateLimiterCollection) maybeCleanup() {
	now := rlc.now()
	if now.Sub(rlc.lastCleanup) < rlc.cleanupInterval {
		return
	}

	cutoff := now.Add(-rlc.idleAfter)
	for clientID, bucket := range rlc.buckets {
		bucket.mu.Lock()
		idle := bucket.lastRefill.Before(cutoff)
		bucket.mu.Unlock()
		if idle {
			delete(rlc.buckets, clientID)
		}
	}
	rlc.lastCleanup = now
}

// Clients returns the number of tracked clients
func (rlc *RateLimiterCollection) Clients() int {
	rlc.mu.Lock()
	defer rlc.mu.Unlock()
	return len(rlc.buckets)
}
