package ratelimit

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable se devuelve cuando el backend del limitador no responde.
// El middleware deja pasar la request en ese caso.
var ErrUnavailable = errors.New("rate limiter backend unavailable")

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetAt is when the client regains capacity
	ResetAt time.Time
	// RetryAfter is only set when the request was rejected
	RetryAfter time.Duration
}

// Limiter decide si un cliente puede hacer otra request
type Limiter interface {
	Allow(ctx context.Context, clientID string) (Decision, error)
}
