// Package apperror defines the error taxonomy shared by the price client,
// the store and the HTTP layer.
package apperror

import (
	"errors"
	"fmt"
	"time"
)

// Kind discrimina el origen de un error
type Kind int

const (
	KindUnknown Kind = iota
	KindRateLimit
	KindNetwork
	KindInvalidResponse
	KindUnknownSymbol
	KindDatabase
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindRateLimit:
		return "rate_limit"
	case KindNetwork:
		return "network"
	case KindInvalidResponse:
		return "invalid_response"
	case KindUnknownSymbol:
		return "unknown_symbol"
	case KindDatabase:
		return "database"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is the single concrete error type of the taxonomy. RetryAfter is only
// meaningful for KindRateLimit and is zero when upstream gave no hint.
type Error struct {
	Kind       Kind
	Message    string
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNetwork) works
// regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is
var (
	ErrRateLimit       = &Error{Kind: KindRateLimit, Message: "rate limit exceeded"}
	ErrNetwork         = &Error{Kind: KindNetwork, Message: "network error"}
	ErrInvalidResponse = &Error{Kind: KindInvalidResponse, Message: "invalid response"}
	ErrUnknownSymbol   = &Error{Kind: KindUnknownSymbol, Message: "unknown symbol"}
	ErrDatabase        = &Error{Kind: KindDatabase, Message: "database error"}
	ErrValidation      = &Error{Kind: KindValidation, Message: "validation error"}
)

// RateLimit builds a rate limit error carrying the upstream retry hint.
func RateLimit(message string, retryAfter time.Duration) *Error {
	return &Error{Kind: KindRateLimit, Message: message, RetryAfter: retryAfter}
}

// Network wraps a transport level failure.
func Network(message string, err error) *Error {
	return &Error{Kind: KindNetwork, Message: message, Err: err}
}

// InvalidResponse reports a malformed upstream payload.
func InvalidResponse(message string, err error) *Error {
	return &Error{Kind: KindInvalidResponse, Message: message, Err: err}
}

// UnknownSymbol reports an asset the upstream does not recognise.
func UnknownSymbol(symbol string) *Error {
	return &Error{Kind: KindUnknownSymbol, Message: fmt.Sprintf("Unknown cryptocurrency symbol: %s", symbol)}
}

// Database wraps a store failure.
func Database(message string, err error) *Error {
	return &Error{Kind: KindDatabase, Message: message, Err: err}
}

// Validation reports bad caller input.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// As extracts the *Error from a wrapped chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindUnknown
}
