package middleware

import (
	"net/http"
	"strings"
	"time"

	"btc-price-service/internal/infrastructure/logging"
)

const HeaderRequestID = "X-Request-ID"

// RequestTracingMiddleware adds a request id and logs completion with timing.
// An incoming X-Request-ID is reused when present.
func RequestTracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if requestID == "" || len(requestID) > 128 {
			requestID = logging.GenerateRequestID()
		}

		startTime := time.Now()
		ctx := logging.WithRequestID(r.Context(), requestID)
		ctx = logging.WithStartTime(ctx, startTime)

		w.Header().Set(HeaderRequestID, requestID)

		wrapped := newResponseWriter(w)
		r = r.WithContext(ctx)
		next.ServeHTTP(wrapped, r)

		durationMs := float64(time.Since(startTime).Nanoseconds()) / 1e6
		logging.HTTP().RequestCompleted(ctx, r.Method, r.URL.Path, wrapped.statusCode, durationMs)
	})
}

// getRemoteIP extracts the real client IP from request
func getRemoteIP(r *http.Request) string {
	if xForwardedFor := r.Header.Get("X-Forwarded-For"); xForwardedFor != "" {
		return strings.TrimSpace(strings.Split(xForwardedFor, ",")[0])
	}
	if xRealIP := r.Header.Get("X-Real-IP"); xRealIP != "" {
		return xRealIP
	}
	return r.RemoteAddr
}
