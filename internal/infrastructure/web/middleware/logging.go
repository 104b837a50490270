package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"btc-price-service/internal/infrastructure/logging"
)

// LoggingMiddleware complements RequestTracingMiddleware with request-side
// debug logs and suspicious pattern detection
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		remoteIP := getRemoteIP(r)

		logging.HTTP().RequestReceived(ctx, r.Method, r.URL.Path, r.UserAgent(), remoteIP)

		logging.Debug(ctx, "Processing HTTP request", logging.Fields{
			"headers":        extractImportantHeaders(r),
			"query":          r.URL.RawQuery,
			"content_length": r.ContentLength,
		})

		// Detectar requests potencialmente sospechosos
		if isSuspiciousRequest(r) {
			logging.Security().SuspiciousActivity(ctx, remoteIP, "unusual_request_pattern")
		}

		next.ServeHTTP(w, r)
	})
}

// extractImportantHeaders extracts relevant headers for logging
func extractImportantHeaders(r *http.Request) map[string]string {
	headers := make(map[string]string)

	importantHeaders := []string{
		"Content-Type",
		"Accept",
		"Accept-Encoding",
		"Cache-Control",
		"X-Forwarded-For",
		"X-Real-IP",
	}

	for _, header := range importantHeaders {
		if value := r.Header.Get(header); value != "" {
			headers[header] = value
		}
	}

	return headers
}

var suspiciousPatterns = []string{
	"../",
	"<script",
	"select ",
	"union ",
	"drop ",
	"exec(",
	"eval(",
}

// isSuspiciousRequest detecta patrones comunes de ataques en path y query
func isSuspiciousRequest(r *http.Request) bool {
	target := strings.ToLower(r.URL.Path + "?" + r.URL.RawQuery)
	if unescaped, err := url.QueryUnescape(r.URL.RawQuery); err == nil {
		target += " " + strings.ToLower(unescaped)
	}

	for _, pattern := range suspiciousPatterns {
		if strings.Contains(target, pattern) {
			return true
		}
	}

	// Content-Length inusualmente grande
	return r.ContentLength > 1024*1024
}
