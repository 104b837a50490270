package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"btc-price-service/internal/infrastructure/logging"
)

// RecoverMiddleware turns a panic into a 500 with the standard error body
func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			// la conexión fue abortada a propósito
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			logging.Error(r.Context(), "Panic while serving request", logging.Fields{
				"panic":       fmt.Sprint(rec),
				"stack":       string(debug.Stack()),
				"http_method": r.Method,
				"http_path":   r.URL.Path,
			})

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Internal server error"})
		}()

		next.ServeHTTP(w, r)
	})
}
