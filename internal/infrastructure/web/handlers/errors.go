package handlers

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"btc-price-service/internal/application/dto"
	"btc-price-service/internal/domain/apperror"
	"btc-price-service/internal/infrastructure/logging"
)

const internalErrorDetail = "Internal server error"

// StatusForError maps an error kind to its HTTP status
func StatusForError(err error) int {
	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindUnknownSymbol:
		return http.StatusNotFound
	case apperror.KindRateLimit:
		return http.StatusTooManyRequests
	case apperror.KindNetwork:
		return http.StatusServiceUnavailable
	case apperror.KindInvalidResponse:
		return http.StatusBadGateway
	default:
		// KindDatabase y errores desconocidos
		return http.StatusInternalServerError
	}
}

// writeError escribe {"detail": ...}. Errores fuera de la taxonomía no exponen su mensaje.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusForError(err)
	detail := internalErrorDetail

	if appErr, ok := apperror.As(err); ok {
		detail = appErr.Message
		if appErr.Kind == apperror.KindRateLimit && appErr.RetryAfter > 0 {
			seconds := int(math.Ceil(appErr.RetryAfter.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
		}
	}

	fields := logging.Fields{
		logging.FieldHTTPStatusCode: status,
		"http_path":                 r.URL.Path,
		"error_kind":                apperror.KindOf(err).String(),
	}
	if status >= http.StatusInternalServerError {
		logging.ErrorWithError(r.Context(), "Request failed", err, fields)
	} else {
		logging.WarnWithError(r.Context(), "Request rejected", err, fields)
	}

	writeJSON(w, status, dto.NewErrorResponse(detail))
}

// writeJSON escribe una respuesta JSON
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.ErrorWithError(context.Background(), "Failed to encode response", err, nil)
	}
}

// NotFound responde 404 para rutas desconocidas
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, dto.NewErrorResponse("Not Found"))
}

// MethodNotAllowed responde 405
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, dto.NewErrorResponse("Method Not Allowed"))
}
