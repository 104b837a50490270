package dto

import (
	"encoding/json"
	"time"
)

// PriceResponse represents one price sample in responses
// @Description Bitcoin price observation in USD
type PriceResponse struct {
	PriceUSD  json.Number `json:"price_usd" example:"50000.12345678" swaggertype:"number"` // Exact decimal price in USD
	Timestamp time.Time   `json:"timestamp" example:"2024-02-19T12:00:00Z"`                 // Observation time (UTC)
	Source    string      `json:"source" example:"coingecko"`                               // Provenance of the sample
}

// CurrentPriceResponse is the body of /api/v1/bitcoin/current-price
type CurrentPriceResponse = PriceResponse

// PriceHistoryResponse is the body of /api/v1/bitcoin/price-history
// @Description Price samples ordered by timestamp ascending
type PriceHistoryResponse struct {
	Prices []PriceResponse `json:"prices"`
}

// ErrorResponse represents a standard error response for endpoints
// @Description Standard error response for endpoints
type ErrorResponse struct {
	Detail string `json:"detail" example:"End time must be after start time"`
}

// ServiceHealth is the status of one backing service
type ServiceHealth struct {
	IsHealthy bool   `json:"is_healthy" example:"true"`
	Message   string `json:"message" example:"PostgreSQL is healthy"`
}

// HealthResponse represents the aggregated health check
// @Description Health of the API and its backing services
type HealthResponse struct {
	IsHealthy bool                     `json:"is_healthy" example:"true"`
	Services  map[string]ServiceHealth `json:"services"`
}

// LivenessResponse is the body of /health and /ready
type LivenessResponse struct {
	Status    string    `json:"status" example:"healthy" enums:"healthy,ready,not_ready"`
	Service   string    `json:"service" example:"btc-price-service"`
	Version   string    `json:"version" example:"1.0.0"`
	Timestamp time.Time `json:"timestamp"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(detail string) *ErrorResponse {
	return &ErrorResponse{Detail: detail}
}

// NewHealthResponse arma la respuesta; is_healthy sólo si todos los servicios lo están
func NewHealthResponse(services map[string]ServiceHealth) *HealthResponse {
	healthy := true
	for _, s := range services {
		healthy = healthy && s.IsHealthy
	}
	return &HealthResponse{IsHealthy: healthy, Services: services}
}
