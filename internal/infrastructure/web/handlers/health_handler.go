package handlers

import (
	"context"
	"net/http"
	"time"

	"btc-price-service/internal/application/dto"
	"btc-price-service/internal/domain/interfaces"
)

const (
	servicePostgres = "postgres"
	serviceRedis    = "redis"

	defaultCheckTimeout = 2 * time.Second
)

// HealthHandler maneja los endpoints de health check
type HealthHandler struct {
	postgres interfaces.Pinger
	redis    interfaces.Pinger // nil cuando el cache es en memoria
	service  string
	version  string
	timeout  time.Duration
	now      func() time.Time
}

// NewHealthHandler crea una nueva instancia del health handler. redis may be nil.
func NewHealthHandler(postgres, redis interfaces.Pinger, service, version string) *HealthHandler {
	return &HealthHandler{
		postgres: postgres,
		redis:    redis,
		service:  service,
		version:  version,
		timeout:  defaultCheckTimeout,
		now:      time.Now,
	}
}

// Health godoc
// @Summary Liveness probe
// @Description Responds without checking dependencies.
// @Tags health
// @Produce json
// @Success 200 {object} dto.LivenessResponse
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.liveness("healthy"))
}

// Ready godoc
// @Summary Readiness probe
// @Description Ready when the price store answers a ping.
// @Tags health
// @Produce json
// @Success 200 {object} dto.LivenessResponse
// @Failure 503 {object} dto.LivenessResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.checkPostgres(r.Context()).IsHealthy {
		writeJSON(w, http.StatusServiceUnavailable, h.liveness("not_ready"))
		return
	}
	writeJSON(w, http.StatusOK, h.liveness("ready"))
}

// ServicesHealth godoc
// @Summary Backing services health
// @Description Pings PostgreSQL and Redis. is_healthy is true only when every configured service is healthy.
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /api/v1/health [get]
func (h *HealthHandler) ServicesHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	services := map[string]dto.ServiceHealth{
		servicePostgres: h.checkPostgres(ctx),
	}
	if h.redis != nil {
		services[serviceRedis] = h.checkRedis(ctx)
	}

	resp := dto.NewHealthResponse(services)
	writeJSON(w, statusFor(resp.IsHealthy), resp)
}

// PostgresHealth godoc
// @Summary PostgreSQL health
// @Tags health
// @Produce json
// @Success 200 {object} dto.ServiceHealth
// @Failure 503 {object} dto.ServiceHealth
// @Router /api/v1/health/postgres [get]
func (h *HealthHandler) PostgresHealth(w http.ResponseWriter, r *http.Request) {
	status := h.checkPostgres(r.Context())
	writeJSON(w, statusFor(status.IsHealthy), status)
}

// RedisHealth godoc
// @Summary Redis health
// @Tags health
// @Produce json
// @Success 200 {object} dto.ServiceHealth
// @Failure 503 {object} dto.ServiceHealth
// @Router /api/v1/health/redis [get]
func (h *HealthHandler) RedisHealth(w http.ResponseWriter, r *http.Request) {
	status := h.checkRedis(r.Context())
	writeJSON(w, statusFor(status.IsHealthy), status)
}

func (h *HealthHandler) checkPostgres(ctx context.Context) dto.ServiceHealth {
	if err := h.ping(ctx, h.postgres); err != nil {
		return dto.ServiceHealth{IsHealthy: false, Message: "PostgreSQL health check failed: " + err.Error()}
	}
	return dto.ServiceHealth{IsHealthy: true, Message: "PostgreSQL is healthy"}
}

func (h *HealthHandler) checkRedis(ctx context.Context) dto.ServiceHealth {
	if h.redis == nil {
		return dto.ServiceHealth{IsHealthy: false, Message: "Redis is not configured"}
	}
	if err := h.ping(ctx, h.redis); err != nil {
		return dto.ServiceHealth{IsHealthy: false, Message: "Redis health check failed: " + err.Error()}
	}
	return dto.ServiceHealth{IsHealthy: true, Message: "Redis is healthy"}
}

func (h *HealthHandler) ping(ctx context.Context, p interfaces.Pinger) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return p.Ping(ctx)
}

func (h *HealthHandler) liveness(status string) dto.LivenessResponse {
	return dto.LivenessResponse{
		Status:    status,
		Service:   h.service,
		Version:   h.version,
		Timestamp: h.now().UTC(),
	}
}

func statusFor(healthy bool) int {
	if healthy {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}
