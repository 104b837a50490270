package handlers

import (
	"net/http"
	"time"

	"btc-price-service/internal/application/dto"
	"btc-price-service/internal/domain/interfaces"
)

// BitcoinHandler serves the price endpoints
type BitcoinHandler struct {
	priceService interfaces.PriceService
	mapper       *dto.PriceMapper
	maxRange     time.Duration
}

// NewBitcoinHandler crea el handler. maxRange acota el rango del historial.
func NewBitcoinHandler(priceService interfaces.PriceService, maxRange time.Duration) *BitcoinHandler {
	return &BitcoinHandler{
		priceService: priceService,
		mapper:       dto.NewPriceMapper(),
		maxRange:     maxRange,
	}
}

// GetCurrentPrice godoc
// @Summary Current Bitcoin price
// @Description Returns the latest Bitcoin price in USD. Served from cache when fresh, otherwise fetched from CoinGecko, persisted and cached.
// @Tags bitcoin
// @Produce json
// @Success 200 {object} dto.PriceResponse "Current price"
// @Failure 429 {object} dto.ErrorResponse "Rate limit exceeded"
// @Failure 502 {object} dto.ErrorResponse "Invalid upstream response"
// @Failure 503 {object} dto.ErrorResponse "Upstream unavailable"
// @Failure 500 {object} dto.ErrorResponse "Internal error"
// @Router /api/v1/bitcoin/current-price [get]
func (h *BitcoinHandler) GetCurrentPrice(w http.ResponseWriter, r *http.Request) {
	sample, err := h.priceService.GetCurrentPrice(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.mapper.ToPriceResponse(sample))
}

// GetPriceHistory godoc
// @Summary Bitcoin price history
// @Description Returns stored price samples with start_time <= timestamp <= end_time, ordered ascending. Ranges longer than 90 days are rejected.
// @Tags bitcoin
// @Produce json
// @Param start_time query string true "Start time in ISO 8601 (e.g. 2024-01-01T00:00:00Z)"
// @Param end_time query string true "End time in ISO 8601 (e.g. 2024-01-02T00:00:00Z)"
// @Success 200 {object} dto.PriceHistoryResponse "Price history (possibly empty)"
// @Failure 400 {object} dto.ErrorResponse "Missing, malformed or invalid time range"
// @Failure 500 {object} dto.ErrorResponse "Database error"
// @Router /api/v1/bitcoin/price-history [get]
func (h *BitcoinHandler) GetPriceHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	req, err := dto.NewPriceHistoryRequest(query.Get(dto.ParamStartTime), query.Get(dto.ParamEndTime), h.maxRange)
	if err != nil {
		writeError(w, r, err)
		return
	}

	samples, err := h.priceService.GetPriceHistory(r.Context(), req.StartTime, req.EndTime)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.mapper.ToPriceHistoryResponse(samples))
}
