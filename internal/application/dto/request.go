package dto

import (
	"fmt"
	"time"

	"btc-price-service/internal/domain/apperror"
	"btc-price-service/internal/domain/entities"
	"btc-price-service/pkg/utils"
)

const (
	ParamStartTime = "start_time"
	ParamEndTime   = "end_time"
)

// PriceHistoryRequest representa la request de /api/v1/bitcoin/price-history
type PriceHistoryRequest struct {
	StartTime time.Time `json:"start_time" example:"2024-02-19T00:00:00Z"`
	EndTime   time.Time `json:"end_time" example:"2024-02-20T00:00:00Z"`
}

// NewPriceHistoryRequest parsea y valida los query parameters.
// Todos los errores son apperror.KindValidation.
func NewPriceHistoryRequest(startParam, endParam string, maxRange time.Duration) (*PriceHistoryRequest, error) {
	start, err := parseTimeParam(ParamStartTime, startParam)
	if err != nil {
		return nil, err
	}
	end, err := parseTimeParam(ParamEndTime, endParam)
	if err != nil {
		return nil, err
	}

	req := &PriceHistoryRequest{StartTime: start, EndTime: end}
	if err := req.Validate(maxRange); err != nil {
		return nil, err
	}
	return req, nil
}

// Validate checks ordering and the maximum window
func (r *PriceHistoryRequest) Validate(maxRange time.Duration) error {
	_, err := entities.NewTimeRange(r.StartTime, r.EndTime, maxRange)
	return err
}

func parseTimeParam(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, apperror.Validation(fmt.Sprintf("Missing required query parameter: %s", name))
	}

	t, err := utils.ParseTimestamp(value)
	if err != nil {
		return time.Time{}, apperror.Validation(fmt.Sprintf(
			"Invalid %s: %q is not an ISO 8601 timestamp (e.g. 2024-01-01T00:00:00Z)", name, value))
	}
	return t, nil
}
