package dto

import (
	"encoding/json"

	"btc-price-service/internal/domain/entities"
)

// PriceMapper maneja la conversión entre entidades del dominio y DTOs
type PriceMapper struct{}

// NewPriceMapper crea una nueva instancia del mapper
func NewPriceMapper() *PriceMapper {
	return &PriceMapper{}
}

// ToPriceResponse convierte una muestra a DTO
func (m *PriceMapper) ToPriceResponse(sample *entities.PriceSample) PriceResponse {
	return PriceResponse{
		PriceUSD:  json.Number(sample.PriceUSD.String()),
		Timestamp: sample.Timestamp.UTC(),
		Source:    sample.Source,
	}
}

// ToPriceHistoryResponse keeps the input order; nil or empty input yields
// an empty, non-nil list.
func (m *PriceMapper) ToPriceHistoryResponse(samples []*entities.PriceSample) *PriceHistoryResponse {
	prices := make([]PriceResponse, 0, len(samples))
	for _, s := range samples {
		if s == nil {
			continue
		}
		prices = append(prices, m.ToPriceResponse(s))
	}
	return &PriceHistoryResponse{Prices: prices}
}
