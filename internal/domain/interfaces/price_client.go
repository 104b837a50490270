package interfaces

import (
	"context"
	"time"

	"btc-price-service/internal/domain/entities"
)

// PriceClient abstrae el proveedor externo de precios.
// Implementaciones no reintentan; la política de retry pertenece al llamador.
type PriceClient interface {
	// FetchCurrentPrice devuelve el precio actual de Bitcoin en USD
	FetchCurrentPrice(ctx context.Context) (*entities.PriceSample, error)

	// FetchPriceRange devuelve muestras históricas del proveedor, ordenadas ascendentemente
	FetchPriceRange(ctx context.Context, from, to time.Time) ([]*entities.PriceSample, error)
}
