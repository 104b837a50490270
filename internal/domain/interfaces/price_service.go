package interfaces

import (
	"context"
	"time"

	"btc-price-service/internal/domain/entities"
)

// PriceService define los casos de uso de precios de Bitcoin
type PriceService interface {
	// GetCurrentPrice sirve desde cache; ante un miss consulta el proveedor,
	// persiste la muestra y repuebla el cache
	GetCurrentPrice(ctx context.Context) (*entities.PriceSample, error)

	// GetPriceHistory valida el rango y consulta el store (ascendente)
	GetPriceHistory(ctx context.Context, start, end time.Time) ([]*entities.PriceSample, error)

	// RefreshCurrentPrice fuerza una consulta al proveedor. Usado por el refresher
	RefreshCurrentPrice(ctx context.Context) (*entities.PriceSample, error)
}

// PricePublisher receives every freshly fetched sample.
type PricePublisher interface {
	Publish(sample *entities.PriceSample)
}
