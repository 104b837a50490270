package interfaces

import (
	"context"
	"time"

	"btc-price-service/internal/domain/entities"
)

// PriceCache stores the latest sample and serialized history responses.
// Backend failures surface as misses on read and are swallowed on write.
type PriceCache interface {
	GetCurrent(ctx context.Context) (*entities.PriceSample, bool)
	SetCurrent(ctx context.Context, sample *entities.PriceSample, ttl time.Duration)

	GetHistory(ctx context.Context, start, end time.Time) ([]*entities.PriceSample, bool)
	SetHistory(ctx context.Context, start, end time.Time, samples []*entities.PriceSample, ttl time.Duration)
}
