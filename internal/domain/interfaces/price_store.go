package interfaces

import (
	"context"
	"time"

	"btc-price-service/internal/domain/entities"
)

// PriceStore persists price samples in the relational store.
type PriceStore interface {
	Insert(ctx context.Context, sample *entities.PriceSample) error
	InsertBatch(ctx context.Context, samples []*entities.PriceSample) (int64, error)

	// QueryRange is inclusive of both bounds and sorted by timestamp ascending.
	// No matching rows yields an empty slice, not an error.
	QueryRange(ctx context.Context, start, end time.Time) ([]*entities.PriceSample, error)

	// Latest returns nil, nil when the table is empty.
	Latest(ctx context.Context) (*entities.PriceSample, error)

	Ping(ctx context.Context) error
}
