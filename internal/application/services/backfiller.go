package services

import (
	"context"
	"time"

	"btc-price-service/internal/domain/interfaces"
	"btc-price-service/internal/infrastructure/logging"
	"btc-price-service/internal/infrastructure/metrics"
	"btc-price-service/pkg/utils"

	"github.com/avast/retry-go/v4"
)

// Backfiller seeds the store with upstream history when the window is empty.
type Backfiller struct {
	client     interfaces.PriceClient
	store      interfaces.PriceStore
	days       int
	attempts   uint
	retryDelay time.Duration
	maxDelay   time.Duration
	now        func() time.Time
}

// NewBackfiller crea el backfiller. days <= 0 lo deshabilita.
func NewBackfiller(client interfaces.PriceClient, store interfaces.PriceStore, days int, attempts uint, retryDelay, maxDelay time.Duration) *Backfiller {
	if attempts == 0 {
		attempts = 1
	}
	return &Backfiller{
		client:     client,
		store:      store,
		days:       days,
		attempts:   attempts,
		retryDelay: retryDelay,
		maxDelay:   maxDelay,
		now:        time.Now,
	}
}

// Run returns the number of inserted samples. It is a no-op when disabled or
// when the store already has samples inside the window.
func (b *Backfiller) Run(ctx context.Context) (int64, error) {
	if b.days <= 0 {
		return 0, nil
	}

	end := b.now().UTC()
	start := utils.DaysAgo(end, b.days)
	fields := logging.Fields{
		"days":       b.days,
		"start_time": start,
		"end_time":   end,
	}

	existing, err := b.store.QueryRange(ctx, start, end)
	if err != nil {
		logging.ErrorWithError(ctx, "Backfill skipped: cannot read store", err, fields)
		return 0, err
	}
	if len(existing) > 0 {
		fields["existing"] = len(existing)
		logging.Info(ctx, "Backfill skipped: store already has samples", fields)
		return 0, nil
	}

	var inserted int64
	err = retry.Do(
		func() error {
			samples, err := b.client.FetchPriceRange(ctx, start, end)
			if err != nil {
				return err
			}
			inserted, err = b.store.InsertBatch(ctx, samples)
			return err
		},
		retry.Attempts(b.attempts),
		retry.Delay(b.retryDelay),
		retry.MaxDelay(b.maxDelay),
		retry.DelayType(rateLimitAwareDelay),
		retry.RetryIf(isRetryable),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			metrics.RecordRefreshRetry()
			logging.WarnWithError(ctx, "Backfill attempt failed, retrying", err, logging.Fields{
				"attempt": n + 1,
			})
		}),
	)
	if err != nil {
		logging.ErrorWithError(ctx, "Backfill failed", err, fields)
		return 0, err
	}

	metrics.RecordBackfilledSamples(inserted)
	fields["inserted"] = inserted
	logging.Info(ctx, "Backfill completed", fields)
	return inserted, nil
}
