package services

import (
	"context"
	"time"

	"btc-price-service/internal/domain/entities"
	"btc-price-service/internal/domain/interfaces"
	"btc-price-service/internal/infrastructure/logging"
	"btc-price-service/internal/infrastructure/metrics"
)

// DefaultCacheTTL is the current price TTL
const DefaultCacheTTL = 5 * time.Minute

// Options tunes the price service. HistoryCacheTTL <= 0 disables the
// history cache; other zero values fall back to defaults.
type Options struct {
	CacheTTL        time.Duration
	HistoryCacheTTL time.Duration
	MaxHistoryRange time.Duration
}

func (o Options) withDefaults() Options {
	if o.CacheTTL <= 0 {
		o.CacheTTL = DefaultCacheTTL
	}
	if o.MaxHistoryRange <= 0 {
		o.MaxHistoryRange = entities.DefaultMaxHistoryRange
	}
	return o
}

// priceService implements interfaces.PriceService
type priceService struct {
	client    interfaces.PriceClient
	store     interfaces.PriceStore
	cache     interfaces.PriceCache
	publisher interfaces.PricePublisher
	opts      Options
}

// NewPriceService creates the price service. publisher may be nil.
func NewPriceService(
	client interfaces.PriceClient,
	store interfaces.PriceStore,
	cache interfaces.PriceCache,
	publisher interfaces.PricePublisher,
	opts Options,
) interfaces.PriceService {
	return &priceService{
		client:    client,
		store:     store,
		cache:     cache,
		publisher: publisher,
		opts:      opts.withDefaults(),
	}
}

// GetCurrentPrice implementa cache-aside: hit devuelve la muestra cacheada sin
// tocar el proveedor ni el store
func (s *priceService) GetCurrentPrice(ctx context.Context) (*entities.PriceSample, error) {
	if sample, ok := s.cache.GetCurrent(ctx); ok {
		metrics.RecordPriceRequest(true)
		logging.Price().PriceServed(ctx, sample, true)
		return sample, nil
	}

	metrics.RecordPriceRequest(false)
	sample, err := s.fetchAndStore(ctx)
	if err != nil {
		return nil, err
	}

	logging.Price().PriceServed(ctx, sample, false)
	return sample, nil
}

// RefreshCurrentPrice always goes upstream
func (s *priceService) RefreshCurrentPrice(ctx context.Context) (*entities.PriceSample, error) {
	return s.fetchAndStore(ctx)
}

// fetchAndStore consulta el proveedor, persiste, repuebla el cache y publica.
// Una falla al persistir no invalida el precio obtenido.
func (s *priceService) fetchAndStore(ctx context.Context) (*entities.PriceSample, error) {
	sample, err := s.client.FetchCurrentPrice(ctx)
	if err != nil {
		logging.Price().PriceFetchFailed(ctx, err)
		return nil, err
	}

	if err := s.store.Insert(ctx, sample); err != nil {
		logging.Price().PersistFailed(ctx, sample, err)
	}

	s.cache.SetCurrent(ctx, sample, s.opts.CacheTTL)
	metrics.UpdateCurrentPrice(sample.PriceUSD.InexactFloat64(), sample.Timestamp.Unix())

	if s.publisher != nil {
		s.publisher.Publish(sample)
	}
	return sample, nil
}

// GetPriceHistory valida el rango antes de tocar cache o store
func (s *priceService) GetPriceHistory(ctx context.Context, start, end time.Time) ([]*entities.PriceSample, error) {
	window, err := entities.NewTimeRange(start, end, s.opts.MaxHistoryRange)
	if err != nil {
		logging.Price().ValidationFailed(ctx, start.Format(time.RFC3339)+"/"+end.Format(time.RFC3339), err.Error())
		return nil, err
	}

	useCache := s.opts.HistoryCacheTTL > 0
	if useCache {
		if samples, ok := s.cache.GetHistory(ctx, window.Start, window.End); ok {
			return samples, nil
		}
	}

	samples, err := s.store.QueryRange(ctx, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	if samples == nil {
		samples = []*entities.PriceSample{}
	}

	if useCache {
		s.cache.SetHistory(ctx, window.Start, window.End, samples, s.opts.HistoryCacheTTL)
	}

	logging.Debug(ctx, "Price history served", logging.Fields{
		"start_time": window.Start,
		"end_time":   window.End,
		"count":      len(samples),
	})
	return samples, nil
}
