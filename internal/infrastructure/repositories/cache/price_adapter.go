package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"btc-price-service/internal/domain/entities"
	"btc-price-service/internal/domain/interfaces"
	"btc-price-service/internal/infrastructure/logging"
	"btc-price-service/internal/infrastructure/metrics"
)

const (
	CurrentPriceKey = "bitcoin:current_price"
	historyKeyFmt   = "bitcoin:history:%d:%d"
)

// PriceCacheAdapter implementa interfaces.PriceCache sobre cualquier interfaces.Cache.
// Las fallas del backend se tratan como miss en lecturas y se ignoran en escrituras.
type PriceCacheAdapter struct {
	backend interfaces.Cache
}

// NewPriceCache crea un nuevo adaptador.
func NewPriceCache(backend interfaces.Cache) *PriceCacheAdapter {
	return &PriceCacheAdapter{backend: backend}
}

// HistoryKey arma la clave de un rango de historial
func HistoryKey(start, end time.Time) string {
	return fmt.Sprintf(historyKeyFmt, start.UTC().UnixNano(), end.UTC().UnixNano())
}

// GetCurrent obtiene el precio actual si existe y no expiró.
func (p *PriceCacheAdapter) GetCurrent(ctx context.Context) (*entities.PriceSample, bool) {
	raw, ok := p.get(ctx, CurrentPriceKey)
	if !ok {
		return nil, false
	}

	var sample entities.PriceSample
	if err := json.Unmarshal([]byte(raw), &sample); err != nil {
		p.corrupt(ctx, CurrentPriceKey, err)
		return nil, false
	}
	return &sample, true
}

// SetCurrent guarda el precio actual con el TTL dado.
func (p *PriceCacheAdapter) SetCurrent(ctx context.Context, sample *entities.PriceSample, ttl time.Duration) {
	if sample == nil {
		return
	}
	data, err := json.Marshal(sample)
	if err != nil {
		logging.Cache().CacheError(ctx, logging.CacheOpSet, CurrentPriceKey, err)
		return
	}
	p.set(ctx, CurrentPriceKey, string(data), ttl)
}

// GetHistory obtiene un rango previamente cacheado.
func (p *PriceCacheAdapter) GetHistory(ctx context.Context, start, end time.Time) ([]*entities.PriceSample, bool) {
	key := HistoryKey(start, end)
	raw, ok := p.get(ctx, key)
	if !ok {
		return nil, false
	}

	samples := make([]*entities.PriceSample, 0)
	if err := json.Unmarshal([]byte(raw), &samples); err != nil {
		p.corrupt(ctx, key, err)
		return nil, false
	}
	return samples, true
}

// SetHistory guarda un rango ya ordenado.
func (p *PriceCacheAdapter) SetHistory(ctx context.Context, start, end time.Time, samples []*entities.PriceSample, ttl time.Duration) {
	if samples == nil {
		samples = []*entities.PriceSample{}
	}
	key := HistoryKey(start, end)
	data, err := json.Marshal(samples)
	if err != nil {
		logging.Cache().CacheError(ctx, logging.CacheOpSet, key, err)
		return
	}
	p.set(ctx, key, string(data), ttl)
}

func (p *PriceCacheAdapter) get(ctx context.Context, key string) (string, bool) {
	raw, err := p.backend.Get(ctx, key)
	if err != nil {
		if IsMiss(err) {
			metrics.RecordCacheOperation("get", "miss")
			logging.Cache().Miss(ctx, key, logging.CacheOpGet)
		} else {
			metrics.RecordCacheOperation("get", "error")
			logging.Cache().CacheError(ctx, logging.CacheOpGet, key, err)
		}
		return "", false
	}

	metrics.RecordCacheOperation("get", "hit")
	logging.Cache().Hit(ctx, key, logging.CacheOpGet)
	return raw, true
}

func (p *PriceCacheAdapter) set(ctx context.Context, key, value string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := p.backend.Set(ctx, key, value, ttl); err != nil {
		metrics.RecordCacheOperation("set", "error")
		logging.Cache().CacheError(ctx, logging.CacheOpSet, key, err)
		return
	}
	metrics.RecordCacheOperation("set", "success")
	logging.Cache().Set(ctx, key, ttl.Seconds())
}

// corrupt descarta entradas que no se pueden decodificar
func (p *PriceCacheAdapter) corrupt(ctx context.Context, key string, err error) {
	metrics.RecordCacheOperation("get", "error")
	logging.Cache().CacheError(ctx, logging.CacheOpGet, key, fmt.Errorf("corrupt cache entry: %w", err))
	p.evict(ctx, key)
}

// evict borra key; un error del backend solo se registra
func (p *PriceCacheAdapter) evict(ctx context.Context, key string) {
	if err := p.backend.Delete(ctx, key); err != nil {
		metrics.RecordCacheOperation("delete", "error")
		logging.Cache().CacheError(ctx, logging.CacheOpDelete, key, err)
		return
	}
	metrics.RecordCacheOperation("delete", "success")
	logging.Cache().Delete(ctx, key)
}
