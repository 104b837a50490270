package coingecko

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"btc-price-service/internal/domain/entities"

	"github.com/shopspring/decimal"
)

// SimplePriceResponse es la respuesta de /simple/price:
// {"bitcoin": {"usd": 51234.12}}
type SimplePriceResponse map[string]map[string]json.RawMessage

// MarketChartResponse es la respuesta de /coins/{id}/market_chart/range.
// Cada punto es [timestamp_ms, price].
type MarketChartResponse struct {
	Prices [][]json.Number `json:"prices"`
}

// PriceFor extrae el precio de coin en la moneda dada.
// found indica si la moneda existe en la respuesta.
func (r SimplePriceResponse) PriceFor(coin, currency string) (price decimal.Decimal, found bool, err error) {
	quotes, ok := r[coin]
	if !ok {
		return decimal.Zero, false, nil
	}

	raw, ok := quotes[currency]
	if !ok {
		return decimal.Zero, true, fmt.Errorf("missing %q price for %s", currency, coin)
	}

	price, err = parseNumber(raw)
	if err != nil {
		return decimal.Zero, true, err
	}
	return price, true, nil
}

// parseNumber acepta solo tokens numéricos JSON, no strings ni null
func parseNumber(raw json.RawMessage) (decimal.Decimal, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] == '"' || bytes.Equal(trimmed, []byte("null")) {
		return decimal.Zero, fmt.Errorf("non-numeric price %s", string(trimmed))
	}

	var num json.Number
	if err := json.Unmarshal(trimmed, &num); err != nil {
		return decimal.Zero, fmt.Errorf("non-numeric price %s: %w", string(trimmed), err)
	}

	price, err := decimal.NewFromString(num.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("non-numeric price %s: %w", num, err)
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative price %s", price)
	}
	return price, nil
}

// ToSamples convierte los puntos del gráfico en muestras ordenadas ascendentemente
func (r MarketChartResponse) ToSamples() ([]*entities.PriceSample, error) {
	samples := make([]*entities.PriceSample, 0, len(r.Prices))

	for i, point := range r.Prices {
		if len(point) != 2 {
			return nil, fmt.Errorf("point %d: expected [timestamp, price], got %d values", i, len(point))
		}

		ms, err := point[0].Int64()
		if err != nil {
			// algunos puntos vienen con timestamp en float
			f, ferr := point[0].Float64()
			if ferr != nil {
				return nil, fmt.Errorf("point %d: invalid timestamp %q", i, point[0])
			}
			ms = int64(f)
		}

		price, err := decimal.NewFromString(point[1].String())
		if err != nil {
			return nil, fmt.Errorf("point %d: invalid price %q", i, point[1])
		}

		sample, err := entities.NewPriceSample(price, time.UnixMilli(ms), entities.SourceCoinGecko)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		samples = append(samples, sample)
	}

	sortSamples(samples)
	return samples, nil
}

func sortSamples(samples []*entities.PriceSample) {
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})
}
