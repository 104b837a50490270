package entities

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"btc-price-service/internal/domain/apperror"

	"github.com/shopspring/decimal"
)

// SourceCoinGecko identifica las muestras obtenidas de CoinGecko
const SourceCoinGecko = "coingecko"

// PriceSample is one immutable observation of the Bitcoin price in USD.
type PriceSample struct {
	PriceUSD  decimal.Decimal
	Timestamp time.Time
	Source    string
}

// NewPriceSample validates and builds a sample. The timestamp is normalised to UTC.
func NewPriceSample(price decimal.Decimal, timestamp time.Time, source string) (*PriceSample, error) {
	if price.IsNegative() {
		return nil, apperror.Validation(fmt.Sprintf("price_usd must be non-negative, got %s", price.String()))
	}
	if timestamp.IsZero() {
		return nil, apperror.Validation("timestamp is required")
	}
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, apperror.Validation("source cannot be empty")
	}

	return &PriceSample{
		PriceUSD:  price,
		Timestamp: timestamp.UTC(),
		Source:    source,
	}, nil
}

// Equal compares value, instant and provenance.
func (p *PriceSample) Equal(other *PriceSample) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.PriceUSD.Equal(other.PriceUSD) &&
		p.Timestamp.Equal(other.Timestamp) &&
		p.Source == other.Source
}

// priceSampleJSON is the wire shape. price_usd is written as a bare JSON number
// holding the exact decimal digits.
type priceSampleJSON struct {
	PriceUSD  json.Number `json:"price_usd"`
	Timestamp time.Time   `json:"timestamp"`
	Source    string      `json:"source"`
}

func (p PriceSample) MarshalJSON() ([]byte, error) {
	return json.Marshal(priceSampleJSON{
		PriceUSD:  json.Number(p.PriceUSD.String()),
		Timestamp: p.Timestamp.UTC(),
		Source:    p.Source,
	})
}

func (p *PriceSample) UnmarshalJSON(data []byte) error {
	var raw priceSampleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	price, err := decimal.NewFromString(raw.PriceUSD.String())
	if err != nil {
		return fmt.Errorf("invalid price_usd %q: %w", raw.PriceUSD, err)
	}

	sample, err := NewPriceSample(price, raw.Timestamp, raw.Source)
	if err != nil {
		return err
	}

	*p = *sample
	return nil
}
