package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"btc-price-service/internal/domain/apperror"
	"btc-price-service/internal/domain/entities"
	"btc-price-service/internal/infrastructure/metrics"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	insertPriceSQL = `INSERT INTO bitcoin_prices (price_usd, timestamp, source) VALUES ($1::numeric, $2, $3)`

	queryRangeSQL = `SELECT price_usd::text, timestamp, source
		FROM bitcoin_prices
		WHERE timestamp >= $1 AND timestamp <= $2
		ORDER BY timestamp ASC, id ASC`

	latestSQL = `SELECT price_usd::text, timestamp, source
		FROM bitcoin_prices
		ORDER BY timestamp DESC, id DESC
		LIMIT 1`
)

// PriceStore implementa interfaces.PriceStore sobre Postgres
type PriceStore struct {
	pool *pgxpool.Pool
}

func NewPriceStore(pool *pgxpool.Pool) *PriceStore {
	return &PriceStore{pool: pool}
}

// Insert persiste una muestra
func (s *PriceStore) Insert(ctx context.Context, sample *entities.PriceSample) error {
	if sample == nil {
		return apperror.Validation("price sample is required")
	}

	start := time.Now()
	_, err := s.pool.Exec(ctx, insertPriceSQL, sample.PriceUSD.String(), sample.Timestamp.UTC(), sample.Source)
	metrics.RecordStoreOperation("insert", err, time.Since(start).Seconds())
	if err != nil {
		return apperror.Database("Failed to insert price sample", err)
	}
	return nil
}

// InsertBatch persiste varias muestras en un único round trip y devuelve cuántas se insertaron
func (s *PriceStore) InsertBatch(ctx context.Context, samples []*entities.PriceSample) (int64, error) {
	if len(samples) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, sample := range samples {
		if sample == nil {
			continue
		}
		batch.Queue(insertPriceSQL, sample.PriceUSD.String(), sample.Timestamp.UTC(), sample.Source)
	}

	start := time.Now()
	inserted, err := s.sendBatch(ctx, batch)
	metrics.RecordStoreOperation("insert_batch", err, time.Since(start).Seconds())
	if err != nil {
		return inserted, apperror.Database("Failed to insert price samples", err)
	}
	return inserted, nil
}

func (s *PriceStore) sendBatch(ctx context.Context, batch *pgx.Batch) (inserted int64, err error) {
	results := s.pool.SendBatch(ctx, batch)
	defer func() {
		if closeErr := results.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for i := 0; i < batch.Len(); i++ {
		tag, execErr := results.Exec()
		if execErr != nil {
			return inserted, fmt.Errorf("batch item %d: %w", i, execErr)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

// QueryRange devuelve las muestras con start <= timestamp <= end en orden ascendente.
// Sin filas devuelve un slice vacío, nunca nil.
func (s *PriceStore) QueryRange(ctx context.Context, start, end time.Time) ([]*entities.PriceSample, error) {
	if end.Before(start) {
		return nil, apperror.Validation("End time must be after start time")
	}

	began := time.Now()
	samples, err := s.queryRange(ctx, start.UTC(), end.UTC())
	metrics.RecordStoreOperation("query_range", err, time.Since(began).Seconds())
	if err != nil {
		return nil, apperror.Database("Failed to query price history", err)
	}
	return samples, nil
}

func (s *PriceStore) queryRange(ctx context.Context, start, end time.Time) ([]*entities.PriceSample, error) {
	rows, err := s.pool.Query(ctx, queryRangeSQL, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSamples(rows)
}

// Latest devuelve la muestra más reciente, o nil si la tabla está vacía
func (s *PriceStore) Latest(ctx context.Context) (*entities.PriceSample, error) {
	start := time.Now()
	sample, err := scanSample(s.pool.QueryRow(ctx, latestSQL))
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.RecordStoreOperation("latest", nil, time.Since(start).Seconds())
		return nil, nil
	}
	metrics.RecordStoreOperation("latest", err, time.Since(start).Seconds())
	if err != nil {
		return nil, apperror.Database("Failed to query latest price", err)
	}
	return sample, nil
}

// Ping verifica la conectividad con la base
func (s *PriceStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return apperror.Database("Database is unreachable", err)
	}
	return nil
}

// --- scan helpers ---

type scannable interface {
	Scan(dest ...any) error
}

func scanSample(row scannable) (*entities.PriceSample, error) {
	var (
		price  string
		ts     time.Time
		source string
	)
	if err := row.Scan(&price, &ts, &source); err != nil {
		return nil, err
	}
	return toSample(price, ts, source)
}

type rowsIter interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collectSamples(rows rowsIter) ([]*entities.PriceSample, error) {
	out := make([]*entities.PriceSample, 0)
	for rows.Next() {
		sample, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sample)
	}
	return out, rows.Err()
}

func toSample(price string, ts time.Time, source string) (*entities.PriceSample, error) {
	value, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("invalid stored price %q: %w", price, err)
	}
	return entities.NewPriceSample(value, ts, source)
}
