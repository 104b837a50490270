package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"btc-price-service/internal/domain/apperror"
	"btc-price-service/internal/domain/entities"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupStore conecta contra TEST_DATABASE_URL; sin ella los tests de integración se saltan
func setupStore(t *testing.T) (*PriceStore, *pgxpool.Pool) {
	t.Helper()

	_ = godotenv.Load("../../../../.env")

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping postgres integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	require.NoError(t, EnsureSchema(ctx, pool))
	_, err = pool.Exec(ctx, "TRUNCATE bitcoin_prices RESTART IDENTITY")
	require.NoError(t, err)

	return NewPriceStore(pool), pool
}

func mustSample(t *testing.T, price string, ts time.Time) *entities.PriceSample {
	t.Helper()
	sample, err := entities.NewPriceSample(decimal.RequireFromString(price), ts, entities.SourceCoinGecko)
	require.NoError(t, err)
	return sample
}

func TestPriceStore_InsertAndQueryRange(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	noon := time.Date(2024, 2, 19, 12, 0, 0, 0, time.UTC)
	one := time.Date(2024, 2, 19, 13, 0, 0, 0, time.UTC)

	// insertados fuera de orden
	require.NoError(t, store.Insert(ctx, mustSample(t, "49900", one)))
	require.NoError(t, store.Insert(ctx, mustSample(t, "50000", noon)))

	samples, err := store.QueryRange(ctx,
		time.Date(2024, 2, 19, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	require.Len(t, samples, 2)

	assert.True(t, samples[0].Timestamp.Equal(noon))
	assert.True(t, decimal.NewFromInt(50000).Equal(samples[0].PriceUSD))
	assert.True(t, samples[1].Timestamp.Equal(one))
	assert.True(t, decimal.NewFromInt(49900).Equal(samples[1].PriceUSD))
}

func TestPriceStore_QueryRangeInclusiveBounds(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	ts := time.Date(2024, 2, 19, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Insert(ctx, mustSample(t, "50000.12345678", ts)))

	samples, err := store.QueryRange(ctx, ts, ts)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, "50000.12345678", samples[0].PriceUSD.String())
}

func TestPriceStore_QueryRangeEmpty(t *testing.T) {
	store, _ := setupStore(t)

	samples, err := store.QueryRange(context.Background(),
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	assert.NotNil(t, samples)
	assert.Empty(t, samples)
}

func TestPriceStore_QueryRangeInverted(t *testing.T) {
	// no necesita base: la validación ocurre antes de consultar
	store := NewPriceStore(nil)

	_, err := store.QueryRange(context.Background(), time.Now(), time.Now().Add(-time.Hour))
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestPriceStore_InsertBatchAndLatest(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	base := time.Date(2024, 2, 19, 0, 0, 0, 0, time.UTC)
	batch := []*entities.PriceSample{
		mustSample(t, "51000", base),
		mustSample(t, "51500", base.Add(time.Hour)),
		mustSample(t, "52000", base.Add(2*time.Hour)),
	}

	inserted, err := store.InsertBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, int64(3), inserted)

	latest, err = store.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, decimal.NewFromInt(52000).Equal(latest.PriceUSD))
}

func TestPriceStore_Ping(t *testing.T) {
	store, _ := setupStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestPriceStore_ClosedPoolIsDatabaseError(t *testing.T) {
	store, pool := setupStore(t)
	pool.Close()

	err := store.Insert(context.Background(), mustSample(t, "1", time.Now()))
	assert.Equal(t, apperror.KindDatabase, apperror.KindOf(err))
}
