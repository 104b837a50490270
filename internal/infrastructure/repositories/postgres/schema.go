package postgres

import (
	"context"

	"btc-price-service/internal/domain/apperror"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS bitcoin_prices (
	id         BIGSERIAL PRIMARY KEY,
	price_usd  NUMERIC(20, 8) NOT NULL CONSTRAINT check_price_non_negative CHECK (price_usd >= 0),
	timestamp  TIMESTAMPTZ NOT NULL,
	source     VARCHAR(50) NOT NULL DEFAULT 'coingecko',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS ix_bitcoin_prices_timestamp ON bitcoin_prices (timestamp);

COMMENT ON TABLE bitcoin_prices IS 'Stores historical Bitcoin prices from various sources';
`

// EnsureSchema crea la tabla e índice si no existen. Es idempotente.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return apperror.Database("Failed to ensure database schema", err)
	}
	return nil
}
