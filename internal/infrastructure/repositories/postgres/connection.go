package postgres

import (
	"context"
	"fmt"
	"time"

	"btc-price-service/internal/infrastructure/config"
	"btc-price-service/internal/infrastructure/logging"

	"github.com/avast/retry-go/v4"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect crea el pool de conexiones y verifica que la base responde
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MinConns = cfg.MinConns
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return pool, nil
}

// ConnectWithRetry reintenta Connect con backoff exponencial (la base puede tardar en arrancar)
func ConnectWithRetry(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	attempts := cfg.ConnectRetries
	if attempts == 0 {
		attempts = 1
	}

	var pool *pgxpool.Pool
	err := retry.Do(
		func() error {
			p, err := Connect(ctx, cfg)
			if err != nil {
				return err
			}
			pool = p
			return nil
		},
		retry.Attempts(attempts),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(10*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logging.WarnWithError(ctx, "Database connection attempt failed", err, logging.Fields{
				"attempt":      n + 1,
				"max_attempts": attempts,
			})
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to database after %d attempts: %w", attempts, err)
	}

	return pool, nil
}
