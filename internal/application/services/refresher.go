package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"btc-price-service/internal/domain/apperror"
	"btc-price-service/internal/domain/interfaces"
	"btc-price-service/internal/infrastructure/config"
	"btc-price-service/internal/infrastructure/logging"
	"btc-price-service/internal/infrastructure/metrics"

	"github.com/avast/retry-go/v4"
	"github.com/robfig/cron/v3"
)

// Refresher keeps the current price warm by calling RefreshCurrentPrice on a
// cron schedule. Retries happen here, never inside the client.
type Refresher struct {
	service  interfaces.PriceService
	schedule string

	maxAttempts   uint
	retryDelay    time.Duration
	maxRetryDelay time.Duration

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewRefresher valida el schedule y arma el job
func NewRefresher(service interfaces.PriceService, cfg config.RefreshConfig) (*Refresher, error) {
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", cfg.Schedule, err)
	}

	attempts := cfg.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}

	return &Refresher{
		service:       service,
		schedule:      cfg.Schedule,
		maxAttempts:   attempts,
		retryDelay:    cfg.RetryDelay,
		maxRetryDelay: cfg.MaxRetryDelay,
	}, nil
}

// Start schedules the job. Runs are skipped while a previous one is still
// in flight. ctx bounds every run.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return nil
	}

	logger := cronLogger{job: "price_refresh"}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(logger),
		cron.WithChain(
			cron.Recover(logger),
			cron.SkipIfStillRunning(logger),
		),
	)

	if _, err := c.AddFunc(r.schedule, func() { _ = r.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule price refresh: %w", err)
	}

	c.Start()
	r.cron = c
	r.running = true

	logging.Info(ctx, "Price refresher started", logging.Fields{
		"schedule":     r.schedule,
		"max_attempts": r.maxAttempts,
	})
	return nil
}

// Stop detiene el scheduler; el contexto devuelto termina cuando el job en curso finaliza
func (r *Refresher) Stop() context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}

	r.running = false
	return r.cron.Stop()
}

// RunOnce performs one refresh with retries.
func (r *Refresher) RunOnce(ctx context.Context) error {
	start := time.Now()

	err := retry.Do(
		func() error {
			_, err := r.service.RefreshCurrentPrice(ctx)
			return err
		},
		retry.Attempts(r.maxAttempts),
		retry.Delay(r.retryDelay),
		retry.MaxDelay(r.maxRetryDelay),
		retry.DelayType(rateLimitAwareDelay),
		retry.RetryIf(isRetryable),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			metrics.RecordRefreshRetry()
			logging.WarnWithError(ctx, "Price refresh attempt failed, retrying", err, logging.Fields{
				"attempt":    n + 1,
				"error_kind": apperror.KindOf(err).String(),
			})
		}),
	)

	metrics.RecordPriceRefresh(err)
	if err != nil {
		logging.ErrorWithError(ctx, "Price refresh failed", err, logging.Fields{
			"duration_ms": float64(time.Since(start).Nanoseconds()) / 1e6,
		})
		return err
	}

	logging.Debug(ctx, "Price refresh completed", logging.Fields{
		"duration_ms": float64(time.Since(start).Nanoseconds()) / 1e6,
	})
	return nil
}

// isRetryable: errores de entrada o símbolo desconocido no mejoran reintentando
func isRetryable(err error) bool {
	switch apperror.KindOf(err) {
	case apperror.KindValidation, apperror.KindUnknownSymbol:
		return false
	default:
		return true
	}
}

// rateLimitAwareDelay waits the upstream Retry-After hint when there is one.
// retry-go caps the result at MaxDelay.
func rateLimitAwareDelay(n uint, err error, cfg *retry.Config) time.Duration {
	if appErr, ok := apperror.As(err); ok && appErr.Kind == apperror.KindRateLimit && appErr.RetryAfter > 0 {
		return appErr.RetryAfter
	}
	return retry.BackOffDelay(n, err, cfg)
}
