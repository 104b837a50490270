package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"btc-price-service/internal/application/services"
	"btc-price-service/internal/domain/interfaces"
	"btc-price-service/internal/infrastructure/config"
	"btc-price-service/internal/infrastructure/exchange/coingecko"
	"btc-price-service/internal/infrastructure/logging"
	"btc-price-service/internal/infrastructure/metrics"
	"btc-price-service/internal/infrastructure/ratelimit"
	"btc-price-service/internal/infrastructure/realtime"
	"btc-price-service/internal/infrastructure/repositories/cache"
	"btc-price-service/internal/infrastructure/repositories/postgres"
	"btc-price-service/internal/infrastructure/web/handlers"
	"btc-price-service/internal/infrastructure/web/router"
	"btc-price-service/internal/infrastructure/web/server"

	"github.com/redis/go-redis/v9"
)

// @title Bitcoin Price Service API
// @version 1.0.0
// @description Current and historical Bitcoin prices in USD backed by CoinGecko, PostgreSQL and Redis.
// @host localhost:8000
// @BasePath /
// @schemes http
func main() {
	log.Println("Starting Bitcoin Price Service...")

	// Logging mínimo para errores de arranque
	if err := logging.InitializeGlobalLoggers(logging.ConfigFromEnvironment("btc-price-service", "1.0.0")); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}

	// config.yaml + config.<environment>.yaml + env vars
	cfg, err := config.NewLoader().LoadForEnvironment("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := config.NewValidator().Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	loggerConfig := logging.NewConfig(cfg.App.Name, cfg.App.Version, cfg.App.Environment).
		WithLevel(logging.LogLevelFromString(cfg.Logging.Level)).
		WithFormat(logging.LogFormatFromString(cfg.Logging.Format)).
		WithSource(cfg.Logging.AddSource)
	if err := logging.InitializeGlobalLoggers(loggerConfig); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info(ctx, "Initializing service components", logging.Fields{
		"environment": cfg.App.Environment,
		"version":     cfg.App.Version,
	})

	startedAt := time.Now()
	metrics.SetApplicationInfo(cfg.App.Version, cfg.App.Environment, runtime.Version())

	// PostgreSQL es obligatorio
	pool, err := postgres.ConnectWithRetry(ctx, cfg.Database)
	if err != nil {
		logging.ErrorWithError(ctx, "Failed to connect to PostgreSQL", err, nil)
		os.Exit(1)
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		logging.ErrorWithError(ctx, "Failed to ensure database schema", err, nil)
		os.Exit(1)
	}
	store := postgres.NewPriceStore(pool)

	// Redis es opcional; sin él se usa cache y rate limit en memoria
	redisClient := connectRedis(ctx, cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	backend, err := cache.NewFactory().CreateCache(ctx, cache.Config{
		Type:        cache.CacheType(cfg.Cache.Backend),
		RedisClient: redisClient,
	})
	if err != nil {
		logging.ErrorWithError(ctx, "Failed to create cache", err, nil)
		os.Exit(1)
	}
	priceCache := cache.NewPriceCache(backend)

	client := coingecko.NewClientWithConfig(cfg.CoinGecko)

	hub := realtime.NewHub(realtime.DefaultConfig(), priceCache)
	go hub.Run(ctx)

	priceService := services.NewPriceService(client, store, priceCache, hub, services.Options{
		CacheTTL:        cfg.Cache.TTL,
		HistoryCacheTTL: cfg.History.CacheTTL,
		MaxHistoryRange: cfg.History.MaxRange,
	})

	// Backfill inicial; un fallo no impide arrancar
	backfiller := services.NewBackfiller(client, store, cfg.History.BackfillDays,
		cfg.Refresh.MaxAttempts, cfg.Refresh.RetryDelay, cfg.Refresh.MaxRetryDelay)
	if _, err := backfiller.Run(ctx); err != nil {
		logging.WarnWithError(ctx, "Historical backfill failed", err, nil)
	}

	refresher, err := services.NewRefresher(priceService, cfg.Refresh)
	if err != nil {
		logging.ErrorWithError(ctx, "Invalid refresh schedule", err, nil)
		os.Exit(1)
	}
	if cfg.Refresh.Enabled {
		if err := refresher.Start(ctx); err != nil {
			logging.ErrorWithError(ctx, "Failed to start price refresher", err, nil)
			os.Exit(1)
		}
	}

	var redisPinger interfaces.Pinger
	if redisClient != nil {
		redisPinger = redisPing{redisClient}
	}

	handler := router.New(router.Dependencies{
		Bitcoin:   handlers.NewBitcoinHandler(priceService, cfg.History.MaxRange),
		Health:    handlers.NewHealthHandler(store, redisPinger, cfg.App.Name, cfg.App.Version),
		WebSocket: hub.ServeWS,
		RateLimit: ratelimit.NewRateLimitMiddlewareWithConfig(cfg.RateLimit, redisClient).Handler,
	})
	srv := server.NewServer(handler, cfg.Server)

	go trackUptime(ctx, startedAt)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	logging.Info(ctx, "Bitcoin Price Service is running", logging.Fields{
		"port":          srv.GetPort(),
		"cache_backend": cfg.Cache.Backend,
		"redis":         redisClient != nil,
		"refresh":       cfg.Refresh.Schedule,
	})

	// Wait for interrupt signal to gracefully shutdown the server
	select {
	case <-ctx.Done():
		logging.Info(context.Background(), "Shutting down server...", nil)
	case err := <-serverErr:
		if err != nil {
			logging.ErrorWithError(context.Background(), "HTTP server failed", err, nil)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// El cron espera al job en curso
	select {
	case <-refresher.Stop().Done():
	case <-shutdownCtx.Done():
		logging.Warn(shutdownCtx, "Refresh job did not finish before shutdown timeout", nil)
	}

	hub.Close()

	if err := srv.Stop(shutdownCtx); err != nil {
		logging.ErrorWithError(shutdownCtx, "Server forced to shutdown", err, nil)
	}

	logging.Info(context.Background(), "Server shutdown completed", nil)
}

func connectRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	needsRedis := cfg.Cache.Backend == string(cache.CacheTypeRedis) ||
		(cfg.RateLimit.Enabled && cfg.RateLimit.Backend == ratelimit.BackendRedis)
	if !needsRedis {
		return nil
	}

	client, err := cache.ConnectRedis(ctx, cfg.Cache.Redis)
	if err != nil {
		logging.WarnWithError(ctx, "Redis unavailable, using in-memory cache and rate limiting", err, nil)
		return nil
	}
	return client
}

// redisPing adapta *redis.Client a interfaces.Pinger
type redisPing struct {
	client *redis.Client
}

func (p redisPing) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func trackUptime(ctx context.Context, startedAt time.Time) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateUptime(time.Since(startedAt).Seconds())
		}
	}
}
