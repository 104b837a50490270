package cache

import (
	"context"
	"fmt"
	"time"

	"btc-price-service/internal/domain/interfaces"
	"btc-price-service/internal/infrastructure/config"
	"btc-price-service/internal/infrastructure/logging"

	"github.com/redis/go-redis/v9"
)

// CacheType represents the type of cache implementation
type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeRedis  CacheType = "redis"
)

// Config holds cache configuration options
type Config struct {
	Type CacheType
	// RedisClient es nil cuando Redis no está disponible
	RedisClient *redis.Client
}

// Factory provides methods to create cache instances
type Factory struct{}

// NewFactory creates a new cache factory
func NewFactory() *Factory {
	return &Factory{}
}

// CreateCache creates a cache instance based on configuration.
// Si se pide Redis pero no hay cliente, cae a memoria con un warning.
func (f *Factory) CreateCache(ctx context.Context, cfg Config) (interfaces.Cache, error) {
	switch cfg.Type {
	case CacheTypeMemory:
		logging.Info(ctx, "Creating memory cache", logging.Fields{"type": "memory"})
		return NewMemoryCache(), nil

	case CacheTypeRedis:
		if cfg.RedisClient == nil {
			logging.Warn(ctx, "Redis unavailable, falling back to memory cache", logging.Fields{
				"requested_type": "redis",
				"type":           "memory",
			})
			return NewMemoryCache(), nil
		}
		logging.Info(ctx, "Creating Redis cache", logging.Fields{"type": "redis"})
		return NewRedisCacheWithClient(cfg.RedisClient), nil

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}

// NewRedisClient construye el cliente desde la configuración. URL tiene prioridad sobre Addr.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.URL != "" {
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		if cfg.Password != "" {
			opts.Password = cfg.Password
		}
		return redis.NewClient(opts), nil
	}

	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}), nil
}

// ConnectRedis crea el cliente y verifica la conexión
func ConnectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client, err := NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", client.Options().Addr, err)
	}

	logging.Info(ctx, "Redis connection established successfully", logging.Fields{
		"addr":     client.Options().Addr,
		"database": client.Options().DB,
	})
	return client, nil
}
