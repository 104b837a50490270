package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Validator valida la configuración cargada
type Validator struct{}

// NewValidator crea una nueva instancia del validador
func NewValidator() *Validator {
	return &Validator{}
}

// Validate valida toda la configuración
func (v *Validator) Validate(config *Config) error {
	if err := v.validateServer(config.Server); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}

	if err := v.validateDatabase(config.Database); err != nil {
		return fmt.Errorf("database config validation failed: %w", err)
	}

	if err := v.validateCache(config.Cache); err != nil {
		return fmt.Errorf("cache config validation failed: %w", err)
	}

	if err := v.validateCoinGecko(config.CoinGecko); err != nil {
		return fmt.Errorf("coingecko config validation failed: %w", err)
	}

	if err := v.validateRateLimit(config.RateLimit, config.Cache.Redis); err != nil {
		return fmt.Errorf("rate limit config validation failed: %w", err)
	}

	if err := v.validateRefresh(config.Refresh); err != nil {
		return fmt.Errorf("refresh config validation failed: %w", err)
	}

	if err := v.validateHistory(config.History); err != nil {
		return fmt.Errorf("history config validation failed: %w", err)
	}

	if err := v.validateLogging(config.Logging); err != nil {
		return fmt.Errorf("logging config validation failed: %w", err)
	}

	return nil
}

// validateServer valida la configuración del servidor
func (v *Validator) validateServer(config ServerConfig) error {
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("invalid port: %d, must be between 1-65535", config.Port)
	}

	if config.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive, got: %v", config.ShutdownTimeout)
	}

	if config.ShutdownTimeout > 5*time.Minute {
		return fmt.Errorf("shutdown_timeout too long: %v, max 5 minutes", config.ShutdownTimeout)
	}

	if config.ReadTimeout <= 0 || config.WriteTimeout <= 0 || config.IdleTimeout <= 0 {
		return fmt.Errorf("read/write/idle timeouts must be positive")
	}

	return nil
}

// validateDatabase valida la configuración de Postgres
func (v *Validator) validateDatabase(config DatabaseConfig) error {
	if config.URL == "" {
		return fmt.Errorf("database url cannot be empty")
	}

	parsedURL, err := url.Parse(config.URL)
	if err != nil {
		return fmt.Errorf("invalid database url: %v", err)
	}

	if parsedURL.Scheme != "postgres" && parsedURL.Scheme != "postgresql" {
		return fmt.Errorf("invalid database url scheme: %s, must be postgres or postgresql", parsedURL.Scheme)
	}

	if config.MaxConns <= 0 {
		return fmt.Errorf("max_conns must be positive, got: %d", config.MaxConns)
	}

	if config.MinConns < 0 || config.MinConns > config.MaxConns {
		return fmt.Errorf("min_conns must be between 0 and max_conns (%d), got: %d", config.MaxConns, config.MinConns)
	}

	if config.ConnectTimeout <= 0 {
		return fmt.Errorf("connect_timeout must be positive, got: %v", config.ConnectTimeout)
	}

	return nil
}

// validateCache valida la configuración del cache
func (v *Validator) validateCache(config CacheConfig) error {
	validBackends := []string{"memory", "redis"}
	if !contains(validBackends, config.Backend) {
		return fmt.Errorf("invalid cache backend: %s, must be one of: %v", config.Backend, validBackends)
	}

	if err := v.validateTTL(config.TTL); err != nil {
		return err
	}

	// Validar Redis config si se usa Redis
	if strings.EqualFold(config.Backend, "redis") {
		if err := v.validateRedis(config.Redis); err != nil {
			return err
		}
	}

	return nil
}

// validateTTL valida el TTL del precio actual
func (v *Validator) validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("cache TTL must be positive, got: %v", ttl)
	}

	if ttl < time.Second {
		return fmt.Errorf("cache TTL too short: %v, min 1 second", ttl)
	}

	if ttl > 24*time.Hour {
		return fmt.Errorf("cache TTL too long: %v, max 24 hours", ttl)
	}

	return nil
}

// validateRedis valida la configuración de Redis
func (v *Validator) validateRedis(config RedisConfig) error {
	if config.URL != "" {
		parsedURL, err := url.Parse(config.URL)
		if err != nil {
			return fmt.Errorf("invalid redis url: %v", err)
		}
		if parsedURL.Scheme != "redis" && parsedURL.Scheme != "rediss" {
			return fmt.Errorf("invalid redis url scheme: %s, must be redis or rediss", parsedURL.Scheme)
		}
		return nil
	}

	if config.Addr == "" {
		return fmt.Errorf("redis addr cannot be empty")
	}

	// Validar formato de dirección
	if !strings.Contains(config.Addr, ":") {
		return fmt.Errorf("invalid redis addr format: %s, expected host:port", config.Addr)
	}

	if config.DB < 0 || config.DB > 15 {
		return fmt.Errorf("invalid redis DB: %d, must be between 0-15", config.DB)
	}

	return nil
}

// validateCoinGecko valida la configuración del proveedor de precios
func (v *Validator) validateCoinGecko(config CoinGeckoConfig) error {
	if err := v.validateURL(config.BaseURL, "coingecko base_url"); err != nil {
		return err
	}

	if config.Timeout <= 0 {
		return fmt.Errorf("coingecko timeout must be positive, got: %v", config.Timeout)
	}

	if config.Timeout > time.Minute {
		return fmt.Errorf("coingecko timeout too long: %v, max 1 minute", config.Timeout)
	}

	if config.RequestsPerMinute < 0 {
		return fmt.Errorf("coingecko requests_per_minute cannot be negative, got: %d", config.RequestsPerMinute)
	}

	if config.Burst < 0 {
		return fmt.Errorf("coingecko burst cannot be negative, got: %d", config.Burst)
	}

	return nil
}

// validateRateLimit valida la configuración de rate limiting
func (v *Validator) validateRateLimit(config RateLimitConfig, redisConfig RedisConfig) error {
	if !config.Enabled {
		return nil
	}

	validBackends := []string{"memory", "redis"}
	if !contains(validBackends, config.Backend) {
		return fmt.Errorf("invalid rate_limit backend: %s, must be one of: %v", config.Backend, validBackends)
	}

	if config.RequestsPerMinute <= 0 {
		return fmt.Errorf("rate_limit requests_per_minute must be positive when enabled, got: %d", config.RequestsPerMinute)
	}

	if config.RequestsPerMinute > 100000 {
		return fmt.Errorf("rate_limit requests_per_minute too high: %d, max 100000", config.RequestsPerMinute)
	}

	if strings.EqualFold(config.Backend, "redis") {
		return v.validateRedis(redisConfig)
	}

	return nil
}

// validateRefresh valida el job de refresco
func (v *Validator) validateRefresh(config RefreshConfig) error {
	if !config.Enabled {
		return nil
	}

	if _, err := cron.ParseStandard(config.Schedule); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %v", config.Schedule, err)
	}

	if config.MaxAttempts < 1 || config.MaxAttempts > 10 {
		return fmt.Errorf("refresh max_attempts must be between 1-10, got: %d", config.MaxAttempts)
	}

	if config.RetryDelay <= 0 {
		return fmt.Errorf("refresh retry_delay must be positive, got: %v", config.RetryDelay)
	}

	if config.MaxRetryDelay < config.RetryDelay {
		return fmt.Errorf("refresh max_retry_delay (%v) should not be less than retry_delay (%v)", config.MaxRetryDelay, config.RetryDelay)
	}

	return nil
}

// validateHistory valida consultas históricas y backfill
func (v *Validator) validateHistory(config HistoryConfig) error {
	if config.MaxRange <= 0 {
		return fmt.Errorf("history max_range must be positive, got: %v", config.MaxRange)
	}

	if config.CacheTTL < 0 {
		return fmt.Errorf("history cache_ttl cannot be negative, got: %v", config.CacheTTL)
	}

	if config.BackfillDays < 0 || config.BackfillDays > 365 {
		return fmt.Errorf("history backfill_days must be between 0-365, got: %d", config.BackfillDays)
	}

	return nil
}

// validateLogging valida la configuración de logging
func (v *Validator) validateLogging(config LoggingConfig) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, strings.ToLower(config.Level)) {
		return fmt.Errorf("invalid log level: %s, must be one of: %v", config.Level, validLevels)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, strings.ToLower(config.Format)) {
		return fmt.Errorf("invalid log format: %s, must be one of: %v", config.Format, validFormats)
	}

	return nil
}

// validateURL valida que una URL sea válida para HTTP/HTTPS
func (v *Validator) validateURL(rawURL, fieldName string) error {
	if rawURL == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid %s: %s, error: %v", fieldName, rawURL, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("invalid %s scheme: %s, must be http or https", fieldName, parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s must have a host", fieldName)
	}

	return nil
}

// contains verifica si un slice contiene un elemento
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}
