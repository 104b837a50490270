package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Loader handles configuration loading using Viper
type Loader struct {
	v        *viper.Viper
	envFiles []string
}

// NewLoader creates a new configuration loader instance.
// envFiles are optional dotenv files; ".env" is used when none are given.
func NewLoader(envFiles ...string) *Loader {
	return &Loader{
		v:        viper.New(),
		envFiles: envFiles,
	}
}

// Load loads configuration from .env, files and environment variables
func (l *Loader) Load() (*Config, error) {
	return l.load(false, "")
}

// LoadForEnvironment es Load más config.<environment>.yaml superpuesto al archivo
// base si existe. Con environment vacío se usa el entorno ya resuelto (ENVIRONMENT,
// ENV o app.environment). Las variables de entorno siguen ganando sobre ambos archivos.
func (l *Loader) LoadForEnvironment(environment string) (*Config, error) {
	return l.load(true, environment)
}

func (l *Loader) load(overlay bool, environment string) (*Config, error) {
	// 1. .env (optional, never overrides the real environment)
	if err := l.loadDotEnv(); err != nil {
		return nil, err
	}

	// 2. Configure Viper
	l.setupViper()

	// 3. Read configuration
	if err := l.v.ReadInConfig(); err != nil {
		// If config.yaml doesn't exist, use only env vars and defaults
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 4. Overlay por entorno, antes de unmarshal: normalizeSecondDurations usa Set
	// y taparía cualquier merge posterior
	if overlay {
		if err := l.mergeEnvironment(environment); err != nil {
			return nil, err
		}
	}

	return l.unmarshal(GetDefaultConfig())
}

func (l *Loader) mergeEnvironment(environment string) error {
	environment = strings.ToLower(strings.TrimSpace(environment))
	if environment == "" {
		environment = strings.ToLower(l.v.GetString("app.environment"))
	}
	if environment == "" {
		environment = GetDefaultConfig().App.Environment
	}

	l.v.SetConfigName("config." + environment)
	if err := l.v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to merge %s config: %w", environment, err)
		}
	}
	return nil
}

func (l *Loader) unmarshal(config *Config) (*Config, error) {
	if err := l.normalizeSecondDurations(); err != nil {
		return nil, err
	}

	if err := l.v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	l.overrideWithEnvVars(config)

	return config, nil
}

func (l *Loader) loadDotEnv() error {
	files := l.envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

// setupViper configures Viper to read files and env vars
func (l *Loader) setupViper() {
	l.v.SetConfigName("config")
	l.v.SetConfigType("yaml")

	l.v.AddConfigPath("./configs")
	l.v.AddConfigPath("../configs") // cuando se ejecuta desde cmd/
	l.v.AddConfigPath(".")
	l.v.AddConfigPath("/etc/btc-price")

	// BTC_PRICE_SERVER_PORT, BTC_PRICE_CACHE_TTL, ...
	l.v.AutomaticEnv()
	l.v.SetEnvPrefix("BTC_PRICE")
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	l.bindEnvVars()
}

// bindEnvVars maps the plain environment variable names used by deployments
func (l *Loader) bindEnvVars() {
	envMappings := map[string]string{
		"app.environment":                "ENVIRONMENT",
		"app.debug":                      "DEBUG",
		"server.port":                    "APP_PORT",
		"database.url":                   "DATABASE_URL",
		"cache.backend":                  "CACHE_BACKEND",
		"cache.ttl":                      "CACHE_TTL",
		"cache.redis.url":                "REDIS_URL",
		"cache.redis.password":           "REDIS_PASSWORD",
		"cache.redis.db":                 "REDIS_DB",
		"coingecko.base_url":             "COINGECKO_API_URL",
		"coingecko.api_key":              "COINGECKO_API_KEY",
		"coingecko.requests_per_minute":  "COINGECKO_RATE_LIMIT",
		"rate_limit.enabled":             "RATE_LIMIT_ENABLED",
		"rate_limit.backend":             "RATE_LIMIT_BACKEND",
		"rate_limit.requests_per_minute": "API_RATE_LIMIT",
		"refresh.enabled":                "REFRESH_ENABLED",
		"refresh.schedule":               "REFRESH_SCHEDULE",
		"history.backfill_days":          "BACKFILL_DAYS",
		"logging.level":                  "LOG_LEVEL",
		"logging.format":                 "LOG_FORMAT",
	}

	for configKey, envVar := range envMappings {
		// BindEnv acepta varios nombres: el primero encontrado gana
		prefixed := "BTC_PRICE_" + strings.ToUpper(strings.ReplaceAll(configKey, ".", "_"))
		_ = l.v.BindEnv(configKey, prefixed, envVar)
	}
	// ENV es el alias corto de ENVIRONMENT
	_ = l.v.BindEnv("app.environment", "BTC_PRICE_APP_ENVIRONMENT", "ENVIRONMENT", "ENV")
}

// normalizeSecondDurations acepta segundos sin unidad ("300") en las claves de duración
func (l *Loader) normalizeSecondDurations() error {
	for _, key := range []string{"cache.ttl", "history.cache_ttl"} {
		if !l.v.IsSet(key) {
			continue
		}

		raw := strings.TrimSpace(l.v.GetString(key))
		if raw == "" {
			continue
		}

		if seconds, err := strconv.ParseFloat(raw, 64); err == nil {
			l.v.Set(key, time.Duration(seconds*float64(time.Second)))
			continue
		}

		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("invalid duration for %s: %q", key, raw)
		}
	}
	return nil
}

// overrideWithEnvVars maneja casos especiales de env vars
func (l *Loader) overrideWithEnvVars(config *Config) {
	// REDIS_HOST / REDIS_PORT se combinan en host:port
	host := os.Getenv("REDIS_HOST")
	port := os.Getenv("REDIS_PORT")
	if host != "" || port != "" {
		currentHost, currentPort, err := net.SplitHostPort(config.Cache.Redis.Addr)
		if err != nil {
			currentHost, currentPort = "localhost", "6379"
		}
		if host == "" {
			host = currentHost
		}
		if port == "" {
			port = currentPort
		}
		config.Cache.Redis.Addr = net.JoinHostPort(host, port)
	}

	// DEBUG sube el nivel de log salvo que LOG_LEVEL sea explícito
	if config.App.Debug && os.Getenv("LOG_LEVEL") == "" && !l.v.IsSet("logging.level") {
		config.Logging.Level = "debug"
	}

	config.App.Environment = strings.ToLower(config.App.Environment)
}
