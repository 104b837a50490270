package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// LoggerSet agrupa el logger base y los loggers de dominio construidos sobre él.
// Todos comparten el mismo StructuredLogger, así que nivel y salida son comunes.
type LoggerSet struct {
	Base        Logger
	HTTP        HTTPLogger
	ExternalAPI ExternalAPILogger
	Cache       CacheLogger
	Price       PriceLogger
	Security    SecurityLogger
}

// NewLoggerSet crea el logger base desde config y deriva los especializados
func NewLoggerSet(config *LoggerConfig) (*LoggerSet, error) {
	if config == nil {
		config = DefaultConfig()
	}

	base, err := NewStructuredLogger(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create base logger: %w", err)
	}

	return &LoggerSet{
		Base:        base,
		HTTP:        NewHTTPLogger(base),
		ExternalAPI: NewExternalAPILogger(base),
		Cache:       NewCacheLogger(base),
		Price:       NewPriceLogger(base),
		Security:    NewSecurityLogger(base),
	}, nil
}

var (
	globalMu      sync.RWMutex
	globalLoggers *LoggerSet
)

// InitializeGlobalLoggers reemplaza el set global. main lo llama dos veces:
// primero con ConfigFromEnvironment y luego con la configuración cargada.
func InitializeGlobalLoggers(config *LoggerConfig) error {
	set, err := NewLoggerSet(config)
	if err != nil {
		return fmt.Errorf("failed to initialize global loggers: %w", err)
	}

	globalMu.Lock()
	globalLoggers = set
	globalMu.Unlock()
	return nil
}

// loggers devuelve el set global; si nadie lo inicializó usa el preset del entorno
func loggers() *LoggerSet {
	globalMu.RLock()
	set := globalLoggers
	globalMu.RUnlock()
	if set != nil {
		return set
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLoggers == nil {
		set, err := NewLoggerSet(ConfigFromEnvironment("btc-price-service", "1.0.0"))
		if err != nil {
			set, _ = NewLoggerSet(DefaultConfig())
		}
		globalLoggers = set
	}
	return globalLoggers
}

// NewTestingConfig descarta la salida; los tests que necesitan inspeccionar logs
// pasan su propio writer con WithOutput.
func NewTestingConfig(service string) *LoggerConfig {
	return NewConfig(service, "test", "testing").
		WithLevel(LevelDebug).
		WithFormat(FormatJSON).
		WithOutput(io.Discard)
}

// presetFor elige los valores base de cada entorno antes de aplicar overrides
func presetFor(service, version, environment string) *LoggerConfig {
	switch strings.ToLower(environment) {
	case "development", "dev", "local":
		return NewConfig(service, version, environment).
			WithLevel(LevelDebug).
			WithFormat(FormatText).
			WithSource(true)
	case "testing", "test":
		return NewTestingConfig(service)
	default:
		// production, staging y cualquier otro: JSON a nivel info
		return NewConfig(service, version, environment)
	}
}

// ConfigFromEnvironment arma la configuración de logging solo con variables de
// entorno (ENVIRONMENT, LOG_LEVEL, LOG_FORMAT, LOG_ADD_SOURCE). Se usa antes de
// cargar la configuración completa para poder loguear errores de arranque.
func ConfigFromEnvironment(service, version string) *LoggerConfig {
	environment := os.Getenv("ENVIRONMENT")
	if environment == "" {
		environment = "development"
	}
	config := presetFor(service, version, environment)

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.WithLevel(LogLevelFromString(level))
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		config.WithFormat(LogFormatFromString(format))
	}
	if source := os.Getenv("LOG_ADD_SOURCE"); source != "" {
		config.WithSource(strings.EqualFold(source, "true"))
	}

	return config
}
