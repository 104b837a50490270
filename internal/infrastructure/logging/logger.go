package logging

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// StructuredLogger implementa Logger sobre logrus
type StructuredLogger struct {
	config *LoggerConfig
	logger *logrus.Logger
}

// NewStructuredLogger crea un nuevo logger estructurado
func NewStructuredLogger(config *LoggerConfig) (*StructuredLogger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger config: %w", err)
	}

	l := logrus.New()
	l.SetOutput(config.Output)
	l.SetLevel(toLogrusLevel(config.Level))

	switch config.Format {
	case FormatText:
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
		})
	default:
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: FieldTimestamp,
				logrus.FieldKeyMsg:  FieldMessage,
			},
		})
	}

	return &StructuredLogger{
		config: config,
		logger: l,
	}, nil
}

func toLogrusLevel(level LogLevel) logrus.Level {
	switch level {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// entry arma el logrus.Entry con los campos del servicio y del contexto
func (sl *StructuredLogger) entry(ctx context.Context, fields Fields) *logrus.Entry {
	base := logrus.Fields{
		FieldService: sl.config.Service,
	}
	if sl.config.Version != "" {
		base[FieldVersion] = sl.config.Version
	}
	if sl.config.Environment != "" {
		base["environment"] = sl.config.Environment
	}

	if ctx != nil {
		if requestID := GetRequestID(ctx); requestID != "" {
			base[FieldRequestID] = requestID
		}
		if startTime := GetStartTime(ctx); !startTime.IsZero() {
			base[FieldDuration] = float64(time.Since(startTime).Nanoseconds()) / 1e6
		}
	}

	if sl.config.AddSource {
		if source := getSource(); source != "" {
			base["source_func"] = source
		}
	}

	for k, v := range fields {
		base[k] = v
	}

	return sl.logger.WithFields(base)
}

// getSource obtiene la función que llamó al logger
func getSource() string {
	// runtime.Caller, getSource, entry, log method, public wrapper
	pc, _, _, ok := runtime.Caller(5)
	if !ok {
		return ""
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return ""
	}
	name := fn.Name()
	if idx := strings.LastIndex(name, "/"); idx != -1 {
		name = name[idx+1:]
	}
	return name
}

func (sl *StructuredLogger) Debug(ctx context.Context, message string, fields Fields) {
	sl.entry(ctx, fields).Debug(message)
}

func (sl *StructuredLogger) Info(ctx context.Context, message string, fields Fields) {
	sl.entry(ctx, fields).Info(message)
}

func (sl *StructuredLogger) Warn(ctx context.Context, message string, fields Fields) {
	sl.entry(ctx, fields).Warn(message)
}

func (sl *StructuredLogger) Error(ctx context.Context, message string, fields Fields) {
	sl.entry(ctx, fields).Error(message)
}

func (sl *StructuredLogger) InfoWithError(ctx context.Context, message string, err error, fields Fields) {
	sl.entry(ctx, enrichWithError(fields, err)).Info(message)
}

func (sl *StructuredLogger) WarnWithError(ctx context.Context, message string, err error, fields Fields) {
	sl.entry(ctx, enrichWithError(fields, err)).Warn(message)
}

func (sl *StructuredLogger) ErrorWithError(ctx context.Context, message string, err error, fields Fields) {
	sl.entry(ctx, enrichWithError(fields, err)).Error(message)
}

// enrichWithError copia los campos y agrega el error
func enrichWithError(fields Fields, err error) Fields {
	if err == nil {
		return fields
	}

	enriched := make(Fields, len(fields)+2)
	for k, v := range fields {
		enriched[k] = v
	}
	enriched[FieldError] = err.Error()
	enriched[FieldErrorType] = getErrorType(err)
	return enriched
}

func (sl *StructuredLogger) SetLevel(level LogLevel) {
	sl.config.Level = level
	sl.logger.SetLevel(toLogrusLevel(level))
}

func (sl *StructuredLogger) GetLevel() LogLevel {
	return sl.config.Level
}

// GetConfig retorna la configuración actual
func (sl *StructuredLogger) GetConfig() *LoggerConfig {
	return sl.config
}
