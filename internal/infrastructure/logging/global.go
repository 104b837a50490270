package logging

import (
	"context"
)

// Funciones globales de conveniencia. Usan el logger global por defecto.

// Debug logs a debug message using the global logger
func Debug(ctx context.Context, message string, fields Fields) {
	loggers().Base.Debug(ctx, message, fields)
}

// Info logs an info message using the global logger
func Info(ctx context.Context, message string, fields Fields) {
	loggers().Base.Info(ctx, message, fields)
}

// Warn logs a warning message using the global logger
func Warn(ctx context.Context, message string, fields Fields) {
	loggers().Base.Warn(ctx, message, fields)
}

// Error logs an error message using the global logger
func Error(ctx context.Context, message string, fields Fields) {
	loggers().Base.Error(ctx, message, fields)
}

// InfoWithError logs an info message with error details using the global logger
func InfoWithError(ctx context.Context, message string, err error, fields Fields) {
	loggers().Base.InfoWithError(ctx, message, err, fields)
}

// WarnWithError logs a warning message with error details using the global logger
func WarnWithError(ctx context.Context, message string, err error, fields Fields) {
	loggers().Base.WarnWithError(ctx, message, err, fields)
}

// ErrorWithError logs an error message with error details using the global logger
func ErrorWithError(ctx context.Context, message string, err error, fields Fields) {
	loggers().Base.ErrorWithError(ctx, message, err, fields)
}

// Funciones de conveniencia para obtener loggers especializados globales

// HTTP retorna el logger HTTP global
func HTTP() HTTPLogger {
	return loggers().HTTP
}

// ExternalAPI retorna el logger de API externa global
func ExternalAPI() ExternalAPILogger {
	return loggers().ExternalAPI
}

// Cache retorna el logger de cache global
func Cache() CacheLogger {
	return loggers().Cache
}

// Price retorna el logger del flujo de precios global
func Price() PriceLogger {
	return loggers().Price
}

// Security retorna el logger de seguridad global
func Security() SecurityLogger {
	return loggers().Security
}
