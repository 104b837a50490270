package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"btc-price-service/internal/domain/apperror"
	"btc-price-service/internal/domain/entities"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(t *testing.T, level LogLevel) (*StructuredLogger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	cfg := NewConfig("btc-price-service", "test", "testing").
		WithLevel(level).
		WithFormat(FormatJSON).
		WithOutput(buf)

	logger, err := NewStructuredLogger(cfg)
	require.NoError(t, err)
	return logger, buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]interface{}{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestStructuredLogger_JSONFields(t *testing.T) {
	logger, buf := newBufferLogger(t, LevelInfo)

	ctx := WithRequestID(context.Background(), "req_123")
	logger.Info(ctx, "hello", Fields{"custom": "value"})

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, "hello", entry[FieldMessage])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "btc-price-service", entry[FieldService])
	assert.Equal(t, "req_123", entry[FieldRequestID])
	assert.Equal(t, "value", entry["custom"])
	assert.Contains(t, entry, FieldTimestamp)
}

func TestStructuredLogger_LevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(t, LevelWarn)

	logger.Debug(context.Background(), "debug", nil)
	logger.Info(context.Background(), "info", nil)
	logger.Warn(context.Background(), "warn", nil)

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "warn", entries[0][FieldMessage])

	logger.SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, logger.GetLevel())
	logger.Debug(context.Background(), "debug again", nil)
	assert.Len(t, decodeLines(t, buf), 2)
}

func TestStructuredLogger_ErrorTypeUsesTaxonomy(t *testing.T) {
	logger, buf := newBufferLogger(t, LevelInfo)

	fields := Fields{"a": 1}
	logger.ErrorWithError(context.Background(), "fetch failed", apperror.Network("timeout", nil), fields)
	logger.WarnWithError(context.Background(), "plain", errors.New("boom"), nil)

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "network", entries[0][FieldErrorType])
	assert.Equal(t, "timeout", entries[0][FieldError])
	assert.Equal(t, "*errors.errorString", entries[1][FieldErrorType])

	// el mapa del llamador no se modifica
	assert.NotContains(t, fields, FieldError)
}

func TestPriceLogger_PriceServed(t *testing.T) {
	logger, buf := newBufferLogger(t, LevelInfo)
	priceLogger := NewPriceLogger(logger)

	sample, err := entities.NewPriceSample(
		decimal.RequireFromString("50000.12345678"),
		time.Date(2024, 2, 19, 12, 0, 0, 0, time.UTC),
		entities.SourceCoinGecko,
	)
	require.NoError(t, err)

	priceLogger.PriceServed(context.Background(), sample, true)

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "price", entries[0][FieldDomain])
	assert.Equal(t, "50000.12345678", entries[0][FieldPriceUSD])
	assert.Equal(t, "2024-02-19T12:00:00Z", entries[0][FieldSampleTime])
	assert.Equal(t, true, entries[0][FieldCached])
}

func TestHTTPLogger_RequestCompletedLevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "info"},
		{404, "warning"},
		{503, "error"},
	}

	for _, tt := range tests {
		logger, buf := newBufferLogger(t, LevelDebug)
		NewHTTPLogger(logger).RequestCompleted(context.Background(), "GET", "/api/v1/bitcoin/current-price", tt.status, 1.5)

		entries := decodeLines(t, buf)
		require.Len(t, entries, 1)
		assert.Equal(t, tt.level, entries[0]["level"], "status %d", tt.status)
		assert.Equal(t, float64(tt.status), entries[0][FieldHTTPStatusCode])
	}
}

func TestLogLevelFromString(t *testing.T) {
	assert.Equal(t, LevelDebug, LogLevelFromString("debug"))
	assert.Equal(t, LevelWarn, LogLevelFromString("WARN"))
	assert.Equal(t, LevelInfo, LogLevelFromString("nonsense"))
}

func TestRequestIDGenerator(t *testing.T) {
	id := GenerateRequestID()
	assert.True(t, strings.HasPrefix(id, "req_"))
	assert.NotEqual(t, id, GenerateRequestID())
}
