package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the BTC Price Service
var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "btc_price_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "btc_price_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPResponseSizeBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "btc_price_http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000},
		},
		[]string{"method", "path"},
	)

	// Cache Metrics
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "btc_price_cache_operations_total",
			Help: "Total number of cache operations",
		},
		[]string{"operation", "result"}, // operation: get/set/delete, result: hit/miss/success/error
	)

	// External API Metrics
	ExternalAPIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "btc_price_external_api_requests_total",
			Help: "Total number of external API requests",
		},
		[]string{"service", "endpoint", "status_code"},
	)

	ExternalAPIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "btc_price_external_api_request_duration_seconds",
			Help:    "External API request duration in seconds",
			Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0},
		},
		[]string{"service", "endpoint"},
	)

	ExternalAPIErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "btc_price_external_api_errors_total",
			Help: "Total number of failed external API calls by error kind",
		},
		[]string{"service", "endpoint", "kind"},
	)

	// Store Metrics
	StoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "btc_price_store_operations_total",
			Help: "Total number of price store operations",
		},
		[]string{"operation", "result"}, // operation: insert/insert_batch/query_range/latest, result: success/error
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "btc_price_store_operation_duration_seconds",
			Help:    "Price store operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"operation"},
	)

	// Business Metrics
	PriceRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "btc_price_requests_total",
			Help: "Total number of current price requests",
		},
		[]string{"cache_result"}, // cache_result: hit/miss
	)

	PriceRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "btc_price_refreshes_total",
			Help: "Total number of scheduled price refresh operations",
		},
		[]string{"result"}, // result: success/error
	)

	RefreshRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "btc_price_refresh_retries_total",
			Help: "Total number of retry attempts made by background jobs",
		},
	)

	BackfilledSamplesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "btc_price_backfilled_samples_total",
			Help: "Total number of historical samples inserted by backfill",
		},
	)

	CurrentPriceUSD = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "btc_price_current_usd",
			Help: "Latest Bitcoin price in USD obtained from upstream",
		},
	)

	PriceSampleTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "btc_price_sample_timestamp_seconds",
			Help: "Unix timestamp of the latest fetched price sample",
		},
	)

	// Rate Limiting Metrics
	RateLimitRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "btc_price_rate_limit_requests_total",
			Help: "Total number of requests processed by rate limiter",
		},
		[]string{"result"}, // result: allowed/blocked/unavailable
	)

	// WebSocket Metrics
	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "btc_price_ws_clients",
			Help: "Number of connected websocket clients",
		},
	)

	WebSocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "btc_price_ws_messages_total",
			Help: "Total de mensajes de precio enviados o descartados",
		},
		[]string{"result"}, // result: sent/dropped
	)

	// Application Metrics
	ApplicationInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "btc_price_application_info",
			Help: "Application information",
		},
		[]string{"version", "environment", "go_version"},
	)

	UptimeSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "btc_price_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// Helper functions for common metric operations

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, path string, statusCode int, duration float64, responseSize int64) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)

	if responseSize > 0 {
		HTTPResponseSizeBytes.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}

// RecordCacheOperation records cache operation metrics
func RecordCacheOperation(operation, result string) {
	CacheOperationsTotal.WithLabelValues(operation, result).Inc()
}

// RecordExternalAPICall records external API call metrics. statusCode is 0 for transport failures.
func RecordExternalAPICall(service, endpoint string, statusCode int, duration float64) {
	ExternalAPIRequestsTotal.WithLabelValues(service, endpoint, strconv.Itoa(statusCode)).Inc()
	ExternalAPIRequestDuration.WithLabelValues(service, endpoint).Observe(duration)
}

// RecordExternalAPIError records a classified upstream failure
func RecordExternalAPIError(service, endpoint, kind string) {
	ExternalAPIErrorsTotal.WithLabelValues(service, endpoint, kind).Inc()
}

// RecordStoreOperation records a price store round trip
func RecordStoreOperation(operation string, err error, duration float64) {
	result := "success"
	if err != nil {
		result = "error"
	}
	StoreOperationsTotal.WithLabelValues(operation, result).Inc()
	StoreOperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordPriceRequest records price request metrics
func RecordPriceRequest(cacheHit bool) {
	cacheResult := "miss"
	if cacheHit {
		cacheResult = "hit"
	}
	PriceRequestsTotal.WithLabelValues(cacheResult).Inc()
}

// RecordPriceRefresh records the outcome of a scheduled refresh
func RecordPriceRefresh(err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	PriceRefreshesTotal.WithLabelValues(result).Inc()
}

// RecordRefreshRetry counts one retry attempt of a background job
func RecordRefreshRetry() {
	RefreshRetriesTotal.Inc()
}

// RecordBackfilledSamples adds n inserted historical samples
func RecordBackfilledSamples(n int64) {
	if n > 0 {
		BackfilledSamplesTotal.Add(float64(n))
	}
}

// UpdateCurrentPrice updates the latest price gauges
func UpdateCurrentPrice(price float64, unixSeconds int64) {
	CurrentPriceUSD.Set(price)
	PriceSampleTimestamp.Set(float64(unixSeconds))
}

// RecordRateLimitResult records rate limiting results
func RecordRateLimitResult(result string) {
	RateLimitRequestsTotal.WithLabelValues(result).Inc()
}

// SetWebSocketClients updates the connected clients gauge
func SetWebSocketClients(n int) {
	WebSocketClients.Set(float64(n))
}

// RecordWebSocketMessage incrementa mensajes enviados o descartados por canal lleno
func RecordWebSocketMessage(sent bool) {
	result := "dropped"
	if sent {
		result = "sent"
	}
	WebSocketMessagesTotal.WithLabelValues(result).Inc()
}

// SetApplicationInfo sets application information
func SetApplicationInfo(version, environment, goVersion string) {
	ApplicationInfo.WithLabelValues(version, environment, goVersion).Set(1)
}

// UpdateUptime updates application uptime
func UpdateUptime(seconds float64) {
	UptimeSeconds.Set(seconds)
}
