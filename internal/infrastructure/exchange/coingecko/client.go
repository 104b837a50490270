package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"btc-price-service/internal/domain/apperror"
	"btc-price-service/internal/domain/entities"
	"btc-price-service/internal/infrastructure/config"
	"btc-price-service/internal/infrastructure/logging"
	"btc-price-service/internal/infrastructure/metrics"
	"btc-price-service/internal/infrastructure/ratelimit"
)

const (
	ServiceName    = "coingecko"
	DefaultBaseURL = "https://api.coingecko.com/api/v3"
	DefaultTimeout = 10 * time.Second
	UserAgent      = "btc-price-service/1.0"
	APIKeyHeader   = "x-cg-demo-api-key"

	CoinID     = "bitcoin"
	VsCurrency = "usd"

	simplePriceEndpoint = "/simple/price"
	marketChartEndpoint = "/coins/" + CoinID + "/market_chart/range"

	maxBodyBytes = 10 << 20
)

// Client implementa interfaces.PriceClient sobre la API REST de CoinGecko.
// No reintenta: los reintentos son responsabilidad del llamador.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	throttle   Throttle
	now        func() time.Time
}

// Throttle espacia las llamadas salientes
type Throttle interface {
	Wait(ctx context.Context) error
}

// NewClient crea un cliente con la configuración por defecto
func NewClient() *Client {
	return &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		now:        time.Now,
	}
}

// NewClientWithConfig crea un cliente a partir de la configuración
func NewClientWithConfig(cfg config.CoinGeckoConfig) *Client {
	client := NewClient()
	if cfg.BaseURL != "" {
		client.baseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		client.httpClient.Timeout = cfg.Timeout
	}
	client.apiKey = cfg.APIKey
	if cfg.RequestsPerMinute > 0 {
		client.throttle = ratelimit.NewUpstreamLimiter(ServiceName, cfg.RequestsPerMinute, cfg.Burst)
	}
	return client
}

// FetchCurrentPrice obtiene el precio actual de BTC en USD
func (c *Client) FetchCurrentPrice(ctx context.Context) (*entities.PriceSample, error) {
	query := url.Values{}
	query.Set("ids", CoinID)
	query.Set("vs_currencies", VsCurrency)

	body, err := c.get(ctx, simplePriceEndpoint, query)
	if err != nil {
		return nil, err
	}

	var resp SimplePriceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, c.fail(ctx, simplePriceEndpoint, apperror.InvalidResponse("Invalid response from CoinGecko API", err))
	}
	// "null" decodifica sin error pero deja el mapa en nil; "{}" sí es símbolo desconocido
	if resp == nil {
		return nil, c.fail(ctx, simplePriceEndpoint, apperror.InvalidResponse("Invalid response from CoinGecko API", nil))
	}

	price, found, err := resp.PriceFor(CoinID, VsCurrency)
	if !found {
		return nil, c.fail(ctx, simplePriceEndpoint, apperror.UnknownSymbol(CoinID))
	}
	if err != nil {
		return nil, c.fail(ctx, simplePriceEndpoint, apperror.InvalidResponse("Invalid response from CoinGecko API", err))
	}

	sample, err := entities.NewPriceSample(price, c.now(), entities.SourceCoinGecko)
	if err != nil {
		return nil, c.fail(ctx, simplePriceEndpoint, apperror.InvalidResponse("Invalid response from CoinGecko API", err))
	}

	return sample, nil
}

// FetchPriceRange obtiene precios históricos entre from y to (inclusive), en orden ascendente
func (c *Client) FetchPriceRange(ctx context.Context, from, to time.Time) ([]*entities.PriceSample, error) {
	if to.Before(from) {
		return nil, apperror.Validation("End time must be after start time")
	}

	query := url.Values{}
	query.Set("vs_currency", VsCurrency)
	query.Set("from", strconv.FormatInt(from.Unix(), 10))
	query.Set("to", strconv.FormatInt(to.Unix(), 10))

	body, err := c.get(ctx, marketChartEndpoint, query)
	if err != nil {
		return nil, err
	}

	var resp MarketChartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, c.fail(ctx, marketChartEndpoint, apperror.InvalidResponse("Invalid response from CoinGecko API", err))
	}

	samples, err := resp.ToSamples()
	if err != nil {
		return nil, c.fail(ctx, marketChartEndpoint, apperror.InvalidResponse("Invalid response from CoinGecko API", err))
	}

	return samples, nil
}

// get hace la petición y clasifica el resultado. Devuelve el body solo en 2xx.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	if c.throttle != nil {
		if err := c.throttle.Wait(ctx); err != nil {
			return nil, c.fail(ctx, endpoint, apperror.Network("CoinGecko API request timed out", err))
		}
	}

	reqURL := c.baseURL + endpoint + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, apperror.Network("failed to create CoinGecko request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}

	logging.ExternalAPI().RequestStarted(ctx, ServiceName, endpoint, http.MethodGet)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(requestStart)

	if err != nil {
		metrics.RecordExternalAPICall(ServiceName, endpoint, 0, duration.Seconds())
		appErr := apperror.Network("Failed to connect to CoinGecko API", err)
		if errors.Is(err, context.DeadlineExceeded) {
			appErr = apperror.Network("CoinGecko API request timed out", err)
		}
		logging.ExternalAPI().RequestFailed(ctx, ServiceName, endpoint, 0, appErr, durationMs(duration))
		metrics.RecordExternalAPIError(ServiceName, endpoint, appErr.Kind.String())
		return nil, appErr
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	metrics.RecordExternalAPICall(ServiceName, endpoint, resp.StatusCode, duration.Seconds())

	if statusErr := c.classifyStatus(resp); statusErr != nil {
		logging.ExternalAPI().RequestFailed(ctx, ServiceName, endpoint, resp.StatusCode, statusErr, durationMs(duration))
		metrics.RecordExternalAPIError(ServiceName, endpoint, apperror.KindOf(statusErr).String())
		return nil, statusErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.fail(ctx, endpoint, apperror.Network("Failed to read CoinGecko API response", err))
	}

	logging.ExternalAPI().RequestCompleted(ctx, ServiceName, endpoint, resp.StatusCode, durationMs(duration))
	return body, nil
}

// classifyStatus traduce el status HTTP a la taxonomía de errores
func (c *Client) classifyStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"), c.now())
		return apperror.RateLimit(RateLimitMessage(retryAfter), retryAfter)
	case resp.StatusCode >= 500, resp.StatusCode == http.StatusRequestTimeout:
		return apperror.Network("CoinGecko API is unavailable", fmt.Errorf("HTTP %d", resp.StatusCode))
	default:
		return apperror.InvalidResponse("Invalid response from CoinGecko API", fmt.Errorf("HTTP %d", resp.StatusCode))
	}
}

// fail registra un error de parsing posterior a una respuesta 2xx
func (c *Client) fail(ctx context.Context, endpoint string, err *apperror.Error) error {
	logging.ExternalAPI().Error(ctx, "CoinGecko response rejected", logging.Fields{
		logging.FieldExternalService:  ServiceName,
		logging.FieldExternalEndpoint: endpoint,
		logging.FieldError:            err.Error(),
		logging.FieldErrorType:        err.Kind.String(),
	})
	metrics.RecordExternalAPIError(ServiceName, endpoint, err.Kind.String())
	return err
}

// RateLimitMessage arma el detalle visible para el usuario
func RateLimitMessage(retryAfter time.Duration) string {
	if retryAfter <= 0 {
		return "CoinGecko API rate limit exceeded. Please try again later."
	}
	seconds := int64((retryAfter + time.Second - 1) / time.Second)
	return fmt.Sprintf("CoinGecko API rate limit exceeded. Try again in %d seconds.", seconds)
}

// parseRetryAfter acepta segundos o una fecha HTTP. Devuelve 0 si no hay pista válida.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	if seconds, err := strconv.ParseInt(value, 10, 64); err == nil {
		if seconds <= 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}

	if at, err := http.ParseTime(value); err == nil {
		if wait := at.Sub(now); wait > 0 {
			return wait.Round(time.Second)
		}
	}

	return 0
}

func durationMs(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}
