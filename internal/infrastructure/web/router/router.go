package router

import (
	"net/http"

	_ "btc-price-service/internal/docs"
	"btc-price-service/internal/infrastructure/metrics"
	"btc-price-service/internal/infrastructure/web/handlers"
	"btc-price-service/internal/infrastructure/web/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Dependencies agrupa lo que el router necesita para montar las rutas
type Dependencies struct {
	Bitcoin   *handlers.BitcoinHandler
	Health    *handlers.HealthHandler
	WebSocket http.HandlerFunc

	// RateLimit es opcional
	RateLimit func(http.Handler) http.Handler
}

// New builds the mux router and wraps it with the middleware chain.
// The chain wraps the whole router so 404/405 responses are logged, measured and rate limited too.
func New(deps Dependencies) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(handlers.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(handlers.MethodNotAllowed)

	// API endpoints
	api := r.PathPrefix("/api/v1").Subrouter()
	// mux no hereda estos handlers en subrouters
	api.NotFoundHandler = r.NotFoundHandler
	api.MethodNotAllowedHandler = r.MethodNotAllowedHandler
	api.HandleFunc("/bitcoin/current-price", deps.Bitcoin.GetCurrentPrice).Methods(http.MethodGet)
	api.HandleFunc("/bitcoin/price-history", deps.Bitcoin.GetPriceHistory).Methods(http.MethodGet)
	if deps.WebSocket != nil {
		api.HandleFunc("/bitcoin/ws", deps.WebSocket).Methods(http.MethodGet)
	}
	api.HandleFunc("/health", deps.Health.ServicesHealth).Methods(http.MethodGet)
	api.HandleFunc("/health/postgres", deps.Health.PostgresHealth).Methods(http.MethodGet)
	api.HandleFunc("/health/redis", deps.Health.RedisHealth).Methods(http.MethodGet)

	// Probes
	r.HandleFunc("/health", deps.Health.Health).Methods(http.MethodGet)
	r.HandleFunc("/ready", deps.Health.Ready).Methods(http.MethodGet)

	// Monitoring endpoints
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Documentation endpoints
	r.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	redirect := func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/swagger/", http.StatusMovedPermanently)
	}
	r.HandleFunc("/docs", redirect)
	r.HandleFunc("/docs/", redirect)

	var handler http.Handler = r
	if deps.RateLimit != nil {
		handler = deps.RateLimit(handler)
	}
	handler = middleware.CORSMiddleware(handler)
	handler = metrics.HTTPMetricsMiddleware(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RequestTracingMiddleware(handler)
	handler = middleware.RecoverMiddleware(handler)

	return handler
}
