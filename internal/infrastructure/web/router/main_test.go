package router

import (
	"os"
	"testing"

	"btc-price-service/internal/infrastructure/logging"
)

func TestMain(m *testing.M) {
	// logs a io.Discard; los tests de logging usan su propio buffer
	if err := logging.InitializeGlobalLoggers(logging.NewTestingConfig("btc-price-service")); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}
