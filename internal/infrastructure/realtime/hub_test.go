package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"btc-price-service/internal/domain/entities"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	sample *entities.PriceSample
}

func (s staticSource) GetCurrent(context.Context) (*entities.PriceSample, bool) {
	return s.sample, s.sample != nil
}

func newSample(t *testing.T, price string) *entities.PriceSample {
	t.Helper()
	s, err := entities.NewPriceSample(decimal.RequireFromString(price),
		time.Date(2024, 2, 19, 12, 0, 0, 0, time.UTC), entities.SourceCoinGecko)
	require.NoError(t, err)
	return s
}

func startHub(t *testing.T, source CurrentSource) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(DefaultConfig(), source)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.PingInterval != 30*time.Second {
		t.Errorf("PingInterval = %v, want 30s", cfg.PingInterval)
	}
	if cfg.PongWait <= cfg.PingInterval {
		t.Errorf("PongWait %v must exceed PingInterval %v", cfg.PongWait, cfg.PingInterval)
	}
}

func TestHub_PublishReachesClients(t *testing.T) {
	hub, srv := startHub(t, nil)

	a := dial(t, srv)
	b := dial(t, srv)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(newSample(t, "50000.5"))

	for _, conn := range []*websocket.Conn{a, b} {
		msg := readMessage(t, conn)
		assert.Equal(t, MessageTypePriceUpdate, msg.Type)
		require.NotNil(t, msg.Data)
		assert.True(t, msg.Data.PriceUSD.Equal(decimal.RequireFromString("50000.5")))
		assert.Equal(t, entities.SourceCoinGecko, msg.Data.Source)
	}
}

func TestHub_SendsCurrentOnConnect(t *testing.T) {
	_, srv := startHub(t, staticSource{sample: newSample(t, "49900")})

	conn := dial(t, srv)
	msg := readMessage(t, conn)

	assert.Equal(t, MessageTypePriceUpdate, msg.Type)
	assert.True(t, msg.Data.PriceUSD.Equal(decimal.NewFromInt(49900)))
}

func TestHub_ClientDisconnectUnregisters(t *testing.T) {
	hub, srv := startHub(t, nil)

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	hub, srv := startHub(t, nil)

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Close()
	hub.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	assert.Equal(t, 0, hub.ClientCount())

	// después de cerrar, Publish no bloquea
	sample := newSample(t, "1")
	done := make(chan struct{})
	go func() {
		hub.Publish(sample)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked after Close")
	}
}

func TestHub_PublishNilIsIgnored(t *testing.T) {
	hub := NewHub(DefaultConfig(), nil)
	assert.NotPanics(t, func() { hub.Publish(nil) })
}
