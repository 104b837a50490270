// Package realtime pushes freshly fetched price samples to websocket clients.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"btc-price-service/internal/domain/entities"
	"btc-price-service/internal/infrastructure/logging"
	"btc-price-service/internal/infrastructure/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// MessageType identifica el tipo de mensaje enviado al cliente
type MessageType string

const MessageTypePriceUpdate MessageType = "price_update"

// Message is the envelope written to every client.
type Message struct {
	Type MessageType           `json:"type"`
	Data *entities.PriceSample `json:"data"`
}

// CurrentSource provee la última muestra conocida para clientes nuevos.
// interfaces.PriceCache lo satisface.
type CurrentSource interface {
	GetCurrent(ctx context.Context) (*entities.PriceSample, bool)
}

// Config configures the hub.
type Config struct {
	PingInterval   time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	SendBuffer     int
	MaxMessageSize int64
}

// DefaultConfig returns the default hub configuration.
func DefaultConfig() Config {
	return Config{
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
		SendBuffer:     16,
		MaxMessageSize: 512,
	}
}

// Client is one connected websocket peer.
type Client struct {
	ID   string
	conn *websocket.Conn
	send chan []byte
}

// Hub owns the set of clients. Only Run touches the map.
type Hub struct {
	cfg      Config
	current  CurrentSource
	upgrader websocket.Upgrader

	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	count     atomic.Int64
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewHub creates a hub. current may be nil.
func NewHub(cfg Config, current CurrentSource) *Hub {
	if cfg.PingInterval <= 0 {
		cfg = DefaultConfig()
	}
	if cfg.PongWait <= cfg.PingInterval {
		cfg.PongWait = cfg.PingInterval * 2
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 16
	}

	return &Hub{
		cfg:     cfg,
		current: current,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// CORS ya permite cualquier origen
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Run is the event loop. It returns when ctx is cancelled or Close is called.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.quit:
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.updateCount()
			logging.Info(ctx, "WebSocket client connected", logging.Fields{
				"client_id": client.ID,
				"clients":   len(h.clients),
			})

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.removeClient(client)
				logging.Info(ctx, "WebSocket client disconnected", logging.Fields{
					"client_id": client.ID,
					"clients":   len(h.clients),
				})
			}

		case payload := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- payload:
					metrics.RecordWebSocketMessage(true)
				default:
					// cliente lento
					metrics.RecordWebSocketMessage(false)
					h.removeClient(client)
					logging.Warn(ctx, "Dropping slow WebSocket client", logging.Fields{
						"client_id": client.ID,
					})
				}
			}
		}
	}
}

// removeClient must only be called from Run
func (h *Hub) removeClient(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.updateCount()
}

func (h *Hub) updateCount() {
	h.count.Store(int64(len(h.clients)))
	metrics.SetWebSocketClients(len(h.clients))
}

func (h *Hub) shutdown() {
	for client := range h.clients {
		h.removeClient(client)
	}
	close(h.done)
}

// Close stops Run and disconnects every client. Safe to call more than once.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.quit) })
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Publish implements interfaces.PricePublisher. It never blocks; when the
// broadcast buffer is full the update is dropped.
func (h *Hub) Publish(sample *entities.PriceSample) {
	if sample == nil {
		return
	}

	payload, err := encode(sample)
	if err != nil {
		logging.ErrorWithError(context.Background(), "Failed to encode price update", err, nil)
		return
	}

	select {
	case <-h.done:
	case h.broadcast <- payload:
	default:
		metrics.RecordWebSocketMessage(false)
	}
}

func encode(sample *entities.PriceSample) ([]byte, error) {
	return json.Marshal(Message{Type: MessageTypePriceUpdate, Data: sample})
}

// ServeWS upgrades the request and registers the client. The current cached
// sample, if any, is queued before any broadcast.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade ya respondió con el error HTTP
		logging.WarnWithError(ctx, "WebSocket upgrade failed", err, nil)
		return
	}

	client := &Client{
		ID:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, h.cfg.SendBuffer),
	}

	if h.current != nil {
		if sample, ok := h.current.GetCurrent(ctx); ok {
			if payload, err := encode(sample); err == nil {
				client.send <- payload
			}
		}
	}

	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go h.writePump(client)
	go h.readPump(client)
}

// readPump descarta lo que manda el cliente; sólo sirve para detectar el cierre
func (h *Hub) readPump(client *Client) {
	defer func() {
		select {
		case h.unregister <- client:
		case <-h.done:
		}
		_ = client.conn.Close()
	}()

	client.conn.SetReadLimit(h.cfg.MaxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Debug(context.Background(), "WebSocket read error", logging.Fields{
					"client_id":        client.ID,
					logging.FieldError: err.Error(),
				})
			}
			return
		}
	}
}

func (h *Hub) writePump(client *Client) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = client.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
