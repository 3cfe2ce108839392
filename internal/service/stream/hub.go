package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"Karion/internal/domain/models"
	drepo "Karion/internal/domain/repository"
	applogger "Karion/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 8
)

// Envelope is the frame pushed to subscribers.
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans out overviews to connected dashboard clients. Clients that fall
// behind by more than the send buffer are disconnected.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	l        *applogger.Logger
}

func NewHub(l *applogger.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		l: applogger.OrNop(l).Component("stream"),
	}
}

// Serve upgrades the request and blocks until the client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, hello interface{}) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("upgrade: %w", err)
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if hello != nil {
		if b, err := json.Marshal(Envelope{Type: "overview", Data: hello}); err == nil {
			c.send <- b
		}
	}
	h.add(c)

	go h.writeLoop(c)
	h.readLoop(c)
	return nil
}

// Broadcast encodes v once and queues it for every client.
func (h *Hub) Broadcast(msgType string, v interface{}) (int, error) {
	b, err := json.Marshal(Envelope{Type: msgType, Data: v})
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", msgType, err)
	}

	h.mu.RLock()
	var slow []*client
	sent := 0
	for c := range h.clients {
		select {
		case c.send <- b:
			sent++
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.l.Warn("dropping slow client", applogger.String("remote", c.conn.RemoteAddr().String()))
		h.remove(c)
	}
	return sent, nil
}

// PublishOverview lets the hub act as an overview publisher.
func (h *Hub) PublishOverview(_ context.Context, o *models.MarketOverview) error {
	_, err := h.Broadcast("overview", o)
	return err
}

// Len reports the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() error {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()
	for c := range clients {
		close(c.send)
	}
	return nil
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.l.Debug("client connected", applogger.Int("clients", h.Len()))
}

// remove closes the send channel exactly once; the write loop then closes the socket.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// readLoop only services control frames; client messages are ignored.
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var _ drepo.OverviewPublisher = (*Hub)(nil)
