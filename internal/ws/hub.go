package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// socket is the slice of *websocket.Conn the hub needs. Tests substitute
// in-memory fakes.
type socket interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
	Close() error
}

// Conn is one registered client. Writes are serialized; teardown runs exactly
// once however many paths race to it.
type Conn struct {
	hub  *Hub
	sock socket

	writeMu sync.Mutex
	done    chan struct{}

	closeOnce sync.Once

	mu     sync.Mutex
	userID string
}

func (c *Conn) send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.sock.WriteMessage(websocket.TextMessage, data)
}

func (c *Conn) bindUser(userID string) {
	c.mu.Lock()
	previous := c.userID
	c.userID = userID
	c.mu.Unlock()

	c.hub.rebindUser(c, previous, userID)
}

func (c *Conn) boundUser() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// close deregisters the connection and releases the socket. Safe to call from
// the read loop, the pinger, and Shutdown concurrently.
func (c *Conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.hub.deregister(c)
		c.sock.Close()
	})
}

// Hub is the connection registry: a broadcast set plus a userID-keyed index
// for targeted trade notifications.
type Hub struct {
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*Conn]struct{}
	users map[string]*Conn

	shuttingDown bool
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*Conn]struct{}),
		users: make(map[string]*Conn),
	}
}

// HandleConnection upgrades the request and runs the connection until the
// peer goes away.
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	sock, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := h.attach(sock)
	defer conn.close()

	go h.pinger(conn)
	h.readLoop(conn)
}

// attach registers a socket and sends the welcome frame.
func (h *Hub) attach(sock socket) *Conn {
	conn := &Conn{hub: h, sock: sock, done: make(chan struct{})}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	total := len(h.conns)
	h.mu.Unlock()

	log.Info().Int("clients", total).Msg("websocket client connected")

	if err := conn.send(welcomeMessage{
		Type:      TypeWelcome,
		Message:   "Connected to signal relay stream",
		Timestamp: time.Now().UTC(),
		Clients:   total,
		Features:  []string{"price_updates", "signal_alerts", "trade_updates"},
	}); err != nil {
		log.Error().Err(err).Msg("welcome frame failed")
	}
	return conn
}

func (h *Hub) deregister(c *Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	if userID := c.boundUser(); userID != "" && h.users[userID] == c {
		delete(h.users, userID)
	}
	remaining := len(h.conns)
	h.mu.Unlock()

	log.Info().Int("clients", remaining).Msg("websocket client disconnected")
}

func (h *Hub) rebindUser(c *Conn, previous, next string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if previous != "" && h.users[previous] == c {
		delete(h.users, previous)
	}
	if next != "" {
		h.users[next] = c
	}
}

func (h *Hub) readLoop(c *Conn) {
	c.sock.SetReadLimit(maxMessageSize)
	c.sock.SetReadDeadline(time.Now().Add(pongWait))
	c.sock.SetPongHandler(func(string) error {
		return c.sock.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.sock.ReadMessage()
		if err != nil {
			return
		}
		h.handleInbound(c, data)
	}
}

// handleInbound dispatches one client frame. Frames that do not parse or
// carry an unknown type are logged and dropped, never fatal to the
// connection.
func (h *Hub) handleInbound(c *Conn, data []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Warn().Err(err).Msg("unparseable websocket frame ignored")
		return
	}

	switch msg.Type {
	case TypeSubscribeSignals:
		if msg.UserID != "" {
			c.bindUser(msg.UserID)
		}
		if err := c.send(confirmMessage{
			Type:      TypeSubscribeConfirmed,
			Message:   "Subscribed to real-time signals",
			Timestamp: time.Now().UTC(),
		}); err != nil {
			log.Error().Err(err).Msg("subscribe confirmation failed")
		}
	case TypePing:
		if err := c.send(pongMessage{Type: TypePong, Timestamp: time.Now().UTC()}); err != nil {
			log.Error().Err(err).Msg("pong failed")
		}
	default:
		log.Debug().Str("type", msg.Type).Msg("unknown websocket frame ignored")
	}
}

func (h *Hub) pinger(c *Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.sock.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.close()
				return
			}
		}
	}
}

func (h *Hub) snapshot() []*Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := make([]*Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	return conns
}

// Broadcast sends one envelope to every connection and reports how many
// received it. Connections that fail the write are torn down.
func (h *Hub) Broadcast(v any) int {
	sent := 0
	for _, c := range h.snapshot() {
		if err := c.send(v); err != nil {
			c.close()
			continue
		}
		sent++
	}
	return sent
}

// NotifyUser sends one envelope to the connection bound to userID, if any.
func (h *Hub) NotifyUser(userID string, v any) bool {
	h.mu.Lock()
	c, ok := h.users[userID]
	h.mu.Unlock()
	if !ok {
		return false
	}
	if err := c.send(v); err != nil {
		c.close()
		return false
	}
	return true
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Shutdown announces the stop to every client and closes the sockets. Later
// calls are no-ops.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.shuttingDown {
		h.mu.Unlock()
		return
	}
	h.shuttingDown = true
	h.mu.Unlock()

	msg := shutdownMessage{
		Type:      TypeShutdown,
		Message:   "Server is shutting down",
		Timestamp: time.Now().UTC(),
	}
	for _, c := range h.snapshot() {
		if err := c.send(msg); err != nil {
			log.Debug().Err(err).Msg("shutdown frame failed")
		}
		c.close()
	}
}
