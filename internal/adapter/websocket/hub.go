package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/yukyra-eren/flarum-ext-money/internal/adapter/metrics"
)

const (
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
)

// --- Command types ---

type hubCmd interface{ hubCmd() }

type cmdRegister struct {
	accountID uuid.UUID
	conn      *websocket.Conn
	errCh     chan error
}

func (cmdRegister) hubCmd() {}

type cmdUnregister struct {
	accountID uuid.UUID
	conn      *websocket.Conn
}

func (cmdUnregister) hubCmd() {}

type cmdPush struct {
	accountID uuid.UUID
	data      []byte
}

func (cmdPush) hubCmd() {}

type cmdGetClientCount struct {
	accountID uuid.UUID
	replyCh   chan int
}

func (cmdGetClientCount) hubCmd() {}

type cmdStop struct{}

func (cmdStop) hubCmd() {}

// --- Per-connection writer ---

type clientWriter struct {
	conn   *websocket.Conn
	clock  clockwork.Clock
	sendCh chan []byte
	done   chan struct{}
}

func newClientWriter(conn *websocket.Conn, clock clockwork.Clock) *clientWriter {
	cw := &clientWriter{
		conn:   conn,
		clock:  clock,
		sendCh: make(chan []byte, 16),
		done:   make(chan struct{}),
	}
	go cw.run()
	return cw
}

func (cw *clientWriter) run() {
	ticker := cw.clock.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-cw.sendCh:
			if !ok {
				return
			}
			cw.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := cw.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.Chan():
			cw.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := cw.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-cw.done:
			return
		}
	}
}

func (cw *clientWriter) stop() {
	close(cw.done)
	cw.conn.Close()
}

// --- Hub ---

// Hub fans balance updates out to the WebSocket clients watching each
// account. All state is owned by the run goroutine and accessed through
// the command channel.
type Hub struct {
	cmdCh      chan hubCmd
	clients    map[uuid.UUID]map[*websocket.Conn]*clientWriter
	total      int
	maxClients int
	clock      clockwork.Clock
}

func NewHub(maxClients int, clock clockwork.Clock) *Hub {
	hub := &Hub{
		cmdCh:      make(chan hubCmd, 256),
		clients:    make(map[uuid.UUID]map[*websocket.Conn]*clientWriter),
		maxClients: maxClients,
		clock:      clock,
	}
	go hub.run()
	return hub
}

func (h *Hub) run() {
	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case cmdRegister:
			h.handleRegister(c)
		case cmdUnregister:
			h.handleUnregister(c.accountID, c.conn)
		case cmdPush:
			h.handlePush(c)
		case cmdGetClientCount:
			c.replyCh <- len(h.clients[c.accountID])
		case cmdStop:
			h.handleStop()
			return
		}
	}
}

func (h *Hub) handleRegister(c cmdRegister) {
	if h.total >= h.maxClients {
		slog.Warn("Rejecting websocket client, connection limit reached", "account_id", c.accountID, "limit", h.maxClients)
		c.conn.Close()
		c.errCh <- fmt.Errorf("connection limit (%d) reached", h.maxClients)
		return
	}

	clients, exists := h.clients[c.accountID]
	if !exists {
		clients = make(map[*websocket.Conn]*clientWriter)
		h.clients[c.accountID] = clients
	}
	clients[c.conn] = newClientWriter(c.conn, h.clock)
	h.total++
	metrics.WebSocketClients.Inc()
	slog.Debug("Websocket client registered", "account_id", c.accountID, "account_clients", len(clients))
	c.errCh <- nil
}

func (h *Hub) handleUnregister(accountID uuid.UUID, conn *websocket.Conn) {
	clients, exists := h.clients[accountID]
	if !exists {
		return
	}

	cw, exists := clients[conn]
	if !exists {
		return
	}

	cw.stop()
	delete(clients, conn)
	h.total--
	metrics.WebSocketClients.Dec()

	if len(clients) == 0 {
		delete(h.clients, accountID)
	}
	slog.Debug("Websocket client unregistered", "account_id", accountID, "account_clients", len(clients))
}

func (h *Hub) handlePush(c cmdPush) {
	clients, exists := h.clients[c.accountID]
	if !exists {
		return
	}

	var slow []*websocket.Conn
	for conn, cw := range clients {
		select {
		case cw.sendCh <- c.data:
		default:
			// client is slow, mark for removal
			slow = append(slow, conn)
		}
	}

	for _, conn := range slow {
		slog.Warn("Disconnecting slow websocket client", "account_id", c.accountID)
		h.handleUnregister(c.accountID, conn)
	}
}

func (h *Hub) handleStop() {
	for accountID, clients := range h.clients {
		for _, cw := range clients {
			cw.stop()
			metrics.WebSocketClients.Dec()
		}
		delete(h.clients, accountID)
	}
	h.total = 0
}

// --- Public API ---

func (h *Hub) Register(accountID uuid.UUID, conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	h.cmdCh <- cmdRegister{accountID: accountID, conn: conn, errCh: errCh}
	return <-errCh
}

func (h *Hub) Unregister(accountID uuid.UUID, conn *websocket.Conn) {
	h.cmdCh <- cmdUnregister{accountID: accountID, conn: conn}
}

// PushBalance sends the new balance to every client watching the account.
func (h *Hub) PushBalance(accountID uuid.UUID, balance float64) {
	data, err := json.Marshal(map[string]interface{}{"balance": balance})
	if err != nil {
		slog.Error("Failed to marshal balance push", "error", err)
		return
	}
	h.cmdCh <- cmdPush{accountID: accountID, data: data}
}

func (h *Hub) GetClientCount(accountID uuid.UUID) int {
	replyCh := make(chan int, 1)
	h.cmdCh <- cmdGetClientCount{accountID: accountID, replyCh: replyCh}
	return <-replyCh
}

func (h *Hub) Stop() {
	h.cmdCh <- cmdStop{}
}
