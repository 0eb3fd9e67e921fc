package gateway

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/gateward/gateward/internal/model"
	"github.com/gateward/gateward/internal/transport"
)

// Hub routes engine instructions to the proxy connection currently
// hosting each player connection. It implements transport.Messenger.
type Hub struct {
	mu     sync.RWMutex
	routes map[model.ConnectionID]*hostConn
	logger *slog.Logger
}

// NewHub creates an empty routing hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		routes: make(map[model.ConnectionID]*hostConn),
		logger: logger.With(slog.String("component", "gateway-hub")),
	}
}

// Ensure Hub implements the messenger interface
var _ transport.Messenger = (*Hub)(nil)

func (h *Hub) bind(connID model.ConnectionID, hc *hostConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes[connID] = hc
}

func (h *Hub) unbind(connID model.ConnectionID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.routes, connID)
}

func (h *Hub) route(connID model.ConnectionID) *hostConn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.routes[connID]
}

// SendMessage delivers a message frame for a held connection
func (h *Hub) SendMessage(connID model.ConnectionID, key string, params map[string]string) {
	h.send(connID, Frame{
		Type:         FrameMessage,
		ConnectionID: string(connID),
		Key:          key,
		Params:       params,
	})
}

// Release instructs the proxy to let the connection through
func (h *Hub) Release(connID model.ConnectionID) {
	h.send(connID, Frame{
		Type:         FrameRelease,
		ConnectionID: string(connID),
	})
}

// Disconnect instructs the proxy to terminate the connection
func (h *Hub) Disconnect(connID model.ConnectionID, key string, params map[string]string) {
	h.send(connID, Frame{
		Type:         FrameKick,
		ConnectionID: string(connID),
		Key:          key,
		Params:       params,
	})
}

func (h *Hub) send(connID model.ConnectionID, frame Frame) {
	hc := h.route(connID)
	if hc == nil {
		// The proxy connection went away; nothing to deliver to
		h.logger.Debug("dropping frame for unrouted connection",
			slog.String("connection_id", string(connID)),
			slog.String("type", frame.Type))
		return
	}
	if err := hc.writeFrame(frame); err != nil {
		h.logger.Warn("gateway write failed",
			slog.String("connection_id", string(connID)),
			slog.String("error", err.Error()))
	}
}

// hostConn is one proxy-side websocket. Writes are serialized; gorilla
// websocket connections do not allow concurrent writers.
type hostConn struct {
	writeMu sync.Mutex
	ws      *websocket.Conn

	// players maps the connections multiplexed over this socket to
	// their account, for cleanup when the socket drops
	playersMu sync.Mutex
	players   map[model.ConnectionID]model.AccountID
}

func newHostConn(ws *websocket.Conn) *hostConn {
	return &hostConn{
		ws:      ws,
		players: make(map[model.ConnectionID]model.AccountID),
	}
}

func (c *hostConn) writeFrame(frame Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(frame)
}

func (c *hostConn) track(connID model.ConnectionID, accountID model.AccountID) {
	c.playersMu.Lock()
	defer c.playersMu.Unlock()
	c.players[connID] = accountID
}

func (c *hostConn) forget(connID model.ConnectionID) {
	c.playersMu.Lock()
	defer c.playersMu.Unlock()
	delete(c.players, connID)
}

func (c *hostConn) drain() map[model.ConnectionID]model.AccountID {
	c.playersMu.Lock()
	defer c.playersMu.Unlock()
	out := c.players
	c.players = make(map[model.ConnectionID]model.AccountID)
	return out
}
