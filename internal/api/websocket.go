package api

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/thereceipt/kot-bridge/internal/dispatch"
	"github.com/thereceipt/kot-bridge/pkg/kotformat"
	"go.uber.org/zap"
)

// WebSocket message types
const (
	EventPrint          = "print"
	EventDispatch       = "dispatch"
	EventPrinterAdded   = "printer_added"
	EventPrinterRemoved = "printer_removed"
	EventResponse       = "response"
	EventError          = "error"
)

// WSMessage is an outbound WebSocket message
type WSMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type inboundMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Hub tracks connected clients and fans out events
type Hub struct {
	logger *zap.Logger

	mu      sync.RWMutex
	clients map[*WSClient]struct{}
}

// NewHub creates an empty hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*WSClient]struct{}),
	}
}

func (h *Hub) add(c *WSClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *WSClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Len returns the number of connected clients
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a message to every client. Clients with a full buffer miss it.
func (h *Hub) Broadcast(msg WSMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			h.logger.Debug("websocket client buffer full, dropping event", zap.String("event", msg.Event))
		}
	}
}

// Record broadcasts a dispatch outcome
func (h *Hub) Record(o dispatch.Outcome) {
	h.Broadcast(WSMessage{Event: EventDispatch, Data: o})
}

// BroadcastPrinterAdded broadcasts a printer added event to all connected clients
func (h *Hub) BroadcastPrinterAdded(name string) {
	h.Broadcast(WSMessage{Event: EventPrinterAdded, Data: gin.H{"name": name}})
}

// BroadcastPrinterRemoved broadcasts a printer removed event to all connected clients
func (h *Hub) BroadcastPrinterRemoved(name string) {
	h.Broadcast(WSMessage{Event: EventPrinterRemoved, Data: gin.H{"name": name}})
}

// WSClient represents a connected WebSocket client
type WSClient struct {
	conn   *websocket.Conn
	send   chan WSMessage
	server *Server
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &WSClient{
		conn:   conn,
		send:   make(chan WSMessage, 256),
		server: s,
	}
	s.hub.add(client)

	s.logger.Info("websocket client connected", zap.String("remote", conn.RemoteAddr().String()))

	go client.readPump()
	go client.writePump()
}

func (c *WSClient) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			c.server.logger.Debug("websocket write failed", zap.Error(err))
			return
		}
	}
}

func (c *WSClient) readPump() {
	defer func() {
		c.server.hub.remove(c)
		c.conn.Close()
		c.server.logger.Info("websocket client disconnected")
	}()

	for {
		var msg inboundMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.server.logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		c.handleMessage(&msg)
	}
}

func (c *WSClient) handleMessage(msg *inboundMessage) {
	switch msg.Event {
	case EventPrint:
		c.handlePrintEvent(msg.Data)
	default:
		c.sendError(fmt.Sprintf("unknown event: %s", msg.Event))
	}
}

func (c *WSClient) handlePrintEvent(data json.RawMessage) {
	var order kotformat.Order
	if err := json.Unmarshal(data, &order); err != nil {
		c.sendError(fmt.Sprintf("invalid order: %v", err))
		return
	}

	out := c.server.dispatcher.Print(context.Background(), order)
	c.reply(WSMessage{Event: EventResponse, Data: out})
}

func (c *WSClient) sendError(message string) {
	c.reply(WSMessage{
		Event: EventError,
		Data:  gin.H{"error": message},
	})
}

// reply queues a message for this client unless it already disconnected
func (c *WSClient) reply(msg WSMessage) {
	c.server.hub.mu.RLock()
	defer c.server.hub.mu.RUnlock()

	if _, ok := c.server.hub.clients[c]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}
