package handler

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSEvent is the envelope for all WebSocket messages.
type WSEvent struct {
	Type   string `json:"type"`
	PlanID string `json:"plan_id"`
	Data   any    `json:"data"`
}

// ClientMessage is the envelope for messages sent from the client.
type ClientMessage struct {
	Action string `json:"action"` // "subscribe" or "unsubscribe"
	PlanID string `json:"plan_id"`
}

// WSConn wraps a WebSocket connection with its client and subscriptions.
type WSConn struct {
	conn     *websocket.Conn
	clientID string
	send     chan []byte
}

// Hub manages WebSocket connections and plan-channel subscriptions.
type Hub struct {
	mu          sync.RWMutex
	connections map[*WSConn]bool
	plans       map[string]map[*WSConn]bool // planID -> set of connections
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[*WSConn]bool),
		plans:       make(map[string]map[*WSConn]bool),
	}
}

// Register adds a connection to the hub.
func (h *Hub) Register(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = true
}

// Unregister removes a connection from the hub and all its subscriptions.
func (h *Hub) Unregister(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.connections[c] {
		return
	}
	delete(h.connections, c)
	for planID, conns := range h.plans {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.plans, planID)
		}
	}
	close(c.send)
}

// Subscribe adds a connection to a plan channel.
func (h *Hub) Subscribe(c *WSConn, planID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.connections[c] {
		return
	}
	if h.plans[planID] == nil {
		h.plans[planID] = make(map[*WSConn]bool)
	}
	h.plans[planID][c] = true
}

// Unsubscribe removes a connection from a plan channel.
func (h *Hub) Unsubscribe(c *WSConn, planID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.plans[planID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.plans, planID)
		}
	}
}

// BroadcastToPlan sends an event to all connections subscribed to a plan.
func (h *Hub) BroadcastToPlan(planID string, event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("planId", planID).Msg("Failed to marshal WebSocket event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.plans[planID] {
		select {
		case c.send <- data:
		default:
			log.Warn().Str("clientId", c.clientID).Str("planId", planID).Msg("Dropping WebSocket message, buffer full")
		}
	}
}

// sendTo queues an event for one connection.
func (h *Hub) sendTo(c *WSConn, event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("clientId", c.clientID).Msg("Failed to marshal WebSocket event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.connections[c] {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// ConnectionCount returns the total number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// PlanSubscriberCount returns the number of connections subscribed to a plan.
func (h *Hub) PlanSubscriberCount(planID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.plans[planID])
}
