package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/polite-betrayal/planner/internal/auth"
	"github.com/freeeve/polite-betrayal/planner/internal/model"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = 54 * time.Second // Must be less than pongWait
	maxMsgSize  = 4096
	sendBufSize = 256
)

// Event types sent only by the WebSocket handler.
const (
	EventConnected  = "connected"
	EventPlanStatus = "plan_status"
	EventError      = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS handled by middleware; tighten in production
	},
}

// PlanLookup returns a client's plan job; the plan service satisfies it.
type PlanLookup interface {
	Get(ctx context.Context, clientID, id string) (*model.PlanJob, error)
}

// WSHandler handles WebSocket connections.
type WSHandler struct {
	hub   *Hub
	plans PlanLookup
}

// NewWSHandler creates a WSHandler.
func NewWSHandler(hub *Hub, plans PlanLookup) *WSHandler {
	return &WSHandler{hub: hub, plans: plans}
}

// ServeWS handles GET /api/v1/ws and upgrades to WebSocket. It must sit
// behind auth.Middleware.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	clientID := auth.ClientIDFromContext(r.Context())
	if clientID == "" {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := &WSConn{
		conn:     conn,
		clientID: clientID,
		send:     make(chan []byte, sendBufSize),
	}
	h.hub.Register(client)
	h.hub.sendTo(client, WSEvent{Type: EventConnected, Data: map[string]any{}})

	go h.writePump(client)
	go h.readPump(client)

	log.Info().Str("clientId", clientID).Int("total", h.hub.ConnectionCount()).Msg("WebSocket client connected")
}

// handleMessage applies one client message. Only the plan's owner may
// subscribe. The status snapshot is read after the subscription is in
// place so a completion is never missed.
func (h *WSHandler) handleMessage(c *WSConn, msg ClientMessage) {
	if msg.PlanID == "" {
		return
	}
	switch msg.Action {
	case "subscribe":
		ctx := context.Background()
		if _, err := h.plans.Get(ctx, c.clientID, msg.PlanID); err != nil {
			h.sendError(c, msg.PlanID, err)
			return
		}
		h.hub.Subscribe(c, msg.PlanID)
		job, err := h.plans.Get(ctx, c.clientID, msg.PlanID)
		if err != nil {
			h.hub.Unsubscribe(c, msg.PlanID)
			h.sendError(c, msg.PlanID, err)
			return
		}
		h.hub.sendTo(c, WSEvent{Type: EventPlanStatus, PlanID: msg.PlanID, Data: job})
	case "unsubscribe":
		h.hub.Unsubscribe(c, msg.PlanID)
	}
}

func (h *WSHandler) sendError(c *WSConn, planID string, err error) {
	h.hub.sendTo(c, WSEvent{Type: EventError, PlanID: planID, Data: map[string]string{"error": err.Error()}})
}

// readPump reads messages from the WebSocket connection.
func (h *WSHandler) readPump(c *WSConn) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
		log.Info().Str("clientId", c.clientID).Msg("WebSocket client disconnected")
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("clientId", c.clientID).Msg("WebSocket unexpected close")
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		h.handleMessage(c, msg)
	}
}

// writePump writes messages to the WebSocket connection.
func (h *WSHandler) writePump(c *WSConn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
