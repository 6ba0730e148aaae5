// Package services provides business logic services
package services

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
)

const (
	// Subject prefix for all domain events
	eventSubjectRoot = "events"

	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4 * 1024

	// Send buffer size
	sendBufferSize = 64
)

// Event is the envelope broadcast to dashboard clients.
type Event struct {
	Type      string      `json:"type"` // e.g. location.created, saveditem.completed
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// EventHub relays domain events from NATS to connected WebSocket clients.
// It is a notification surface only: publishing is fire-and-forget and a
// failed publish never affects the request that triggered it.
type EventHub struct {
	natsConn *nats.Conn

	clients   map[*EventClient]bool
	clientsMu sync.RWMutex

	register   chan *EventClient
	unregister chan *EventClient

	eventsSent uint64
	sentMu     sync.Mutex
}

// EventClient represents a connected dashboard WebSocket client
type EventClient struct {
	hub        *EventHub
	conn       *websocket.Conn
	send       chan []byte
	userID     uint
	remoteAddr string
}

// NewEventHub creates a new event hub
func NewEventHub(natsConn *nats.Conn) *EventHub {
	return &EventHub{
		natsConn:   natsConn,
		clients:    make(map[*EventClient]bool),
		register:   make(chan *EventClient),
		unregister: make(chan *EventClient),
	}
}

// NewEventClient creates a client for an upgraded WebSocket connection
func NewEventClient(hub *EventHub, conn *websocket.Conn, userID uint, remoteAddr string) *EventClient {
	return &EventClient{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufferSize),
		userID:     userID,
		remoteAddr: remoteAddr,
	}
}

// Publish serializes an event and publishes it on the NATS bus. Safe to
// call on a nil hub (tests, or a build without the feed enabled).
func (h *EventHub) Publish(eventType string, data interface{}) {
	if h == nil || h.natsConn == nil {
		return
	}
	evt := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		log.Printf("⚠️ Failed to marshal event %s: %v", eventType, err)
		return
	}
	subject := eventSubjectRoot + "." + eventType
	if err := h.natsConn.Publish(subject, payload); err != nil {
		log.Printf("⚠️ Failed to publish event %s: %v", subject, err)
	}
}

// Register adds a client to the hub
func (h *EventHub) Register(client *EventClient) {
	h.register <- client
}

// Run starts the hub's main loop. It subscribes to the event subject tree
// and fans every message out to all connected clients.
func (h *EventHub) Run() {
	sub, err := h.natsConn.Subscribe(eventSubjectRoot+".>", func(msg *nats.Msg) {
		h.broadcast(msg.Data)
	})
	if err != nil {
		log.Printf("⚠️ Event hub failed to subscribe: %v", err)
		return
	}
	defer sub.Unsubscribe()

	log.Println("📺 Event hub started")

	for {
		select {
		case client := <-h.register:
			h.clientsMu.Lock()
			h.clients[client] = true
			h.clientsMu.Unlock()
			log.Printf("📺 Dashboard client connected: %s", client.remoteAddr)

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.clientsMu.Unlock()
			log.Printf("📺 Dashboard client disconnected: %s", client.remoteAddr)
		}
	}
}

// broadcast sends a raw event payload to every connected client. Clients
// with a full send buffer are dropped rather than blocking the hub.
func (h *EventHub) broadcast(payload []byte) {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- payload:
			h.sentMu.Lock()
			h.eventsSent++
			h.sentMu.Unlock()
		default:
			log.Printf("⚠️ Dropping slow dashboard client: %s", client.remoteAddr)
			go func(c *EventClient) { h.unregister <- c }(client)
		}
	}
}

// HubStats holds event hub statistics
type HubStats struct {
	Clients    int    `json:"clients"`
	EventsSent uint64 `json:"eventsSent"`
}

// Stats returns current hub statistics
func (h *EventHub) Stats() HubStats {
	h.clientsMu.RLock()
	clients := len(h.clients)
	h.clientsMu.RUnlock()

	h.sentMu.Lock()
	sent := h.eventsSent
	h.sentMu.Unlock()

	return HubStats{Clients: clients, EventsSent: sent}
}

// ReadPump drains control messages from the WebSocket connection. Dashboard
// clients are passive listeners, so anything other than ping/pong/close is
// ignored.
func (c *EventClient) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("⚠️ WebSocket error from %s: %v", c.remoteAddr, err)
			}
			break
		}
	}
}

// WritePump pumps events from the hub to the WebSocket connection
func (c *EventClient) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
