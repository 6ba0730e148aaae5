package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/mapmark/backend/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// HandleEventsWebSocket handles GET /ws/events - the live event feed for
// admin dashboards.
func (h *Handler) HandleEventsWebSocket(c *gin.Context) {
	if h.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Event hub not initialized"})
		return
	}

	user := CurrentUser(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("⚠️ WebSocket upgrade failed: %v", err)
		return
	}

	client := services.NewEventClient(h.hub, conn, user.ID, c.ClientIP())
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

// GetEventHubStats handles GET /api/events/stats
func (h *Handler) GetEventHubStats(c *gin.Context) {
	if h.hub == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}

	stats := h.hub.Stats()
	c.JSON(http.StatusOK, gin.H{
		"enabled":    true,
		"clients":    stats.Clients,
		"eventsSent": stats.EventsSent,
	})
}
