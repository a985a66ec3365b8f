// internal/handlers/websocket/websocket_handler.go
package websocket

import (
	"net/http"
	"time"

	wstypes "retention-service/internal/domain/websocket"
	"retention-service/internal/pkg/response"
	viewsvc "retention-service/internal/service/view"
	ws "retention-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the dashboard is served from other origins; CORS already gates the API
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	hub         *ws.Hub
	viewService *viewsvc.ViewService
	delay       time.Duration
	logger      *zap.Logger
}

// NewWebSocketHandler builds the live view endpoint. delay is the search
// debounce window of each connection.
func NewWebSocketHandler(hub *ws.Hub, viewService *viewsvc.ViewService, delay time.Duration, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		viewService: viewService,
		delay:       delay,
		logger:      logger,
	}
}

// HandleConnection upgrades to a socket following one view. The current
// page is pushed right after connecting.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	viewID := c.Param("id")

	page, err := h.viewService.Get(c.Request.Context(), viewID)
	if err != nil {
		response.FromError(c, "failed to open view", err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed",
			zap.Error(err),
			zap.String("ip", c.ClientIP()),
		)
		return
	}

	client := ws.NewClient(h.hub, conn, viewID, h.delay)
	if !h.hub.Register(client) {
		client.Close()
		conn.Close()
		return
	}

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]string{"view_id": viewID}))
	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeViewPage, page))

	// Start client goroutines
	go client.WritePump()
	go client.ReadPump()
}

// GetStats returns WebSocket connection statistics
func (h *WebSocketHandler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"total_connections": h.hub.TotalClients(),
		"timestamp":         time.Now(),
	}

	response.Success(c, http.StatusOK, "WebSocket stats", stats)
}
