package handlers

import (
	"net/http"

	"citywatch/middleware"
	"citywatch/wsfeed"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WebSocketHandler upgrades dashboard connections onto the live report feed.
type WebSocketHandler struct {
	hub *wsfeed.Hub
}

func NewWebSocketHandler(hub *wsfeed.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Feed handles WebSocket connections for the live report feed.
func (h *WebSocketHandler) Feed(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("Failed to upgrade connection to WebSocket: %v", err)
		return
	}

	client := wsfeed.NewClient(h.hub, conn)
	client.Register()

	log.Infof("Live feed connection established for user %s", userID)
}
