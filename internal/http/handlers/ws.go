package handlers

import (
	"net/http"

	"voicehub/internal/logger"
	"voicehub/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is enforced by the CORS layer in front of this.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RoomEvents upgrades the connection and streams room state changes until
// the client disconnects.
func (h *Handler) RoomEvents(hub *ws.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := getUserID(c)
		if !ok {
			unauthorized(c)
			return
		}

		roomID := c.Param("id")
		if _, err := h.Rooms.Snapshot(c.Request.Context(), roomID); err != nil {
			fail(c, err)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Error("ws: upgrade failed", "error", err)
			return
		}

		client := ws.NewClient(userID, roomID, conn, hub)
		go client.Run()
	}
}
