package handlers

import (
	"github.com/gofiber/contrib/websocket"

	"chatrelay/internal/auth"
	"chatrelay/internal/hub"
)

// WebSocketHandler upgrades /api/ws connections and registers them with
// the hub. The token always arrives as a "token" query parameter here:
// browsers cannot set headers on the WebSocket open.
type WebSocketHandler struct {
	jwt *auth.JWTService
	hub *hub.Hub
}

func NewWebSocketHandler(jwt *auth.JWTService, h *hub.Hub) *WebSocketHandler {
	return &WebSocketHandler{jwt: jwt, hub: h}
}

// Connect is the fiber websocket.New callback.
func (h *WebSocketHandler) Connect(conn *websocket.Conn) {
	claims, err := h.jwt.ValidateToken(conn.Query("token"))
	if err != nil {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "invalid token"))
		return
	}

	c := hub.NewConnection(h.hub, conn, claims.UserID, claims.Username)
	h.hub.Register(c)

	done := make(chan struct{})
	go func() {
		c.WritePump()
		close(done)
	}()
	c.ReadPump()
	<-done
}
