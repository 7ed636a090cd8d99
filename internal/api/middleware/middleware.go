package middleware

import (
	"strings"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"chatrelay/internal/auth"
)

// Middleware contains the cross-cutting HTTP handlers for the API surface.
type Middleware struct {
	jwt *auth.JWTService
}

// NewMiddleware creates middleware bound to a token service.
func NewMiddleware(jwt *auth.JWTService) *Middleware {
	return &Middleware{jwt: jwt}
}

// RequireAuth validates the bearer token and binds {user_id, username} to
// the request context. The token may arrive as an Authorization header or,
// exclusively for the WebSocket handshake, a "token" query parameter,
// since browsers cannot set headers on the WebSocket open.
func (m *Middleware) RequireAuth(c *fiber.Ctx) error {
	tokenString := extractBearerToken(c)
	if tokenString == "" && websocket.IsWebSocketUpgrade(c) {
		tokenString = c.Query("token")
	}
	if tokenString == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "missing authorization",
		})
	}

	claims, err := m.jwt.ValidateToken(tokenString)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid token",
		})
	}

	c.Locals("userID", claims.UserID)
	c.Locals("username", claims.Username)
	return c.Next()
}

// WebSocketUpgrade rejects any request to the WS route that isn't actually
// a WebSocket handshake.
func (m *Middleware) WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

func extractBearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
