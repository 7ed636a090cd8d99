package api

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"chatrelay/internal/api/handlers"
	"chatrelay/internal/api/middleware"
)

// SetupRoutes configures every route described in the HTTP surface
// component.
func SetupRoutes(app *fiber.App, h *handlers.Handlers, m *middleware.Middleware) {
	app.Get("/health", h.Misc.Health)

	v1 := app.Group("/api")

	// Public: no token required.
	v1.Post("/register", h.Auth.Register)
	v1.Post("/login", h.Auth.Login)
	v1.Post("/invite/validate", h.Invites.Validate)

	// Protected REST surface.
	protected := v1.Group("", m.RequireAuth)
	protected.Get("/users", h.Users.GetAll)
	protected.Get("/users/me", h.Users.GetMe)
	protected.Post("/users/update-key", h.Users.UpdateKey)
	protected.Get("/messages/:other_id", h.Messages.GetConversation)
	protected.Post("/messages", h.Messages.Send)
	protected.Post("/messages/clear", h.Messages.Clear)
	protected.Post("/invites", h.Invites.Create)

	// WebSocket upgrade: token comes from the query string, validated
	// inside the handler itself.
	app.Get("/api/ws", m.WebSocketUpgrade, websocket.New(h.WebSocket.Connect))
}
