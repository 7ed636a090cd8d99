package handlers

import "github.com/gofiber/fiber/v2"

// MiscHandler serves ambient operability endpoints that need no store or
// hub access.
type MiscHandler struct{}

func NewMiscHandler() *MiscHandler {
	return &MiscHandler{}
}

// Health is an unauthenticated liveness probe.
func (h *MiscHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
