package handlers

import (
	"github.com/gofiber/fiber/v2"

	"chatrelay/internal/store"
)

// InviteHandler handles invite generation and validation.
type InviteHandler struct {
	store *store.Store
}

func NewInviteHandler(st *store.Store) *InviteHandler {
	return &InviteHandler{store: st}
}

// ValidateRequest is the POST /api/invite/validate body.
type ValidateRequest struct {
	Code string `json:"code"`
}

// Create mints a new invite code for any authenticated user.
func (h *InviteHandler) Create(c *fiber.Ctx) error {
	code, err := h.store.Invites.GenerateInvite(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
		})
	}
	return c.JSON(fiber.Map{"code": code})
}

// Validate reports whether a code is currently consumable.
func (h *InviteHandler) Validate(c *fiber.Ctx) error {
	var req ValidateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	ok, err := h.store.Invites.ValidateInvite(c.Context(), req.Code)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
		})
	}
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invite-unavailable",
		})
	}

	return c.JSON(fiber.Map{"valid": true})
}
