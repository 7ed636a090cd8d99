package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"chatrelay/internal/codec"
	"chatrelay/internal/hub"
	"chatrelay/internal/models"
	"chatrelay/internal/store"
)

// UserHandler serves the user directory and key management endpoints.
type UserHandler struct {
	store *store.Store
	hub   *hub.Hub
}

func NewUserHandler(st *store.Store, h *hub.Hub) *UserHandler {
	return &UserHandler{store: st, hub: h}
}

// UpdateKeyRequest is the POST /api/users/update-key body.
type UpdateKeyRequest struct {
	PublicKey string `json:"public_key"`
}

// GetAll returns every user with presence computed from the hub.
func (h *UserHandler) GetAll(c *fiber.Ctx) error {
	users, err := h.store.Users.GetAllUsers(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
		})
	}

	out := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, toPublicUser(&u, h.hub.IsOnline(u.ID)))
	}
	return c.JSON(out)
}

// GetMe returns the caller's own record, always online (they're making
// this request over an authenticated session).
func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int64)

	user, err := h.store.Users.GetUserByID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "user not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
		})
	}

	return c.JSON(toPublicUser(user, true))
}

// UpdateKey replaces the caller's stored public key.
func (h *UserHandler) UpdateKey(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int64)

	var req UpdateKeyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	publicKey, err := codec.Decode(req.PublicKey)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "public_key must be base64",
		})
	}

	if err := h.store.Users.UpdatePublicKey(c.Context(), userID, publicKey); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}
