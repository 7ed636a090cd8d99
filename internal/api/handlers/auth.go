package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"chatrelay/internal/auth"
	"chatrelay/internal/codec"
	"chatrelay/internal/models"
	"chatrelay/internal/store"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 32
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	store *store.Store
	jwt   *auth.JWTService
}

func NewAuthHandler(st *store.Store, jwt *auth.JWTService) *AuthHandler {
	return &AuthHandler{store: st, jwt: jwt}
}

// RegisterRequest is the POST /api/register body.
type RegisterRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	InviteCode string `json:"invite_code"`
	PublicKey  string `json:"public_key"`
}

// LoginRequest is the POST /api/login body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is returned by both register and login.
type AuthResponse struct {
	Token string             `json:"token"`
	User  models.PublicUser `json:"user"`
}

// Register creates a user, atomically consuming an invite unless the user
// table is empty (bootstrap rule).
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if len(req.Username) < minUsernameLength || len(req.Username) > maxUsernameLength {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "username must be between 3 and 32 characters",
		})
	}

	if err := auth.ValidatePasswordLength(req.Password); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	publicKey, err := codec.Decode(req.PublicKey)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "public_key must be base64",
		})
	}

	ctx := c.Context()

	userCount, err := h.store.UserCount(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
		})
	}
	bootstrap := userCount == 0

	if !bootstrap {
		if req.InviteCode == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invite-unavailable",
			})
		}
		ok, err := h.store.Invites.ValidateInvite(ctx, req.InviteCode)
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
	}

	passwordHash, err := auth.HashPasswordPooled(ctx, req.Password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
		})
	}

	user, err := h.store.Users.CreateUser(ctx, req.Username, passwordHash, publicKey)
	if err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "username already exists",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
		})
	}

	if !bootstrap {
		if err := h.store.Invites.ConsumeInvite(ctx, req.InviteCode, user.ID); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invite-unavailable",
			})
		}
	}

	token, err := h.jwt.GenerateToken(user.ID, user.Username)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
		})
	}

	return c.JSON(AuthResponse{Token: token, User: toPublicUser(user, false)})
}

// Login verifies credentials and issues a token. It never mutates the
// stored public key; the client follows up with /update-key if needed.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	ctx := c.Context()

	user, err := h.store.Users.GetUserByUsername(ctx, req.Username)
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

	if err := auth.CheckPasswordPooled(ctx, req.Password, user.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid password",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
		})
	}

	token, err := h.jwt.GenerateToken(user.ID, user.Username)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
		})
	}

	return c.JSON(AuthResponse{Token: token, User: toPublicUser(user, true)})
}

func toPublicUser(u *models.User, online bool) models.PublicUser {
	return models.PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		PublicKey: codec.Encode(u.PublicKey),
		CreatedAt: u.CreatedAt,
		LastSeen:  u.LastSeen,
		Online:    online,
	}
}
