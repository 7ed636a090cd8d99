package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"chatrelay/internal/codec"
	"chatrelay/internal/hub"
	"chatrelay/internal/models"
	"chatrelay/internal/store"
)

// MessageHandler serves message history, send, and clear-conversation.
type MessageHandler struct {
	store *store.Store
	hub   *hub.Hub
}

func NewMessageHandler(st *store.Store, h *hub.Hub) *MessageHandler {
	return &MessageHandler{store: st, hub: h}
}

// SendRequest is the POST /api/messages body.
type SendRequest struct {
	ReceiverID int64             `json:"receiver_id"`
	Type       models.MessageType `json:"type"`
	Content    string            `json:"content"`
	Nonce      string            `json:"nonce"`
}

// ClearRequest is the POST /api/messages/clear body.
type ClearRequest struct {
	OtherUserID int64 `json:"other_user_id"`
}

// GetConversation returns up to 50 messages with the caller, newest first,
// and marks the incoming half as read.
func (h *MessageHandler) GetConversation(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int64)

	otherID, err := strconv.ParseInt(c.Params("other_id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid other_id",
		})
	}

	ctx := c.Context()

	messages, err := h.store.Messages.GetMessagesBetween(ctx, userID, otherID, 0, 0)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
		})
	}

	if err := h.store.Messages.MarkMessagesAsRead(ctx, otherID, userID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
		})
	}

	if h.hub.IsOnline(otherID) {
		h.hub.SendMessage(otherID, models.OutboundEnvelope{
			Type:      models.EnvelopeReadReceipt,
			From:      userID,
			To:        &otherID,
			Timestamp: time.Now().Unix(),
		})
	}

	wire := make([]models.WireMessage, len(messages))
	for i, m := range messages {
		wire[i] = toWireMessage(&m)
	}
	return c.JSON(wire)
}

// Send persists a ciphertext message and, if the receiver is online,
// delivers it in real time with the same ciphertext.
func (h *MessageHandler) Send(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int64)

	var req SendRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	content, err := codec.Decode(req.Content)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "content must be base64",
		})
	}
	nonce, err := codec.Decode(req.Nonce)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "nonce must be base64",
		})
	}

	msg, err := h.store.Messages.SaveMessage(c.Context(), userID, req.ReceiverID, req.Type, content, nonce)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
		})
	}

	to := req.ReceiverID
	if h.hub.DeliverMessage(c.Context(), msg.ID, req.ReceiverID, models.OutboundEnvelope{
		ID:        &msg.ID,
		Type:      models.EnvelopeMessage,
		From:      userID,
		To:        &to,
		Content:   req.Content,
		Nonce:     req.Nonce,
		Timestamp: msg.Timestamp.Unix(),
	}) {
		msg.Delivered = true
	}

	return c.JSON(toWireMessage(msg))
}

// Clear deletes the conversation between the caller and other_user_id and
// notifies the peer if they are online.
func (h *MessageHandler) Clear(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int64)

	var req ClearRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := h.store.Messages.DeleteMessagesBetween(c.Context(), userID, req.OtherUserID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
		})
	}

	if h.hub.IsOnline(req.OtherUserID) {
		h.hub.SendMessage(req.OtherUserID, models.OutboundEnvelope{
			Type:      models.EnvelopeClearMessage,
			From:      userID,
			Timestamp: time.Now().Unix(),
		})
	}

	return c.JSON(fiber.Map{"success": true})
}

func toWireMessage(m *models.Message) models.WireMessage {
	return models.WireMessage{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Type:       m.Type,
		Content:    codec.Encode(m.Content),
		Nonce:      codec.Encode(m.Nonce),
		Timestamp:  m.Timestamp,
		Read:       m.Read,
		Delivered:  m.Delivered,
	}
}
