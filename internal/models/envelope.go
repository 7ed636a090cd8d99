package models

import "encoding/json"

// Envelope types, mirrored between inbound client frames and outbound
// server frames over the /api/ws connection.
const (
	EnvelopeMessage      = "message"
	EnvelopeTyping       = "typing"
	EnvelopePresence     = "presence"
	EnvelopeCallOffer    = "call_offer"
	EnvelopeCallAnswer   = "call_answer"
	EnvelopeCallICE      = "call_ice"
	EnvelopeCallEnd      = "call_end"
	EnvelopeReadReceipt  = "read_receipt"
	EnvelopeClearMessage = "clear_messages"
)

// InboundFrame is the shape of a client->server WebSocket frame.
type InboundFrame struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// OutboundEnvelope is the shape of a server->client WebSocket frame. Binary
// fields are base64 text on the wire; Data carries base64(JSON bytes) per
// spec.
type OutboundEnvelope struct {
	ID        *int64 `json:"id,omitempty"`
	Type      string `json:"type"`
	From      int64  `json:"from"`
	To        *int64 `json:"to,omitempty"`
	Content   string `json:"content,omitempty"`
	Nonce     string `json:"nonce,omitempty"`
	Data      string `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// TypingPayload is the inbound payload for a "typing" frame, and the
// plaintext (pre-base64) shape of the outbound "typing" data field.
type TypingPayload struct {
	To     int64 `json:"to"`
	Typing bool  `json:"typing"`
}

// SignalPayload is the inbound payload for call_offer/call_answer/call_ice/
// call_end frames. Data is treated as fully opaque.
type SignalPayload struct {
	To   int64           `json:"to"`
	Data json.RawMessage `json:"data"`
}

// PresencePayload is the plaintext (pre-base64) shape of a "presence"
// envelope's data field.
type PresencePayload struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Online   bool   `json:"online"`
}
