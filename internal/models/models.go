// Package models holds the persisted and wire types shared by the store,
// the hub, and the HTTP surface.
package models

import "time"

// MessageType distinguishes the kind of ciphertext carried by a Message.
type MessageType string

const (
	MessageTypeText MessageType = "text"
	MessageTypeFile MessageType = "file"
	MessageTypeCall MessageType = "call"
)

// User is a registered account. PasswordHash is never serialized to JSON;
// handlers that need the hash (login) read it straight off the struct
// instead of going through the wire shape.
type User struct {
	ID                 int64      `db:"id" json:"id"`
	Username           string     `db:"username" json:"username"`
	PasswordHash       string     `db:"password_hash" json:"-"`
	PublicKey          []byte     `db:"public_key" json:"-"`
	PublicKeyUpdatedAt *time.Time `db:"public_key_updated_at" json:"-"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	LastSeen           time.Time  `db:"last_seen" json:"last_seen"`
}

// PublicUser is the wire shape for /api/users and /api/users/me. PublicKey
// is base64-encoded on the way out; Online is computed by the hub, never
// stored.
type PublicUser struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	PublicKey string    `json:"public_key"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
	Online    bool      `json:"online"`
}

// Message is a single stored ciphertext exchange between two users.
type Message struct {
	ID         int64       `db:"id" json:"id"`
	SenderID   int64       `db:"sender_id" json:"sender_id"`
	ReceiverID int64       `db:"receiver_id" json:"receiver_id"`
	Type       MessageType `db:"type" json:"type"`
	Content    []byte      `db:"content" json:"-"`
	Nonce      []byte      `db:"nonce" json:"-"`
	Timestamp  time.Time   `db:"timestamp" json:"timestamp"`
	Read       bool        `db:"read" json:"read"`
	Delivered  bool        `db:"delivered" json:"delivered"`
}

// WireMessage is the JSON shape of a Message: content/nonce as base64.
type WireMessage struct {
	ID         int64       `json:"id"`
	SenderID   int64       `json:"sender_id"`
	ReceiverID int64       `json:"receiver_id"`
	Type       MessageType `json:"type"`
	Content    string      `json:"content"`
	Nonce      string      `json:"nonce"`
	Timestamp  time.Time   `json:"timestamp"`
	Read       bool        `json:"read"`
	Delivered  bool        `json:"delivered"`
}

// Invite is a one-shot registration token.
type Invite struct {
	ID        int64      `db:"id" json:"id"`
	Code      string     `db:"code" json:"code"`
	UsedBy    *int64     `db:"used_by" json:"used_by,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UsedAt    *time.Time `db:"used_at" json:"used_at,omitempty"`
}
