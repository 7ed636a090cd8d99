package hub

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"chatrelay/internal/codec"
	"chatrelay/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 65536
	sendQueueSize  = 256
)

// Connection is one live socket. It owns a reader goroutine (ReadPump) and
// a writer goroutine (WritePump); the hub is the only thing permitted to
// close send.
type Connection struct {
	UserID   int64
	Username string

	// id is a per-socket tag for log correlation only; it is never
	// persisted or sent to clients.
	id string

	hub  *Hub
	conn *websocket.Conn
	send chan models.OutboundEnvelope
}

// NewConnection wraps an upgraded socket. Call hub.Register before starting
// the pumps so presence for this user reaches everyone else.
func NewConnection(h *Hub, conn *websocket.Conn, userID int64, username string) *Connection {
	return &Connection{
		UserID:   userID,
		Username: username,
		id:       uuid.New().String(),
		hub:      h,
		conn:     conn,
		send:     make(chan models.OutboundEnvelope, sendQueueSize),
	}
}

// ReadPump reads inbound frames until the socket errors, then unregisters
// itself. Must run in its own goroutine.
func (c *Connection) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
		log.Printf("hub: conn %s (user %d) read pump exited", c.id, c.UserID)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var frame models.InboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		c.handleFrame(&frame)
	}
}

// WritePump drains the outbound queue onto the socket and pings on idle.
// Must run in its own goroutine.
func (c *Connection) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case envelope, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(envelope)
			if err != nil {
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Connection) handleFrame(frame *models.InboundFrame) {
	switch frame.Type {
	case models.EnvelopeTyping:
		var payload models.TypingPayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			return
		}
		c.forward(models.EnvelopeTyping, payload.To, frame.Payload)

	case models.EnvelopeCallOffer, models.EnvelopeCallAnswer, models.EnvelopeCallICE, models.EnvelopeCallEnd:
		var payload models.SignalPayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			return
		}
		c.forward(frame.Type, payload.To, payload.Data)

	default:
		log.Printf("hub: ignoring unknown frame type %q from user %d", frame.Type, c.UserID)
	}
}

// forward builds the server->client envelope for a best-effort signaling
// frame and routes it through the hub. data is re-encoded as base64 per
// the wire rule for opaque fields.
func (c *Connection) forward(frameType string, to int64, data json.RawMessage) {
	c.hub.SendMessage(to, models.OutboundEnvelope{
		Type:      frameType,
		From:      c.UserID,
		Data:      codec.Encode(data),
		Timestamp: time.Now().Unix(),
	})
}
