// Package hub holds the process-wide registry of live WebSocket
// connections and the event loop that serialises their lifecycle.
package hub

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"chatrelay/internal/codec"
	"chatrelay/internal/metrics"
	"chatrelay/internal/models"
	"chatrelay/internal/store"
)

// Hub is a singleton: one per process, shared by every registered
// Connection and every HTTP handler that needs to know who is online.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]*Connection

	register   chan *Connection
	unregister chan *Connection

	store   *store.Store
	metrics *metrics.HubMetrics
}

// New creates a Hub. Call Run in its own goroutine before registering any
// connection.
func New(st *store.Store, m *metrics.HubMetrics) *Hub {
	return &Hub{
		clients:    make(map[int64]*Connection),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		store:      st,
		metrics:    m,
	}
}

// Run drains the register/unregister channels until ctx is cancelled. Only
// this goroutine ever mutates the clients map's membership transitions.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.handleRegister(c)
		case c := <-h.unregister:
			h.handleUnregister(c)
		}
	}
}

// Register hands a new connection to the event loop. Blocks until the loop
// picks it up.
func (h *Hub) Register(c *Connection) { h.register <- c }

// Unregister hands a departing connection to the event loop.
func (h *Hub) Unregister(c *Connection) { h.unregister <- c }

// SendMessage performs a synchronous lookup of the receiver's connection
// and a non-blocking enqueue onto its outbound queue. It never blocks: an
// absent receiver or a full queue both result in a silent drop. It reports
// whether the envelope actually landed on the receiver's outbound queue.
func (h *Hub) SendMessage(to int64, envelope models.OutboundEnvelope) bool {
	h.mu.RLock()
	c, ok := h.clients[to]
	h.mu.RUnlock()

	if !ok {
		if h.metrics != nil {
			h.metrics.RecordDropped("offline")
		}
		return false
	}
	return h.enqueue(c, envelope)
}

// DeliverMessage enqueues a persisted chat message to its receiver and, the
// moment that enqueue actually lands on a live connection, stamps the
// message delivered in the store. Presence and read-receipt envelopes never
// go through here; only a real EnvelopeMessage frame earns a delivery stamp.
func (h *Hub) DeliverMessage(ctx context.Context, msgID, to int64, envelope models.OutboundEnvelope) bool {
	delivered := h.SendMessage(to, envelope)
	if delivered && h.store != nil {
		if err := h.store.Messages.MarkDelivered(ctx, msgID); err != nil {
			log.Printf("hub: mark message %d delivered: %v", msgID, err)
		}
	}
	return delivered
}

// IsOnline reports whether user_id has a live connection.
func (h *Hub) IsOnline(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// GetOnlineUsers returns the user_id of every currently registered
// connection, in no particular order.
func (h *Hub) GetOnlineUsers() []int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]int64, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}

func (h *Hub) handleRegister(c *Connection) {
	h.mu.Lock()
	if stale, ok := h.clients[c.UserID]; ok {
		delete(h.clients, c.UserID)
		close(stale.send)
	}

	// Give the newcomer a complete initial view before anyone learns about it.
	for otherID, other := range h.clients {
		h.enqueue(c, presenceEnvelope(otherID, other.Username, true))
	}

	h.clients[c.UserID] = c
	online := len(h.clients)
	h.mu.Unlock()

	if h.store != nil {
		if err := h.store.Users.UpdateLastSeen(context.Background(), c.UserID); err != nil {
			log.Printf("hub: update last seen for user %d: %v", c.UserID, err)
		}
	}

	h.broadcastPresence(c.UserID, c.Username, true, c.UserID)

	if h.metrics != nil {
		h.metrics.ConnectionRegistered()
		h.metrics.SetOnlineUsers(float64(online))
	}
}

func (h *Hub) handleUnregister(c *Connection) {
	h.mu.Lock()
	current, ok := h.clients[c.UserID]
	if !ok || current != c {
		// Stale socket closing after a successful reconnect. The user is
		// still online through the connection that replaced this one.
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.UserID)
	online := len(h.clients)
	close(c.send)
	h.mu.Unlock()

	h.broadcastPresence(c.UserID, c.Username, false, c.UserID)

	if h.metrics != nil {
		h.metrics.ConnectionUnregistered()
		h.metrics.SetOnlineUsers(float64(online))
	}
}

// broadcastPresence enqueues a presence envelope to every connection other
// than exclude. A full queue drops the frame; the REST GetAllUsers
// re-fetch is the safety net.
func (h *Hub) broadcastPresence(userID int64, username string, online bool, exclude int64) {
	h.mu.RLock()
	targets := make([]*Connection, 0, len(h.clients))
	for id, c := range h.clients {
		if id == exclude {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	env := presenceEnvelope(userID, username, online)
	for _, c := range targets {
		h.enqueue(c, env)
	}
}

func (h *Hub) enqueue(c *Connection, env models.OutboundEnvelope) bool {
	select {
	case c.send <- env:
		if h.metrics != nil {
			h.metrics.ObserveQueueDepth(float64(len(c.send)))
			h.metrics.RecordRouted(env.Type)
		}
		return true
	default:
		if h.metrics != nil {
			h.metrics.RecordDropped("queue-full")
		}
		log.Printf("hub: dropping %s frame for user %d, queue full", env.Type, c.UserID)
		return false
	}
}

func presenceEnvelope(userID int64, username string, online bool) models.OutboundEnvelope {
	payload, _ := json.Marshal(models.PresencePayload{
		UserID:   userID,
		Username: username,
		Online:   online,
	})
	return models.OutboundEnvelope{
		Type:      models.EnvelopePresence,
		From:      userID,
		Data:      codec.Encode(payload),
		Timestamp: time.Now().Unix(),
	}
}
