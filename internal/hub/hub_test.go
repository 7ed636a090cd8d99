package hub

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatrelay/internal/codec"
	"chatrelay/internal/models"
	"chatrelay/internal/store"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st, nil)
}

func newTestConnection(h *Hub, userID int64, username string) *Connection {
	return &Connection{
		UserID:   userID,
		Username: username,
		hub:      h,
		send:     make(chan models.OutboundEnvelope, sendQueueSize),
	}
}

func drain(t *testing.T, c *Connection) []models.OutboundEnvelope {
	t.Helper()
	var out []models.OutboundEnvelope
	for {
		select {
		case env := <-c.send:
			out = append(out, env)
		default:
			return out
		}
	}
}

func TestRegister_NewcomerReceivesPresenceForExistingUsers(t *testing.T) {
	h := newTestHub(t)

	alice := newTestConnection(h, 1, "alice")
	h.handleRegister(alice)

	bob := newTestConnection(h, 2, "bob")
	h.handleRegister(bob)

	envs := drain(t, bob)
	require.Len(t, envs, 1)
	assert.Equal(t, models.EnvelopePresence, envs[0].Type)
	assert.Equal(t, int64(1), envs[0].From)
}

func TestRegister_BroadcastsPresenceToExistingConnections(t *testing.T) {
	h := newTestHub(t)

	alice := newTestConnection(h, 1, "alice")
	h.handleRegister(alice)

	bob := newTestConnection(h, 2, "bob")
	h.handleRegister(bob)

	envs := drain(t, alice)
	require.Len(t, envs, 1)
	assert.Equal(t, models.EnvelopePresence, envs[0].Type)
	assert.Equal(t, int64(2), envs[0].From)
}

func TestRegister_EvictsStaleConnectionForSameUser(t *testing.T) {
	h := newTestHub(t)

	first := newTestConnection(h, 1, "alice")
	h.handleRegister(first)

	second := newTestConnection(h, 1, "alice")
	h.handleRegister(second)

	_, ok := <-first.send
	assert.False(t, ok, "stale connection's send channel should be closed on eviction")

	h.mu.RLock()
	current := h.clients[1]
	h.mu.RUnlock()
	assert.Same(t, second, current)
}

func TestUnregister_StaleSocketAfterReconnectDoesNotMarkOffline(t *testing.T) {
	h := newTestHub(t)

	first := newTestConnection(h, 1, "alice")
	h.handleRegister(first)

	second := newTestConnection(h, 1, "alice")
	h.handleRegister(second)

	// The stale first connection's reader eventually notices its closed
	// socket and fires an unregister for the connection it used to own.
	// By pointer identity this must be a no-op: the map now holds second.
	h.handleUnregister(first)

	assert.True(t, h.IsOnline(1))
	h.mu.RLock()
	current := h.clients[1]
	h.mu.RUnlock()
	assert.Same(t, second, current)
}

func TestUnregister_RemovesCurrentConnectionAndBroadcastsOffline(t *testing.T) {
	h := newTestHub(t)

	alice := newTestConnection(h, 1, "alice")
	h.handleRegister(alice)
	bob := newTestConnection(h, 2, "bob")
	h.handleRegister(bob)
	drain(t, bob)

	h.handleUnregister(alice)

	assert.False(t, h.IsOnline(1))
	envs := drain(t, bob)
	require.Len(t, envs, 1)
	assert.Equal(t, models.EnvelopePresence, envs[0].Type)
	assert.Equal(t, int64(1), envs[0].From)

	payload, err := decodePresence(envs[0].Data)
	require.NoError(t, err)
	assert.False(t, payload.Online)
}

func TestSendMessage_DropsSilentlyWhenOffline(t *testing.T) {
	h := newTestHub(t)
	assert.NotPanics(t, func() {
		h.SendMessage(999, models.OutboundEnvelope{Type: "message", From: 1})
	})
}

func TestSendMessage_DeliversToOnlineReceiver(t *testing.T) {
	h := newTestHub(t)
	bob := newTestConnection(h, 2, "bob")
	h.handleRegister(bob)

	h.SendMessage(2, models.OutboundEnvelope{Type: "message", From: 1, Timestamp: time.Now().Unix()})

	envs := drain(t, bob)
	require.Len(t, envs, 1)
	assert.Equal(t, "message", envs[0].Type)
}

func TestSendMessage_DropsWhenQueueFull(t *testing.T) {
	h := newTestHub(t)
	bob := newTestConnection(h, 2, "bob")
	h.handleRegister(bob)

	for i := 0; i < sendQueueSize+5; i++ {
		h.SendMessage(2, models.OutboundEnvelope{Type: "message", From: 1})
	}

	assert.Len(t, bob.send, sendQueueSize)
}

func TestDeliverMessage_StampsDeliveredWhenReceiverOnline(t *testing.T) {
	h := newTestHub(t)
	ctx := context.Background()

	alice, err := h.store.Users.CreateUser(ctx, "alice", "hash", []byte("a"))
	require.NoError(t, err)
	bob, err := h.store.Users.CreateUser(ctx, "bob", "hash", []byte("b"))
	require.NoError(t, err)

	msg, err := h.store.Messages.SaveMessage(ctx, alice.ID, bob.ID, models.MessageTypeText, []byte("c"), []byte("n"))
	require.NoError(t, err)

	bobConn := newTestConnection(h, bob.ID, "bob")
	h.handleRegister(bobConn)
	drain(t, bobConn)

	delivered := h.DeliverMessage(ctx, msg.ID, bob.ID, models.OutboundEnvelope{
		ID:   &msg.ID,
		Type: models.EnvelopeMessage,
		From: alice.ID,
	})
	assert.True(t, delivered)

	stored, err := h.store.Messages.GetMessagesBetween(ctx, alice.ID, bob.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.True(t, stored[0].Delivered)
}

func TestDeliverMessage_DoesNotStampWhenReceiverOffline(t *testing.T) {
	h := newTestHub(t)
	ctx := context.Background()

	alice, err := h.store.Users.CreateUser(ctx, "alice", "hash", []byte("a"))
	require.NoError(t, err)
	bob, err := h.store.Users.CreateUser(ctx, "bob", "hash", []byte("b"))
	require.NoError(t, err)

	msg, err := h.store.Messages.SaveMessage(ctx, alice.ID, bob.ID, models.MessageTypeText, []byte("c"), []byte("n"))
	require.NoError(t, err)

	delivered := h.DeliverMessage(ctx, msg.ID, bob.ID, models.OutboundEnvelope{
		ID:   &msg.ID,
		Type: models.EnvelopeMessage,
		From: alice.ID,
	})
	assert.False(t, delivered)

	stored, err := h.store.Messages.GetMessagesBetween(ctx, alice.ID, bob.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.False(t, stored[0].Delivered)
}

func TestGetOnlineUsers(t *testing.T) {
	h := newTestHub(t)
	assert.Empty(t, h.GetOnlineUsers())

	h.handleRegister(newTestConnection(h, 1, "alice"))
	h.handleRegister(newTestConnection(h, 2, "bob"))

	assert.ElementsMatch(t, []int64{1, 2}, h.GetOnlineUsers())
}

func decodePresence(b64 string) (models.PresencePayload, error) {
	var p models.PresencePayload
	raw, err := codec.Decode(b64)
	if err != nil {
		return p, err
	}
	err = json.Unmarshal(raw, &p)
	return p, err
}
