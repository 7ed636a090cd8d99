package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"chatrelay/internal/models"
)

// MessageRepo persists ciphertext messages between user pairs.
type MessageRepo struct {
	write *sqlx.DB
	read  *sqlx.DB
}

// SaveMessage inserts a message and returns it with its server-assigned id
// and timestamp. msgType defaults to "text" when empty.
func (r *MessageRepo) SaveMessage(ctx context.Context, sender, receiver int64, msgType models.MessageType, content, nonce []byte) (*models.Message, error) {
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	now := time.Now().UTC()

	res, err := r.write.ExecContext(ctx,
		`INSERT INTO messages (sender_id, receiver_id, type, content, nonce, timestamp, read, delivered)
		 VALUES (?, ?, ?, ?, ?, ?, 0, 0)`,
		sender, receiver, msgType, content, nonce, now,
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &models.Message{
		ID:         id,
		SenderID:   sender,
		ReceiverID: receiver,
		Type:       msgType,
		Content:    content,
		Nonce:      nonce,
		Timestamp:  now,
	}, nil
}

// GetMessagesBetween returns messages exchanged between a and b (in either
// direction), newest first. limit<=0 defaults to 50.
func (r *MessageRepo) GetMessagesBetween(ctx context.Context, a, b int64, limit, offset int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	messages := []models.Message{}
	err := r.read.SelectContext(ctx, &messages, `
		SELECT * FROM messages
		WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
		ORDER BY timestamp DESC
		LIMIT ? OFFSET ?`,
		a, b, b, a, limit, offset,
	)
	return messages, err
}

// MarkMessagesAsRead marks every message from sender to receiver as read.
// Matching zero rows is not an error.
func (r *MessageRepo) MarkMessagesAsRead(ctx context.Context, sender, receiver int64) error {
	_, err := r.write.ExecContext(ctx,
		`UPDATE messages SET read = 1 WHERE sender_id = ? AND receiver_id = ? AND read = 0`,
		sender, receiver,
	)
	return err
}

// MarkDelivered stamps a single message delivered. Matching zero rows is
// not an error: the message may already be marked, or may have been
// cleared out from under a racing delivery.
func (r *MessageRepo) MarkDelivered(ctx context.Context, id int64) error {
	_, err := r.write.ExecContext(ctx,
		`UPDATE messages SET delivered = 1 WHERE id = ?`,
		id,
	)
	return err
}

// DeleteMessagesBetween removes every message exchanged between a and b.
func (r *MessageRepo) DeleteMessagesBetween(ctx context.Context, a, b int64) error {
	_, err := r.write.ExecContext(ctx,
		`DELETE FROM messages WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)`,
		a, b, b, a,
	)
	return err
}
