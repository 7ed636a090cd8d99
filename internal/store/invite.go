package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"chatrelay/internal/models"
)

// InviteRepo persists one-shot registration invites.
type InviteRepo struct {
	write *sqlx.DB
	read  *sqlx.DB
}

// GenerateInvite creates a new invite keyed by a fresh UUIDv4 code.
func (r *InviteRepo) GenerateInvite(ctx context.Context) (string, error) {
	code := strings.ReplaceAll(uuid.New().String(), "-", "")
	_, err := r.write.ExecContext(ctx,
		`INSERT INTO invites (code, created_at) VALUES (?, ?)`,
		code, time.Now().UTC(),
	)
	if err != nil {
		return "", err
	}
	return code, nil
}

// ValidateInvite reports whether code exists and is unused.
func (r *InviteRepo) ValidateInvite(ctx context.Context, code string) (bool, error) {
	var invite models.Invite
	err := r.read.GetContext(ctx, &invite, `SELECT * FROM invites WHERE code = ?`, code)
	if isNoRows(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return invite.UsedBy == nil, nil
}

// ConsumeInvite atomically marks code as used by userID. The conditional
// WHERE clause is what makes concurrent consumption attempts race safely:
// only the update that observes used_by IS NULL affects a row.
func (r *InviteRepo) ConsumeInvite(ctx context.Context, code string, userID int64) error {
	res, err := r.write.ExecContext(ctx,
		`UPDATE invites SET used_by = ?, used_at = ? WHERE code = ? AND used_by IS NULL`,
		userID, time.Now().UTC(), code,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInviteUnavailable
	}
	return nil
}
