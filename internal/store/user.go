package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"

	"chatrelay/internal/models"
)

// UserRepo persists accounts.
type UserRepo struct {
	write *sqlx.DB
	read  *sqlx.DB
}

// CreateUser inserts a new account. passwordHash is expected to already be
// bcrypt-hashed by the caller.
func (r *UserRepo) CreateUser(ctx context.Context, username, passwordHash string, publicKey []byte) (*models.User, error) {
	now := time.Now().UTC()
	res, err := r.write.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, public_key, created_at, last_seen) VALUES (?, ?, ?, ?, ?)`,
		username, passwordHash, publicKey, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.User{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		PublicKey:    publicKey,
		CreatedAt:    now,
		LastSeen:     now,
	}, nil
}

// GetUserByUsername returns the full user row, password hash included, for
// login verification.
func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := r.read.GetContext(ctx, &u, `SELECT * FROM users WHERE username = ?`, username)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByID returns a single user by id.
func (r *UserRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := r.read.GetContext(ctx, &u, `SELECT * FROM users WHERE id = ?`, id)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetAllUsers returns every account, ordered by id.
func (r *UserRepo) GetAllUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := r.read.SelectContext(ctx, &users, `SELECT * FROM users ORDER BY id ASC`)
	return users, err
}

// UpdatePublicKey overwrites the stored public key for a user and stamps
// public_key_updated_at with the moment it changed. The stamp is kept in the
// store only; it is not part of any API response.
func (r *UserRepo) UpdatePublicKey(ctx context.Context, userID int64, publicKey []byte) error {
	_, err := r.write.ExecContext(ctx,
		`UPDATE users SET public_key = ?, public_key_updated_at = ? WHERE id = ?`,
		publicKey, time.Now().UTC(), userID,
	)
	return err
}

// UpdateLastSeen sets last_seen to now.
func (r *UserRepo) UpdateLastSeen(ctx context.Context, userID int64) error {
	_, err := r.write.ExecContext(ctx, `UPDATE users SET last_seen = ? WHERE id = ?`, time.Now().UTC(), userID)
	return err
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if sqliteErr, ok := err.(sqlite3.Error); ok {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
