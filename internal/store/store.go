// Package store is the embedded relational persistence layer: users,
// messages, and invites over a single SQLite file. Writes are serialised
// through a dedicated single-connection handle; reads use an unbounded
// handle against the same file, both operating in WAL mode.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Store bundles the three repositories over a shared SQLite file.
type Store struct {
	Users    *UserRepo
	Messages *MessageRepo
	Invites  *InviteRepo

	write *sqlx.DB
	read  *sqlx.DB
}

// Open opens (creating if necessary) the SQLite file at path, configures WAL
// journaling, and runs schema migration.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", path)

	write, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open write handle: %w", err)
	}
	// SQLite allows exactly one writer at a time; pinning the write handle to
	// a single connection turns that external constraint into an internal
	// one Go's pool enforces for us instead of surfacing SQLITE_BUSY.
	write.SetMaxOpenConns(1)

	read, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		write.Close()
		return nil, fmt.Errorf("open read handle: %w", err)
	}

	s := &Store{write: write, read: read}
	s.Users = &UserRepo{write: write, read: read}
	s.Messages = &MessageRepo{write: write, read: read}
	s.Invites = &InviteRepo{write: write, read: read}

	if err := s.migrate(context.Background()); err != nil {
		write.Close()
		read.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close releases both underlying connections.
func (s *Store) Close() error {
	werr := s.write.Close()
	rerr := s.read.Close()
	if werr != nil {
		return werr
	}
	return rerr
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			public_key BLOB NOT NULL DEFAULT '',
			public_key_updated_at DATETIME,
			created_at DATETIME NOT NULL,
			last_seen DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sender_id INTEGER NOT NULL REFERENCES users(id),
			receiver_id INTEGER NOT NULL REFERENCES users(id),
			type TEXT NOT NULL DEFAULT 'text',
			content BLOB NOT NULL,
			nonce BLOB NOT NULL,
			timestamp DATETIME NOT NULL,
			read BOOLEAN NOT NULL DEFAULT 0,
			delivered BOOLEAN NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_sender_id ON messages(sender_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_receiver_id ON messages(receiver_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp)`,
		`CREATE TABLE IF NOT EXISTS invites (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			code TEXT NOT NULL UNIQUE,
			used_by INTEGER REFERENCES users(id),
			created_at DATETIME NOT NULL,
			used_at DATETIME
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.write.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// UserCount reports how many accounts exist, used for the bootstrap
// registration rule (first user needs no invite).
func (s *Store) UserCount(ctx context.Context) (int, error) {
	var n int
	err := s.read.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`)
	return n, err
}

// isNoRows is a small readability helper shared across repos.
func isNoRows(err error) bool {
	return err == sql.ErrNoRows
}
