package store

import "errors"

var (
	// ErrUsernameTaken is returned by CreateUser on a unique constraint hit.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrNotFound is returned by the user lookups (GetUserByUsername,
	// GetUserByID) when no row matches.
	ErrNotFound = errors.New("not found")
	// ErrInviteUnavailable is returned by ConsumeInvite for an unknown or
	// already-consumed invite code.
	ErrInviteUnavailable = errors.New("invite unavailable")
)
