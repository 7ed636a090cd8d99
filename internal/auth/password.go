package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	// defaultBcryptCost is used by the package-level helpers; callers that
	// go through the bcrypt pool pass their own configured cost instead.
	defaultBcryptCost = 12

	minPasswordLength = 8
	// maxPasswordLength matches bcrypt's 72 byte input limit.
	maxPasswordLength = 72
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 72 characters")
	ErrPasswordMismatch = errors.New("invalid password")
)

// HashPassword hashes a password using bcrypt at the default cost.
func HashPassword(password string) (string, error) {
	if err := ValidatePasswordLength(password); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), defaultBcryptCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword compares a password with its hash.
func CheckPassword(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}

// ValidatePasswordLength enforces the bounds a password must fall within.
// The server does not impose a character-class policy: invite-gated
// registration is already the access control.
func ValidatePasswordLength(password string) error {
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > maxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

// NeedsRehash checks if a password hash needs to be upgraded to cost.
func NeedsRehash(hash string, cost int) bool {
	current, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return current < cost
}
