package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestValidatePasswordLength(t *testing.T) {
	testCases := []struct {
		name        string
		password    string
		expectedErr error
	}{
		{"typical password", "hunter22", nil},
		{"no uppercase needed", "alllowercase", nil},
		{"exactly min length", "Passwo1d", nil},
		{"too short - 7 chars", "Pass12a", ErrPasswordTooShort},
		{"empty password", "", ErrPasswordTooShort},
		{"too long - 73 chars", strings.Repeat("a", 73), ErrPasswordTooLong},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePasswordLength(tc.password)
			if tc.expectedErr != nil {
				assert.Equal(t, tc.expectedErr, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePasswordLength_BoundaryLengths(t *testing.T) {
	minPassword := "abcdefgh"
	assert.Len(t, minPassword, 8)
	assert.NoError(t, ValidatePasswordLength(minPassword))

	maxPassword := strings.Repeat("a", 72)
	assert.Len(t, maxPassword, 72)
	assert.NoError(t, ValidatePasswordLength(maxPassword))

	overMaxPassword := maxPassword + "x"
	assert.Equal(t, ErrPasswordTooLong, ValidatePasswordLength(overMaxPassword))

	underMinPassword := "abcdefg"
	assert.Equal(t, ErrPasswordTooShort, ValidatePasswordLength(underMinPassword))
}

func TestHashPassword_ValidPassword(t *testing.T) {
	password := "hunter22"

	hash, err := HashPassword(password)

	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, password, hash)
	assert.True(t, strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$"))
}

func TestHashPassword_SamePasswordDifferentHashes(t *testing.T) {
	password := "hunter22"

	hash1, err := HashPassword(password)
	require.NoError(t, err)

	hash2, err := HashPassword(password)
	require.NoError(t, err)

	assert.NotEqual(t, hash1, hash2)
}

func TestHashPassword_InvalidPassword(t *testing.T) {
	hash, err := HashPassword("short")
	assert.Error(t, err)
	assert.Equal(t, ErrPasswordTooShort, err)
	assert.Empty(t, hash)
}

func TestCheckPassword_Correct(t *testing.T) {
	password := "hunter22"
	hash, err := HashPassword(password)
	require.NoError(t, err)

	err = CheckPassword(password, hash)
	assert.NoError(t, err)
}

func TestCheckPassword_Incorrect(t *testing.T) {
	password := "hunter22"
	hash, err := HashPassword(password)
	require.NoError(t, err)

	testCases := []struct {
		name    string
		attempt string
	}{
		{"wrong password", "wrongpassword"},
		{"similar password", "hunter23"},
		{"case different", "HUNTER22"},
		{"empty password", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckPassword(tc.attempt, hash)
			assert.Error(t, err)
			assert.Equal(t, ErrPasswordMismatch, err)
		})
	}
}

func TestCheckPassword_InvalidHash(t *testing.T) {
	testCases := []struct {
		name string
		hash string
	}{
		{"empty hash", ""},
		{"garbage hash", "not-a-bcrypt-hash"},
		{"invalid format", "$2a$invalid$hash"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckPassword("hunter22", tc.hash)
			assert.Error(t, err)
			assert.Equal(t, ErrPasswordMismatch, err)
		})
	}
}

func TestNeedsRehash_CurrentCost(t *testing.T) {
	password := "hunter22"
	hash, err := HashPassword(password)
	require.NoError(t, err)

	assert.False(t, NeedsRehash(hash, defaultBcryptCost))
}

func TestNeedsRehash_LowerCost(t *testing.T) {
	password := "hunter22"

	lowerCostHash, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	require.NoError(t, err)

	assert.True(t, NeedsRehash(string(lowerCostHash), defaultBcryptCost))
}

func TestNeedsRehash_InvalidHash(t *testing.T) {
	assert.True(t, NeedsRehash("", defaultBcryptCost))
	assert.True(t, NeedsRehash("invalid", defaultBcryptCost))
}

func TestHashPassword_UnicodePassword(t *testing.T) {
	unicodePasswords := []string{
		"Contraseña123",
		"Пароль123Abc",
		"密码Password1",
	}

	for _, password := range unicodePasswords {
		t.Run(password, func(t *testing.T) {
			hash, err := HashPassword(password)
			require.NoError(t, err)
			assert.NotEmpty(t, hash)

			err = CheckPassword(password, hash)
			assert.NoError(t, err)
		})
	}
}

func TestHashPassword_BCryptCost(t *testing.T) {
	password := "hunter22"
	hash, err := HashPassword(password)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, defaultBcryptCost, cost)
}
