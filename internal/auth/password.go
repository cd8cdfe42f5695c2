// internal/auth/password.go
//
// Bcrypt password helpers shared by login, initial setup, and explicit
// admin creation.

package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLen matches the setup form's stated requirement.
const MinPasswordLen = 8

// HashPassword derives a bcrypt hash at the default cost.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}

// CheckPassword compares a candidate against the stored hash.
func CheckPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// ValidatePassword enforces the minimum length.  Anything else (entropy,
// breach lists) is out of scope for a back-office roster this small.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLen {
		return errors.New("password must be at least 8 characters long")
	}
	return nil
}
