package auth

import (
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"papertrade/internal/models"
)

// HashPassword derives a bcrypt hash at the default cost.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword compares a stored hash against a plaintext candidate,
// returning ErrInvalidCredential on mismatch.
func CheckPassword(storedHash, plain string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plain)); err != nil {
		return models.ErrInvalidCredential
	}
	return nil
}

// ValidatePasswordPolicy requires 8 to 30 characters including a digit, a
// lowercase and an uppercase letter.
func ValidatePasswordPolicy(plain string) bool {
	runes := []rune(plain)
	if len(runes) < 8 || len(runes) > 30 {
		return false
	}
	var digit, lower, upper bool
	for _, r := range runes {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		}
	}
	return digit && lower && upper
}
