package auth

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	BcryptCost     = 12
	MinPasswordLen = 8
	MaxPasswordLen = 128
)

// PasswordValidationError holds per-rule failures. The Error method stays
// generic so specific requirements never leak to API clients.
type PasswordValidationError struct {
	Failures []string
}

func (e *PasswordValidationError) Error() string {
	return "invalid password"
}

var commonPasswords = map[string]bool{
	"password":    true,
	"password1!":  true,
	"12345678":    true,
	"qwerty123":   true,
	"abc12345":    true,
	"letmein1":    true,
	"welcome1":    true,
	"passw0rd":    true,
	"admin123":    true,
	"iloveyou1":   true,
	"sunshine1":   true,
	"trustno1":    true,
	"password123": true,
}

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// ValidatePassword enforces the account password policy.
func ValidatePassword(password string) error {
	failures := make([]string, 0)

	if len(password) < MinPasswordLen {
		failures = append(failures, fmt.Sprintf("must be at least %d characters", MinPasswordLen))
	}
	if len(password) > MaxPasswordLen {
		failures = append(failures, fmt.Sprintf("must be at most %d characters", MaxPasswordLen))
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasUpper {
		failures = append(failures, "must contain an uppercase letter")
	}
	if !hasLower {
		failures = append(failures, "must contain a lowercase letter")
	}
	if !hasDigit {
		failures = append(failures, "must contain a digit")
	}

	if commonPasswords[strings.ToLower(password)] {
		failures = append(failures, "is too common")
	}

	if len(failures) > 0 {
		return &PasswordValidationError{Failures: failures}
	}

	return nil
}
