package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_Success(t *testing.T) {
	hash, err := HashPassword("SecurePassword123")

	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "SecurePassword123", hash)
	assert.NoError(t, ComparePassword(hash, "SecurePassword123"))
	assert.Error(t, ComparePassword(hash, "WrongPassword999"))
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}

func TestHashPassword_SaltedPerCall(t *testing.T) {
	first, err := HashPassword("SecurePassword123")
	require.NoError(t, err)
	second, err := HashPassword("SecurePassword123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestValidatePassword_Valid(t *testing.T) {
	assert.NoError(t, ValidatePassword("SecurePassword123"))
	assert.NoError(t, ValidatePassword("Aa345678"))
}

func TestValidatePassword_Failures(t *testing.T) {
	cases := []struct {
		name     string
		password string
	}{
		{"too short", "Aa1"},
		{"too long", "Aa1" + strings.Repeat("x", 130)},
		{"no uppercase", "lowercase123"},
		{"no lowercase", "UPPERCASE123"},
		{"no digit", "NoDigitsHere"},
		{"common password", "Password123"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePassword(tc.password)
			require.Error(t, err)

			var pwErr *PasswordValidationError
			require.ErrorAs(t, err, &pwErr)
			assert.NotEmpty(t, pwErr.Failures)
			assert.Equal(t, "invalid password", err.Error(),
				"the error message must stay generic")
		})
	}
}

func TestValidatePassword_CollectsAllFailures(t *testing.T) {
	err := ValidatePassword("abc")

	var pwErr *PasswordValidationError
	require.ErrorAs(t, err, &pwErr)
	assert.GreaterOrEqual(t, len(pwErr.Failures), 3)
}
