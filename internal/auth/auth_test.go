package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrade/internal/models"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Sup3rSecret")
	require.NoError(t, err)
	require.NotEqual(t, "Sup3rSecret", hash)

	assert.NoError(t, CheckPassword(hash, "Sup3rSecret"))
	assert.ErrorIs(t, CheckPassword(hash, "WrongPassw0rd"), models.ErrInvalidCredential)
	assert.ErrorIs(t, CheckPassword("not-a-hash", "Sup3rSecret"), models.ErrInvalidCredential)
}

func TestValidatePasswordPolicy(t *testing.T) {
	cases := []struct {
		password string
		ok       bool
	}{
		{"Abcdef12", true},
		{"longEnough4sure", true},
		{"short1A", false},
		{"alllowercase1", false},
		{"ALLUPPERCASE1", false},
		{"NoDigitsHere", false},
		{"ThisPasswordIsWayTooLongToBeAccepted1", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, ValidatePasswordPolicy(tc.password), "password %q", tc.password)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	const secret = "test-secret"

	token, err := GenerateToken(secret, "acc-123")
	require.NoError(t, err)

	accountID, err := ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "acc-123", accountID)
}

func TestParseTokenRejectsBadInput(t *testing.T) {
	token, err := GenerateToken("right-secret", "acc-123")
	require.NoError(t, err)

	_, err = ParseToken("wrong-secret", token)
	assert.Error(t, err)

	_, err = ParseToken("right-secret", "not.a.token")
	assert.Error(t, err)
}
