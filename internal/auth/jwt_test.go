package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	InitJWTKey([]byte("test-signing-key"))
}

func TestGenerateAndValidateToken(t *testing.T) {
	token, expiry, err := GenerateToken("google-sub-123", "alice@campus.edu")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.WithinDuration(t, time.Now().Add(TokenTTL), expiry, time.Minute)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "google-sub-123", claims.UID)
	assert.Equal(t, "alice@campus.edu", claims.Email)
}

func TestGenerateTokenEmptyUID(t *testing.T) {
	_, _, err := GenerateToken("", "alice@campus.edu")
	assert.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	_, err := ValidateToken("not-a-jwt")
	assert.Error(t, err)
}

func TestValidateTokenWrongKey(t *testing.T) {
	token, _, err := GenerateToken("uid-1", "a@b.c")
	require.NoError(t, err)

	InitJWTKey([]byte("some-other-key"))
	defer InitJWTKey([]byte("test-signing-key"))

	_, err = ValidateToken(token)
	assert.Error(t, err)
}
