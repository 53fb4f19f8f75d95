package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalUIDDistinctWithinOneMillisecond(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		uid := LocalUID()
		assert.True(t, strings.HasPrefix(uid, "email_"))

		_, dup := seen[uid]
		require.False(t, dup, "duplicate uid %s", uid)
		seen[uid] = struct{}{}
	}
}

func TestGenerateSecureTokenLengthAndUniqueness(t *testing.T) {
	a, err := GenerateSecureToken(16)
	require.NoError(t, err)
	b, err := GenerateSecureToken(16)
	require.NoError(t, err)

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
