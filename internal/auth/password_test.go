package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
}

func TestSecretMatches(t *testing.T) {
	assert.True(t, SecretMatches("songs", "songs"))
	assert.False(t, SecretMatches("songs", "song"))
	assert.False(t, SecretMatches("", ""))
}
