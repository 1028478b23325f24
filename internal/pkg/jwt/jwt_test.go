package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSEToken_RoundTrip(t *testing.T) {
	svc, err := NewJWTService("test-secret", "1h", "5m")
	require.NoError(t, err)

	token, expiresIn, err := svc.GenerateSSEToken("user-1")
	require.NoError(t, err)
	assert.Equal(t, 300, expiresIn)

	userID, err := svc.ValidateSSEToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestValidateSSEToken_RejectsAccessToken(t *testing.T) {
	svc, err := NewJWTService("test-secret", "1h", "5m")
	require.NoError(t, err)

	token, _, err := svc.GenerateAccessToken("user-1", "ops@example.com")
	require.NoError(t, err)

	_, err = svc.ValidateSSEToken(token)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestValidateSSEToken_RejectsForeignSignature(t *testing.T) {
	issuer, err := NewJWTService("other-secret", "1h", "5m")
	require.NoError(t, err)
	verifier, err := NewJWTService("test-secret", "1h", "5m")
	require.NoError(t, err)

	token, _, err := issuer.GenerateSSEToken("user-1")
	require.NoError(t, err)

	_, err = verifier.ValidateSSEToken(token)
	assert.Error(t, err)
}

func TestNewJWTService_BadDuration(t *testing.T) {
	_, err := NewJWTService("s", "soon", "5m")
	assert.Error(t, err)
}
