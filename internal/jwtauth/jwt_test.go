package jwtauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/killm0ng3r/ClearVote-Kenya/pkg/domerrors"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewService("test-signing-key")

	token, err := svc.GenerateToken("voter-1", "VOTER", time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "voter-1", claims.UserID)
	assert.Equal(t, "VOTER", claims.Role)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := NewService("test-signing-key")

	token, err := svc.GenerateToken("voter-1", "VOTER", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, domerrors.Is(err, domerrors.CodeUnauthorized))
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	issuer := NewService("key-a")
	verifier := NewService("key-b")

	token, err := issuer.GenerateToken("voter-1", "VOTER", time.Hour)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}
