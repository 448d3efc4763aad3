package jwtutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	util := NewJWTUtil(&JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})

	token, err := util.GenerateToken("user-42", "jo@example.com", "Jo", "Smith", "https://img.example/jo.png")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := util.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.UserID)
	assert.Equal(t, "user-42", claims.Subject)
	assert.Equal(t, "jo@example.com", claims.Email)
	assert.Equal(t, "Jo", claims.FirstName)
	assert.Equal(t, "Smith", claims.LastName)
	assert.Equal(t, "https://img.example/jo.png", claims.ProfileImageURL)
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	issuer := NewJWTUtil(&JWTConfig{SigningKey: "key-one", ExpirationHours: 1})
	verifier := NewJWTUtil(&JWTConfig{SigningKey: "key-two", ExpirationHours: 1})

	token, err := issuer.GenerateToken("user-42", "jo@example.com", "", "", "")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	util := NewJWTUtil(&JWTConfig{SigningKey: "test-signing-key", ExpirationHours: -1})

	token, err := util.GenerateToken("user-42", "jo@example.com", "", "", "")
	require.NoError(t, err)

	_, err = util.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	util := NewJWTUtil(&JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})

	_, err := util.ValidateToken("not-a-jwt")
	assert.Error(t, err)
}
