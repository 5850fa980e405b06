package jwt

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	manager := NewManager("test-secret", 60)

	token, err := manager.GenerateToken("user-1", "user@example.com")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := manager.VerifyToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	manager := NewManager("secret-a", 60)
	token, err := manager.GenerateToken("user-1", "")
	assert.NoError(t, err)

	other := NewManager("secret-b", 60)
	_, err = other.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenExpired(t *testing.T) {
	manager := NewManager("test-secret", -1)
	token, err := manager.GenerateToken("user-1", "")
	assert.NoError(t, err)

	_, err = manager.VerifyToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestEmptySecretNeverVerifies(t *testing.T) {
	empty := NewManager("", 60)

	_, err := empty.GenerateToken("user-1", "")
	assert.ErrorIs(t, err, ErrEmptySecret)

	// A token minted against an empty key must not be accepted either.
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: "attacker"}).SignedString([]byte(""))
	assert.NoError(t, err)

	_, err = empty.VerifyToken(forged)
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestVerifyTokenGarbage(t *testing.T) {
	manager := NewManager("test-secret", 60)
	_, err := manager.VerifyToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
