package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return s
}

func TestTokenExpired(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	past := signed(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))})
	future := signed(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))})
	noExp := signed(t, jwt.MapClaims{"userId": "42", "role": "admin"})

	assert.True(t, TokenExpired(past, now))
	assert.False(t, TokenExpired(future, now))
	assert.False(t, TokenExpired(noExp, now))
	assert.False(t, TokenExpired("dev-token", now), "opaque tokens are left to the backend")
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC)
	tok := signed(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)})

	got, ok := TokenExpiry(tok)
	require.True(t, ok)
	assert.True(t, got.Equal(exp))

	_, ok = TokenExpiry("")
	assert.False(t, ok)
}
