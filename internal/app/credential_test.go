package app

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dreamfront/internal/domain"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "7"}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return s
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	assert.True(t, exp.Equal(tokenExpiry(signedToken(t, exp))))
	assert.True(t, tokenExpiry(signedToken(t, time.Time{})).IsZero())
	assert.True(t, tokenExpiry("opaque-token").IsZero())
	assert.True(t, tokenExpiry("a.b.c").IsZero())
}

func TestNormalizeCredential(t *testing.T) {
	c := normalizeCredential(domain.Credential{AccessToken: "t1"})
	assert.Equal(t, "Bearer", c.TokenType)
	assert.True(t, c.Expiry.IsZero())

	c = normalizeCredential(domain.Credential{AccessToken: "t1", TokenType: "mac"})
	assert.Equal(t, "mac", c.TokenType)
}

func TestOAuthToken(t *testing.T) {
	tok := oauthToken(domain.Credential{AccessToken: "t1", RefreshToken: "r1", TokenType: "bearer"})
	assert.Equal(t, "t1", tok.AccessToken)
	assert.Equal(t, "r1", tok.RefreshToken)
	assert.Equal(t, "Bearer", tok.Type())
	assert.True(t, tok.Valid())
}

func TestExpiresWithin(t *testing.T) {
	now := time.Now()
	assert.False(t, expiresWithin(domain.Credential{}, now, time.Minute))
	assert.True(t, expiresWithin(domain.Credential{Expiry: now.Add(30 * time.Second)}, now, time.Minute))
	assert.False(t, expiresWithin(domain.Credential{Expiry: now.Add(time.Hour)}, now, time.Minute))
}
