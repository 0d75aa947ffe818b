package app

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"dreamfront/internal/domain"
)

const defaultTokenType = "Bearer"

// tokenExpiry reads the exp claim of a JWT access token without verifying its
// signature. Opaque tokens report the zero time.
func tokenExpiry(accessToken string) time.Time {
	if strings.Count(accessToken, ".") != 2 {
		return time.Time{}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// normalizeCredential fills the token type and expiry.
func normalizeCredential(c domain.Credential) domain.Credential {
	if strings.TrimSpace(c.TokenType) == "" {
		c.TokenType = defaultTokenType
	}
	if c.Expiry.IsZero() {
		c.Expiry = tokenExpiry(c.AccessToken)
	}
	return c
}

// oauthToken converts a credential for header injection.
func oauthToken(c domain.Credential) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		TokenType:    c.TokenType,
		RefreshToken: c.RefreshToken,
		Expiry:       c.Expiry,
	}
}

// expiresWithin reports whether c has a known expiry within d of now.
func expiresWithin(c domain.Credential, now time.Time, d time.Duration) bool {
	return !c.Expiry.IsZero() && !c.Expiry.After(now.Add(d))
}
