package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expirySkew makes tokens count as expired slightly early, so a refresh is
// attempted before the server starts rejecting the access token.
const expirySkew = 30 * time.Second

// AuthTokens is the token pair issued by the backend. ExpiresAt is the access
// token expiry as a Unix timestamp in milliseconds.
//
// The pair is replaced wholesale on login and refresh and deleted wholesale
// on logout; individual fields are never updated in place.
type AuthTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt"`
}

// ExpiresAtTime converts the millisecond expiry timestamp to time.Time.
func (t AuthTokens) ExpiresAtTime() time.Time {
	return time.UnixMilli(t.ExpiresAt)
}

// Expired reports whether the access token is expired (or within the skew
// window) at the given moment.
func (t AuthTokens) Expired(now time.Time) bool {
	return !now.Add(expirySkew).Before(t.ExpiresAtTime())
}

// AuthResponse is what the backend returns from a successful provider
// sign-in: the resolved user plus a fresh token pair.
type AuthResponse struct {
	User   User       `json:"user"`
	Tokens AuthTokens `json:"tokens"`
}

// TokenClaims is the subset of JWT claims the client inspects locally.
type TokenClaims struct {
	Subject   string
	TokenType string
	ExpiresAt time.Time
}

type jwtClaims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// AccessClaims decodes the access token's claims without verifying the
// signature. The client has no signing key; verification is the server's
// job. Used for logging the subject and local sanity checks only.
func (t AuthTokens) AccessClaims() (*TokenClaims, error) {
	var claims jwtClaims
	if _, _, err := jwt.NewParser().ParseUnverified(t.AccessToken, &claims); err != nil {
		return nil, err
	}
	out := &TokenClaims{Subject: claims.Subject, TokenType: claims.TokenType}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
