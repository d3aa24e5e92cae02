package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-admin-console/users"
	"golang.org/x/oauth2"
)

// AuthResponse is the body returned by register, login and refresh.
type AuthResponse struct {
	// AccessToken authorizes protected API calls.
	// Usage: "Authorization: Bearer <access_token>"
	// Lifespan: short-lived
	AccessToken string `json:"accessToken"`

	// RefreshToken obtains a new access token from /auth/refresh-token.
	// Lifespan: long-lived, may rotate on each refresh
	RefreshToken string `json:"refreshToken"`

	// User is the identity snapshot of the authenticated account
	User *users.User `json:"user"`
}

// Token returns the access token as an oauth2 bearer token, with Expiry taken
// from the JWT exp claim when the token carries one.
func (r *AuthResponse) Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    "Bearer",
	}
	if exp, ok := AccessTokenExpiry(r.AccessToken); ok {
		tok.Expiry = exp
	}
	return tok
}

// AccessTokenExpiry reads the exp claim of a JWT access token without
// verifying its signature; the console only uses it to skip calls that are
// certain to be rejected. ok is false for opaque tokens or tokens without exp.
func AccessTokenExpiry(accessToken string) (exp time.Time, ok bool) {
	if accessToken == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
