package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload is what MintAccessToken needs to issue a token.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Email  string
	JTI    string
}

// AccessTokenClaims is the bearer token presented by gigbook clients. Tokens
// from identity providers that only set "sub" are accepted as long as the
// subject is a uuid.
type AccessTokenClaims struct {
	UserID uuid.UUID `json:"user_id,omitempty"`
	Email  string    `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Caller resolves the authenticated user id, preferring the explicit claim.
func (c *AccessTokenClaims) Caller() (uuid.UUID, bool) {
	if c == nil {
		return uuid.Nil, false
	}
	if c.UserID != uuid.Nil {
		return c.UserID, true
	}
	if id, err := uuid.Parse(c.Subject); err == nil && id != uuid.Nil {
		return id, true
	}
	return uuid.Nil, false
}
