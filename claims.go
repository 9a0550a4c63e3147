package authkit

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind distinguishes access from refresh tokens via the "kind" claim.
type TokenKind = string

const (
	// TokenKindAccess tokens carry role claims and authorize API calls.
	TokenKindAccess TokenKind = "access"
	// TokenKindRefresh tokens only identify the subject and may be
	// exchanged for a fresh token pair.
	TokenKindRefresh TokenKind = "refresh"
)

// AuthClaims is the read surface over validated token claims.
type AuthClaims interface {
	Subject() string
	RoleNames() []string
	HasRole(role string) bool
	Kind() TokenKind
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete claim set signed into every token.
type JWTClaims struct {
	jwt.RegisteredClaims
	Roles     []string  `json:"roles,omitempty"`
	TokenKind TokenKind `json:"kind,omitempty"`
}

var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim (the username).
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// subjectUsername extracts the username carried in the token subject.
func subjectUsername(claims AuthClaims) (string, error) {
	if claims == nil || claims.Subject() == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject(), nil
}

// RoleNames returns the role claims. Refresh tokens carry none.
func (c *JWTClaims) RoleNames() []string {
	return c.Roles
}

// HasRole reports whether the named role is present in the claims.
func (c *JWTClaims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Kind returns the token kind. Tokens minted before the kind claim existed
// are treated as access tokens.
func (c *JWTClaims) Kind() TokenKind {
	if c.TokenKind == "" {
		return TokenKindAccess
	}
	return c.TokenKind
}

// Expires returns the expiration time.
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued-at time.
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
