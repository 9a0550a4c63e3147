package authkit

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// MinSigningKeyBytes is the minimum signing secret length (256 bits).
const MinSigningKeyBytes = 32

// Config holds the immutable auth options. It is loaded once at startup;
// nothing in this package mutates it afterwards.
type Config interface {
	GetSigningKey() string
	GetAccessTokenExpiration() time.Duration
	GetRefreshTokenExpiration() time.Duration
	GetIssuer() string
	GetAudience() []string
	GetDefaultRole() string
	GetContextKey() string
	GetAuthScheme() string
	GetTokenLookup() string
}

// SimpleConfig is a plain-struct Config. Zero values fall back to sane
// defaults through the getters; Validate enforces the hard requirements.
type SimpleConfig struct {
	SigningKey             string        `json:"signing_key"`
	AccessTokenExpiration  time.Duration `json:"access_token_expiration"`
	RefreshTokenExpiration time.Duration `json:"refresh_token_expiration"`
	Issuer                 string        `json:"issuer"`
	Audience               []string      `json:"audience"`
	DefaultRole            string        `json:"default_role"`
	ContextKey             string        `json:"context_key"`
	AuthScheme             string        `json:"auth_scheme"`
	TokenLookup            string        `json:"token_lookup"`
}

var _ Config = SimpleConfig{}

// Validate runs the configuration rules: a signing secret of at least 256
// bits and non-negative lifetimes.
func (c SimpleConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.SigningKey, validation.Required, validation.Length(MinSigningKeyBytes, 0)),
		validation.Field(&c.AccessTokenExpiration, validation.Min(time.Duration(0))),
		validation.Field(&c.RefreshTokenExpiration, validation.Min(time.Duration(0))),
	)
}

func (c SimpleConfig) GetSigningKey() string { return c.SigningKey }

func (c SimpleConfig) GetAccessTokenExpiration() time.Duration {
	if c.AccessTokenExpiration <= 0 {
		return 15 * time.Minute
	}
	return c.AccessTokenExpiration
}

func (c SimpleConfig) GetRefreshTokenExpiration() time.Duration {
	if c.RefreshTokenExpiration <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.RefreshTokenExpiration
}

func (c SimpleConfig) GetIssuer() string { return c.Issuer }

func (c SimpleConfig) GetAudience() []string { return c.Audience }

func (c SimpleConfig) GetDefaultRole() string {
	if c.DefaultRole == "" {
		return DefaultRoleName
	}
	return c.DefaultRole
}

func (c SimpleConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return "user"
	}
	return c.ContextKey
}

func (c SimpleConfig) GetAuthScheme() string {
	if c.AuthScheme == "" {
		return "Bearer"
	}
	return c.AuthScheme
}

func (c SimpleConfig) GetTokenLookup() string {
	if c.TokenLookup == "" {
		return "header:Authorization"
	}
	return c.TokenLookup
}
