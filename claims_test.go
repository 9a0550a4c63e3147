package authkit_test

import (
	"testing"

	authkit "github.com/thinhha/go-authkit"

	"github.com/stretchr/testify/assert"
)

func TestClaimsKindDefaultsToAccess(t *testing.T) {
	claims := &authkit.JWTClaims{}
	assert.Equal(t, authkit.TokenKindAccess, claims.Kind())

	claims.TokenKind = authkit.TokenKindRefresh
	assert.Equal(t, authkit.TokenKindRefresh, claims.Kind())
}

func TestClaimsHasRole(t *testing.T) {
	claims := &authkit.JWTClaims{Roles: []string{"ROLE_USER"}}

	assert.True(t, claims.HasRole("ROLE_USER"))
	assert.False(t, claims.HasRole("ROLE_ADMIN"))
	assert.Equal(t, []string{"ROLE_USER"}, claims.RoleNames())
}

func TestClaimsZeroTimes(t *testing.T) {
	claims := &authkit.JWTClaims{}

	assert.True(t, claims.Expires().IsZero())
	assert.True(t, claims.IssuedAt().IsZero())
}
