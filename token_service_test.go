package authkit_test

import (
	"testing"
	"time"

	authkit "github.com/thinhha/go-authkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenServiceRejectsWeakKey(t *testing.T) {
	cfg := testConfig()
	cfg.SigningKey = "too-short"

	_, err := authkit.NewTokenService(cfg)
	require.Error(t, err)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tokens := setupTokens(t)

	signed, expiresAt, err := tokens.IssueAccessToken("a6e0a0e4-0000-4000-8000-000000000001", []string{"ROLE_USER", "ROLE_ADMIN"})
	require.NoError(t, err)
	require.NotEmpty(t, signed)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, time.Minute)

	claims, err := tokens.Claims(signed)
	require.NoError(t, err)

	assert.Equal(t, "a6e0a0e4-0000-4000-8000-000000000001", claims.Subject())
	assert.Equal(t, authkit.TokenKindAccess, claims.Kind())
	assert.Equal(t, []string{"ROLE_USER", "ROLE_ADMIN"}, claims.RoleNames())
	assert.True(t, claims.HasRole("ROLE_ADMIN"))
	assert.False(t, claims.HasRole("ROLE_AUDITOR"))
	assert.True(t, tokens.Validate(signed))
}

func TestRefreshTokenCarriesNoRoles(t *testing.T) {
	tokens := setupTokens(t)

	signed, _, err := tokens.IssueRefreshToken("a6e0a0e4-0000-4000-8000-000000000001")
	require.NoError(t, err)

	claims, err := tokens.Claims(signed)
	require.NoError(t, err)

	assert.Equal(t, authkit.TokenKindRefresh, claims.Kind())
	assert.Empty(t, claims.RoleNames())
}

func TestExpiredTokenRejected(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	issuedAt := setupTokens(t, authkit.WithTokenServiceClock(fixedClock(past)))

	signed, _, err := issuedAt.IssueAccessToken("subject-1", nil)
	require.NoError(t, err)

	tokens := setupTokens(t)
	_, err = tokens.Claims(signed)
	require.Error(t, err)
	assert.True(t, authkit.IsUnauthorized(err))
	assert.ErrorIs(t, err, authkit.ErrTokenExpired)
	assert.False(t, tokens.Validate(signed))
}

func TestWrongSigningKeyRejected(t *testing.T) {
	tokens := setupTokens(t)

	otherCfg := testConfig()
	otherCfg.SigningKey = "ffffffffffffffffffffffffffffffff"
	other, err := authkit.NewTokenService(otherCfg)
	require.NoError(t, err)

	signed, _, err := other.IssueAccessToken("subject-1", nil)
	require.NoError(t, err)

	_, err = tokens.Claims(signed)
	require.Error(t, err)
	assert.True(t, authkit.IsTokenMalformed(err))
	assert.False(t, tokens.Validate(signed))
}

func TestValidateNeverPanicsOnGarbage(t *testing.T) {
	tokens := setupTokens(t)

	for _, raw := range []string{"", "garbage", "a.b", "a.b.c", "....."} {
		assert.False(t, tokens.Validate(raw), "input %q", raw)
	}
}

func TestIssueRequiresSubject(t *testing.T) {
	tokens := setupTokens(t)

	_, _, err := tokens.IssueAccessToken("", nil)
	assert.Error(t, err)
}

func TestSubjectExtraction(t *testing.T) {
	tokens := setupTokens(t)

	signed, _, err := tokens.IssueAccessToken("subject-1", nil)
	require.NoError(t, err)

	subject, err := tokens.Subject(signed)
	require.NoError(t, err)
	assert.Equal(t, "subject-1", subject)

	_, err = tokens.Subject("garbage")
	assert.Error(t, err)
}
