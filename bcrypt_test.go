package authkit_test

import (
	"testing"

	authkit "github.com/thinhha/go-authkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHashAndVerify(t *testing.T) {
	hasher := authkit.NewBcryptHasher(4)

	digest, err := hasher.Hash("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, digest)

	assert.NoError(t, hasher.Verify("correct horse battery staple", digest))
	assert.ErrorIs(t, hasher.Verify("wrong password", digest), authkit.ErrMismatchedHashAndPassword)
}

func TestBcryptDistinctDigestsPerCall(t *testing.T) {
	hasher := authkit.NewBcryptHasher(4)

	first, err := hasher.Hash("same input")
	require.NoError(t, err)
	second, err := hasher.Hash("same input")
	require.NoError(t, err)

	// salt is embedded in the digest
	assert.NotEqual(t, first, second)
	assert.NoError(t, hasher.Verify("same input", first))
	assert.NoError(t, hasher.Verify("same input", second))
}

func TestBcryptEmptyPasswordRejected(t *testing.T) {
	hasher := authkit.NewBcryptHasher(4)

	_, err := hasher.Hash("")
	assert.ErrorIs(t, err, authkit.ErrEmptyPassword)
}

func TestComparePasswordAndHashGarbage(t *testing.T) {
	err := authkit.ComparePasswordAndHash("anything", "not-a-bcrypt-digest")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, authkit.ErrMismatchedHashAndPassword)
}
