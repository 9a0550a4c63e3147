package authkit_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	authkit "github.com/thinhha/go-authkit"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCategoryHelpers(t *testing.T) {
	assert.True(t, authkit.IsConflict(authkit.ErrUsernameTaken))
	assert.True(t, authkit.IsConflict(authkit.ErrEmailTaken))
	assert.True(t, authkit.IsConflict(authkit.ErrStaleVersion))
	assert.False(t, authkit.IsConflict(authkit.ErrInvalidCredentials))

	assert.True(t, authkit.IsUnauthorized(authkit.ErrInvalidCredentials))
	assert.True(t, authkit.IsUnauthorized(authkit.ErrTokenExpired))
	assert.True(t, authkit.IsUnauthorized(authkit.ErrWrongTokenKind))
	assert.False(t, authkit.IsUnauthorized(authkit.ErrAccessDenied))

	assert.True(t, authkit.IsForbidden(authkit.ErrAccessDenied))
	assert.False(t, authkit.IsForbidden(authkit.ErrInvalidToken))

	assert.True(t, authkit.IsNotFound(authkit.ErrUserNotFound))
	assert.True(t, authkit.IsNotFound(authkit.ErrRoleNotFound))
	assert.False(t, authkit.IsNotFound(authkit.ErrUsernameTaken))
}

func TestErrorHelpersOnPlainErrors(t *testing.T) {
	plain := errors.New("boom")

	assert.False(t, authkit.IsConflict(plain))
	assert.False(t, authkit.IsUnauthorized(plain))
	assert.False(t, authkit.IsForbidden(plain))
	assert.False(t, authkit.IsTokenMalformed(plain))
	assert.False(t, authkit.IsConflict(nil))
}

func TestErrorHelpersSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("request failed: %w", authkit.ErrStaleVersion)

	assert.True(t, authkit.IsConflict(wrapped))
	assert.ErrorIs(t, wrapped, authkit.ErrStaleVersion)
}

func TestIsTokenMalformed(t *testing.T) {
	assert.True(t, authkit.IsTokenMalformed(authkit.ErrTokenMalformed))
	assert.False(t, authkit.IsTokenMalformed(authkit.ErrTokenExpired))

	tokens := setupTokens(t)
	_, err := tokens.Claims("not.a.token")
	assert.True(t, authkit.IsTokenMalformed(err))
}

func TestWrongPasswordIsBusinessRuleNotAuth(t *testing.T) {
	assert.False(t, authkit.IsUnauthorized(authkit.ErrWrongPassword))
	assert.False(t, authkit.IsForbidden(authkit.ErrWrongPassword))
}

func TestMetadataDoesNotMutateSentinels(t *testing.T) {
	auther, _ := setupAuther(t)
	registerTestUser(t, auther, "alice", "alice@example.com", "s3cretpass")

	_, err := auther.Register(context.Background(), authkit.RegisterInput{
		Username: "alice",
		Email:    "other@example.com",
		Password: "s3cretpass",
	})
	require.ErrorIs(t, err, authkit.ErrUsernameTaken)

	var rich *goerrors.Error
	require.True(t, goerrors.As(err, &rich))
	assert.Equal(t, "alice", rich.Metadata["username"])

	// the shared sentinel stays pristine
	assert.Empty(t, authkit.ErrUsernameTaken.Metadata)
}

func TestMetadataErrorsAreRequestScoped(t *testing.T) {
	sm := authkit.NewUserStateMachine(nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				user := &authkit.User{ID: uuid.New(), Status: authkit.StatusPending}
				_, err := sm.Transition(context.Background(), authkit.SystemActor, user, authkit.StatusSuspended)
				if !errors.Is(err, authkit.ErrInvalidTransition) {
					t.Errorf("expected invalid transition, got %v", err)
					return
				}

				var rich *goerrors.Error
				if !goerrors.As(err, &rich) {
					t.Error("expected a rich error")
					return
				}
				if rich.Metadata["from"] != authkit.StatusPending {
					t.Errorf("metadata crossed requests: %v", rich.Metadata)
					return
				}
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, authkit.ErrInvalidTransition.Metadata)
}
