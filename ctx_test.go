package authkit

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserContextRoundTrip(t *testing.T) {
	user := &User{Username: "alice"}
	ctx := WithContext(context.Background(), user)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, user, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}

func TestClaimsContextRoundTrip(t *testing.T) {
	claims := &JWTClaims{Roles: []string{"ROLE_USER"}}
	ctx := WithClaimsContext(context.Background(), claims)

	got, ok := GetClaims(ctx)
	require.True(t, ok)
	assert.True(t, got.HasRole("ROLE_USER"))
}

func TestCurrentActorResolutionOrder(t *testing.T) {
	userID := uuid.New()

	t.Run("explicit actor wins", func(t *testing.T) {
		ctx := WithContext(context.Background(), &User{ID: userID})
		ctx = WithActor(ctx, ActorRef{ID: "admin-1", Type: "admin"})

		actor := CurrentActor(ctx)
		assert.Equal(t, "admin-1", actor.ID)
		assert.Equal(t, "admin", actor.Type)
	})

	t.Run("falls back to user", func(t *testing.T) {
		ctx := WithContext(context.Background(), &User{ID: userID})
		actor := CurrentActor(ctx)
		assert.Equal(t, userID.String(), actor.ID)
		assert.Equal(t, "user", actor.Type)
	})

	t.Run("falls back to claims subject", func(t *testing.T) {
		claims := &JWTClaims{}
		claims.RegisteredClaims.Subject = userID.String()
		ctx := WithClaimsContext(context.Background(), claims)

		actor := CurrentActor(ctx)
		assert.Equal(t, userID.String(), actor.ID)
	})

	t.Run("system fallback", func(t *testing.T) {
		assert.Equal(t, SystemActor, CurrentActor(context.Background()))
	})
}

func TestClearAuthContext(t *testing.T) {
	ctx := WithContext(context.Background(), &User{Username: "alice"})
	ctx = WithClaimsContext(ctx, &JWTClaims{})
	ctx = WithActor(ctx, ActorRef{ID: "admin-1", Type: "admin"})

	ctx = ClearAuthContext(ctx)

	user, ok := FromContext(ctx)
	assert.False(t, ok && user != nil)
	_, ok = GetClaims(ctx)
	assert.False(t, ok)
	_, ok = ActorFromContext(ctx)
	assert.False(t, ok)
	assert.Equal(t, SystemActor, CurrentActor(ctx))
}
