package authkit

import (
	"context"

	"github.com/goliatone/go-router"
)

var userCtxKey = &contextKey{"user"}
var claimsCtxKey = &contextKey{"claims"}
var actorCtxKey = &contextKey{"actor"}

type contextKey struct {
	name string
}

// WithContext sets the User in the given context
func WithContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok
}

// WithClaimsContext sets the AuthClaims in the given context
func WithClaimsContext(r context.Context, claims AuthClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// GetClaims extracts the AuthClaims from the standard context
func GetClaims(ctx context.Context) (AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	return raw, ok
}

// WithActor sets the acting principal used for audit stamping.
func WithActor(r context.Context, actor ActorRef) context.Context {
	return context.WithValue(r, actorCtxKey, actor)
}

// ActorFromContext finds the acting principal from the context.
func ActorFromContext(ctx context.Context) (ActorRef, bool) {
	raw, ok := ctx.Value(actorCtxKey).(ActorRef)
	return raw, ok
}

// CurrentActor resolves the actor for audit stamping, falling back to the
// authenticated user and finally to the system sentinel.
func CurrentActor(ctx context.Context) ActorRef {
	if actor, ok := ActorFromContext(ctx); ok {
		return actor
	}

	if user, ok := FromContext(ctx); ok && user != nil {
		return ActorRef{ID: user.ID.String(), Type: "user"}
	}

	if claims, ok := GetClaims(ctx); ok {
		return ActorRef{ID: claims.Subject(), Type: "user"}
	}

	return SystemActor
}

// ClearAuthContext drops user, claims, and actor from the context. Tokens
// already issued remain valid until they expire.
func ClearAuthContext(ctx context.Context) context.Context {
	ctx = context.WithValue(ctx, userCtxKey, (*User)(nil))
	ctx = context.WithValue(ctx, claimsCtxKey, nil)
	return context.WithValue(ctx, actorCtxKey, nil)
}

// GetRouterClaims extracts the AuthClaims from the router context
func GetRouterClaims(ctx router.Context, key string) (AuthClaims, bool) {
	if key == "" {
		key = "user" // Default key used by JWT middleware
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	claims, ok := raw.(AuthClaims)
	return claims, ok
}

// HasRoleFromRouter is a convenience check against the claims stored by the
// JWT middleware. Enforcement against the store lives in the Guard.
func HasRoleFromRouter(ctx router.Context, role string) bool {
	claims, ok := GetRouterClaims(ctx, "")
	if !ok {
		return false
	}
	return claims.HasRole(role)
}
