package authkit

import "context"

// Policy decides whether an authenticated user may perform an action,
// optionally scoped to a target resource ID.
type Policy func(user *User, targetID string) bool

// RequireRole grants access when the user holds the named role.
func RequireRole(name string) Policy {
	return func(user *User, _ string) bool {
		return user != nil && user.HasRole(name)
	}
}

// RequireAnyRole grants access when the user holds at least one of the
// named roles.
func RequireAnyRole(names ...string) Policy {
	return func(user *User, _ string) bool {
		if user == nil {
			return false
		}
		for _, name := range names {
			if user.HasRole(name) {
				return true
			}
		}
		return false
	}
}

// RequireSelfOrRole grants access when the target is the caller's own
// record, or the caller holds the named role.
func RequireSelfOrRole(role string) Policy {
	return func(user *User, targetID string) bool {
		if user == nil {
			return false
		}
		if targetID != "" && user.ID.String() == targetID {
			return true
		}
		return user.HasRole(role)
	}
}

// Guard enforces policies against a bearer token. Roles are re-read from
// the credential store, not trusted from the token claims: a role revoked
// after issuance is revoked immediately.
type Guard struct {
	tokens TokenValidator
	users  Users
	logger Logger
}

// NewGuard returns a Guard over the given token service and user store.
func NewGuard(tokens TokenService, users Users) *Guard {
	return NewGuardWithValidator(TokenValidatorFunc(tokens.Claims), users)
}

// NewGuardWithValidator builds a Guard over any TokenValidator, e.g. a
// MultiTokenValidator accepting more than one issuer.
func NewGuardWithValidator(tokens TokenValidator, users Users) *Guard {
	return &Guard{
		tokens: tokens,
		users:  users,
		logger: defLogger{},
	}
}

func (g *Guard) WithLogger(logger Logger) *Guard {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// Authorize validates the bearer token, resolves the caller from the store,
// and evaluates the policy. Authentication failures always win over policy
// denials: a caller with an invalid token never learns whether the policy
// would have passed.
func (g *Guard) Authorize(ctx context.Context, bearer string, policy Policy, targetID string) (*User, error) {
	claims, err := g.tokens.Claims(bearer)
	if err != nil {
		return nil, err
	}

	if claims.Kind() != TokenKindAccess {
		return nil, ErrWrongTokenKind
	}

	username, err := subjectUsername(claims)
	if err != nil {
		return nil, err
	}

	user, err := g.users.GetByUsername(ctx, username)
	if err != nil {
		if IsNotFound(err) {
			return nil, withMeta(ErrInvalidToken, map[string]any{"subject": username})
		}
		return nil, err
	}

	if err := user.CanAuthenticate(); err != nil {
		return nil, err
	}

	if policy != nil && !policy(user, targetID) {
		g.logger.Warn("access denied for user %s", user.ID)
		return nil, withMeta(ErrAccessDenied, map[string]any{
			"subject": user.ID.String(),
		})
	}

	return user, nil
}
