package authkit

import (
	"context"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/thinhha/go-authkit/middleware/jwtware"
)

// tokenClaimsValidator adapts the TokenService to the middleware's
// TokenValidator interface.
type tokenClaimsValidator struct {
	tokens TokenService
}

func (v tokenClaimsValidator) Validate(raw string) (jwtware.AuthClaims, error) {
	claims, err := v.tokens.Claims(raw)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// RouteGuard builds jwtware middleware over the token service for hosts
// mounting routes through go-router.
type RouteGuard struct {
	tokens       TokenService
	cfg          Config
	Logger       Logger
	ErrorHandler router.ErrorHandler
}

func NewRouteGuard(tokens TokenService, cfg Config) *RouteGuard {
	a := &RouteGuard{
		tokens: tokens,
		cfg:    cfg,
		Logger: defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler

	return a
}

// ProtectedRoute guards a route group with bearer-token authentication.
// Only access tokens pass; a refresh token on a protected route is rejected.
// An empty requiredRole means any authenticated caller.
func (a *RouteGuard) ProtectedRoute(requiredRole string) router.MiddlewareFunc {
	return jwtware.New(jwtware.Config{
		ErrorHandler:   a.ErrorHandler,
		TokenValidator: tokenClaimsValidator{tokens: a.tokens},
		AuthScheme:     a.cfg.GetAuthScheme(),
		ContextKey:     a.cfg.GetContextKey(),
		TokenLookup:    a.cfg.GetTokenLookup(),
		RequiredKind:   TokenKindAccess,
		RequiredRole:   requiredRole,
		ContextEnricher: func(c context.Context, claims jwtware.AuthClaims) context.Context {
			if ac, ok := claims.(AuthClaims); ok {
				return WithClaimsContext(c, ac)
			}
			return c
		},
	})
}

// OptionalRoute validates a token when one is present but lets anonymous
// requests through.
func (a *RouteGuard) OptionalRoute() router.MiddlewareFunc {
	return jwtware.New(jwtware.Config{
		ErrorHandler: func(c router.Context, _ error) error {
			return c.Next()
		},
		TokenValidator: tokenClaimsValidator{tokens: a.tokens},
		AuthScheme:     a.cfg.GetAuthScheme(),
		ContextKey:     a.cfg.GetContextKey(),
		TokenLookup:    a.cfg.GetTokenLookup(),
		RequiredKind:   TokenKindAccess,
		ContextEnricher: func(c context.Context, claims jwtware.AuthClaims) context.Context {
			if ac, ok := claims.(AuthClaims); ok {
				return WithClaimsContext(c, ac)
			}
			return c
		},
	})
}

func (a *RouteGuard) defaultErrHandler(c router.Context, err error) error {
	a.Logger.Warn("auth middleware rejected request: %v", err)

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return c.JSON(statusFromError(rich), map[string]any{
			"error": rich.Message,
			"code":  rich.TextCode,
		})
	}

	return c.JSON(fiber.StatusUnauthorized, map[string]any{
		"error": "invalid or expired token",
	})
}
