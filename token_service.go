package authkit

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// TokenService mints and validates the signed bearer credentials. Tokens are
// stateless: they become invalid only by clock or signature mismatch, never
// by server-side revocation.
type TokenService interface {
	IssueAccessToken(subject string, roles []string) (string, time.Time, error)
	IssueRefreshToken(subject string) (string, time.Time, error)
	// Validate reports whether the token is well formed, signed with our
	// key, and not expired. It never returns an error: token content is
	// untrusted input and failures collapse to false.
	Validate(token string) bool
	Claims(token string) (AuthClaims, error)
	Subject(token string) (string, error)
}

// TokenServiceImpl implements TokenService over HS256.
type TokenServiceImpl struct {
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
	now        func() time.Time
}

var _ TokenService = (*TokenServiceImpl)(nil)

// TokenServiceOption customizes a TokenServiceImpl.
type TokenServiceOption func(*TokenServiceImpl)

// WithTokenServiceLogger overrides the logger.
func WithTokenServiceLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// WithTokenServiceClock injects a custom clock. The clock drives both
// issuance timestamps and expiry validation.
func WithTokenServiceClock(clock func() time.Time) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if clock != nil {
			ts.now = clock
		}
	}
}

// NewTokenService creates a TokenService from the configuration. The signing
// secret must be at least MinSigningKeyBytes long.
func NewTokenService(cfg Config, opts ...TokenServiceOption) (*TokenServiceImpl, error) {
	key := []byte(cfg.GetSigningKey())
	if len(key) < MinSigningKeyBytes {
		return nil, goerrors.New(
			fmt.Sprintf("signing key must be at least %d bytes", MinSigningKeyBytes),
			goerrors.CategoryValidation,
		).WithTextCode("WEAK_SIGNING_KEY")
	}

	ts := &TokenServiceImpl{
		signingKey: key,
		accessTTL:  cfg.GetAccessTokenExpiration(),
		refreshTTL: cfg.GetRefreshTokenExpiration(),
		issuer:     cfg.GetIssuer(),
		audience:   cfg.GetAudience(),
		logger:     defLogger{},
		now:        time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts, nil
}

// IssueAccessToken mints a signed access token carrying the subject and its
// role claims.
func (ts *TokenServiceImpl) IssueAccessToken(subject string, roles []string) (string, time.Time, error) {
	return ts.issue(TokenKindAccess, subject, roles, ts.accessTTL)
}

// IssueRefreshToken mints a signed refresh token. Refresh tokens carry no
// role claims; roles are re-read at refresh time.
func (ts *TokenServiceImpl) IssueRefreshToken(subject string) (string, time.Time, error) {
	return ts.issue(TokenKindRefresh, subject, nil, ts.refreshTTL)
}

func (ts *TokenServiceImpl) issue(kind TokenKind, subject string, roles []string, ttl time.Duration) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, goerrors.New("token subject must not be empty", goerrors.CategoryBadInput)
	}

	now := ts.now()
	expiresAt := now.Add(ttl)

	var aud jwt.ClaimStrings
	if len(ts.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(ts.audience))
		copy(aud, ts.audience)
	}

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   subject,
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Roles:     roles,
		TokenKind: kind,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", time.Time{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signed, expiresAt, nil
}

// Validate implements the boolean contract: signature, structure, and expiry
// failures all collapse to false. The distinction is logged for operators.
func (ts *TokenServiceImpl) Validate(token string) bool {
	if _, err := ts.Claims(token); err != nil {
		ts.logger.Debug("token validation failed: %v", err)
		return false
	}
	return true
}

// Claims parses and verifies the token, returning the structured claim set.
func (ts *TokenServiceImpl) Claims(token string) (AuthClaims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithTimeFunc(ts.now),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	parsed, err := jwt.ParseWithClaims(token, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		ts.logger.Error("could not decode or validate claims")
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Subject extracts the subject from a token that must be valid.
func (ts *TokenServiceImpl) Subject(token string) (string, error) {
	claims, err := ts.Claims(token)
	if err != nil {
		return "", err
	}
	return claims.Subject(), nil
}
