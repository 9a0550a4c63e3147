package authkit

import (
	goerrors "github.com/goliatone/go-errors"
)

// Registration conflicts. Pre-checks catch most of these; the store's
// uniqueness constraints are the final guard and map to the same errors.
var (
	ErrUsernameTaken = goerrors.New("username is already taken", goerrors.CategoryConflict).
				WithTextCode("USERNAME_TAKEN").
				WithCode(goerrors.CodeConflict)

	ErrEmailTaken = goerrors.New("email is already in use", goerrors.CategoryConflict).
			WithTextCode("EMAIL_TAKEN").
			WithCode(goerrors.CodeConflict)

	ErrRoleExists = goerrors.New("role already exists", goerrors.CategoryConflict).
			WithTextCode("ROLE_EXISTS").
			WithCode(goerrors.CodeConflict)
)

// ErrInvalidCredentials covers both "no such user" and "wrong password" so
// callers cannot enumerate accounts.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(goerrors.CodeUnauthorized)

// Authentication gate failures. Every gate must pass before a login succeeds.
var (
	ErrAccountDisabled = goerrors.New("account is disabled", goerrors.CategoryAuth).
				WithTextCode("ACCOUNT_DISABLED").
				WithCode(goerrors.CodeUnauthorized)

	ErrAccountExpired = goerrors.New("account has expired", goerrors.CategoryAuth).
				WithTextCode("ACCOUNT_EXPIRED").
				WithCode(goerrors.CodeUnauthorized)

	ErrAccountLocked = goerrors.New("account is locked", goerrors.CategoryAuth).
				WithTextCode("ACCOUNT_LOCKED").
				WithCode(goerrors.CodeUnauthorized)

	ErrCredentialsExpired = goerrors.New("credentials have expired", goerrors.CategoryAuth).
				WithTextCode("CREDENTIALS_EXPIRED").
				WithCode(goerrors.CodeUnauthorized)

	ErrAccountInactive = goerrors.New("account is not active", goerrors.CategoryAuth).
				WithTextCode("ACCOUNT_INACTIVE").
				WithCode(goerrors.CodeUnauthorized)
)

// Token failures. Validate collapses these to a boolean for callers; the
// distinct values exist for logging and for APIs that surface claims.
var (
	ErrInvalidToken = goerrors.New("invalid authentication token", goerrors.CategoryAuth).
			WithTextCode("INVALID_TOKEN").
			WithCode(goerrors.CodeUnauthorized)

	ErrTokenExpired = goerrors.New("authentication token has expired", goerrors.CategoryAuth).
			WithTextCode("TOKEN_EXPIRED").
			WithCode(goerrors.CodeUnauthorized)

	ErrTokenMalformed = goerrors.New("malformed authentication token", goerrors.CategoryAuth).
				WithTextCode("TOKEN_MALFORMED").
				WithCode(goerrors.CodeUnauthorized)

	ErrWrongTokenKind = goerrors.New("token kind not valid for this operation", goerrors.CategoryAuth).
				WithTextCode("WRONG_TOKEN_KIND").
				WithCode(goerrors.CodeUnauthorized)
)

// ErrAccessDenied is returned when an authenticated caller fails a policy check.
var ErrAccessDenied = goerrors.New("insufficient privileges", goerrors.CategoryAuthz).
	WithTextCode("ACCESS_DENIED").
	WithCode(goerrors.CodeForbidden)

// Aggregate lookups.
var (
	ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
			WithTextCode("USER_NOT_FOUND").
			WithCode(goerrors.CodeNotFound)

	ErrRoleNotFound = goerrors.New("role not found", goerrors.CategoryNotFound).
			WithTextCode("ROLE_NOT_FOUND").
			WithCode(goerrors.CodeNotFound)
)

// ErrStaleVersion signals an optimistic-lock conflict: the write carried a
// version that no longer matches the stored row. Reload and retry.
var ErrStaleVersion = goerrors.New("record was modified concurrently", goerrors.CategoryConflict).
	WithTextCode("STALE_VERSION").
	WithCode(goerrors.CodeConflict)

// ErrWrongPassword is the business-rule failure for password changes.
var ErrWrongPassword = goerrors.New("old password is incorrect", goerrors.CategoryValidation).
	WithTextCode("WRONG_OLD_PASSWORD").
	WithCode(goerrors.CodeBadRequest)

// ErrStoreUnavailable wraps downstream persistence failures.
var ErrStoreUnavailable = goerrors.New("credential store unavailable", goerrors.CategoryOperation).
	WithTextCode("STORE_UNAVAILABLE").
	WithCode(goerrors.CodeInternal)

// Hashing errors.
var (
	ErrEmptyPassword = goerrors.New("password must not be empty", goerrors.CategoryValidation).
				WithTextCode("EMPTY_PASSWORD").
				WithCode(goerrors.CodeBadRequest)

	ErrMismatchedHashAndPassword = goerrors.New("password does not match", goerrors.CategoryAuth).
					WithTextCode("PASSWORD_MISMATCH").
					WithCode(goerrors.CodeUnauthorized)
)

// withMeta attaches request-scoped metadata to a copy of a shared sentinel.
// Sentinels are package globals; stamping metadata on them directly leaks one
// request's details into every later error and races under concurrent load.
// The clone keeps the sentinel as its Source so errors.Is still matches.
func withMeta(sentinel *goerrors.Error, metadata map[string]any) error {
	clone := sentinel.Clone()
	if clone == nil {
		return sentinel
	}
	clone.Source = sentinel
	return clone.WithMetadata(metadata)
}

// IsConflict reports whether err carries the conflict category (uniqueness
// violation or optimistic-lock mismatch).
func IsConflict(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == goerrors.CategoryConflict
}

// IsUnauthorized reports whether err is an authentication failure.
func IsUnauthorized(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == goerrors.CategoryAuth
}

// IsForbidden reports whether err is an authorization (policy) failure.
func IsForbidden(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == goerrors.CategoryAuthz
}

// IsNotFound reports whether err signals an absent aggregate.
func IsNotFound(err error) bool {
	return goerrors.IsNotFound(err)
}

// IsTokenMalformed reports whether err came from a structurally invalid
// token, as opposed to one that is expired or signed with another key.
func IsTokenMalformed(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == ErrTokenMalformed.TextCode
}
