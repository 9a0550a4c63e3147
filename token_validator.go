package authkit

// TokenValidator validates tokens and extracts claims without tying callers
// to a specific signing implementation.
type TokenValidator interface {
	Claims(token string) (AuthClaims, error)
}

// TokenValidatorFunc adapts a function into a TokenValidator.
type TokenValidatorFunc func(token string) (AuthClaims, error)

// Claims satisfies the TokenValidator interface.
func (f TokenValidatorFunc) Claims(token string) (AuthClaims, error) {
	if f == nil {
		return nil, ErrInvalidToken
	}
	return f(token)
}

// MultiTokenValidator tries validators in order until one succeeds. Useful
// when tokens from more than one issuer are accepted, e.g. local HS256 plus
// an external key set. It treats a malformed token as "try next" and returns
// the last malformed error if all validators fail.
type MultiTokenValidator struct {
	validators []TokenValidator
}

// NewMultiTokenValidator filters nil validators and returns a composite validator.
func NewMultiTokenValidator(validators ...TokenValidator) *MultiTokenValidator {
	filtered := make([]TokenValidator, 0, len(validators))
	for _, v := range validators {
		if v != nil {
			filtered = append(filtered, v)
		}
	}
	return &MultiTokenValidator{validators: filtered}
}

// Claims satisfies the TokenValidator interface.
func (m *MultiTokenValidator) Claims(token string) (AuthClaims, error) {
	var lastErr error
	for _, v := range m.validators {
		claims, err := v.Claims(token)
		if err == nil {
			return claims, nil
		}
		if IsTokenMalformed(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrTokenMalformed
}
