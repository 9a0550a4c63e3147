package authkit

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is intentionally above the library default; lower it in
// tests through NewBcryptHasher.
const DefaultBcryptCost = 14

// PasswordHasher hashes and verifies credentials. Digests embed their own
// salt, so the same plaintext yields a different digest on every call.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) error
}

// BcryptHasher is the default PasswordHasher.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a bcrypt-backed hasher. A cost of zero selects
// DefaultBcryptCost.
func NewBcryptHasher(cost int) BcryptHasher {
	if cost <= 0 {
		cost = DefaultBcryptCost
	}
	return BcryptHasher{cost: cost}
}

// Hash generates a salted digest for the password.
func (h BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	return string(digest), err
}

// Verify compares the plaintext against the stored digest in constant time.
func (h BcryptHasher) Verify(password, hash string) error {
	return ComparePasswordAndHash(password, hash)
}

// HashPassword generates a password hash at the default cost.
func HashPassword(password string) (string, error) {
	return NewBcryptHasher(0).Hash(password)
}

// ComparePasswordAndHash validates the given cleartext password against the
// hashed password.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

// RandomPasswordHash returns the digest of a throwaway password, useful for
// placeholder accounts that must never authenticate by password.
func RandomPasswordHash() string {
	pwd := uuid.New()

	h, err := HashPassword(pwd.String())
	if err != nil {
		return RandomPasswordHash()
	}

	return h
}
