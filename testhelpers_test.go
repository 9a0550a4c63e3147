package authkit_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	authkit "github.com/thinhha/go-authkit"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	sqliteCreateUsers = `CREATE TABLE users (
    id TEXT NOT NULL PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    first_name TEXT,
    last_name TEXT,
    phone_number TEXT,
    status TEXT NOT NULL DEFAULT 'active',
    enabled BOOLEAN NOT NULL DEFAULT true,
    account_non_expired BOOLEAN NOT NULL DEFAULT true,
    account_non_locked BOOLEAN NOT NULL DEFAULT true,
    credentials_non_expired BOOLEAN NOT NULL DEFAULT true,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    created_by TEXT,
    updated_by TEXT,
    version INTEGER NOT NULL DEFAULT 1,
    deleted BOOLEAN NOT NULL DEFAULT false,
    deleted_at TIMESTAMP NULL,
    deleted_by TEXT
);`

	sqliteCreateRoles = `CREATE TABLE roles (
    id TEXT NOT NULL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    description TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    created_by TEXT,
    updated_by TEXT,
    version INTEGER NOT NULL DEFAULT 1
);`

	sqliteCreateUserRoles = `CREATE TABLE user_roles (
    user_id TEXT NOT NULL,
    role_id TEXT NOT NULL,
    PRIMARY KEY (user_id, role_id)
);`
)

// testSigningKey is 32 bytes.
const testSigningKey = "0123456789abcdef0123456789abcdef"

func setupDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	for _, ddl := range []string{sqliteCreateUsers, sqliteCreateRoles, sqliteCreateUserRoles} {
		_, err = bunDB.Exec(ddl)
		require.NoError(t, err)
	}

	return bunDB
}

func setupRepos(t *testing.T) authkit.RepositoryManager {
	t.Helper()
	return authkit.NewRepositoryManager(setupDB(t))
}

func testConfig() authkit.SimpleConfig {
	return authkit.SimpleConfig{
		SigningKey:             testSigningKey,
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "authkit-test",
	}
}

func setupTokens(t *testing.T, opts ...authkit.TokenServiceOption) *authkit.TokenServiceImpl {
	t.Helper()
	tokens, err := authkit.NewTokenService(testConfig(), opts...)
	require.NoError(t, err)
	return tokens
}

// setupAuther builds a full stack over in-memory sqlite with a cheap bcrypt
// cost so the suite stays fast.
func setupAuther(t *testing.T) (*authkit.Auther, authkit.RepositoryManager) {
	t.Helper()

	repos := setupRepos(t)
	auther := authkit.NewAuthenticator(repos, setupTokens(t), testConfig()).
		WithHasher(authkit.NewBcryptHasher(4))

	return auther, repos
}

func registerTestUser(t *testing.T, auther *authkit.Auther, username, email, password string) *authkit.AuthResult {
	t.Helper()

	res, err := auther.Register(context.Background(), authkit.RegisterInput{
		Username: username,
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}
