// Package authkit provides reusable JWT authentication and authorization
// building blocks for web applications: registration, login, refresh-token
// rotation, role-based access decisions, and an audited, soft-deletable
// user lifecycle backed by optimistic concurrency.
//
// The package is meant to be imported, not run standalone. Consumers bring
// their own HTTP layer and database connection; authkit exposes services
// and a thin optional go-router controller on top of them.
//
// Highlights:
//   - Authenticator orchestrates register/login/refresh as business
//     transactions against a RepositoryManager.
//   - TokenService mints and validates HS256 access and refresh tokens.
//     Tokens are self-contained; there is no server-side revocation list.
//   - Guard evaluates role and ownership policies using the caller's
//     current role set from the store, not stale token claims.
//   - Stamper is the single code path that applies audit stamps, version
//     increments, and soft-delete transitions before every write.
//   - Users carry a Status field plus independent authentication gates
//     (enabled, account/credential expiry, lock). All must pass for a
//     successful login.
package authkit
