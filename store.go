package authkit

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the credential-store surface the core consumes for the User
// aggregate. Absence is reported as a NotFound error, never a nil record.
// Update is optimistic: the record's previous version must match the stored
// row or the write fails with a Conflict.
type Users interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error)
	// GetByIDAny includes soft-deleted rows; Restore needs it.
	GetByIDAny(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// GetByIdentifier resolves a username-or-email identifier.
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, record *User) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
	Update(ctx context.Context, record *User) (*User, error)
	UpdateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
	ReplaceRoles(ctx context.Context, record *User, roles []*Role) error
	ReplaceRolesTx(ctx context.Context, tx bun.IDB, record *User, roles []*Role) error
}

// Roles is the credential-store surface for the Role aggregate.
type Roles interface {
	GetByName(ctx context.Context, name string) (*Role, error)
	GetByNameTx(ctx context.Context, tx bun.IDB, name string) (*Role, error)
	Create(ctx context.Context, record *Role) (*Role, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Role) (*Role, error)
	// GetOrCreate is idempotent under a concurrent first-create race: the
	// store's uniqueness constraint is the final guard and a duplicate
	// create is caught and re-fetched.
	GetOrCreate(ctx context.Context, name, description string) (*Role, error)
	GetOrCreateTx(ctx context.Context, tx bun.IDB, name, description string) (*Role, error)
	List(ctx context.Context) ([]*Role, error)
}
