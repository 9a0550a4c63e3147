package authkit

import (
	"context"
	"database/sql"
	"errors"
	"log"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories plus transaction support.
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	Roles() Roles
}

type mngr struct {
	db    *bun.DB
	users Users
	roles Roles
}

// ManagerOption customizes a RepositoryManager.
type ManagerOption func(*mngr)

// WithManagerStamper shares a Stamper between the repositories (inject a
// fixed clock in tests).
func WithManagerStamper(stamper *Stamper) ManagerOption {
	return func(m *mngr) {
		if stamper != nil {
			m.roles = NewRolesRepository(m.db, stamper)
		}
	}
}

// NewRepositoryManager wires the stores over a bun DB and registers the
// many-to-many join model.
func NewRepositoryManager(db *bun.DB, opts ...ManagerOption) RepositoryManager {
	db.RegisterModel((*UserToRole)(nil))

	m := &mngr{
		db:    db,
		users: NewUsersRepository(db),
		roles: NewRolesRepository(db, nil),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.roles == nil {
		return errors.New("repository roles should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Roles() Roles {
	return m.roles
}
