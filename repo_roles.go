package authkit

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type roles struct {
	repository.Repository[*Role]
	db      *bun.DB
	stamper *Stamper
}

var _ Roles = (*roles)(nil)

// NewRolesRepository builds the bun-backed Roles store.
func NewRolesRepository(db *bun.DB, stamper *Stamper) Roles {
	repo := repository.NewRepository[*Role](db, repository.ModelHandlers[*Role]{
		NewRecord: func() *Role { return &Role{} },
		GetID: func(r *Role) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *Role, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
		GetIdentifier: func() string {
			return "name"
		},
	})

	if stamper == nil {
		stamper = NewStamper()
	}

	return &roles{
		Repository: repo,
		db:         db,
		stamper:    stamper,
	}
}

func (a *roles) GetByName(ctx context.Context, name string) (*Role, error) {
	return a.GetByNameTx(ctx, a.db, name)
}

func (a *roles) GetByNameTx(ctx context.Context, tx bun.IDB, name string) (*Role, error) {
	record := &Role{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.name = ?", name).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, withMeta(ErrRoleNotFound, map[string]any{
				"name": name,
			})
		}
		return nil, goerrors.Wrap(err, ErrStoreUnavailable.Category, ErrStoreUnavailable.Message)
	}

	return record, nil
}

func (a *roles) Create(ctx context.Context, record *Role) (*Role, error) {
	return a.CreateTx(ctx, a.db, record)
}

func (a *roles) CreateTx(ctx context.Context, tx bun.IDB, record *Role) (*Role, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	a.stamper.StampCreate(record, SystemActor)

	created, err := a.Repository.CreateTx(ctx, tx, record)
	if err != nil {
		if conflict := conflictFromUniqueViolation(err); conflict != nil {
			return nil, conflict
		}
		return nil, goerrors.Wrap(err, ErrStoreUnavailable.Category, "could not create role")
	}

	return created, nil
}

func (a *roles) GetOrCreate(ctx context.Context, name, description string) (*Role, error) {
	return a.GetOrCreateTx(ctx, a.db, name, description)
}

// GetOrCreateTx races safely on cold start: a concurrent duplicate create is
// caught through the uniqueness constraint and resolved by re-fetching.
func (a *roles) GetOrCreateTx(ctx context.Context, tx bun.IDB, name, description string) (*Role, error) {
	record, err := a.GetByNameTx(ctx, tx, name)
	if err == nil {
		return record, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}

	created, err := a.CreateTx(ctx, tx, &Role{Name: name, Description: description})
	if err == nil {
		return created, nil
	}
	if IsConflict(err) {
		return a.GetByNameTx(ctx, tx, name)
	}

	return nil, err
}

func (a *roles) List(ctx context.Context) ([]*Role, error) {
	var records []*Role
	if err := a.db.NewSelect().
		Model(&records).
		Order("name ASC").
		Scan(ctx); err != nil {
		return nil, goerrors.Wrap(err, ErrStoreUnavailable.Category, ErrStoreUnavailable.Message)
	}
	return records, nil
}
