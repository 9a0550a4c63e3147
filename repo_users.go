package authkit

import (
	"context"
	"database/sql"
	"net/mail"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UpdateUserSQL performs the version-checked write. Username is deliberately
// absent from the SET list: it is immutable once registered. The WHERE clause
// carries the expected version; zero affected rows means either the record is
// gone or a concurrent writer won.
var UpdateUserSQL = `UPDATE "users" AS "usr"
SET
	"email" = ?,
	"password_hash" = ?,
	"first_name" = ?,
	"last_name" = ?,
	"phone_number" = ?,
	"status" = ?,
	"enabled" = ?,
	"account_non_expired" = ?,
	"account_non_locked" = ?,
	"credentials_non_expired" = ?,
	"deleted" = ?,
	"deleted_at" = ?,
	"deleted_by" = ?,
	"updated_at" = ?,
	"updated_by" = ?,
	"version" = ?
WHERE
	"usr"."id" = ?
AND
	"usr"."version" = ?
RETURNING *;`

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var _ Users = (*users)(nil)

// NewUsersRepository builds the bun-backed Users store.
func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.GetByIDTx(ctx, a.db, id)
}

func (a *users) GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error) {
	return a.getOne(ctx, tx, "id", id.String(), false)
}

func (a *users) GetByIDAny(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.getOne(ctx, a.db, "id", id.String(), true)
}

func (a *users) GetByUsername(ctx context.Context, username string) (*User, error) {
	return a.getOne(ctx, a.db, "username", username, false)
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.getOne(ctx, a.db, "email", email, false)
}

// GetByIdentifier tries the email column for email-shaped identifiers and
// falls back to the username column.
func (a *users) GetByIdentifier(ctx context.Context, identifier string) (*User, error) {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil, ErrUserNotFound
	}

	columns := []string{"username"}
	if isEmail(trimmed) {
		columns = []string{"email", "username"}
	}

	for _, column := range columns {
		record, err := a.getOne(ctx, a.db, column, trimmed, false)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		return record, nil
	}

	return nil, withMeta(ErrUserNotFound, map[string]any{
		"identifier": trimmed,
	})
}

func (a *users) getOne(ctx context.Context, tx bun.IDB, column, value string, includeDeleted bool) (*User, error) {
	record := &User{}
	q := tx.NewSelect().
		Model(record).
		Relation("Roles").
		Where("?TableAlias."+column+" = ?", value).
		Limit(1)

	if includeDeleted {
		q = q.WhereAllWithDeleted()
	}

	if err := q.Scan(ctx); err != nil {
		if isNoRows(err) {
			return nil, withMeta(ErrUserNotFound, map[string]any{
				column: value,
			})
		}
		return nil, goerrors.Wrap(err, ErrStoreUnavailable.Category, ErrStoreUnavailable.Message)
	}

	return record, nil
}

func (a *users) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return a.exists(ctx, "username", username)
}

func (a *users) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return a.exists(ctx, "email", email)
}

// exists includes soft-deleted rows: a deleted username still occupies the
// uniqueness constraint.
func (a *users) exists(ctx context.Context, column, value string) (bool, error) {
	ok, err := a.db.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias."+column+" = ?", value).
		WhereAllWithDeleted().
		Exists(ctx)
	if err != nil {
		return false, goerrors.Wrap(err, ErrStoreUnavailable.Category, ErrStoreUnavailable.Message)
	}
	return ok, nil
}

func (a *users) Create(ctx context.Context, record *User) (*User, error) {
	return a.CreateTx(ctx, a.db, record)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	record.EnsureDefaults()

	created, err := a.Repository.CreateTx(ctx, tx, record)
	if err != nil {
		if conflict := conflictFromUniqueViolation(err); conflict != nil {
			return nil, conflict
		}
		return nil, goerrors.Wrap(err, ErrStoreUnavailable.Category, "could not create user")
	}

	return created, nil
}

func (a *users) Update(ctx context.Context, record *User) (*User, error) {
	return a.UpdateTx(ctx, a.db, record)
}

// UpdateTx persists a stamped record. The record's Version has already been
// incremented by the Stamper, so the row must still hold Version-1.
func (a *users) UpdateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	expected := record.Version - 1

	res, err := a.Repository.RawTx(ctx, tx, UpdateUserSQL,
		record.Email,
		record.PasswordHash,
		record.FirstName,
		record.LastName,
		record.PhoneNumber,
		record.Status,
		record.Enabled,
		record.AccountNonExpired,
		record.AccountNonLocked,
		record.CredentialsNonExpired,
		record.Deleted,
		record.DeletedAt,
		record.DeletedBy,
		record.UpdatedAt,
		record.UpdatedBy,
		record.Version,
		record.ID.String(),
		expected,
	)
	if err != nil {
		if conflict := conflictFromUniqueViolation(err); conflict != nil {
			return nil, conflict
		}
		return nil, goerrors.Wrap(err, ErrStoreUnavailable.Category, "could not update user")
	}

	if len(res) == 0 {
		// Distinguish a stale version from a vanished record.
		if _, err := a.GetByIDAny(ctx, record.ID); err != nil {
			return nil, err
		}
		return nil, withMeta(ErrStaleVersion, map[string]any{
			"id":               record.ID.String(),
			"expected_version": expected,
		})
	}

	return record, nil
}

func (a *users) ReplaceRoles(ctx context.Context, record *User, roles []*Role) error {
	return a.ReplaceRolesTx(ctx, a.db, record, roles)
}

// ReplaceRolesTx rewrites the join rows for the user. The caller bumps the
// aggregate version through a stamped Update in the same transaction.
func (a *users) ReplaceRolesTx(ctx context.Context, tx bun.IDB, record *User, roles []*Role) error {
	if _, err := tx.NewDelete().
		Model((*UserToRole)(nil)).
		Where("user_id = ?", record.ID).
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, ErrStoreUnavailable.Category, "could not clear user roles")
	}

	if len(roles) > 0 {
		links := make([]*UserToRole, 0, len(roles))
		for _, role := range roles {
			if role == nil {
				continue
			}
			links = append(links, &UserToRole{UserID: record.ID, RoleID: role.ID})
		}
		if _, err := tx.NewInsert().Model(&links).Exec(ctx); err != nil {
			if conflict := conflictFromUniqueViolation(err); conflict != nil {
				return conflict
			}
			return goerrors.Wrap(err, ErrStoreUnavailable.Category, "could not assign user roles")
		}
	}

	record.Roles = roles
	return nil
}

func isEmail(s string) bool {
	_, err := mail.ParseAddress(s)
	return err == nil
}

func isNoRows(err error) bool {
	return goerrors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err)
}

// conflictFromUniqueViolation maps store-level uniqueness failures onto the
// same Conflict errors the pre-checks produce. Pre-checks are an
// optimization; this is the guard.
func conflictFromUniqueViolation(err error) error {
	if err == nil || !isUniqueViolation(err) {
		return nil
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "username"):
		return ErrUsernameTaken
	case strings.Contains(msg, "email"):
		return ErrEmailTaken
	case strings.Contains(msg, "name"):
		return ErrRoleExists
	default:
		return goerrors.Wrap(err, goerrors.CategoryConflict, "uniqueness constraint violated").
			WithCode(goerrors.CodeConflict)
	}
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // sqlite
		strings.Contains(msg, "duplicate key value violates unique constraint") || // postgres
		strings.Contains(msg, "Duplicate entry") // mysql
}
