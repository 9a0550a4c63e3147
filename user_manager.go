package authkit

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserManager covers account administration after authentication: profile
// updates, password changes, role assignment, and the soft-delete lifecycle.
// Every mutation is audit-stamped and version-checked.
type UserManager struct {
	repos     RepositoryManager
	hasher    PasswordHasher
	stamper   *Stamper
	logger    Logger
	sink      ActivitySink
	lifecycle UserStateMachine
}

// NewUserManager returns a UserManager over the given stores.
func NewUserManager(repos RepositoryManager) *UserManager {
	m := &UserManager{
		repos:   repos,
		hasher:  NewBcryptHasher(0),
		stamper: NewStamper(),
		logger:  defLogger{},
		sink:    noopActivitySink{},
	}
	m.lifecycle = NewUserStateMachine(repos.Users())
	return m
}

func (m *UserManager) WithLogger(logger Logger) *UserManager {
	if logger != nil {
		m.logger = logger
	}
	return m
}

func (m *UserManager) WithHasher(hasher PasswordHasher) *UserManager {
	if hasher != nil {
		m.hasher = hasher
	}
	return m
}

func (m *UserManager) WithStamper(stamper *Stamper) *UserManager {
	if stamper != nil {
		m.stamper = stamper
	}
	return m
}

// WithActivitySink configures an ActivitySink for account lifecycle events.
func (m *UserManager) WithActivitySink(sink ActivitySink) *UserManager {
	m.sink = normalizeActivitySink(sink)
	return m
}

// WithStateMachine swaps the lifecycle state machine, e.g. one with hooks
// or a custom clock.
func (m *UserManager) WithStateMachine(lifecycle UserStateMachine) *UserManager {
	if lifecycle != nil {
		m.lifecycle = lifecycle
	}
	return m
}

// CurrentUser resolves the authenticated caller from the context and
// re-reads it from the store.
func (m *UserManager) CurrentUser(ctx context.Context) (*User, error) {
	if user, ok := FromContext(ctx); ok && user != nil {
		return m.GetUserByID(ctx, user.ID)
	}

	claims, ok := GetClaims(ctx)
	if !ok {
		return nil, ErrInvalidToken
	}

	username, err := subjectUsername(claims)
	if err != nil {
		return nil, err
	}

	return m.GetUserByUsername(ctx, username)
}

func (m *UserManager) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return m.repos.Users().GetByID(ctx, id)
}

func (m *UserManager) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return m.repos.Users().GetByUsername(ctx, username)
}

// UpdateProfileInput carries a partial profile update; nil fields are left
// untouched. Username is immutable and has no field here.
type UpdateProfileInput struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	PhoneNumber *string `json:"phone_number"`
	Status      *Status `json:"status"`
}

func (p UpdateProfileInput) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.PhoneNumber, PhoneNumber),
		validation.Field(&p.Status, validation.In(
			StatusActive,
			StatusInactive,
			StatusPending,
			StatusSuspended,
			StatusDeleted,
		)),
	)
}

// UpdateProfile applies a partial update to the user's profile fields.
func (m *UserManager) UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*User, error) {
	if err := input.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid profile payload").
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(FormatValidationErrorToMap(err))
	}

	user, err := m.repos.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.PhoneNumber != nil {
		user.PhoneNumber = *input.PhoneNumber
	}
	if input.Status != nil {
		user.Status = *input.Status
	}

	m.stamper.StampUpdate(user, CurrentActor(ctx))
	return m.repos.Users().Update(ctx, user)
}

// ChangePassword verifies the old password before storing the new digest. A
// wrong old password is a business-rule failure, not an authentication one.
func (m *UserManager) ChangePassword(ctx context.Context, id uuid.UUID, oldPassword, newPassword string) error {
	if err := validation.Validate(newPassword, validation.Required, validation.Length(8, 72)); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password").
			WithCode(goerrors.CodeBadRequest)
	}

	user, err := m.repos.Users().GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := m.hasher.Verify(oldPassword, user.PasswordHash); err != nil {
		return ErrWrongPassword
	}

	hash, err := m.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	actor := CurrentActor(ctx)
	m.stamper.StampUpdate(user, actor)

	if _, err = m.repos.Users().Update(ctx, user); err != nil {
		return err
	}

	m.recordActivity(ctx, ActivityEventPasswordChanged, actor, user, nil)
	return nil
}

// ChangeStatus moves the account through the lifecycle state machine, which
// rejects transitions the status graph does not allow.
func (m *UserManager) ChangeStatus(ctx context.Context, id uuid.UUID, target Status, opts ...TransitionOption) (*User, error) {
	user, err := m.repos.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return m.lifecycle.Transition(ctx, CurrentActor(ctx), user, target, opts...)
}

// AssignRoles replaces the user's role set with the named roles. Every name
// must already exist; a missing one fails the whole assignment.
func (m *UserManager) AssignRoles(ctx context.Context, id uuid.UUID, names []string) (*User, error) {
	user, err := m.repos.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	actor := CurrentActor(ctx)

	err = m.repos.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		roles := make([]*Role, 0, len(names))
		for _, name := range names {
			role, err := m.repos.Roles().GetByNameTx(ctx, tx, name)
			if err != nil {
				return err
			}
			roles = append(roles, role)
		}

		if err := m.repos.Users().ReplaceRolesTx(ctx, tx, user, roles); err != nil {
			return err
		}

		m.stamper.StampUpdate(user, actor)
		_, err := m.repos.Users().UpdateTx(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	m.recordActivity(ctx, ActivityEventRolesAssigned, actor, user, map[string]any{
		"roles": names,
	})

	return user, nil
}

// SoftDeleteUser marks the account deleted. The row remains for audit and
// uniqueness purposes but disappears from default queries.
func (m *UserManager) SoftDeleteUser(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := m.repos.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	actor := CurrentActor(ctx)
	m.stamper.StampDelete(user, actor)

	deleted, err := m.repos.Users().Update(ctx, user)
	if err != nil {
		return nil, err
	}

	m.recordActivity(ctx, ActivityEventUserSoftDeleted, actor, deleted, nil)
	return deleted, nil
}

// RestoreUser reverses a soft delete, leaving the creation stamps intact.
func (m *UserManager) RestoreUser(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := m.repos.Users().GetByIDAny(ctx, id)
	if err != nil {
		return nil, err
	}

	if !user.Deleted {
		return user, nil
	}

	actor := CurrentActor(ctx)
	m.stamper.StampRestore(user, actor)

	restored, err := m.repos.Users().Update(ctx, user)
	if err != nil {
		return nil, err
	}

	m.recordActivity(ctx, ActivityEventUserRestored, actor, restored, nil)
	return restored, nil
}

func (m *UserManager) ListRoles(ctx context.Context) ([]*Role, error) {
	return m.repos.Roles().List(ctx)
}

func (m *UserManager) recordActivity(ctx context.Context, eventType ActivityEventType, actor ActorRef, user *User, metadata map[string]any) {
	event := ActivityEvent{
		EventType:  eventType,
		Actor:      actor,
		UserID:     user.ID.String(),
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(m.sink).Record(ctx, event); err != nil {
		m.logger.Warn("activity sink record error: %v", err)
	}
}
