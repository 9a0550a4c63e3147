package authkit

import (
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Status is the user lifecycle status.
type Status = string

const (
	// StatusActive users can authenticate.
	StatusActive Status = "active"
	// StatusInactive users exist but cannot authenticate.
	StatusInactive Status = "inactive"
	// StatusPending users have not completed onboarding.
	StatusPending Status = "pending"
	// StatusSuspended users are temporarily blocked.
	StatusSuspended Status = "suspended"
	// StatusDeleted mirrors the soft-delete marker at the status level.
	StatusDeleted Status = "deleted"
)

// DefaultRoleName is assigned to every new registration unless configured
// otherwise.
const DefaultRoleName = "ROLE_USER"

// User is the authentication aggregate root.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID           uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username     string    `bun:"username,notnull,unique" json:"username,omitempty"`
	Email        string    `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash string    `bun:"password_hash,notnull" json:"-"`
	FirstName    string    `bun:"first_name" json:"first_name,omitempty"`
	LastName     string    `bun:"last_name" json:"last_name,omitempty"`
	PhoneNumber  string    `bun:"phone_number" json:"phone_number,omitempty"`

	Status Status `bun:"status,notnull,default:'active'" json:"status,omitempty"`

	// Authentication gates. All must be true for a login to succeed.
	Enabled               bool `bun:"enabled,notnull,default:true" json:"enabled"`
	AccountNonExpired     bool `bun:"account_non_expired,notnull,default:true" json:"account_non_expired"`
	AccountNonLocked      bool `bun:"account_non_locked,notnull,default:true" json:"account_non_locked"`
	CredentialsNonExpired bool `bun:"credentials_non_expired,notnull,default:true" json:"credentials_non_expired"`

	Roles []*Role `bun:"m2m:user_roles,join:User=Role" json:"roles,omitempty"`

	AuditFields
	SoftDeleteFields
}

// Role is a named grant referenced by users (many-to-many).
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:rol"`

	ID          uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name        string    `bun:"name,notnull,unique" json:"name,omitempty"`
	Description string    `bun:"description" json:"description,omitempty"`

	AuditFields
}

// UserToRole is the join model for the users<->roles relation. Register it
// with bun before issuing relation queries; NewRepositoryManager does this.
type UserToRole struct {
	bun.BaseModel `bun:"table:user_roles,alias:u2r"`

	UserID uuid.UUID `bun:"user_id,pk,type:uuid"`
	User   *User     `bun:"rel:belongs-to,join:user_id=id"`
	RoleID uuid.UUID `bun:"role_id,pk,type:uuid"`
	Role   *Role     `bun:"rel:belongs-to,join:role_id=id"`
}

// CanAuthenticate checks every authentication gate and returns the first
// failure. It never reports which user exists; callers decide how much to
// reveal.
func (u *User) CanAuthenticate() error {
	switch {
	case u == nil:
		return ErrInvalidCredentials
	case u.Deleted:
		return ErrInvalidCredentials
	case !u.Enabled:
		return ErrAccountDisabled
	case !u.AccountNonExpired:
		return ErrAccountExpired
	case !u.AccountNonLocked:
		return ErrAccountLocked
	case !u.CredentialsNonExpired:
		return ErrCredentialsExpired
	case u.Status != "" && u.Status != StatusActive:
		return ErrAccountInactive
	}
	return nil
}

// RoleNames returns the user's role names in declaration order.
func (u *User) RoleNames() []string {
	if u == nil || len(u.Roles) == 0 {
		return nil
	}
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		if r != nil {
			names = append(names, r.Name)
		}
	}
	return names
}

// HasRole reports whether the user carries the named role.
func (u *User) HasRole(name string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r != nil && r.Name == name {
			return true
		}
	}
	return false
}

// AddRole appends a role if not already present.
func (u *User) AddRole(role *Role) *User {
	if role == nil || u.HasRole(role.Name) {
		return u
	}
	u.Roles = append(u.Roles, role)
	return u
}

// EnsureDefaults initializes a record about to be created: a fresh ID unless
// the caller provided one (e.g. hashid-derived), active status, and every
// authentication gate open. Do not call it on records loaded from the store;
// it cannot tell a deliberately closed gate from a zero value.
func (u *User) EnsureDefaults() {
	if u == nil {
		return
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	u.Enabled = true
	u.AccountNonExpired = true
	u.AccountNonLocked = true
	u.CredentialsNonExpired = true
}

// UserView is the outward representation of a user. It never carries the
// password digest.
type UserView struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Status      Status    `json:"status"`
	Roles       []string  `json:"roles,omitempty"`
	Version     int64     `json:"version"`
}

// View maps the aggregate to its outward representation.
func (u *User) View() *UserView {
	if u == nil {
		return nil
	}
	return &UserView{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		PhoneNumber: u.PhoneNumber,
		Status:      u.Status,
		Roles:       u.RoleNames(),
		Version:     u.Version,
	}
}
