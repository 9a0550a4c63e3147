package authkit

import "time"

// ActorRef identifies who or what performed a mutation. When no
// authenticated caller is present the system sentinel is used.
type ActorRef struct {
	ID   string
	Type string
}

// SystemActor is the sentinel actor for unauthenticated mutations
// (bootstrap, migrations, first registration).
var SystemActor = ActorRef{ID: "system", Type: "system"}

func (a ActorRef) idOrSystem() string {
	if a.ID == "" {
		return SystemActor.ID
	}
	return a.ID
}

// AuditFields is the audit mixin embedded in every persisted aggregate.
// CreatedAt/CreatedBy are written exactly once; UpdatedAt/UpdatedBy and
// Version change on every persisted mutation.
type AuditFields struct {
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at,omitempty"`
	CreatedBy *string   `bun:"created_by" json:"created_by,omitempty"`
	UpdatedBy *string   `bun:"updated_by" json:"updated_by,omitempty"`
	Version   int64     `bun:"version,notnull,default:1" json:"version,omitempty"`
}

// SoftDeleteFields is the lifecycle mixin for aggregates that support
// soft deletion. Either Deleted is false, or Deleted is true and DeletedAt
// is set; Restore clears all three.
type SoftDeleteFields struct {
	Deleted   bool       `bun:"deleted,notnull,default:false" json:"deleted,omitempty"`
	DeletedAt *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
	DeletedBy *string    `bun:"deleted_by" json:"deleted_by,omitempty"`
}

// Auditable is satisfied by any model embedding AuditFields.
type Auditable interface {
	auditFields() *AuditFields
}

// SoftDeletable is satisfied by any model embedding both mixins.
type SoftDeletable interface {
	Auditable
	softDeleteFields() *SoftDeleteFields
}

func (f *AuditFields) auditFields() *AuditFields { return f }

func (f *SoftDeleteFields) softDeleteFields() *SoftDeleteFields { return f }

// Stamper applies audit stamps and lifecycle transitions. It is the single
// code path the repositories invoke around every write; models are never
// stamped implicitly.
type Stamper struct {
	now func() time.Time
}

// StamperOption customizes a Stamper.
type StamperOption func(*Stamper)

// WithStamperClock injects a custom clock (useful for tests).
func WithStamperClock(clock func() time.Time) StamperOption {
	return func(s *Stamper) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewStamper returns a Stamper using the wall clock by default.
func NewStamper(opts ...StamperOption) *Stamper {
	s := &Stamper{now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// StampCreate initializes the audit fields for a new record. Version starts
// at 1 and CreatedAt/CreatedBy never change afterwards.
func (s *Stamper) StampCreate(record Auditable, actor ActorRef) {
	f := record.auditFields()
	now := s.now()
	by := actor.idOrSystem()

	f.CreatedAt = now
	f.UpdatedAt = now
	f.CreatedBy = &by
	updatedBy := by
	f.UpdatedBy = &updatedBy
	if f.Version == 0 {
		f.Version = 1
	}
}

// StampUpdate advances the update stamps and increments the version by
// exactly one. The store rejects the write if the previous version no
// longer matches the stored row.
func (s *Stamper) StampUpdate(record Auditable, actor ActorRef) {
	f := record.auditFields()
	now := s.now()
	by := actor.idOrSystem()

	f.UpdatedAt = now
	f.UpdatedBy = &by
	f.Version++
}

// StampDelete marks the record soft-deleted. The row stays queryable by key
// but is excluded from default queries.
func (s *Stamper) StampDelete(record SoftDeletable, actor ActorRef) {
	f := record.softDeleteFields()
	now := s.now()
	by := actor.idOrSystem()

	f.Deleted = true
	f.DeletedAt = &now
	f.DeletedBy = &by

	s.StampUpdate(record, actor)
}

// StampRestore reverses a soft delete, clearing the deletion markers while
// leaving the creation stamps untouched.
func (s *Stamper) StampRestore(record SoftDeletable, actor ActorRef) {
	f := record.softDeleteFields()

	f.Deleted = false
	f.DeletedAt = nil
	f.DeletedBy = nil

	s.StampUpdate(record, actor)
}
