// Package entity provides shared base types for persisted records.
package entity

import (
	"context"
	"time"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// Row contains common fields for all persisted entities.
// The surrogate identity is assigned by the persistence layer on insert.
type Row struct {
	// ID is the primary key (BIGSERIAL)
	ID int64 `db:"id" json:"id"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`
}

// Identified is implemented by every persisted entity.
type Identified interface {
	GetID() int64
	SetID(id int64)
	GetVersion() int
	SetVersion(v int)
}

// GetID returns the surrogate identity.
func (r *Row) GetID() int64 { return r.ID }

// SetID assigns the surrogate identity (used by repositories after insert).
func (r *Row) SetID(id int64) { r.ID = id }

// GetVersion returns the optimistic-lock version.
func (r *Row) GetVersion() int { return r.Version }

// SetVersion updates the version number (used by repositories after sync).
func (r *Row) SetVersion(v int) { r.Version = v }

// Touch increments version.
func (r *Row) Touch() { r.Version++ }

// NewRow creates a Row ready for insert.
func NewRow() Row {
	return Row{Version: 1}
}

// Audited extends Row with create/update timestamps for transactional records.
type Audited struct {
	Row

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewAudited creates an Audited row with timestamps set to now.
func NewAudited() Audited {
	now := time.Now().UTC()
	return Audited{
		Row:       NewRow(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the UpdatedAt timestamp and increments version.
func (a *Audited) Touch() {
	a.UpdatedAt = time.Now().UTC()
	a.Row.Touch()
}
