// Package codebook provides the generic machinery behind every parameter
// table: CRUD, idempotent default seeding, natural-key import/export, CSV
// framing and the backup envelope. A concrete codebook is a descriptor plus
// a seed list, not a repeated implementation.
package codebook

import (
	"context"

	"workshop/internal/core/entity"
)

// Row is implemented by every codebook row type.
type Row interface {
	entity.Identified
	entity.Validatable

	// NaturalKey renders the row's natural key for reporting
	// (code for most codebooks, ISO for currency, percent+active for VAT).
	NaturalKey() string

	// KeyConds returns the column conditions that locate this row by its
	// natural key during upsert.
	KeyConds() map[string]any

	// IsActive reports the row's active flag.
	IsActive() bool
}

// Referrer names a table/column pair that may reference rows of a codebook.
// Delete is refused while a referrer row exists.
type Referrer struct {
	Table  string
	Column string
	// ByCode matches the referrer column against the row code instead of id.
	ByCode bool
}

// Descriptor parameterizes the generic service for one concrete codebook.
type Descriptor[T Row] struct {
	// Name is the logical codebook name used in envelopes, CSV files and
	// error messages (e.g. "vat_rate").
	Name string

	// Table is the backing table name.
	Table string

	// KeyColumn is the leading natural-key column used for search and
	// stable export ordering. Defaults to "code".
	KeyColumn string

	// New allocates an empty row.
	New func() T

	// Seed returns the default rows planted by reset-to-default.
	Seed func() []T

	// Referrers are checked before delete.
	Referrers []Referrer
}

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Search matches name and code case-insensitively.
	Search string

	// ActiveOnly excludes deactivated rows.
	ActiveOnly bool

	// OrderBy specifies sorting (e.g. "name", "-code"). Columns are
	// checked against an allow-list by the repository.
	OrderBy string

	Limit  int
	Offset int
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// ImportStats reports the outcome of an import operation.
type ImportStats struct {
	Imported int           `json:"imported"`
	Updated  int           `json:"updated"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors,omitempty"`
}

// ImportError identifies a failed input row by its natural key.
type ImportError struct {
	Row     int    `json:"row"`
	Key     string `json:"key"`
	Message string `json:"message"`
}

// Repository defines persistence operations for one codebook.
type Repository[T Row] interface {
	List(ctx context.Context, filter ListFilter) (ListResult[T], error)
	All(ctx context.Context) ([]T, error)
	GetByID(ctx context.Context, id int64) (T, error)
	GetByKey(ctx context.Context, conds map[string]any) (T, error)
	Create(ctx context.Context, row T) error
	Update(ctx context.Context, row T) error
	Delete(ctx context.Context, id int64) error
	SetActive(ctx context.Context, id int64, active bool) error
	InUse(ctx context.Context, row T) (bool, string, error)
}
