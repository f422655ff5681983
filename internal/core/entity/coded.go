package entity

import (
	"context"
	"strings"

	"workshop/internal/core/apperror"
)

// Coded is the common shape of code+name codebook rows.
type Coded struct {
	Row

	// Code is the natural key, unique within the codebook
	Code string `db:"code" json:"code"`

	// Name is the display name
	Name string `db:"name" json:"name"`

	// Active rows appear in pickers; inactive stay resolvable for history
	Active bool `db:"active" json:"active"`
}

// NewCoded creates an active Coded base ready for insert.
func NewCoded(code, name string) Coded {
	return Coded{
		Row:    NewRow(),
		Code:   code,
		Name:   name,
		Active: true,
	}
}

// NaturalKey returns the code.
func (c *Coded) NaturalKey() string { return c.Code }

// KeyConds locates the row by code.
func (c *Coded) KeyConds() map[string]any {
	return map[string]any{"code": c.Code}
}

// IsActive reports the active flag.
func (c *Coded) IsActive() bool { return c.Active }

// Validate checks base invariants.
func (c *Coded) Validate(ctx context.Context) error {
	if strings.TrimSpace(c.Code) == "" {
		return apperror.NewInvalidInput("code is required").
			WithDetail("field", "code")
	}
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewInvalidInput("name is required").
			WithDetail("field", "name")
	}
	return nil
}
