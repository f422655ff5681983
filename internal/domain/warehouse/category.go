package warehouse

import (
	"context"
	"regexp"
	"strings"

	"workshop/internal/core/apperror"
	"workshop/internal/core/entity"
)

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Category is a node of the item category tree.
type Category struct {
	entity.Row

	Name        string `db:"name" json:"name"`
	ParentID    *int64 `db:"parent_id" json:"parentId,omitempty"`
	Color       string `db:"color" json:"color"`
	Description string `db:"description" json:"description"`
}

// NewCategory creates a root category.
func NewCategory(name string) *Category {
	return &Category{Row: entity.NewRow(), Name: name}
}

// Validate implements entity.Validatable.
func (c *Category) Validate(ctx context.Context) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewInvalidInput("name is required").
			WithDetail("field", "name")
	}
	if c.Color != "" && !hexColorRe.MatchString(c.Color) {
		return apperror.NewInvalidInput("color must be a #rrggbb hex value").
			WithDetail("field", "color").
			WithDetail("value", c.Color)
	}
	if c.ParentID != nil && *c.ParentID == c.ID && c.ID != 0 {
		return apperror.NewInvalidInput("category cannot be its own parent")
	}
	return nil
}

// CategoryDeleteOptions selects how dependents are handled on delete.
// Without the matching option the delete is refused while dependents exist.
type CategoryDeleteOptions struct {
	// ReassignChildren moves child categories to the deleted node's
	// parent (or to root).
	ReassignChildren bool

	// DetachItems clears the category reference on items.
	DetachItems bool
}
