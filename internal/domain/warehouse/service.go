package warehouse

import (
	"context"
	"strings"

	"workshop/internal/core/apperror"
	"workshop/internal/core/tx"
	"workshop/pkg/logger"
)

// ItemService provides item master CRUD.
type ItemService struct {
	repo ItemRepository
	txm  tx.Manager
}

// NewItemService creates the item service.
func NewItemService(repo ItemRepository, txm tx.Manager) *ItemService {
	return &ItemService{repo: repo, txm: txm}
}

// List returns one page of items matching the filter.
func (s *ItemService) List(ctx context.Context, filter ItemFilter) (ItemList, error) {
	return s.repo.List(ctx, filter)
}

// Get returns one item.
func (s *ItemService) Get(ctx context.Context, id int64) (*Item, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByCode returns one item by internal code.
func (s *ItemService) GetByCode(ctx context.Context, code string) (*Item, error) {
	return s.repo.GetByCode(ctx, code)
}

// Create validates and persists a new item.
func (s *ItemService) Create(ctx context.Context, item *Item) error {
	item.Code = strings.TrimSpace(item.Code)
	if err := item.Validate(ctx); err != nil {
		return err
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, item); err != nil {
			return err
		}
		logger.Info(ctx, "warehouse item created", "code", item.Code, "id", item.ID)
		return nil
	})
}

// Update persists item changes. Stock and purchase price are ledger-owned,
// the repository must not let a plain update touch them.
func (s *ItemService) Update(ctx context.Context, item *Item) error {
	if err := item.Validate(ctx); err != nil {
		return err
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, item)
	})
}

// Deactivate hides the item from pickers while keeping its history.
func (s *ItemService) Deactivate(ctx context.Context, id int64) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		item.Active = false
		return s.repo.Update(ctx, item)
	})
}

// Delete removes an item permanently. Items with ledger history cannot be
// deleted, deactivate them instead.
func (s *ItemService) Delete(ctx context.Context, id int64, confirm bool) error {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !confirm {
		return apperror.NewConfirmationRequired(
			"deleting item " + item.Code)
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		used, err := s.repo.HasMovements(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return apperror.NewForeignKeyInUse("warehouse_item", item.Code).
				WithDetail("referenced_by", "warehouse_movements")
		}
		return s.repo.Delete(ctx, id)
	})
}

// CategoryService maintains the category tree.
type CategoryService struct {
	repo CategoryRepository
	txm  tx.Manager
}

// NewCategoryService creates the category service.
func NewCategoryService(repo CategoryRepository, txm tx.Manager) *CategoryService {
	return &CategoryService{repo: repo, txm: txm}
}

// Tree returns all categories; callers assemble the hierarchy.
func (s *CategoryService) Tree(ctx context.Context) ([]*Category, error) {
	return s.repo.All(ctx)
}

// Get returns one category.
func (s *CategoryService) Get(ctx context.Context, id int64) (*Category, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates and persists a new category.
func (s *CategoryService) Create(ctx context.Context, c *Category) error {
	if err := c.Validate(ctx); err != nil {
		return err
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if c.ParentID != nil {
			if _, err := s.repo.GetByID(ctx, *c.ParentID); err != nil {
				return err
			}
		}
		return s.repo.Create(ctx, c)
	})
}

// Update persists category changes, rejecting reparenting that would
// close a cycle.
func (s *CategoryService) Update(ctx context.Context, c *Category) error {
	if err := c.Validate(ctx); err != nil {
		return err
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if c.ParentID != nil {
			if err := s.checkNoCycle(ctx, c.ID, *c.ParentID); err != nil {
				return err
			}
		}
		return s.repo.Update(ctx, c)
	})
}

// checkNoCycle rejects a parent that is the node itself or its descendant.
func (s *CategoryService) checkNoCycle(ctx context.Context, nodeID, newParentID int64) error {
	if newParentID == nodeID {
		return apperror.NewInvalidInput("category cannot be its own parent")
	}

	all, err := s.repo.All(ctx)
	if err != nil {
		return err
	}
	parents := make(map[int64]*int64, len(all))
	for _, c := range all {
		parents[c.ID] = c.ParentID
	}

	// Walk up from the proposed parent; reaching the node means the
	// parent is a descendant.
	cur := &newParentID
	for steps := 0; cur != nil && steps <= len(all); steps++ {
		if *cur == nodeID {
			return apperror.NewInvalidInput("new parent is a descendant of the category").
				WithDetail("categoryId", nodeID).
				WithDetail("parentId", newParentID)
		}
		cur = parents[*cur]
	}
	return nil
}

// Delete removes a category. Children and items are handled per the
// options; without the matching option their presence refuses the delete.
func (s *CategoryService) Delete(ctx context.Context, id int64, opts CategoryDeleteOptions) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		hasChildren, err := s.repo.HasChildren(ctx, id)
		if err != nil {
			return err
		}
		if hasChildren {
			if !opts.ReassignChildren {
				return apperror.NewForeignKeyInUse("warehouse_category", c.Name).
					WithDetail("referenced_by", "warehouse_categories")
			}
			if err := s.repo.ReassignChildren(ctx, id, c.ParentID); err != nil {
				return err
			}
		}

		hasItems, err := s.repo.HasItems(ctx, id)
		if err != nil {
			return err
		}
		if hasItems {
			if !opts.DetachItems {
				return apperror.NewForeignKeyInUse("warehouse_category", c.Name).
					WithDetail("referenced_by", "warehouse_items")
			}
			if err := s.repo.DetachItems(ctx, id); err != nil {
				return err
			}
		}

		return s.repo.Delete(ctx, id)
	})
}

// SupplierService provides supplier card CRUD.
type SupplierService struct {
	repo SupplierRepository
	txm  tx.Manager
}

// NewSupplierService creates the supplier service.
func NewSupplierService(repo SupplierRepository, txm tx.Manager) *SupplierService {
	return &SupplierService{repo: repo, txm: txm}
}

// List returns suppliers and the unpaginated total.
func (s *SupplierService) List(ctx context.Context, filter SupplierFilter) ([]*Supplier, int64, error) {
	return s.repo.List(ctx, filter)
}

// Get returns one supplier.
func (s *SupplierService) Get(ctx context.Context, id int64) (*Supplier, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates and persists a new supplier.
func (s *SupplierService) Create(ctx context.Context, sup *Supplier) error {
	if err := sup.Validate(ctx); err != nil {
		return err
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, sup)
	})
}

// Update persists supplier changes.
func (s *SupplierService) Update(ctx context.Context, sup *Supplier) error {
	if err := sup.Validate(ctx); err != nil {
		return err
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, sup)
	})
}

// Delete removes a supplier, refused while items reference it.
func (s *SupplierService) Delete(ctx context.Context, id int64) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		sup, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		used, err := s.repo.HasItems(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return apperror.NewForeignKeyInUse("supplier", sup.Name).
				WithDetail("referenced_by", "warehouse_items")
		}
		return s.repo.Delete(ctx, id)
	})
}
