package warehouse_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/core/apperror"
	"workshop/internal/domain/warehouse"
)

func TestItemDelete_RequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	movements := newFakeMovementRepo()
	items := newFakeItemRepo(movements)
	svc := warehouse.NewItemService(items, nopTx{})

	item := items.add(warehouse.NewItem("BP-001", "Brake pads"))

	err := svc.Delete(ctx, item.ID, false)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeConfirmationRequired))

	require.NoError(t, svc.Delete(ctx, item.ID, true))
	_, err = svc.Get(ctx, item.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestItemDelete_RefusedWithLedgerHistory(t *testing.T) {
	ctx := context.Background()
	movements := newFakeMovementRepo()
	items := newFakeItemRepo(movements)
	svc := warehouse.NewItemService(items, nopTx{})
	ledger := warehouse.NewLedger(items, movements, nopTx{}, warehouse.CostingLast)

	item := items.add(warehouse.NewItem("BP-001", "Brake pads"))
	_, err := ledger.Receipt(ctx, warehouse.ReceiptInput{
		ItemID:    item.ID,
		Quantity:  dec("1"),
		UnitPrice: dec("10"),
	})
	require.NoError(t, err)

	err = svc.Delete(ctx, item.ID, true)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeForeignKeyInUse))

	// Deactivation is the supported way out.
	require.NoError(t, svc.Deactivate(ctx, item.ID))
	stored, err := svc.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
}

func TestItemUpdate_StockStaysLedgerOwned(t *testing.T) {
	ctx := context.Background()
	movements := newFakeMovementRepo()
	items := newFakeItemRepo(movements)
	svc := warehouse.NewItemService(items, nopTx{})

	item := items.add(warehouse.NewItem("BP-001", "Brake pads"))
	item.Quantity = dec("7")
	item.PricePurchase = dec("50")

	edited := *item
	edited.Name = "Brake pads front"
	edited.Quantity = dec("100")
	edited.PricePurchase = dec("1")
	require.NoError(t, svc.Update(ctx, &edited))

	stored, err := svc.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Brake pads front", stored.Name)
	assert.True(t, stored.Quantity.Equal(dec("7")))
	assert.True(t, stored.PricePurchase.Equal(dec("50")))
}

func newCategoryFixture() (*fakeCategoryRepo, *fakeItemRepo, *warehouse.CategoryService) {
	items := newFakeItemRepo(newFakeMovementRepo())
	repo := newFakeCategoryRepo(items)
	return repo, items, warehouse.NewCategoryService(repo, nopTx{})
}

func TestCategoryUpdate_RejectsCycle(t *testing.T) {
	ctx := context.Background()
	repo, _, svc := newCategoryFixture()

	root := warehouse.NewCategory("Parts")
	require.NoError(t, svc.Create(ctx, root))
	child := warehouse.NewCategory("Brakes")
	child.ParentID = &root.ID
	require.NoError(t, svc.Create(ctx, child))
	grandchild := warehouse.NewCategory("Pads")
	grandchild.ParentID = &child.ID
	require.NoError(t, svc.Create(ctx, grandchild))

	// Reparenting the root under its grandchild would close a cycle.
	root.ParentID = &grandchild.ID
	err := svc.Update(ctx, root)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))

	// Self-parenting is the one-node cycle.
	child.ParentID = &child.ID
	err = svc.Update(ctx, child)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))

	// A legal reparent still works.
	grandchild.ParentID = &root.ID
	require.NoError(t, svc.Update(ctx, grandchild))
	stored, err := repo.GetByID(ctx, grandchild.ID)
	require.NoError(t, err)
	assert.Equal(t, root.ID, *stored.ParentID)
}

func TestCategoryCreate_RejectsMissingParent(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newCategoryFixture()

	missing := int64(42)
	c := warehouse.NewCategory("Brakes")
	c.ParentID = &missing
	err := svc.Create(ctx, c)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCategoryDelete_ChildrenNeedReassignOption(t *testing.T) {
	ctx := context.Background()
	repo, _, svc := newCategoryFixture()

	root := warehouse.NewCategory("Parts")
	require.NoError(t, svc.Create(ctx, root))
	mid := warehouse.NewCategory("Brakes")
	mid.ParentID = &root.ID
	require.NoError(t, svc.Create(ctx, mid))
	leaf := warehouse.NewCategory("Pads")
	leaf.ParentID = &mid.ID
	require.NoError(t, svc.Create(ctx, leaf))

	err := svc.Delete(ctx, mid.ID, warehouse.CategoryDeleteOptions{})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeForeignKeyInUse))

	require.NoError(t, svc.Delete(ctx, mid.ID, warehouse.CategoryDeleteOptions{ReassignChildren: true}))

	stored, err := repo.GetByID(ctx, leaf.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ParentID)
	assert.Equal(t, root.ID, *stored.ParentID, "children move to the deleted node's parent")
}

func TestCategoryDelete_ItemsNeedDetachOption(t *testing.T) {
	ctx := context.Background()
	_, items, svc := newCategoryFixture()

	c := warehouse.NewCategory("Brakes")
	require.NoError(t, svc.Create(ctx, c))

	item := items.add(warehouse.NewItem("BP-001", "Brake pads"))
	item.CategoryID = &c.ID

	err := svc.Delete(ctx, c.ID, warehouse.CategoryDeleteOptions{})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeForeignKeyInUse))

	require.NoError(t, svc.Delete(ctx, c.ID, warehouse.CategoryDeleteOptions{DetachItems: true}))
	assert.Nil(t, items.items[item.ID].CategoryID)
}

func TestSupplierDelete_RefusedWhileReferenced(t *testing.T) {
	ctx := context.Background()
	items := newFakeItemRepo(newFakeMovementRepo())
	repo := newFakeSupplierRepo(items)
	svc := warehouse.NewSupplierService(repo, nopTx{})

	sup := warehouse.NewSupplier("Auto Parts s.r.o.")
	require.NoError(t, svc.Create(ctx, sup))

	item := items.add(warehouse.NewItem("BP-001", "Brake pads"))
	item.SupplierID = &sup.ID

	err := svc.Delete(ctx, sup.ID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeForeignKeyInUse))

	item.SupplierID = nil
	require.NoError(t, svc.Delete(ctx, sup.ID))
}

func TestSupplierCreate_ValidatesEmail(t *testing.T) {
	items := newFakeItemRepo(newFakeMovementRepo())
	svc := warehouse.NewSupplierService(newFakeSupplierRepo(items), nopTx{})

	sup := warehouse.NewSupplier("Auto Parts s.r.o.")
	sup.Email = "not-an-email"
	err := svc.Create(context.Background(), sup)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))
}
