package orders_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/core/apperror"
	"workshop/internal/domain/orders"
)

func TestVehicle_PlateNormalizedOnWrite(t *testing.T) {
	ctx := context.Background()
	repo := newFakeVehicleRepo(newFakeOrderRepo())
	svc := orders.NewVehicleService(repo, nopTx{})

	v := orders.NewVehicle("Skoda", "Fabia", "")
	v.LicensePlate = "  3e8 1234 "
	require.NoError(t, svc.Create(ctx, v))
	assert.Equal(t, "3E81234", v.LicensePlate)

	found, err := svc.GetByPlate(ctx, "3e8 1234")
	require.NoError(t, err)
	assert.Equal(t, v.ID, found.ID)

	dup := orders.NewVehicle("Skoda", "Fabia", "3E8 1234")
	err = svc.Create(ctx, dup)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicateKey))
}

func TestVehicle_ValidationRejectsEmptyPlate(t *testing.T) {
	svc := orders.NewVehicleService(newFakeVehicleRepo(newFakeOrderRepo()), nopTx{})

	v := orders.NewVehicle("Skoda", "Fabia", "   ")
	err := svc.Create(context.Background(), v)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))
}

func TestCustomerDelete_RefusedWhileOrdersExist(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture()
	svc := orders.NewCustomerService(f.customers, nopTx{})

	f.createOrder(t)

	err := svc.Delete(ctx, f.customer.ID, true)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeForeignKeyInUse))

	// Deactivation is always available.
	require.NoError(t, svc.Deactivate(ctx, f.customer.ID))
	stored, err := svc.Get(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
}

func TestCustomerDelete_RequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	repo := newFakeCustomerRepo(newFakeOrderRepo())
	svc := orders.NewCustomerService(repo, nopTx{})

	c := orders.NewCustomer("Eva", "Svobodova")
	require.NoError(t, svc.Create(ctx, c))

	err := svc.Delete(ctx, c.ID, false)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeConfirmationRequired))

	require.NoError(t, svc.Delete(ctx, c.ID, true))
	_, err = svc.Get(ctx, c.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCustomer_ValidateNeedsSomeName(t *testing.T) {
	svc := orders.NewCustomerService(newFakeCustomerRepo(newFakeOrderRepo()), nopTx{})

	c := orders.NewCustomer("", "")
	err := svc.Create(context.Background(), c)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))

	c.CompanyName = "Garage s.r.o."
	assert.NoError(t, svc.Create(context.Background(), c))
}

func TestVehicleDelete_RefusedWhileOrdersExist(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture()
	svc := orders.NewVehicleService(f.vehicles, nopTx{})

	f.createOrder(t)

	err := svc.Delete(ctx, f.vehicle.ID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeForeignKeyInUse))
}
