package orders

import (
	"context"

	"workshop/internal/core/apperror"
	"workshop/internal/core/tx"
	"workshop/pkg/logger"
)

// CustomerService provides customer CRUD. Customers referenced by orders
// are never hard-deleted, only deactivated.
type CustomerService struct {
	repo CustomerRepository
	txm  tx.Manager
}

// NewCustomerService creates the customer service.
func NewCustomerService(repo CustomerRepository, txm tx.Manager) *CustomerService {
	return &CustomerService{repo: repo, txm: txm}
}

// List returns customers and the unpaginated total.
func (s *CustomerService) List(ctx context.Context, filter CustomerFilter) ([]*Customer, int64, error) {
	return s.repo.List(ctx, filter)
}

// Get returns one customer.
func (s *CustomerService) Get(ctx context.Context, id int64) (*Customer, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates and persists a new customer.
func (s *CustomerService) Create(ctx context.Context, c *Customer) error {
	if err := c.Validate(ctx); err != nil {
		return err
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, c); err != nil {
			return err
		}
		logger.Info(ctx, "customer created", "id", c.ID, "name", c.DisplayName())
		return nil
	})
}

// Update persists customer changes.
func (s *CustomerService) Update(ctx context.Context, c *Customer) error {
	if err := c.Validate(ctx); err != nil {
		return err
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, c)
	})
}

// Deactivate hides the customer from pickers while keeping history.
func (s *CustomerService) Deactivate(ctx context.Context, id int64) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		c.Active = false
		return s.repo.Update(ctx, c)
	})
}

// Delete removes a customer permanently. Refused while orders reference
// the customer; deactivation is the alternative.
func (s *CustomerService) Delete(ctx context.Context, id int64, confirm bool) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !confirm {
		return apperror.NewConfirmationRequired("deleting customer " + c.DisplayName())
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		used, err := s.repo.HasOrders(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return apperror.NewForeignKeyInUse("customer", id).
				WithDetail("referenced_by", "orders")
		}
		return s.repo.Delete(ctx, id)
	})
}

// VehicleService provides vehicle CRUD with plate normalization.
type VehicleService struct {
	repo VehicleRepository
	txm  tx.Manager
}

// NewVehicleService creates the vehicle service.
func NewVehicleService(repo VehicleRepository, txm tx.Manager) *VehicleService {
	return &VehicleService{repo: repo, txm: txm}
}

// List returns vehicles and the unpaginated total.
func (s *VehicleService) List(ctx context.Context, filter VehicleFilter) ([]*Vehicle, int64, error) {
	return s.repo.List(ctx, filter)
}

// Get returns one vehicle.
func (s *VehicleService) Get(ctx context.Context, id int64) (*Vehicle, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByPlate returns one vehicle by normalized license plate.
func (s *VehicleService) GetByPlate(ctx context.Context, plate string) (*Vehicle, error) {
	probe := &Vehicle{}
	probe.SetPlate(plate)
	return s.repo.GetByPlate(ctx, probe.LicensePlate)
}

// Create validates and persists a new vehicle.
func (s *VehicleService) Create(ctx context.Context, v *Vehicle) error {
	v.SetPlate(v.LicensePlate)
	if err := v.Validate(ctx); err != nil {
		return err
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, v); err != nil {
			return err
		}
		logger.Info(ctx, "vehicle created", "id", v.ID, "plate", v.LicensePlate)
		return nil
	})
}

// Update persists vehicle changes.
func (s *VehicleService) Update(ctx context.Context, v *Vehicle) error {
	v.SetPlate(v.LicensePlate)
	if err := v.Validate(ctx); err != nil {
		return err
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, v)
	})
}

// Delete removes a vehicle, refused while orders reference it.
func (s *VehicleService) Delete(ctx context.Context, id int64) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		used, err := s.repo.HasOrders(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return apperror.NewForeignKeyInUse("vehicle", id).
				WithDetail("referenced_by", "orders")
		}
		return s.repo.Delete(ctx, id)
	})
}
