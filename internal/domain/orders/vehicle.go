package orders

import (
	"context"
	"strings"

	"workshop/internal/core/apperror"
	"workshop/internal/core/entity"
)

// Vehicle is owned by at most one customer at a time. A vehicle without a
// customer is permitted but cannot carry orders.
type Vehicle struct {
	entity.Row

	CustomerID   *int64 `db:"customer_id" json:"customerId,omitempty"`
	Make         string `db:"make" json:"make"`
	Model        string `db:"model" json:"model"`
	LicensePlate string `db:"license_plate" json:"licensePlate"`
	VIN          string `db:"vin" json:"vin"`
	Year         *int   `db:"year" json:"year,omitempty"`
	Color        string `db:"color" json:"color"`
	Engine       string `db:"engine" json:"engine"`
	Fuel         string `db:"fuel" json:"fuel"`
	Mileage      *int   `db:"mileage" json:"mileage,omitempty"`
	Note         string `db:"note" json:"note"`
	Active       bool   `db:"active" json:"active"`
}

// NewVehicle creates an active vehicle.
func NewVehicle(make, model, plate string) *Vehicle {
	v := &Vehicle{
		Row:    entity.NewRow(),
		Make:   make,
		Model:  model,
		Active: true,
	}
	v.SetPlate(plate)
	return v
}

// SetPlate normalizes the license plate: trimmed, inner spaces removed,
// uppercased. The plate is unique across vehicles.
func (v *Vehicle) SetPlate(plate string) {
	v.LicensePlate = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(plate), " ", ""))
}

// IsOrphaned reports a vehicle with no customer link.
func (v *Vehicle) IsOrphaned() bool { return v.CustomerID == nil }

// Validate implements entity.Validatable.
func (v *Vehicle) Validate(ctx context.Context) error {
	if v.LicensePlate == "" {
		return apperror.NewInvalidInput("license plate is required").
			WithDetail("field", "licensePlate")
	}
	if v.Make == "" {
		return apperror.NewInvalidInput("make is required").
			WithDetail("field", "make")
	}
	if v.Year != nil && (*v.Year < 1900 || *v.Year > 2100) {
		return apperror.NewInvalidInput("implausible year").
			WithDetail("field", "year")
	}
	if v.Mileage != nil && *v.Mileage < 0 {
		return apperror.NewInvalidInput("mileage must not be negative").
			WithDetail("field", "mileage")
	}
	return nil
}

// VehicleFilter narrows vehicle lists.
type VehicleFilter struct {
	// Search matches make, model, plate and VIN case-insensitively.
	Search     string
	CustomerID *int64

	// OrphanedOnly selects vehicles without a customer link.
	OrphanedOnly bool

	ActiveOnly bool
	Limit      int
	Offset     int
}
