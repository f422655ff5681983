package dto

import (
	"github.com/shopspring/decimal"

	"workshop/internal/core/types"
	"workshop/internal/domain/orders"
)

// --- Customers ---

// CustomerRequest is the request body for creating or updating a customer.
type CustomerRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	CompanyName string `json:"companyName"`
	TaxID       string `json:"taxId"`
	VATID       string `json:"vatId"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Street      string `json:"street"`
	City        string `json:"city"`
	Zip         string `json:"zip"`
	GroupID     *int64 `json:"groupId"`
	Note        string `json:"note"`
	Version     int    `json:"version"`
}

// ToEntity converts DTO to domain entity.
func (r *CustomerRequest) ToEntity() *orders.Customer {
	c := orders.NewCustomer(r.FirstName, r.LastName)
	r.apply(c)
	return c
}

// ApplyTo applies update DTO to existing entity.
func (r *CustomerRequest) ApplyTo(c *orders.Customer) {
	r.apply(c)
	if r.Version != 0 {
		c.Version = r.Version
	}
}

func (r *CustomerRequest) apply(c *orders.Customer) {
	c.FirstName = r.FirstName
	c.LastName = r.LastName
	c.CompanyName = r.CompanyName
	c.TaxID = r.TaxID
	c.VATID = r.VATID
	c.Email = r.Email
	c.Phone = r.Phone
	c.Street = r.Street
	c.City = r.City
	c.Zip = r.Zip
	c.GroupID = r.GroupID
	c.Note = r.Note
}

// --- Vehicles ---

// VehicleRequest is the request body for creating or updating a vehicle.
type VehicleRequest struct {
	CustomerID   *int64 `json:"customerId"`
	Make         string `json:"make" binding:"required"`
	Model        string `json:"model"`
	LicensePlate string `json:"licensePlate" binding:"required"`
	VIN          string `json:"vin"`
	Year         *int   `json:"year"`
	Color        string `json:"color"`
	Engine       string `json:"engine"`
	Fuel         string `json:"fuel"`
	Mileage      *int   `json:"mileage"`
	Note         string `json:"note"`
	Version      int    `json:"version"`
}

// ToEntity converts DTO to domain entity.
func (r *VehicleRequest) ToEntity() *orders.Vehicle {
	v := orders.NewVehicle(r.Make, r.Model, r.LicensePlate)
	r.apply(v)
	return v
}

// ApplyTo applies update DTO to existing entity.
func (r *VehicleRequest) ApplyTo(v *orders.Vehicle) {
	r.apply(v)
	if r.Version != 0 {
		v.Version = r.Version
	}
}

func (r *VehicleRequest) apply(v *orders.Vehicle) {
	v.CustomerID = r.CustomerID
	v.Make = r.Make
	v.Model = r.Model
	v.LicensePlate = r.LicensePlate
	v.VIN = r.VIN
	v.Year = r.Year
	v.Color = r.Color
	v.Engine = r.Engine
	v.Fuel = r.Fuel
	v.Mileage = r.Mileage
	v.Note = r.Note
}

// --- Orders ---

// CreateOrderRequest opens a new order.
type CreateOrderRequest struct {
	OrderType      orders.OrderType `json:"orderType"`
	VehicleID      int64            `json:"vehicleId" binding:"required"`
	Note           string           `json:"note"`
	StatusCode     string           `json:"statusCode"`
	InvoiceCompany string           `json:"invoiceCompany"`
	InvoiceTaxID   string           `json:"invoiceTaxId"`
	InvoiceAddress string           `json:"invoiceAddress"`
}

// ToInput converts the request.
func (r *CreateOrderRequest) ToInput() orders.CreateInput {
	return orders.CreateInput{
		OrderType:      r.OrderType,
		VehicleID:      r.VehicleID,
		Note:           r.Note,
		StatusCode:     r.StatusCode,
		InvoiceCompany: r.InvoiceCompany,
		InvoiceTaxID:   r.InvoiceTaxID,
		InvoiceAddress: r.InvoiceAddress,
	}
}

// TransitionRequest moves an order along the status machine.
type TransitionRequest struct {
	StatusCode string `json:"statusCode" binding:"required"`

	// Confirm is the explicit token for the cancelled side-edge.
	Confirm bool `json:"confirm"`
}

// LineRequest adds or updates an order line.
type LineRequest struct {
	Kind            orders.LineKind  `json:"kind" binding:"required"`
	Name            string           `json:"name"`
	Quantity        types.Quantity   `json:"quantity" binding:"required"`
	Unit            string           `json:"unit"`
	UnitPrice       *types.Money     `json:"unitPrice"`
	VATPercent      *decimal.Decimal `json:"vatPercent"`
	WarehouseItemID *int64           `json:"warehouseItemId"`
	PositionCode    string           `json:"positionCode"`
	PostIssue       bool             `json:"postIssue"`
	Operator        string           `json:"operator"`
}

// ToInput converts the request.
func (r *LineRequest) ToInput() orders.LineInput {
	return orders.LineInput{
		Kind:            r.Kind,
		Name:            r.Name,
		Quantity:        r.Quantity,
		Unit:            r.Unit,
		UnitPrice:       r.UnitPrice,
		VATPercent:      r.VATPercent,
		WarehouseItemID: r.WarehouseItemID,
		PositionCode:    r.PositionCode,
		PostIssue:       r.PostIssue,
		Operator:        r.Operator,
	}
}

// UpdateLineRequest rewrites an existing line. The stored total is always
// re-derived; a caller-supplied total is ignored.
type UpdateLineRequest struct {
	Kind       orders.LineKind `json:"kind" binding:"required"`
	Name       string          `json:"name" binding:"required"`
	Quantity   types.Quantity  `json:"quantity" binding:"required"`
	Unit       string          `json:"unit"`
	UnitPrice  types.Money     `json:"unitPrice"`
	VATPercent decimal.Decimal `json:"vatPercent"`
	Version    int             `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing line.
func (r *UpdateLineRequest) ApplyTo(l *orders.Line) {
	l.Kind = r.Kind
	l.Name = r.Name
	l.Quantity = r.Quantity
	l.Unit = r.Unit
	l.UnitPrice = r.UnitPrice
	l.VATPercent = r.VATPercent
	l.Version = r.Version
}
