package dto

import (
	"time"

	"workshop/internal/core/types"
	"workshop/internal/domain/warehouse"
)

// --- Items ---

// CreateItemRequest is the request body for creating a warehouse item.
type CreateItemRequest struct {
	Code        string         `json:"code" binding:"required"`
	Name        string         `json:"name" binding:"required"`
	EAN         string         `json:"ean"`
	CategoryID  *int64         `json:"categoryId"`
	SupplierID  *int64         `json:"supplierId"`
	Unit        string         `json:"unit"`
	MinQuantity types.Quantity `json:"minQuantity"`
	Location    string         `json:"location"`
	PriceSale   types.Money    `json:"priceSale"`
	Description string         `json:"description"`
	Note        string         `json:"note"`
}

// ToEntity converts DTO to domain entity. Stock and purchase price start
// at zero; only the ledger moves them.
func (r *CreateItemRequest) ToEntity() *warehouse.Item {
	item := warehouse.NewItem(r.Code, r.Name)
	item.EAN = r.EAN
	item.CategoryID = r.CategoryID
	item.SupplierID = r.SupplierID
	if r.Unit != "" {
		item.Unit = r.Unit
	}
	item.MinQuantity = r.MinQuantity
	item.Location = r.Location
	item.PriceSale = r.PriceSale
	item.Description = r.Description
	item.Note = r.Note
	return item
}

// UpdateItemRequest is the request body for updating a warehouse item.
type UpdateItemRequest struct {
	Code        string         `json:"code" binding:"required"`
	Name        string         `json:"name" binding:"required"`
	EAN         string         `json:"ean"`
	CategoryID  *int64         `json:"categoryId"`
	SupplierID  *int64         `json:"supplierId"`
	Unit        string         `json:"unit"`
	MinQuantity types.Quantity `json:"minQuantity"`
	Location    string         `json:"location"`
	PriceSale   types.Money    `json:"priceSale"`
	Description string         `json:"description"`
	Note        string         `json:"note"`
	Active      bool           `json:"active"`
	Version     int            `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateItemRequest) ApplyTo(item *warehouse.Item) {
	item.Code = r.Code
	item.Name = r.Name
	item.EAN = r.EAN
	item.CategoryID = r.CategoryID
	item.SupplierID = r.SupplierID
	item.Unit = r.Unit
	item.MinQuantity = r.MinQuantity
	item.Location = r.Location
	item.PriceSale = r.PriceSale
	item.Description = r.Description
	item.Note = r.Note
	item.Active = r.Active
	item.Version = r.Version
}

// ItemResponse is the response body for a warehouse item, including the
// derived stock state.
type ItemResponse struct {
	*warehouse.Item

	StockState warehouse.StockState `json:"stockState"`
}

// FromItem creates response DTO from domain entity.
func FromItem(item *warehouse.Item) *ItemResponse {
	return &ItemResponse{Item: item, StockState: item.StockState()}
}

// FromItems maps a page of items.
func FromItems(items []*warehouse.Item) []*ItemResponse {
	out := make([]*ItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, FromItem(item))
	}
	return out
}

// --- Ledger ---

// ReceiptRequest posts a stock receipt.
type ReceiptRequest struct {
	Quantity       types.Quantity `json:"quantity" binding:"required"`
	UnitPrice      types.Money    `json:"unitPrice"`
	SupplierID     *int64         `json:"supplierId"`
	DocumentNumber string         `json:"documentNumber"`
	MovedAt        time.Time      `json:"movedAt"`
	Note           string         `json:"note"`
	Operator       string         `json:"operator"`
}

// ToInput converts the request for an item.
func (r *ReceiptRequest) ToInput(itemID int64) warehouse.ReceiptInput {
	return warehouse.ReceiptInput{
		ItemID:         itemID,
		Quantity:       r.Quantity,
		UnitPrice:      r.UnitPrice,
		SupplierID:     r.SupplierID,
		DocumentNumber: r.DocumentNumber,
		MovedAt:        r.MovedAt,
		Note:           r.Note,
		Operator:       r.Operator,
	}
}

// IssueRequest posts a stock issue.
type IssueRequest struct {
	Quantity       types.Quantity `json:"quantity" binding:"required"`
	Reason         string         `json:"reason" binding:"required"`
	DocumentNumber string         `json:"documentNumber"`
	MovedAt        time.Time      `json:"movedAt"`
	Note           string         `json:"note"`
	Operator       string         `json:"operator"`
	Force          bool           `json:"force"`
}

// ToInput converts the request for an item.
func (r *IssueRequest) ToInput(itemID int64) warehouse.IssueInput {
	return warehouse.IssueInput{
		ItemID:         itemID,
		Quantity:       r.Quantity,
		Reason:         r.Reason,
		DocumentNumber: r.DocumentNumber,
		MovedAt:        r.MovedAt,
		Note:           r.Note,
		Operator:       r.Operator,
		Force:          r.Force,
	}
}

// InventoryRequest records a counted quantity.
type InventoryRequest struct {
	Actual   types.Quantity `json:"actual"`
	MovedAt  time.Time      `json:"movedAt"`
	Note     string         `json:"note"`
	Operator string         `json:"operator"`
}

// ToInput converts the request for an item.
func (r *InventoryRequest) ToInput(itemID int64) warehouse.InventoryInput {
	return warehouse.InventoryInput{
		ItemID:   itemID,
		Actual:   r.Actual,
		MovedAt:  r.MovedAt,
		Note:     r.Note,
		Operator: r.Operator,
	}
}

// --- Categories ---

// CategoryRequest is the request body for creating or updating a category.
type CategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	ParentID    *int64 `json:"parentId"`
	Color       string `json:"color"`
	Description string `json:"description"`
	Version     int    `json:"version"`
}

// ToEntity converts DTO to domain entity.
func (r *CategoryRequest) ToEntity() *warehouse.Category {
	c := warehouse.NewCategory(r.Name)
	c.ParentID = r.ParentID
	c.Color = r.Color
	c.Description = r.Description
	return c
}

// ApplyTo applies update DTO to existing entity.
func (r *CategoryRequest) ApplyTo(c *warehouse.Category) {
	c.Name = r.Name
	c.ParentID = r.ParentID
	c.Color = r.Color
	c.Description = r.Description
	if r.Version != 0 {
		c.Version = r.Version
	}
}

// --- Suppliers ---

// SupplierRequest is the request body for creating or updating a supplier.
type SupplierRequest struct {
	Name          string `json:"name" binding:"required"`
	ContactPerson string `json:"contactPerson"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Street        string `json:"street"`
	City          string `json:"city"`
	Zip           string `json:"zip"`
	TaxID         string `json:"taxId"`
	VATID         string `json:"vatId"`
	PaymentTerms  string `json:"paymentTerms"`
	BankAccount   string `json:"bankAccount"`
	Note          string `json:"note"`
	Version       int    `json:"version"`
}

// ToEntity converts DTO to domain entity. New suppliers start active;
// the deactivate endpoint retires them.
func (r *SupplierRequest) ToEntity() *warehouse.Supplier {
	s := warehouse.NewSupplier(r.Name)
	r.apply(s)
	return s
}

// ApplyTo applies update DTO to existing entity.
func (r *SupplierRequest) ApplyTo(s *warehouse.Supplier) {
	r.apply(s)
	if r.Version != 0 {
		s.Version = r.Version
	}
}

func (r *SupplierRequest) apply(s *warehouse.Supplier) {
	s.Name = r.Name
	s.ContactPerson = r.ContactPerson
	s.Email = r.Email
	s.Phone = r.Phone
	s.Street = r.Street
	s.City = r.City
	s.Zip = r.Zip
	s.TaxID = r.TaxID
	s.VATID = r.VATID
	s.PaymentTerms = r.PaymentTerms
	s.BankAccount = r.BankAccount
	s.Note = r.Note
}
