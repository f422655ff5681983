// Package orders provides customers, vehicles, the service order engine
// with year-scoped numbering and a configurable status machine, line items
// with total roll-up, and derived document views.
package orders

import (
	"context"
	"strings"

	"workshop/internal/core/apperror"
	"workshop/internal/core/entity"
)

// Customer is a natural person or a company. Company is detected by a
// non-empty company name; both forms share one record.
type Customer struct {
	entity.Row

	FirstName   string `db:"first_name" json:"firstName"`
	LastName    string `db:"last_name" json:"lastName"`
	CompanyName string `db:"company_name" json:"companyName"`
	TaxID       string `db:"tax_id" json:"taxId"`
	VATID       string `db:"vat_id" json:"vatId"`
	Email       string `db:"email" json:"email"`
	Phone       string `db:"phone" json:"phone"`
	Street      string `db:"street" json:"street"`
	City        string `db:"city" json:"city"`
	Zip         string `db:"zip" json:"zip"`
	GroupID     *int64 `db:"group_id" json:"groupId,omitempty"`
	Note        string `db:"note" json:"note"`
	Active      bool   `db:"active" json:"active"`
}

// NewCustomer creates an active person customer.
func NewCustomer(firstName, lastName string) *Customer {
	return &Customer{
		Row:       entity.NewRow(),
		FirstName: firstName,
		LastName:  lastName,
		Active:    true,
	}
}

// IsCompany reports whether the record is a company.
func (c *Customer) IsCompany() bool {
	return strings.TrimSpace(c.CompanyName) != ""
}

// DisplayName is the name shown on documents and pickers.
func (c *Customer) DisplayName() string {
	if c.IsCompany() {
		return c.CompanyName
	}
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Validate implements entity.Validatable.
func (c *Customer) Validate(ctx context.Context) error {
	if c.DisplayName() == "" {
		return apperror.NewInvalidInput("customer needs a person or company name")
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return apperror.NewInvalidInput("invalid email").
			WithDetail("field", "email")
	}
	return nil
}

// CustomerFilter narrows customer lists.
type CustomerFilter struct {
	// Search matches names, company, email and phone case-insensitively.
	Search     string
	GroupID    *int64
	ActiveOnly bool
	Limit      int
	Offset     int
}
