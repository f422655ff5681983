package warehouse

import (
	"context"
	"strings"

	"workshop/internal/core/apperror"
	"workshop/internal/core/entity"
)

// Supplier is a parts supplier contact card.
type Supplier struct {
	entity.Row

	Name          string `db:"name" json:"name"`
	TaxID         string `db:"tax_id" json:"taxId"`
	VATID         string `db:"vat_id" json:"vatId"`
	ContactPerson string `db:"contact_person" json:"contactPerson"`
	Email         string `db:"email" json:"email"`
	Phone         string `db:"phone" json:"phone"`
	Street        string `db:"street" json:"street"`
	City          string `db:"city" json:"city"`
	Zip           string `db:"zip" json:"zip"`
	PaymentTerms  string `db:"payment_terms" json:"paymentTerms"`
	BankAccount   string `db:"bank_account" json:"bankAccount"`
	Note          string `db:"note" json:"note"`
	Active        bool   `db:"active" json:"active"`
}

// NewSupplier creates an active supplier.
func NewSupplier(name string) *Supplier {
	return &Supplier{Row: entity.NewRow(), Name: name, Active: true}
}

// Validate implements entity.Validatable.
func (s *Supplier) Validate(ctx context.Context) error {
	if strings.TrimSpace(s.Name) == "" {
		return apperror.NewInvalidInput("name is required").
			WithDetail("field", "name")
	}
	if s.Email != "" && !strings.Contains(s.Email, "@") {
		return apperror.NewInvalidInput("invalid email").
			WithDetail("field", "email")
	}
	return nil
}

// SupplierFilter narrows supplier lists.
type SupplierFilter struct {
	Search     string
	ActiveOnly bool
	Limit      int
	Offset     int
}
