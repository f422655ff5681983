// Package simple provides the flat code+name codebooks: brands, units,
// positions, payment methods and customer groups. They share one row shape
// and differ only in descriptor and seed.
package simple

import (
	"workshop/internal/core/entity"
	"workshop/internal/domain/codebook"
)

// Row is a flat codebook row.
type Row struct {
	entity.Coded
}

// New creates an active row.
func New(code, name string) *Row {
	return &Row{Coded: entity.NewCoded(code, name)}
}

func describe(name, table string, seed func() []*Row, referrers ...codebook.Referrer) codebook.Descriptor[*Row] {
	return codebook.Descriptor[*Row]{
		Name:      name,
		Table:     table,
		New:       func() *Row { return &Row{} },
		Seed:      seed,
		Referrers: referrers,
	}
}

// Brands describes the vehicle make codebook.
func Brands() codebook.Descriptor[*Row] {
	return describe("brand", "brands", func() []*Row {
		return []*Row{
			New("skoda", "Škoda"),
			New("vw", "Volkswagen"),
			New("audi", "Audi"),
			New("bmw", "BMW"),
			New("mercedes", "Mercedes-Benz"),
			New("ford", "Ford"),
			New("toyota", "Toyota"),
			New("hyundai", "Hyundai"),
			New("kia", "Kia"),
			New("peugeot", "Peugeot"),
			New("renault", "Renault"),
			New("opel", "Opel"),
		}
	})
}

// Units describes the measurement unit codebook. Units are referenced by
// code from item and line rows, so deleting a used unit is refused.
func Units() codebook.Descriptor[*Row] {
	return describe("unit", "units", func() []*Row {
		return []*Row{
			New("pcs", "pieces"),
			New("h", "hours"),
			New("l", "litres"),
			New("kg", "kilograms"),
			New("km", "kilometres"),
		}
	},
		codebook.Referrer{Table: "warehouse_items", Column: "unit", ByCode: true},
		codebook.Referrer{Table: "order_items", Column: "unit", ByCode: true},
	)
}

// Positions describes the mechanic position codebook.
func Positions() codebook.Descriptor[*Row] {
	return describe("position", "positions", func() []*Row {
		return []*Row{
			New("mechanic", "Mechanic"),
			New("electrician", "Auto electrician"),
			New("master", "Shop master"),
		}
	},
		codebook.Referrer{Table: "hourly_rates", Column: "position_code", ByCode: true},
	)
}

// PaymentMethods describes the payment method codebook.
func PaymentMethods() codebook.Descriptor[*Row] {
	return describe("payment_method", "payment_methods", func() []*Row {
		return []*Row{
			New("cash", "Cash"),
			New("card", "Card"),
			New("transfer", "Bank transfer"),
		}
	})
}

// Group is a customer group row, a flat codebook with a free-form note.
type Group struct {
	entity.Coded

	Description string `db:"description" json:"description"`
}

// NewGroup creates an active customer group.
func NewGroup(code, name, description string) *Group {
	return &Group{
		Coded:       entity.NewCoded(code, name),
		Description: description,
	}
}

// CustomerGroups describes the customer group codebook.
func CustomerGroups() codebook.Descriptor[*Group] {
	return codebook.Descriptor[*Group]{
		Name:  "customer_group",
		Table: "customer_groups",
		New:   func() *Group { return &Group{} },
		Seed: func() []*Group {
			return []*Group{
				NewGroup("retail", "Retail", "Walk-in customers"),
				NewGroup("fleet", "Fleet", "Company fleets with framework contracts"),
			}
		},
		Referrers: []codebook.Referrer{
			{Table: "customers", Column: "group_id"},
		},
	}
}
