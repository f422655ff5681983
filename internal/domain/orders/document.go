package orders

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"workshop/internal/core/apperror"
	"workshop/internal/core/numbering"
	"workshop/internal/core/types"
)

// DocumentKind selects the derived document.
type DocumentKind string

const (
	DocWorkOrder DocumentKind = "work-order"
	DocProforma  DocumentKind = "proforma"
	DocInvoice   DocumentKind = "invoice"
)

// ValidDocumentKind reports whether k is a known document kind.
func ValidDocumentKind(k DocumentKind) bool {
	switch k {
	case DocWorkOrder, DocProforma, DocInvoice:
		return true
	}
	return false
}

// Party is one side of the document: the shop or the billed customer.
type Party struct {
	Name    string `json:"name"`
	TaxID   string `json:"taxId"`
	VATID   string `json:"vatId"`
	Address string `json:"address"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

// VehicleBlock carries the vehicle facts documents print.
type VehicleBlock struct {
	Make         string `json:"make"`
	Model        string `json:"model"`
	LicensePlate string `json:"licensePlate"`
	VIN          string `json:"vin"`
	Mileage      *int   `json:"mileage,omitempty"`
}

// LineGroup is one kind bucket with its subtotal.
type LineGroup struct {
	Kind     LineKind    `json:"kind"`
	Lines    []*Line     `json:"lines"`
	Subtotal types.Money `json:"subtotal"`
}

// VATLine is one row of the per-rate VAT breakdown.
type VATLine struct {
	Percent decimal.Decimal `json:"percent"`
	Base    types.Money     `json:"base"`
	VAT     types.Money     `json:"vat"`
}

// Document is the language-neutral view a renderer consumes.
type Document struct {
	Kind          DocumentKind `json:"kind"`
	Number        string       `json:"number"`
	InvoiceNumber string       `json:"invoiceNumber,omitempty"`
	IssuedOn      types.Date   `json:"issuedOn"`
	CreatedDate   types.Date   `json:"createdDate"`
	CompletedDate *types.Date  `json:"completedDate,omitempty"`
	StatusCode    string       `json:"statusCode"`
	Note          string       `json:"note"`

	Customer Party        `json:"customer"`
	Vehicle  VehicleBlock `json:"vehicle"`

	Groups       []LineGroup `json:"groups"`
	VATBreakdown []VATLine   `json:"vatBreakdown"`
	Total        types.Money `json:"total"`
}

// DocumentView assembles a derived document. The invoice kind allocates
// the invoice number from its own year counter on first use and pins it
// on the order.
func (e *Engine) DocumentView(ctx context.Context, orderID int64, kind DocumentKind) (*Document, error) {
	if !ValidDocumentKind(kind) {
		return nil, apperror.NewInvalidInput("unknown document kind").
			WithDetail("kind", string(kind))
	}

	var doc *Document
	err := e.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := e.ordersRepo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}

		if kind == DocInvoice && order.InvoiceNumber == nil {
			n, err := e.numbers.Next(ctx, numbering.KindInvoice, types.Today().Time)
			if err != nil {
				return err
			}
			order.InvoiceNumber = &n
			if err := e.ordersRepo.Update(ctx, order); err != nil {
				return err
			}
		}

		customer, err := e.customers.GetByID(ctx, order.CustomerID)
		if err != nil {
			return err
		}
		vehicle, err := e.vehicles.GetByID(ctx, order.VehicleID)
		if err != nil {
			return err
		}
		lines, err := e.lines.ListByOrder(ctx, order.ID)
		if err != nil {
			return err
		}

		doc = assembleDocument(kind, order, customer, vehicle, lines)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func assembleDocument(kind DocumentKind, order *Order, customer *Customer, vehicle *Vehicle, lines []*Line) *Document {
	doc := &Document{
		Kind:          kind,
		Number:        order.Number,
		IssuedOn:      types.Today(),
		CreatedDate:   order.CreatedDate,
		CompletedDate: order.CompletedDate,
		StatusCode:    order.StatusCode,
		Note:          order.Note,
		Customer:      billedParty(order, customer),
		Vehicle: VehicleBlock{
			Make:         vehicle.Make,
			Model:        vehicle.Model,
			LicensePlate: vehicle.LicensePlate,
			VIN:          vehicle.VIN,
			Mileage:      vehicle.Mileage,
		},
		Groups:       groupLines(lines),
		VATBreakdown: vatBreakdown(lines),
		Total:        SumLines(lines),
	}
	if order.InvoiceNumber != nil {
		doc.InvoiceNumber = *order.InvoiceNumber
	}
	return doc
}

// billedParty prefers the order's separate invoicing party when present.
func billedParty(order *Order, customer *Customer) Party {
	if order.InvoiceCompany != "" {
		return Party{
			Name:    order.InvoiceCompany,
			TaxID:   order.InvoiceTaxID,
			Address: order.InvoiceAddress,
		}
	}
	return Party{
		Name:    customer.DisplayName(),
		TaxID:   customer.TaxID,
		VATID:   customer.VATID,
		Address: joinAddress(customer.Street, customer.City, customer.Zip),
		Email:   customer.Email,
		Phone:   customer.Phone,
	}
}

func joinAddress(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += p
	}
	return out
}

// groupLines buckets lines by kind in material, labor, external order.
func groupLines(lines []*Line) []LineGroup {
	order := []LineKind{LineMaterial, LineLabor, LineExternal}
	byKind := make(map[LineKind][]*Line)
	for _, l := range lines {
		byKind[l.Kind] = append(byKind[l.Kind], l)
	}

	var groups []LineGroup
	for _, kind := range order {
		bucket := byKind[kind]
		if len(bucket) == 0 {
			continue
		}
		groups = append(groups, LineGroup{
			Kind:     kind,
			Lines:    bucket,
			Subtotal: SumLines(bucket),
		})
	}
	return groups
}

// vatBreakdown aggregates line totals per VAT rate, ascending by percent.
// Line totals are VAT-exclusive bases.
func vatBreakdown(lines []*Line) []VATLine {
	hundred := decimal.NewFromInt(100)
	byPercent := make(map[string]*VATLine)
	for _, l := range lines {
		key := l.VATPercent.String()
		row, ok := byPercent[key]
		if !ok {
			row = &VATLine{Percent: l.VATPercent, Base: decimal.Zero, VAT: decimal.Zero}
			byPercent[key] = row
		}
		row.Base = row.Base.Add(l.LineTotal)
	}

	out := make([]VATLine, 0, len(byPercent))
	for _, row := range byPercent {
		row.VAT = row.Base.Mul(row.Percent).DivRound(hundred, 2)
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Percent.LessThan(out[j].Percent)
	})
	return out
}
