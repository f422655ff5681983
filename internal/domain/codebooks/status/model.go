// Package status provides the order status codebook. The rows form the
// order state machine: each status lists the codes it may transition to,
// and a status with no targets is terminal.
package status

import (
	"context"
	"slices"

	"workshop/internal/core/apperror"
	"workshop/internal/core/entity"
	"workshop/internal/domain/codebook"
)

// Well-known status codes planted by the seed.
const (
	Prepared  = "prepared"
	InWork    = "in_work"
	Waiting   = "waiting"
	Done      = "done"
	Invoiced  = "invoiced"
	Paid      = "paid"
	Cancelled = "cancelled"
)

// Status is one order state.
type Status struct {
	entity.Coded

	Color     string `db:"color" json:"color"`
	Icon      string `db:"icon" json:"icon"`
	SortOrder int    `db:"sort_order" json:"sortOrder"`

	// AllowedTransitions lists status codes reachable from this one.
	// Empty means terminal.
	AllowedTransitions []string `db:"allowed_transitions" json:"allowedTransitions"`

	// NotifyCustomer triggers a customer email when an order enters
	// this status.
	NotifyCustomer bool `db:"notify_customer" json:"notifyCustomer"`
}

// New creates an active status.
func New(code, name string) *Status {
	return &Status{Coded: entity.NewCoded(code, name)}
}

// Validate implements entity.Validatable.
func (s *Status) Validate(ctx context.Context) error {
	if err := s.Coded.Validate(ctx); err != nil {
		return err
	}
	for _, target := range s.AllowedTransitions {
		if target == s.Code {
			return apperror.NewInvalidInput("status cannot transition to itself").
				WithDetail("code", s.Code)
		}
	}
	return nil
}

// IsTerminal reports whether no further transition is allowed.
func (s *Status) IsTerminal() bool {
	return len(s.AllowedTransitions) == 0
}

// CanTransitionTo reports whether target is a listed transition.
func (s *Status) CanTransitionTo(target string) bool {
	return slices.Contains(s.AllowedTransitions, target)
}

// Descriptor describes the codebook for the registry.
func Descriptor() codebook.Descriptor[*Status] {
	return codebook.Descriptor[*Status]{
		Name:  "order_status",
		Table: "order_statuses",
		New:   func() *Status { return &Status{} },
		Seed:  seed,
		Referrers: []codebook.Referrer{
			{Table: "orders", Column: "status_code", ByCode: true},
		},
	}
}

func seed() []*Status {
	mk := func(code, name, color, icon string, sort int, targets ...string) *Status {
		s := New(code, name)
		s.Color = color
		s.Icon = icon
		s.SortOrder = sort
		s.AllowedTransitions = targets
		return s
	}

	done := mk(Done, "Done", "#2e7d32", "check", 40, Invoiced)
	done.NotifyCustomer = true

	return []*Status{
		mk(Prepared, "Prepared", "#9e9e9e", "clipboard", 10, InWork),
		mk(InWork, "In work", "#1565c0", "wrench", 20, Waiting, Done),
		mk(Waiting, "Waiting for parts", "#ef6c00", "hourglass", 30, InWork),
		done,
		mk(Invoiced, "Invoiced", "#6a1b9a", "receipt", 50, Paid),
		mk(Paid, "Paid", "#1b5e20", "cash", 60),
		mk(Cancelled, "Cancelled", "#b71c1c", "cancel", 99),
	}
}

// ValidateGraph checks that every transition target exists in the set.
func ValidateGraph(statuses []*Status) error {
	known := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		known[s.Code] = true
	}
	for _, s := range statuses {
		for _, target := range s.AllowedTransitions {
			if !known[target] {
				return apperror.NewIntegrityViolation("status transition points at unknown status").
					WithDetail("from", s.Code).
					WithDetail("to", target)
			}
		}
	}
	return nil
}
