// Package numbering defines year-scoped document number allocation.
// Order and invoice numbers are public identities of the form YYYYNNNN,
// allocated atomically inside the transaction that inserts the document.
package numbering

import (
	"context"
	"fmt"
	"time"
)

// Kind identifies an independent counter sequence.
type Kind string

const (
	// KindOrder numbers service orders.
	KindOrder Kind = "order"
	// KindInvoice numbers invoices, independently of orders.
	KindInvoice Kind = "invoice"
)

// Allocator hands out monotonically increasing numbers per (kind, year).
// Two concurrent callers must receive distinct numbers; the counter resets
// to 1 on year rollover.
type Allocator interface {
	// Next returns the next formatted number for the calendar year of at.
	// Must be called inside the transaction that persists the document so
	// a rollback releases no observable gap.
	Next(ctx context.Context, kind Kind, at time.Time) (string, error)
}

// Format renders a sequence value as YYYYNNNN. The numeric part is
// zero-padded to four digits and grows wider past 9999.
func Format(year int, n int64) string {
	return fmt.Sprintf("%d%04d", year, n)
}
