package postgres

import (
	"context"
	"fmt"
	"time"

	"workshop/internal/core/numbering"
)

// SequenceAllocator allocates year-scoped document numbers through a
// single-row counter table. The UPSERT serializes concurrent callers:
// two transactions allocating for the same (kind, year) queue on the row
// lock and receive distinct values.
type SequenceAllocator struct {
	txm *TxManager
}

// NewSequenceAllocator creates an allocator bound to the store handle.
func NewSequenceAllocator(txm *TxManager) *SequenceAllocator {
	return &SequenceAllocator{txm: txm}
}

var _ numbering.Allocator = (*SequenceAllocator)(nil)

// Next implements numbering.Allocator. It runs on the caller's transaction
// when one is in context, so a rolled-back document releases its number
// only as a gap, never as a duplicate.
func (a *SequenceAllocator) Next(ctx context.Context, kind numbering.Kind, at time.Time) (string, error) {
	querier := a.txm.GetQuerier(ctx)

	var n int64
	err := querier.QueryRow(ctx, `
		INSERT INTO doc_sequences (kind, year, current_val)
		VALUES ($1, $2, 1)
		ON CONFLICT (kind, year) DO UPDATE SET current_val = doc_sequences.current_val + 1
		RETURNING current_val
	`, string(kind), at.Year()).Scan(&n)
	if err != nil {
		return "", fmt.Errorf("next %s number: %w", kind, err)
	}

	return numbering.Format(at.Year(), n), nil
}
