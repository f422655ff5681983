package numbering

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		year int
		n    int64
		want string
	}{
		{2026, 1, "20260001"},
		{2026, 42, "20260042"},
		{2026, 9999, "20269999"},
		// The 10000th number in a year is permitted; width grows.
		{2026, 10000, "202610000"},
		{2027, 1, "20270001"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, Format(tt.year, tt.n))
	}
}

func TestMockAllocator_MonotonicPerYear(t *testing.T) {
	alloc := NewMockAllocator()
	ctx := context.Background()

	jan := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	first, err := alloc.Next(ctx, KindOrder, jan)
	require.NoError(t, err)
	second, err := alloc.Next(ctx, KindOrder, jan)
	require.NoError(t, err)

	require.Equal(t, "20260001", first)
	require.Equal(t, "20260002", second)

	// Invoice counter is independent of the order counter.
	inv, err := alloc.Next(ctx, KindInvoice, jan)
	require.NoError(t, err)
	require.Equal(t, "20260001", inv)

	// Year rollover restarts at 0001.
	nextYear := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	rolled, err := alloc.Next(ctx, KindOrder, nextYear)
	require.NoError(t, err)
	require.Equal(t, "20270001", rolled)
}
