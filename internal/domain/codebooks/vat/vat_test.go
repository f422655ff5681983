package vat_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/core/apperror"
	"workshop/internal/core/types"
	"workshop/internal/domain/codebook/codebooktest"
	"workshop/internal/domain/codebooks/vat"
)

func windowedRate(code string, percent int64, from, to string) *vat.Rate {
	r := vat.NewRate(code, code, vat.SlotBasic, decimal.NewFromInt(percent))
	if from != "" {
		d, _ := types.ParseDate(from)
		r.ValidFrom = &d
	}
	if to != "" {
		d, _ := types.ParseDate(to)
		r.ValidTo = &d
	}
	return r
}

func TestResolve_WindowBoundariesInclusive(t *testing.T) {
	a := windowedRate("a", 21, "2023-01-01", "2023-12-31")
	b := windowedRate("b", 21, "2024-01-01", "")
	rates := []*vat.Rate{a, b}

	tests := []struct {
		date string
		want string
	}{
		{"2023-01-01", "a"},
		{"2023-12-31", "a"},
		{"2024-01-01", "b"},
		{"2030-06-15", "b"},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			on, err := types.ParseDate(tt.date)
			require.NoError(t, err)

			got, err := vat.Resolve(rates, vat.SlotBasic, on)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Code)
		})
	}
}

func TestResolve_OutOfWindow(t *testing.T) {
	rates := []*vat.Rate{
		windowedRate("a", 21, "2023-01-01", "2023-12-31"),
		windowedRate("b", 21, "2024-01-01", ""),
	}

	on, _ := types.ParseDate("2022-12-31")
	_, err := vat.Resolve(rates, vat.SlotBasic, on)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeOutOfWindow))
}

func TestResolve_DefaultWinsTies(t *testing.T) {
	a := windowedRate("a", 21, "", "")
	b := windowedRate("b", 19, "", "")
	b.IsDefault = true

	got, err := vat.Resolve([]*vat.Rate{a, b}, vat.SlotBasic, types.Today())
	require.NoError(t, err)
	assert.Equal(t, "b", got.Code)
}

func TestResolve_LatestValidFromWins(t *testing.T) {
	old := windowedRate("old", 19, "2020-01-01", "")
	newer := windowedRate("newer", 21, "2024-01-01", "")

	on, _ := types.ParseDate("2024-06-01")
	got, err := vat.Resolve([]*vat.Rate{old, newer}, vat.SlotBasic, on)
	require.NoError(t, err)
	assert.Equal(t, "newer", got.Code)
}

func TestResolve_IgnoresInactiveAndOtherSlots(t *testing.T) {
	inactive := windowedRate("inactive", 21, "", "")
	inactive.Active = false
	reduced := vat.NewRate("reduced", "reduced", vat.SlotReduced, decimal.NewFromInt(12))

	_, err := vat.Resolve([]*vat.Rate{inactive, reduced}, vat.SlotBasic, types.Today())
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeOutOfWindow))
}

func TestService_GuardSingleDefault(t *testing.T) {
	ctx := context.Background()
	repo := codebooktest.NewMemRepo[*vat.Rate]("vat_rates")
	svc := vat.NewService(repo, codebooktest.NopTxManager{})

	_, err := svc.SeedDefaults(ctx)
	require.NoError(t, err)

	another := vat.NewRate("basic2", "Another default", vat.SlotBasic, decimal.NewFromInt(21))
	another.IsDefault = true
	err = svc.Create(ctx, another)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))
}

func TestService_DefaultPercent(t *testing.T) {
	ctx := context.Background()
	repo := codebooktest.NewMemRepo[*vat.Rate]("vat_rates")
	svc := vat.NewService(repo, codebooktest.NopTxManager{})

	_, err := svc.SeedDefaults(ctx)
	require.NoError(t, err)

	percent, err := svc.DefaultPercent(ctx, types.Today())
	require.NoError(t, err)
	assert.True(t, percent.Equal(decimal.NewFromInt(21)))
}

func TestRate_ValidateWindow(t *testing.T) {
	bad := windowedRate("bad", 21, "2024-01-01", "2023-01-01")
	err := bad.Validate(context.Background())
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))
}
