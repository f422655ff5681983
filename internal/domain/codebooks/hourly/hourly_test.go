package hourly_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/core/apperror"
	"workshop/internal/core/types"
	"workshop/internal/domain/codebook/codebooktest"
	"workshop/internal/domain/codebooks/hourly"
)

func newService(t *testing.T) (*hourly.Service, *codebooktest.MemRepo[*hourly.Rate]) {
	t.Helper()
	repo := codebooktest.NewMemRepo[*hourly.Rate]("hourly_rates")
	return hourly.NewService(repo, codebooktest.NopTxManager{}), repo
}

func rate(code string, net int64, from, to string) *hourly.Rate {
	fromDate, _ := types.ParseDate(from)
	r := hourly.NewRate(code, code, decimal.NewFromInt(net), decimal.NewFromInt(21), fromDate)
	if to != "" {
		d, _ := types.ParseDate(to)
		r.ValidTo = &d
	}
	return r
}

func TestRecomputeGross(t *testing.T) {
	r := hourly.NewRate("std", "Standard", decimal.NewFromInt(800), decimal.NewFromInt(21), types.Today())
	assert.Equal(t, "968", r.RateGross.String())

	r.RateNet = decimal.RequireFromString("654.30")
	r.RecomputeGross()
	// 654.30 * 1.21 = 791.703, rounded half up to 791.70
	assert.Equal(t, "791.7", r.RateGross.String())
}

func TestCreate_DerivesGrossEvenWhenCallerLies(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	r := rate("std", 1000, "2024-01-01", "")
	r.RateGross = decimal.NewFromInt(1) // caller-supplied value is ignored
	require.NoError(t, svc.Create(ctx, r))

	got, err := repo.GetByID(ctx, r.GetID())
	require.NoError(t, err)
	assert.Equal(t, "1210", got.RateGross.String())
}

func TestCreate_RejectsOverlappingWindows(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	require.NoError(t, svc.Create(ctx, rate("y2024", 800, "2024-01-01", "2024-12-31")))

	err := svc.Create(ctx, rate("overlap", 900, "2024-06-01", ""))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeIntegrityViolation))

	// Adjacent window is fine.
	require.NoError(t, svc.Create(ctx, rate("y2025", 900, "2025-01-01", "")))
}

func TestCreate_AllowsOverlapAcrossPositions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	mechanic := "mechanic"
	electrician := "electrician"

	a := rate("mech", 800, "2024-01-01", "")
	a.PositionCode = &mechanic
	b := rate("elec", 950, "2024-01-01", "")
	b.PositionCode = &electrician

	require.NoError(t, svc.Create(ctx, a))
	require.NoError(t, svc.Create(ctx, b))
}

func TestEffectiveOn(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	mechanic := "mechanic"
	scoped := rate("mech2024", 850, "2024-01-01", "")
	scoped.PositionCode = &mechanic

	require.NoError(t, svc.Create(ctx, rate("base2023", 700, "2023-01-01", "2023-12-31")))
	require.NoError(t, svc.Create(ctx, rate("base2024", 800, "2024-01-01", "")))
	require.NoError(t, svc.Create(ctx, scoped))

	on, _ := types.ParseDate("2024-03-01")

	// Position-scoped rate beats the shop-wide one.
	got, err := svc.EffectiveOn(ctx, "mechanic", on)
	require.NoError(t, err)
	assert.Equal(t, "mech2024", got.Code)

	// Unknown position falls back to the shop-wide rate.
	got, err = svc.EffectiveOn(ctx, "master", on)
	require.NoError(t, err)
	assert.Equal(t, "base2024", got.Code)

	// Before every window.
	before, _ := types.ParseDate("2022-01-01")
	_, err = svc.EffectiveOn(ctx, "mechanic", before)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeOutOfWindow))
}
