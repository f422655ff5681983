package currency_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/core/apperror"
	"workshop/internal/domain/codebook/codebooktest"
	"workshop/internal/domain/codebooks/currency"
)

type stubRateSource struct {
	rates map[string]decimal.Decimal
	err   error
}

func (s stubRateSource) Rates(ctx context.Context) (map[string]decimal.Decimal, error) {
	return s.rates, s.err
}

func newService(t *testing.T) (*currency.Service, *codebooktest.MemRepo[*currency.Currency]) {
	t.Helper()
	repo := codebooktest.NewMemRepo[*currency.Currency]("currencies")
	svc := currency.NewService(repo, codebooktest.NopTxManager{})
	_, err := svc.SeedDefaults(context.Background())
	require.NoError(t, err)
	return svc, repo
}

func TestConvert_ThroughBasePivot(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	// 100 EUR = 2500 CZK = 2500/23 USD = 108.6957 -> 108.70
	got, err := svc.Convert(ctx, decimal.NewFromInt(100), "EUR", "USD")
	require.NoError(t, err)
	assert.Equal(t, "108.7", got.String())

	// Into the base currency.
	got, err = svc.Convert(ctx, decimal.NewFromInt(100), "EUR", "CZK")
	require.NoError(t, err)
	assert.Equal(t, "2500", got.String())

	// Identity conversion.
	got, err = svc.Convert(ctx, decimal.RequireFromString("12.34"), "CZK", "CZK")
	require.NoError(t, err)
	assert.Equal(t, "12.34", got.String())
}

func TestConvert_DeactivatedCurrencyRefused(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	eur, err := repo.GetByKey(ctx, map[string]any{"iso_code": "EUR"})
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, eur.GetID()))

	// The deactivated row keeps its last rate; neither side of a
	// conversion may use it.
	_, err = svc.Convert(ctx, decimal.NewFromInt(100), "EUR", "USD")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))

	_, err = svc.Convert(ctx, decimal.NewFromInt(100), "USD", "EUR")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))

	// Active pairs still convert.
	got, err := svc.Convert(ctx, decimal.NewFromInt(100), "USD", "CZK")
	require.NoError(t, err)
	assert.Equal(t, "2300", got.String())
}

func TestConvert_RoundsToTargetPlaces(t *testing.T) {
	jpy := currency.New("JPY", "Japanese yen", "¥", decimal.RequireFromString("0.15"))
	jpy.DecimalPlaces = 0
	czk := currency.New("CZK", "Czech koruna", "Kč", decimal.NewFromInt(1))

	got := currency.Convert(decimal.NewFromInt(1000), czk, jpy)
	assert.Equal(t, "6667", got.String())
}

func TestCreate_SecondBaseRefused(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	second := currency.New("GBP", "Pound sterling", "£", decimal.NewFromInt(1))
	second.IsDefault = true

	err := svc.Create(ctx, second)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))
}

func TestValidate_BaseRatePinned(t *testing.T) {
	base := currency.New("CZK", "Czech koruna", "Kč", decimal.NewFromInt(2))
	base.IsDefault = true

	err := base.Validate(context.Background())
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))
}

func TestRefreshRates(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	result, err := svc.RefreshRates(ctx, stubRateSource{rates: map[string]decimal.Decimal{
		"EUR": decimal.RequireFromString("24.755"),
		"CHF": decimal.RequireFromString("26.1"), // not configured, ignored
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"EUR"}, result.Updated)
	assert.Equal(t, []string{"USD"}, result.Missing)

	eur, err := repo.GetByKey(ctx, map[string]any{"iso_code": "EUR"})
	require.NoError(t, err)
	assert.Equal(t, "24.755", eur.ExchangeRate.String())
	assert.NotNil(t, eur.RateRefreshedAt)

	// USD untouched, base untouched.
	usd, err := repo.GetByKey(ctx, map[string]any{"iso_code": "USD"})
	require.NoError(t, err)
	assert.Equal(t, "23", usd.ExchangeRate.String())
	assert.Nil(t, usd.RateRefreshedAt)

	czk, err := repo.GetByKey(ctx, map[string]any{"iso_code": "CZK"})
	require.NoError(t, err)
	assert.Equal(t, "1", czk.ExchangeRate.String())
}

func TestRefreshRates_FeedFailure(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.RefreshRates(ctx, stubRateSource{err: errors.New("connection refused")})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeExternalFailure))
}

func TestDelete_BaseRefused(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	base, err := repo.GetByKey(ctx, map[string]any{"iso_code": "CZK"})
	require.NoError(t, err)

	err = svc.Delete(ctx, base.GetID(), true)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))
}
