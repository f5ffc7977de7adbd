package currency

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailpos/internal/core/apperror"
	appctx "retailpos/internal/core/context"
)

type memRepo struct {
	rates map[string]Rate
}

func (m *memRepo) Get(_ context.Context, code string) (*Rate, error) {
	r, ok := m.rates[code]
	if !ok {
		return nil, apperror.NewNotFound("currency", code)
	}
	return &r, nil
}

func (m *memRepo) Upsert(_ context.Context, r *Rate) error {
	m.rates[r.Code] = *r
	return nil
}

func (m *memRepo) List(context.Context) ([]Rate, error) {
	out := make([]Rate, 0, len(m.rates))
	for _, r := range m.rates {
		out = append(out, r)
	}
	return out, nil
}

func newTestService() *Service {
	return NewService(&memRepo{rates: map[string]Rate{
		"USD": {Code: "USD", RateToUSD: decimal.NewFromInt(1)},
		"VES": {Code: "VES", RateToUSD: decimal.RequireFromString("36.5")},
		"EUR": {Code: "EUR", RateToUSD: decimal.RequireFromString("0.92")},
	}})
}

func TestRateToUSD(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	rate, err := svc.RateToUSD(ctx, " ves ")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("36.5")))

	rate, err = svc.RateToUSD(ctx, "")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))

	_, err = svc.RateToUSD(ctx, "XYZ")
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidCurrency))
}

func TestConvert(t *testing.T) {
	svc := newTestService()

	got, err := svc.Convert(context.Background(), decimal.NewFromInt(365), "VES", "EUR")
	require.NoError(t, err)
	assert.Equal(t, "9.2", got.String())
}

func TestUpdateRate(t *testing.T) {
	svc := newTestService()
	admin := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "a", IsAdmin: true})

	r, err := svc.UpdateRate(admin, "cop", decimal.NewFromInt(3900))
	require.NoError(t, err)
	assert.Equal(t, "COP", r.Code)

	_, err = svc.UpdateRate(admin, "USD", decimal.NewFromInt(2))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = svc.UpdateRate(admin, "VES", decimal.Zero)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = svc.UpdateRate(context.Background(), "VES", decimal.NewFromInt(40))
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))
}
