package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"retailpos/internal/domain/catalogs/currency"
	"retailpos/internal/infrastructure/storage/postgres"
)

const currencyTable = "currency_rates"

var _ currency.Repository = (*CurrencyRepo)(nil)

// CurrencyRepo implements currency.Repository.
type CurrencyRepo struct {
	*postgres.Table[currency.Rate]
}

// NewCurrencyRepo creates a new currency rate repository.
func NewCurrencyRepo(txm *postgres.TxManager) *CurrencyRepo {
	return &CurrencyRepo{Table: postgres.NewTable[currency.Rate](txm, currencyTable, "currency")}
}

// Get retrieves the rate of code.
func (r *CurrencyRepo) Get(ctx context.Context, code string) (*currency.Rate, error) {
	return r.GetOne(ctx, r.SelectAll().Where(squirrel.Eq{"currency_code": code}), code)
}

// Upsert stores the rate, replacing any previous one.
func (r *CurrencyRepo) Upsert(ctx context.Context, rate *currency.Rate) error {
	q := postgres.Builder().
		Insert(currencyTable).
		Columns("currency_code", "rate_to_usd", "updated_at").
		Values(rate.Code, rate.RateToUSD, rate.UpdatedAt).
		Suffix("ON CONFLICT (currency_code) DO UPDATE SET rate_to_usd = EXCLUDED.rate_to_usd, updated_at = EXCLUDED.updated_at")

	if _, err := r.TxManager().Exec(ctx, q); err != nil {
		return postgres.MapError(err, "upsert currency rate", "currency")
	}
	return nil
}

// List returns all rates ordered by code.
func (r *CurrencyRepo) List(ctx context.Context) ([]currency.Rate, error) {
	var rates []currency.Rate
	if err := r.TxManager().Select(ctx, &rates, r.SelectAll().OrderBy("currency_code")); err != nil {
		return nil, postgres.MapError(err, "list currency rates", "currency")
	}
	return rates, nil
}
