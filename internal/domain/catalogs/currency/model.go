// Package currency resolves currency codes to their rate against USD.
// A rate is the number of currency units per one USD; USD itself is always 1.
package currency

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"retailpos/internal/core/apperror"
)

// BaseCode is the accounting currency.
const BaseCode = "USD"

var codePattern = regexp.MustCompile(`^[A-Z]{3,10}$`)

// Rate is one row of the currency-rate table.
type Rate struct {
	Code      string          `db:"currency_code" json:"currencyCode"`
	RateToUSD decimal.Decimal `db:"rate_to_usd" json:"rateToUsd"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}

// NormalizeCode upper-cases and trims a currency code. Empty means USD.
func NormalizeCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return BaseCode
	}
	return code
}

// IsValidCode reports whether code has the expected shape.
func IsValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// Validate checks the rate before it is stored.
func (r *Rate) Validate() error {
	if !IsValidCode(r.Code) {
		return apperror.NewInvalidCurrency(r.Code)
	}
	if !r.RateToUSD.IsPositive() {
		return apperror.NewValidation("rate must be greater than zero").
			WithDetail("field", "rateToUsd")
	}
	if r.Code == BaseCode && !r.RateToUSD.Equal(decimal.NewFromInt(1)) {
		return apperror.NewValidation("USD rate is fixed at 1")
	}
	return nil
}
