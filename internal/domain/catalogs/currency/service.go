package currency

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"retailpos/internal/core/apperror"
	appctx "retailpos/internal/core/context"
	"retailpos/pkg/logger"
)

// Service resolves and maintains currency rates.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new currency service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// RateToUSD returns units of code per one USD.
// Unknown codes fail with an INVALID_CURRENCY validation error.
func (s *Service) RateToUSD(ctx context.Context, code string) (decimal.Decimal, error) {
	code = NormalizeCode(code)
	if code == BaseCode {
		return decimal.NewFromInt(1), nil
	}
	r, err := s.repo.Get(ctx, code)
	if err != nil {
		if apperror.IsNotFound(err) {
			return decimal.Zero, apperror.NewInvalidCurrency(code)
		}
		return decimal.Zero, err
	}
	if !r.RateToUSD.IsPositive() {
		return decimal.Zero, apperror.NewInvalidCurrency(code)
	}
	return r.RateToUSD, nil
}

// Convert converts amount between two currencies through USD, rounded to cents.
func (s *Service) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	fromRate, err := s.RateToUSD(ctx, from)
	if err != nil {
		return decimal.Zero, err
	}
	toRate, err := s.RateToUSD(ctx, to)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Div(fromRate).Mul(toRate).Round(2), nil
}

// UpdateRate stores a new rate. Administrators only.
func (s *Service) UpdateRate(ctx context.Context, code string, rate decimal.Decimal) (*Rate, error) {
	if !appctx.IsAdmin(ctx) {
		return nil, apperror.NewForbidden("only administrators can update currency rates")
	}

	r := &Rate{Code: NormalizeCode(code), RateToUSD: rate, UpdatedAt: s.now().UTC()}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, r); err != nil {
		return nil, err
	}

	logger.Info(ctx, "currency rate updated", "currency", r.Code, "rate_to_usd", r.RateToUSD.String())
	return r, nil
}

// List returns all known rates.
func (s *Service) List(ctx context.Context) ([]Rate, error) {
	return s.repo.List(ctx)
}
