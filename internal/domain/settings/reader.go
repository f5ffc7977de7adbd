package settings

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Reader provides typed setting lookups with caller-supplied defaults.
type Reader interface {
	Bool(ctx context.Context, key string, def bool) (bool, error)
	Float(ctx context.Context, key string, def float64) (float64, error)
	String(ctx context.Context, key string, def string) (string, error)
}

// Store is the raw key/value persistence behind settings.
type Store interface {
	// Get returns the stored value; ok is false when the key is unset.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
}

// StoreReader implements Reader over a Store.
// Unset or unparsable values yield the default.
type StoreReader struct {
	store Store
}

// NewStoreReader creates a Reader backed by store.
func NewStoreReader(store Store) *StoreReader {
	return &StoreReader{store: store}
}

func (r *StoreReader) Bool(ctx context.Context, key string, def bool) (bool, error) {
	raw, ok, err := r.store.Get(ctx, key)
	if err != nil {
		return def, fmt.Errorf("read setting %s: %w", key, err)
	}
	if !ok {
		return def, nil
	}
	if b, valid := parseBool(raw); valid {
		return b, nil
	}
	return def, nil
}

func (r *StoreReader) Float(ctx context.Context, key string, def float64) (float64, error) {
	raw, ok, err := r.store.Get(ctx, key)
	if err != nil {
		return def, fmt.Errorf("read setting %s: %w", key, err)
	}
	if !ok {
		return def, nil
	}
	f, perr := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if perr != nil {
		return def, nil
	}
	return f, nil
}

func (r *StoreReader) String(ctx context.Context, key string, def string) (string, error) {
	raw, ok, err := r.store.Get(ctx, key)
	if err != nil {
		return def, fmt.Errorf("read setting %s: %w", key, err)
	}
	if !ok {
		return def, nil
	}
	return raw, nil
}

// Pricing is the settings snapshot consumed by the line pricer.
type Pricing struct {
	TaxEnabled            bool
	TaxPercent            decimal.Decimal
	RoundingMode          string
	ShowDiscount          bool
	AutoDiscountThreshold decimal.Decimal
	AutoDiscountPct       decimal.Decimal
}

// EffectiveTaxPct is the tax percent applied to invoices: zero unless tax is enabled.
func (p Pricing) EffectiveTaxPct() decimal.Decimal {
	if !p.TaxEnabled {
		return decimal.Zero
	}
	return p.TaxPercent
}

// SuggestedDiscount returns the automatic discount percent for subtotal.
func (p Pricing) SuggestedDiscount(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(p.AutoDiscountThreshold) {
		return p.AutoDiscountPct
	}
	return decimal.Zero
}

// LoadPricing reads a Pricing snapshot.
func LoadPricing(ctx context.Context, r Reader) (Pricing, error) {
	var p Pricing
	var err error

	if p.TaxEnabled, err = r.Bool(ctx, KeyTaxEnabled, false); err != nil {
		return p, err
	}
	tax, err := r.Float(ctx, KeyTaxPercent, 16.0)
	if err != nil {
		return p, err
	}
	p.TaxPercent = decimal.NewFromFloat(tax)

	mode, err := r.String(ctx, KeyRoundingMode, RoundingNone)
	if err != nil {
		return p, err
	}
	p.RoundingMode = RoundingNone
	if strings.EqualFold(strings.TrimSpace(mode), RoundingNearestInteger) {
		p.RoundingMode = RoundingNearestInteger
	}

	if p.ShowDiscount, err = r.Bool(ctx, KeyShowDiscount, true); err != nil {
		return p, err
	}
	threshold, err := r.Float(ctx, KeyAutoDiscountThreshold, 300)
	if err != nil {
		return p, err
	}
	p.AutoDiscountThreshold = decimal.NewFromFloat(threshold)
	autoPct, err := r.Float(ctx, KeyAutoDiscountPct, 7)
	if err != nil {
		return p, err
	}
	p.AutoDiscountPct = decimal.NewFromFloat(autoPct)
	return p, nil
}

// LoadCommissionPct reads the seller commission percent (default 7).
func LoadCommissionPct(ctx context.Context, r Reader) (decimal.Decimal, error) {
	pct, err := r.Float(ctx, KeyCommissionPct, 7.0)
	if err != nil {
		return decimal.Zero, err
	}
	if pct < 0 {
		pct = 0
	}
	return decimal.NewFromFloat(pct), nil
}

// Company is the receipt header.
type Company struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	TaxID   string `json:"rif"`
}

// LoadCompany reads the receipt header settings.
func LoadCompany(ctx context.Context, r Reader) (Company, error) {
	var c Company
	var err error
	if c.Name, err = r.String(ctx, KeyCompanyName, "RIDAX"); err != nil {
		return c, err
	}
	if c.Phone, err = r.String(ctx, KeyCompanyPhone, ""); err != nil {
		return c, err
	}
	if c.Address, err = r.String(ctx, KeyCompanyAddress, ""); err != nil {
		return c, err
	}
	if c.TaxID, err = r.String(ctx, KeyCompanyTaxID, ""); err != nil {
		return c, err
	}
	return c, nil
}
