// Package settings exposes the typed system settings (tax, rounding, commission,
// receipt header) that pricing and commission read on every call.
package settings

import (
	"slices"
	"strconv"
	"strings"
)

// Setting keys.
const (
	KeyTaxEnabled            = "invoice_tax_enabled"
	KeyTaxPercent            = "invoice_tax_percent"
	KeyRoundingMode          = "sales_rounding_mode"
	KeyCommissionPct         = "sales_commission_pct"
	KeyShowDiscount          = "show_discount_in_invoice"
	KeyAutoDiscountThreshold = "auto_discount_threshold_usd"
	KeyAutoDiscountPct       = "auto_discount_pct"
	KeyCompanyName           = "receipt_company_name"
	KeyCompanyPhone          = "receipt_company_phone"
	KeyCompanyAddress        = "receipt_company_address"
	KeyCompanyTaxID          = "receipt_company_rif"
)

// Rounding modes for the invoice total.
const (
	RoundingNone           = "none"
	RoundingNearestInteger = "nearest_integer"
)

// Kind is the value type of a setting.
type Kind string

const (
	KindBool   Kind = "bool"
	KindFloat  Kind = "float"
	KindEnum   Kind = "enum"
	KindString Kind = "string"
)

// Definition describes one known setting.
type Definition struct {
	Key     string   `json:"key"`
	Kind    Kind     `json:"kind"`
	Default string   `json:"default"`
	Options []string `json:"options,omitempty"`
}

var definitions = []Definition{
	{Key: KeyTaxEnabled, Kind: KindBool, Default: "false"},
	{Key: KeyTaxPercent, Kind: KindFloat, Default: "16"},
	{Key: KeyRoundingMode, Kind: KindEnum, Default: RoundingNone, Options: []string{RoundingNone, RoundingNearestInteger}},
	{Key: KeyCommissionPct, Kind: KindFloat, Default: "7"},
	{Key: KeyShowDiscount, Kind: KindBool, Default: "true"},
	{Key: KeyAutoDiscountThreshold, Kind: KindFloat, Default: "300"},
	{Key: KeyAutoDiscountPct, Kind: KindFloat, Default: "7"},
	{Key: KeyCompanyName, Kind: KindString, Default: "RIDAX"},
	{Key: KeyCompanyPhone, Kind: KindString},
	{Key: KeyCompanyAddress, Kind: KindString},
	{Key: KeyCompanyTaxID, Kind: KindString},
}

// Definitions returns the catalog of known settings.
func Definitions() []Definition {
	return slices.Clone(definitions)
}

// Lookup finds the definition of key.
func Lookup(key string) (Definition, bool) {
	for _, d := range definitions {
		if d.Key == key {
			return d, true
		}
	}
	return Definition{}, false
}

// Normalize validates raw against the definition and returns its canonical form.
func (d Definition) Normalize(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	switch d.Kind {
	case KindBool:
		b, ok := parseBool(raw)
		if !ok {
			return "", false
		}
		return strconv.FormatBool(b), true
	case KindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f < 0 {
			return "", false
		}
		return strconv.FormatFloat(f, 'f', -1, 64), true
	case KindEnum:
		v := strings.ToLower(raw)
		if !slices.Contains(d.Options, v) {
			return "", false
		}
		return v, true
	default:
		if len(raw) > 120 {
			return "", false
		}
		return raw, true
	}
}

func parseBool(raw string) (bool, bool) {
	switch strings.ToLower(raw) {
	case "true", "1", "yes":
		return true, true
	case "false", "0", "no":
		return false, true
	}
	return false, false
}
