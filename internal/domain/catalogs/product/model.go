// Package product is the product directory: catalog data, prices and stock.
package product

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"retailpos/internal/core/apperror"
	"retailpos/internal/core/id"
)

// Product is a sellable article. Products are never physically deleted.
type Product struct {
	ID                 id.ID           `db:"id" json:"id"`
	SKU                string          `db:"sku" json:"sku"`
	Name               string          `db:"name" json:"name"`
	ProductType        string          `db:"product_type" json:"productType"`
	Brand              string          `db:"brand" json:"brand"`
	Model              string          `db:"model" json:"model"`
	MeasureQuantity    decimal.Decimal `db:"measure_quantity" json:"measureQuantity"`
	MeasureUnit        string          `db:"measure_unit" json:"measureUnit"`
	Description        string          `db:"description" json:"description"`
	InvoiceNote        string          `db:"invoice_note" json:"invoiceNote"`
	CostUSD            decimal.Decimal `db:"cost_usd" json:"costUsd"`
	BasePrice          decimal.Decimal `db:"base_price" json:"basePrice"`
	FinalCustomerPrice decimal.Decimal `db:"final_customer_price" json:"finalCustomerPrice"`
	WholesalePrice     decimal.Decimal `db:"wholesale_price" json:"wholesalePrice"`
	RetailPrice        decimal.Decimal `db:"retail_price" json:"retailPrice"`
	CurrencyCode       string          `db:"currency_code" json:"currencyCode"`
	Stock              int             `db:"stock" json:"stock"`
	IsActive           bool            `db:"is_active" json:"isActive"`
	CreatedAt          time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updatedAt"`
	Version            int             `db:"version" json:"version"`
}

// Validate checks catalog data before insert/update.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if p.Stock < 0 {
		return apperror.NewValidation("stock cannot be negative").WithDetail("field", "stock")
	}
	if !p.MeasureQuantity.IsPositive() {
		return apperror.NewValidation("measure quantity must be positive").WithDetail("field", "measureQuantity")
	}
	prices := map[string]decimal.Decimal{
		"costUsd":            p.CostUSD,
		"basePrice":          p.BasePrice,
		"finalCustomerPrice": p.FinalCustomerPrice,
		"wholesalePrice":     p.WholesalePrice,
		"retailPrice":        p.RetailPrice,
	}
	for field, v := range prices {
		if v.IsNegative() {
			return apperror.NewValidation("price cannot be negative").WithDetail("field", field)
		}
	}
	return nil
}

// MeasureLabel renders quantity+unit, e.g. "15in" or "2.5L".
func (p *Product) MeasureLabel() string {
	return p.MeasureQuantity.String() + p.MeasureUnit
}

// HasStock reports whether qty units can be taken.
func (p *Product) HasStock(qty int) bool {
	return p.Stock >= qty
}
