package dto

import (
	"github.com/shopspring/decimal"

	"retailpos/internal/domain/catalogs/product"
)

// ProductRequest carries the editable catalog fields. Stock is only read on
// create, where it becomes the opening balance.
type ProductRequest struct {
	Name               string          `json:"name" binding:"required,max=200"`
	ProductType        string          `json:"productType" binding:"max=100"`
	Brand              string          `json:"brand" binding:"max=100"`
	Model              string          `json:"model" binding:"max=100"`
	MeasureQuantity    decimal.Decimal `json:"measureQuantity"`
	MeasureUnit        string          `json:"measureUnit" binding:"max=20"`
	Description        string          `json:"description"`
	InvoiceNote        string          `json:"invoiceNote"`
	CostUSD            decimal.Decimal `json:"costUsd"`
	BasePrice          decimal.Decimal `json:"basePrice"`
	FinalCustomerPrice decimal.Decimal `json:"finalCustomerPrice"`
	WholesalePrice     decimal.Decimal `json:"wholesalePrice"`
	RetailPrice        decimal.Decimal `json:"retailPrice"`
	CurrencyCode       string          `json:"currencyCode" binding:"omitempty,currency"`
	Stock              int             `json:"stock" binding:"min=0"`
}

// ToProduct converts to the domain model.
func (r ProductRequest) ToProduct() product.Product {
	return product.Product{
		Name:               r.Name,
		ProductType:        r.ProductType,
		Brand:              r.Brand,
		Model:              r.Model,
		MeasureQuantity:    r.MeasureQuantity,
		MeasureUnit:        r.MeasureUnit,
		Description:        r.Description,
		InvoiceNote:        r.InvoiceNote,
		CostUSD:            r.CostUSD,
		BasePrice:          r.BasePrice,
		FinalCustomerPrice: r.FinalCustomerPrice,
		WholesalePrice:     r.WholesalePrice,
		RetailPrice:        r.RetailPrice,
		CurrencyCode:       r.CurrencyCode,
		Stock:              r.Stock,
	}
}

// ProductListQuery filters the product directory.
type ProductListQuery struct {
	PageQuery
	Search          string `form:"search"`
	IncludeInactive bool   `form:"includeInactive"`
	LowStockOnly    bool   `form:"lowStock"`
}

// ToFilter converts to the domain filter.
func (q ProductListQuery) ToFilter(lowStockLimit int) product.ListFilter {
	return product.ListFilter{
		Search:          q.Search,
		IncludeInactive: q.IncludeInactive,
		LowStockOnly:    q.LowStockOnly,
		LowStockLimit:   lowStockLimit,
		Page:            q.Page(),
	}
}
