// Package reports aggregates invoices, purchases and stock into management reports.
package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"retailpos/internal/core/id"
)

const dateLayout = "2006-01-02"

// Period is an inclusive range of UTC calendar days.
type Period struct {
	From time.Time
	To   time.Time
}

// Start is the first instant of the period.
func (p Period) Start() time.Time { return p.From }

// End is the first instant after the period.
func (p Period) End() time.Time { return p.To.AddDate(0, 0, 1) }

// Days returns the calendar days of the period in order.
func (p Period) Days() []time.Time {
	var out []time.Time
	for d := p.From; !d.After(p.To); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// --- Range report ---

// SaleLine is one line of a non-voided invoice, with the amounts stored at
// pricing time.
type SaleLine struct {
	InvoiceCode  string    `db:"invoice_code" json:"invoiceCode"`
	SaleDate     time.Time `db:"sale_date" json:"saleDate"`
	SellerUserID string    `db:"seller_user_id" json:"sellerUserId"`
	SellerName   string    `db:"seller_name" json:"sellerName"`

	ProductID   id.ID  `db:"product_id" json:"productId"`
	ProductName string `db:"product_name" json:"productName"`
	ProductType string `db:"product_type" json:"productType"`
	Brand       string `db:"brand" json:"brand"`
	Model       string `db:"model" json:"model"`
	Quantity    int    `db:"quantity" json:"quantity"`

	TotalUSD      decimal.Decimal `db:"total_usd" json:"lineTotalUsd"`
	DiscountUSD   decimal.Decimal `db:"discount_amount_usd" json:"discountLineUsd"`
	PaidUSD       decimal.Decimal `db:"paid_amount_usd" json:"amountPaidLineUsd"`
	CostUSD       decimal.Decimal `db:"cost_usd" json:"costLineUsd"`
	ProfitUSD     decimal.Decimal `db:"profit_usd" json:"profitLineUsd"`
	CommissionPct decimal.Decimal `db:"commission_pct" json:"commissionPct"`
	CommissionUSD decimal.Decimal `db:"commission_amount_usd" json:"commissionLineUsd"`

	PaymentCurrencyCode string          `db:"payment_currency_code" json:"paymentCurrencyCode"`
	PaymentAmountUSD    decimal.Decimal `db:"payment_amount_usd" json:"paymentAmountUsd"`
}

// PurchaseLine is a purchase joined with its product.
type PurchaseLine struct {
	ID           id.ID           `db:"id" json:"id"`
	ProductID    id.ID           `db:"product_id" json:"productId"`
	ProductName  string          `db:"product_name" json:"productName"`
	Quantity     int             `db:"quantity" json:"quantity"`
	UnitCostUSD  decimal.Decimal `db:"unit_cost_usd" json:"unitCostUsd"`
	TotalUSD     decimal.Decimal `db:"total_usd" json:"totalUsd"`
	SupplierName string          `db:"supplier_name" json:"supplierName"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
}

// Summary totals a range report.
type Summary struct {
	SalesUSD           decimal.Decimal `json:"salesUsd"`
	AmountPaidUSD      decimal.Decimal `json:"amountPaidUsd"`
	CostOfSalesUSD     decimal.Decimal `json:"costOfSalesUsd"`
	GrossProfitUSD     decimal.Decimal `json:"grossProfitUsd"`
	GrossMarginPct     decimal.Decimal `json:"grossMarginPct"`
	CommissionPct      decimal.Decimal `json:"salesCommissionPct"`
	CommissionTotalUSD decimal.Decimal `json:"commissionTotalUsd"`
	PurchasesUSD       decimal.Decimal `json:"purchasesUsd"`
}

// RangeReport is the sales and purchases report of a period.
type RangeReport struct {
	From            string         `json:"rangeFrom"`
	To              string         `json:"rangeTo"`
	Summary         Summary        `json:"summary"`
	SalesLines      []SaleLine     `json:"salesLines"`
	Purchases       []PurchaseLine `json:"purchases"`
	Recommendations []string       `json:"recommendations"`
}

// --- Commission by seller ---

// SellerCommission totals the lines sold by one seller.
type SellerCommission struct {
	SellerUserID  string          `json:"sellerUserId,omitempty"`
	SellerName    string          `json:"sellerName"`
	InvoiceCount  int             `json:"invoiceCount"`
	LineCount     int             `json:"lineCount"`
	AmountPaidUSD decimal.Decimal `json:"amountPaidUsd"`
	CostUSD       decimal.Decimal `json:"costUsd"`
	ProfitUSD     decimal.Decimal `json:"profitUsd"`
	CommissionUSD decimal.Decimal `json:"commissionUsd"`
}

// CommissionTotals sums all sellers.
type CommissionTotals struct {
	AmountPaidUSD decimal.Decimal `json:"amountPaidUsd"`
	CostUSD       decimal.Decimal `json:"costUsd"`
	ProfitUSD     decimal.Decimal `json:"profitUsd"`
	CommissionUSD decimal.Decimal `json:"commissionUsd"`
}

// CommissionReport is the per-seller commission report of a period.
type CommissionReport struct {
	From          string             `json:"rangeFrom"`
	To            string             `json:"rangeTo"`
	CommissionPct decimal.Decimal    `json:"commissionPct"`
	Summary       CommissionTotals   `json:"summary"`
	Sellers       []SellerCommission `json:"sellers"`
}

// --- KPIs, daily, dashboard ---

// Totals are aggregate amounts of a time window by creation date.
type Totals struct {
	SalesUSD     decimal.Decimal `db:"sales_usd"`
	DiscountsUSD decimal.Decimal `db:"discounts_usd"`
	PurchasesUSD decimal.Decimal `db:"purchases_usd"`
}

// KPIs are the rolling seven day indicators.
type KPIs struct {
	Range          string          `json:"range"`
	CurrencyCode   string          `json:"currencyCode"`
	SalesUSD       decimal.Decimal `json:"salesUsd"`
	DiscountsUSD   decimal.Decimal `json:"discountsUsd"`
	PurchasesUSD   decimal.Decimal `json:"purchasesUsd"`
	GrossMarginUSD decimal.Decimal `json:"grossMarginUsd"`
}

// DailyReport is the sales and purchases of one day.
type DailyReport struct {
	Date         string          `json:"date"`
	SalesUSD     decimal.Decimal `json:"salesUsd"`
	PurchasesUSD decimal.Decimal `json:"purchasesUsd"`
}

// DayTotals are the sales and purchases of one calendar day.
type DayTotals struct {
	Day          time.Time       `db:"day"`
	SalesUSD     decimal.Decimal `db:"sales_usd"`
	PurchasesUSD decimal.Decimal `db:"purchases_usd"`
}

// ProductCounts counts the catalog.
type ProductCounts struct {
	Total    int `db:"total"`
	LowStock int `db:"low_stock"`
}

// DashboardSummary is the landing page summary of a period.
type DashboardSummary struct {
	From             string          `json:"rangeFrom"`
	To               string          `json:"rangeTo"`
	Brand            string          `json:"brand"`
	TotalArticles    int             `json:"totalArticles"`
	LowStockArticles int             `json:"lowStockArticles"`
	SalesUSD         decimal.Decimal `json:"salesUsd"`
	PurchasesUSD     decimal.Decimal `json:"purchasesUsd"`
	GrossMarginUSD   decimal.Decimal `json:"grossMarginUsd"`
}

// TimeseriesPoint is one day of the dashboard chart.
type TimeseriesPoint struct {
	Date           string          `json:"date"`
	SalesUSD       decimal.Decimal `json:"salesUsd"`
	PurchasesUSD   decimal.Decimal `json:"purchasesUsd"`
	GrossMarginUSD decimal.Decimal `json:"grossMarginUsd"`
}

// Timeseries is a gap-free daily series over a period.
type Timeseries struct {
	From    string            `json:"rangeFrom"`
	To      string            `json:"rangeTo"`
	GroupBy string            `json:"groupBy"`
	Points  []TimeseriesPoint `json:"points"`
}
