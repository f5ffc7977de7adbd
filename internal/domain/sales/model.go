// Package sales is the invoice engine: line pricing, manual total override,
// commission allocation and the create/edit/void lifecycle.
package sales

import (
	"time"

	"github.com/shopspring/decimal"

	"retailpos/internal/core/id"
	"retailpos/internal/domain"
)

// Status of an invoice. Voided is terminal.
type Status string

const (
	StatusActive Status = "active"
	StatusEdited Status = "edited"
	StatusVoided Status = "voided"
)

// Invoice is the aggregate root: header fields are stored once and the
// invoice owns its ordered lines.
type Invoice struct {
	ID           id.ID  `db:"id" json:"id"`
	Code         string `db:"invoice_code" json:"invoiceCode"`
	CurrencyCode string `db:"currency_code" json:"currencyCode"`

	CustomerName    string `db:"customer_name" json:"customerName"`
	CustomerPhone   string `db:"customer_phone" json:"customerPhone"`
	CustomerAddress string `db:"customer_address" json:"customerAddress"`
	CustomerTaxID   string `db:"customer_rif" json:"customerRif"`

	SellerUserID string     `db:"seller_user_id" json:"sellerUserId"`
	SaleDate     *time.Time `db:"sale_date" json:"saleDate,omitempty"`

	PaymentCurrencyCode string          `db:"payment_currency_code" json:"paymentCurrencyCode"`
	PaymentAmount       decimal.Decimal `db:"payment_amount" json:"paymentAmount"`
	PaymentRateToUSD    decimal.Decimal `db:"payment_rate_to_usd" json:"paymentRateToUsd"`
	PaymentAmountUSD    decimal.Decimal `db:"payment_amount_usd" json:"paymentAmountUsd"`

	SubtotalUSD       decimal.Decimal `db:"subtotal_usd" json:"subtotalUsd"`
	DiscountPct       decimal.Decimal `db:"discount_pct" json:"discountPct"`
	DiscountAmountUSD decimal.Decimal `db:"discount_amount_usd" json:"discountAmountUsd"`
	TaxPct            decimal.Decimal `db:"tax_pct" json:"taxPct"`
	TaxAmountUSD      decimal.Decimal `db:"tax_amount_usd" json:"taxAmountUsd"`
	TotalUSD          decimal.Decimal `db:"total_usd" json:"totalUsd"`

	ManualTotalOverride    bool                `db:"manual_total_override" json:"manualTotalOverride"`
	ManualTotalInputUSD    decimal.NullDecimal `db:"manual_total_input_usd" json:"manualTotalInputUsd"`
	ManualTotalOriginalUSD decimal.NullDecimal `db:"manual_total_original_usd" json:"manualTotalOriginalUsd"`
	ManualTotalSetBy       string              `db:"manual_total_set_by" json:"manualTotalSetBy,omitempty"`
	ManualTotalSetAt       *time.Time          `db:"manual_total_set_at" json:"manualTotalSetAt,omitempty"`

	CommissionPct decimal.Decimal `db:"commission_pct" json:"commissionPct"`
	CommissionUSD decimal.Decimal `db:"commission_amount_usd" json:"commissionAmountUsd"`

	IsVoided   bool       `db:"is_voided" json:"isVoided"`
	VoidedAt   *time.Time `db:"voided_at" json:"voidedAt,omitempty"`
	VoidedBy   string     `db:"voided_by" json:"voidedBy,omitempty"`
	VoidReason string     `db:"void_reason" json:"voidReason,omitempty"`

	CreatedBy string    `db:"created_by" json:"createdBy"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	Version   int       `db:"version" json:"version"`

	Lines []Line `db:"-" json:"lines"`
}

// Status derives the lifecycle state.
func (inv *Invoice) Status() Status {
	switch {
	case inv.IsVoided:
		return StatusVoided
	case inv.Version > 1:
		return StatusEdited
	default:
		return StatusActive
	}
}

// IsOwnedBy reports whether userID sold or created the invoice.
func (inv *Invoice) IsOwnedBy(userID string) bool {
	return userID != "" && (inv.SellerUserID == userID || inv.CreatedBy == userID)
}

// EffectiveDate is the sale date, falling back to the creation date.
func (inv *Invoice) EffectiveDate() time.Time {
	if inv.SaleDate != nil {
		return *inv.SaleDate
	}
	return inv.CreatedAt
}

// Line is one product row of an invoice.
type Line struct {
	ID        id.ID  `db:"id" json:"id"`
	InvoiceID id.ID  `db:"invoice_id" json:"-"`
	Position  int    `db:"position" json:"position"`
	ProductID id.ID  `db:"product_id" json:"productId"`
	SKU       string `db:"sku" json:"sku"`
	Quantity  int    `db:"quantity" json:"quantity"`

	UnitPriceUSD decimal.Decimal `db:"unit_price_usd" json:"unitPriceUsd"`
	UnitCostUSD  decimal.Decimal `db:"unit_cost_usd" json:"unitCostUsd"`
	SubtotalUSD  decimal.Decimal `db:"subtotal_usd" json:"subtotalUsd"`
	DiscountUSD  decimal.Decimal `db:"discount_amount_usd" json:"discountAmountUsd"`
	TaxUSD       decimal.Decimal `db:"tax_amount_usd" json:"taxAmountUsd"`

	// BaseTotalUSD is the computed total before any manual override.
	BaseTotalUSD decimal.Decimal `db:"base_total_usd" json:"baseTotalUsd"`
	TotalUSD     decimal.Decimal `db:"total_usd" json:"totalUsd"`

	PaidUSD       decimal.Decimal `db:"paid_amount_usd" json:"paidAmountUsd"`
	CostUSD       decimal.Decimal `db:"cost_usd" json:"costUsd"`
	ProfitUSD     decimal.Decimal `db:"profit_usd" json:"profitUsd"`
	CommissionUSD decimal.Decimal `db:"commission_amount_usd" json:"commissionAmountUsd"`
}

// ItemInput is a requested (product, quantity) pair.
type ItemInput struct {
	ProductID id.ID
	Quantity  int
}

// Customer holds the billed party.
type Customer struct {
	Name    string
	Phone   string
	Address string
	TaxID   string
}

// CustomerPatch holds the customer fields an edit sets. Nil fields keep the
// stored value.
type CustomerPatch struct {
	Name    *string
	Phone   *string
	Address *string
	TaxID   *string
}

// CreateInput is a new invoice request.
type CreateInput struct {
	Customer     Customer
	CurrencyCode string
	// DiscountPct nil applies the suggested discount.
	DiscountPct  *decimal.Decimal
	SellerUserID string
	SaleDate     *time.Time

	PaymentCurrencyCode string
	// PaymentAmount nil defaults to the full total in the payment currency.
	PaymentAmount *decimal.Decimal
	ManualTotal   *decimal.Decimal

	ConfirmPossibleDuplicate bool
	Items                    []ItemInput
}

// EditInput edits an invoice. Nil Items is a header-only edit; non-nil Items
// replaces the line collection.
type EditInput struct {
	Customer     CustomerPatch
	SellerUserID string
	SaleDate     *time.Time

	PaymentCurrencyCode string
	PaymentAmount       *decimal.Decimal
	ManualTotal         *decimal.Decimal

	Items []ItemInput
}

// StockChange reports a stock movement caused by an invoice operation.
type StockChange struct {
	ProductID id.ID  `json:"productId"`
	SKU       string `json:"sku"`
	Delta     int    `json:"delta"`
	NewStock  int    `json:"newStock"`
}

// DuplicateCandidate is an active invoice with a matching total.
type DuplicateCandidate struct {
	Code         string          `db:"invoice_code" json:"invoiceCode"`
	TotalUSD     decimal.Decimal `db:"total_usd" json:"totalUsd"`
	CustomerName string          `db:"customer_name" json:"customerName"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
}

// CreateOutcome is the result of Create. When PossibleDuplicates is non-empty
// nothing was persisted and Invoice is nil.
type CreateOutcome struct {
	Invoice            *Invoice             `json:"invoice,omitempty"`
	PossibleDuplicates []DuplicateCandidate `json:"possibleDuplicates,omitempty"`
	StockChanges       []StockChange        `json:"stockChanges,omitempty"`
}

// EditOutcome is the result of Edit.
type EditOutcome struct {
	Invoice      *Invoice      `json:"invoice"`
	LinesChanged bool          `json:"linesChanged"`
	StockChanges []StockChange `json:"stockChanges,omitempty"`
}

// VoidOutcome is the result of voiding one invoice.
type VoidOutcome struct {
	Code         string        `json:"invoiceCode"`
	StockChanges []StockChange `json:"stockChanges"`
}

// ListFilter narrows invoice listings.
type ListFilter struct {
	Search        string
	SellerUserID  string
	From, To      *time.Time
	IncludeVoided bool
	domain.Page
}
