package dto

import (
	"github.com/shopspring/decimal"

	"retailpos/internal/core/id"
	"retailpos/internal/domain/sales"
)

// CustomerRequest is the billed party.
type CustomerRequest struct {
	Name    string `json:"name" binding:"max=200"`
	Phone   string `json:"phone" binding:"max=50"`
	Address string `json:"address" binding:"max=500"`
	TaxID   string `json:"rif" binding:"max=50"`
}

func (c CustomerRequest) toDomain() sales.Customer {
	return sales.Customer{Name: c.Name, Phone: c.Phone, Address: c.Address, TaxID: c.TaxID}
}

// CustomerPatchRequest edits the billed party. Omitted fields are kept.
type CustomerPatchRequest struct {
	Name    *string `json:"name" binding:"omitempty,max=200"`
	Phone   *string `json:"phone" binding:"omitempty,max=50"`
	Address *string `json:"address" binding:"omitempty,max=500"`
	TaxID   *string `json:"rif" binding:"omitempty,max=50"`
}

func (c *CustomerPatchRequest) toDomain() sales.CustomerPatch {
	if c == nil {
		return sales.CustomerPatch{}
	}
	return sales.CustomerPatch{Name: c.Name, Phone: c.Phone, Address: c.Address, TaxID: c.TaxID}
}

// InvoiceItemRequest is one requested line.
type InvoiceItemRequest struct {
	ProductID id.ID `json:"productId" binding:"required"`
	Quantity  int   `json:"quantity"`
}

func toItems(in []InvoiceItemRequest) []sales.ItemInput {
	if in == nil {
		return nil
	}
	out := make([]sales.ItemInput, 0, len(in))
	for _, it := range in {
		out = append(out, sales.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}

// CreateInvoiceRequest creates a sale. Quantities are validated by the
// invoice engine so that the error names the offending product.
type CreateInvoiceRequest struct {
	Customer     CustomerRequest  `json:"customer"`
	CurrencyCode string           `json:"currencyCode" binding:"omitempty,currency"`
	DiscountPct  *decimal.Decimal `json:"discountPct"`
	SellerUserID string           `json:"sellerUserId"`
	SaleDate     string           `json:"saleDate"`

	PaymentCurrencyCode string           `json:"paymentCurrencyCode" binding:"omitempty,currency"`
	PaymentAmount       *decimal.Decimal `json:"paymentAmount"`
	ManualTotal         *decimal.Decimal `json:"manualTotalUsd"`

	ConfirmPossibleDuplicate bool                 `json:"confirmPossibleDuplicate"`
	Items                    []InvoiceItemRequest `json:"items" binding:"dive"`
}

// ToInput converts to the domain input.
func (r CreateInvoiceRequest) ToInput() (sales.CreateInput, error) {
	saleDate, err := ParseDate("saleDate", r.SaleDate)
	if err != nil {
		return sales.CreateInput{}, err
	}
	return sales.CreateInput{
		Customer:                 r.Customer.toDomain(),
		CurrencyCode:             r.CurrencyCode,
		DiscountPct:              r.DiscountPct,
		SellerUserID:             r.SellerUserID,
		SaleDate:                 saleDate,
		PaymentCurrencyCode:      r.PaymentCurrencyCode,
		PaymentAmount:            r.PaymentAmount,
		ManualTotal:              r.ManualTotal,
		ConfirmPossibleDuplicate: r.ConfirmPossibleDuplicate,
		Items:                    toItems(r.Items),
	}, nil
}

// EditInvoiceRequest edits an invoice. Omitting items keeps the lines.
type EditInvoiceRequest struct {
	Customer     *CustomerPatchRequest `json:"customer"`
	SellerUserID string                `json:"sellerUserId"`
	SaleDate     string                `json:"saleDate"`

	PaymentCurrencyCode string           `json:"paymentCurrencyCode" binding:"omitempty,currency"`
	PaymentAmount       *decimal.Decimal `json:"paymentAmount"`
	ManualTotal         *decimal.Decimal `json:"manualTotalUsd"`

	Items []InvoiceItemRequest `json:"items" binding:"omitempty,dive"`
}

// ToInput converts to the domain input.
func (r EditInvoiceRequest) ToInput() (sales.EditInput, error) {
	saleDate, err := ParseDate("saleDate", r.SaleDate)
	if err != nil {
		return sales.EditInput{}, err
	}
	return sales.EditInput{
		Customer:            r.Customer.toDomain(),
		SellerUserID:        r.SellerUserID,
		SaleDate:            saleDate,
		PaymentCurrencyCode: r.PaymentCurrencyCode,
		PaymentAmount:       r.PaymentAmount,
		ManualTotal:         r.ManualTotal,
		Items:               toItems(r.Items),
	}, nil
}

// VoidInvoiceRequest voids one invoice.
type VoidInvoiceRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// VoidManyRequest voids several invoices atomically.
type VoidManyRequest struct {
	Codes  []string `json:"invoiceCodes" binding:"required,min=1,max=200,dive,required"`
	Reason string   `json:"reason" binding:"max=500"`
}

// InvoiceListQuery filters invoice headers.
type InvoiceListQuery struct {
	PageQuery
	DateRangeQuery
	Search        string `form:"search"`
	SellerUserID  string `form:"sellerUserId"`
	IncludeVoided bool   `form:"includeVoided"`
}

// ToFilter converts to the domain filter.
func (q InvoiceListQuery) ToFilter() (sales.ListFilter, error) {
	from, to, err := q.Bounds()
	if err != nil {
		return sales.ListFilter{}, err
	}
	return sales.ListFilter{
		Search:        q.Search,
		SellerUserID:  q.SellerUserID,
		From:          from,
		To:            to,
		IncludeVoided: q.IncludeVoided,
		Page:          q.Page(),
	}, nil
}

// PossibleDuplicateResponse is returned with 409 when a matching recent
// invoice exists and the caller has not confirmed.
type PossibleDuplicateResponse struct {
	Code       string                     `json:"code"`
	Message    string                     `json:"message"`
	Candidates []sales.DuplicateCandidate `json:"candidates"`
}
