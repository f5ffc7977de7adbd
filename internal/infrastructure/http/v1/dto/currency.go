package dto

import "github.com/shopspring/decimal"

// UpdateRateRequest sets a currency rate against USD.
type UpdateRateRequest struct {
	RateToUSD decimal.Decimal `json:"rateToUsd"`
}

// ConvertQuery converts an amount between currencies.
type ConvertQuery struct {
	Amount string `form:"amount" binding:"required"`
	From   string `form:"from" binding:"omitempty,currency"`
	To     string `form:"to" binding:"omitempty,currency"`
}

// ConvertResponse is the converted amount.
type ConvertResponse struct {
	Amount    decimal.Decimal `json:"amount"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Converted decimal.Decimal `json:"converted"`
}
