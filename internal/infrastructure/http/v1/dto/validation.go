package dto

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"retailpos/internal/domain/catalogs/currency"
)

// RegisterValidators installs the custom binding tags:
//
//	currency  a currency code shape such as USD or VES (empty allowed, means USD)
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return v.RegisterValidation("currency", validateCurrency)
}

func validateCurrency(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	if raw == "" {
		return true
	}
	return currency.IsValidCode(currency.NormalizeCode(raw))
}
