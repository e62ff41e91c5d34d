package validate

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/paybridge/paybridge/infra/config"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// CustomValidate registers gateway-specific validation rules with the shared
// validator instance
func CustomValidate() {
	v := config.App().Validator

	_ = v.RegisterValidation("currency_code", func(fl validator.FieldLevel) bool {
		return currencyPattern.MatchString(fl.Field().String())
	})

	_ = v.RegisterValidation("minor_units", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() > 0
	})
}
