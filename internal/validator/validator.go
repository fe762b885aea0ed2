// internal/validator/validator.go
package validator

import (
	"reflect"
	"strings"

	"tesoreria/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var Validate *validator.Validate

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Money is validated as its exact decimal string.
	Validate.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
		if m, ok := v.Interface().(domain.Money); ok {
			return m.Decimal.String()
		}
		return nil
	}, domain.Money{})

	_ = Validate.RegisterValidation("positive", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.IsPositive()
	})

	_ = Validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	// Spanish month name in any case: "enero", "Enero".
	_ = Validate.RegisterValidation("month", func(fl validator.FieldLevel) bool {
		_, ok := domain.CanonicalMonth(fl.Field().String())
		return ok
	})

	// Four digit academic year: "2024".
	_ = Validate.RegisterValidation("year", func(fl validator.FieldLevel) bool {
		return domain.ValidYear(strings.TrimSpace(fl.Field().String()))
	})
}
