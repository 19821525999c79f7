package transferful

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// validateReq runs struct-tag validation on a request and folds any
// failures into a single ErrBadRequest keyed by field name.
func validateReq(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ErrInternalServer
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = tagMessage(fe.Tag())
	}
	return ErrBadRequest{Fields: fields}
}

func tagMessage(tag string) string {
	switch tag {
	case "required":
		return "must hold value"
	case "iso3166_1_alpha2":
		return "is not a valid country code"
	case "iso4217":
		return "is not a valid currency code"
	case "oneof":
		return "is not a recognized value"
	default:
		return "is invalid"
	}
}

func currenciesMatch(want, got string) bool {
	return want == got
}

func sufficientBalance(balance, toWithdraw decimal.Decimal) bool {
	return balance.GreaterThanOrEqual(toWithdraw)
}
