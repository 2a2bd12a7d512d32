package handlers

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/asso7/concert_ledger/internal/utils/accounting"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var registerValidatorsOnce sync.Once

// registerValidators teaches gin's validator about decimal amounts:
//
//	money        non-negative, at most two decimal places
//	signedmoney  any sign, at most two decimal places
func registerValidators() error {
	var err error
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		v.RegisterCustomTypeFunc(decimalAsString, decimal.Decimal{})
		if err = v.RegisterValidation("money", validateMoney(false)); err != nil {
			return
		}
		err = v.RegisterValidation("signedmoney", validateMoney(true))
	})
	return err
}

func decimalAsString(field reflect.Value) any {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

func validateMoney(allowNegative bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		raw, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return false
		}
		if d.IsNegative() && !allowNegative {
			return false
		}
		return accounting.HasMoneyPrecision(d)
	}
}
