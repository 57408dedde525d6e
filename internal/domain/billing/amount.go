package billing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits stored for quantities,
// prices, discounts and totals
const AmountScale = 4

// MaxAmountDigits is the number of integer digits a stored amount may have
const MaxAmountDigits = 14

var amountLimit = decimal.New(1, MaxAmountDigits)

// CheckAmount reports why v cannot be stored exactly, or nil when it can
func CheckAmount(v decimal.Decimal) error {
	if !v.Truncate(AmountScale).Equal(v) {
		return fmt.Errorf("has more than %d decimal places", AmountScale)
	}
	if v.Abs().GreaterThanOrEqual(amountLimit) {
		return fmt.Errorf("has more than %d integer digits", MaxAmountDigits)
	}
	return nil
}
