package billing

import (
	"github.com/shopspring/decimal"
)

var (
	hundred    = decimal.NewFromInt(100)
	gstPortion = decimal.NewFromInt(10).Div(hundred)
	half       = decimal.New(5, -1)
)

// Totals is the output of Compute
type Totals struct {
	Subtotal   decimal.Decimal
	TaxAmount  decimal.Decimal
	TotalPrice decimal.Decimal
	// LineTotals is aligned with the input items
	LineTotals []decimal.Decimal
}

// ZeroTotals returns the totals of a document without lines or discount
func ZeroTotals() Totals {
	return Totals{
		Subtotal:   decimal.Zero,
		TaxAmount:  decimal.Zero,
		TotalPrice: decimal.Zero,
		LineTotals: []decimal.Decimal{},
	}
}

// Equal compares the document level amounts
func (t Totals) Equal(other Totals) bool {
	return t.Subtotal.Equal(other.Subtotal) &&
		t.TaxAmount.Equal(other.TaxAmount) &&
		t.TotalPrice.Equal(other.TotalPrice)
}

// round2 rounds to cents with halves going up, so -0.005 becomes 0.00
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Shift(2).Add(half).Floor().Shift(-2)
}

// lineAmounts returns the unrounded base and tax of one line
func lineAmounts(item LineItem) (base, tax decimal.Decimal) {
	base = item.Quantity.Mul(item.UnitPrice)
	tax = decimal.Zero
	if item.TaxRate == TaxRateGST {
		tax = base.Mul(gstPortion)
	}
	return base, tax
}

func validateItem(item LineItem) error {
	if item.Quantity.IsNegative() {
		return validationError("Line %d: quantity cannot be negative", item.Order)
	}
	if err := CheckAmount(item.Quantity); err != nil {
		return validationError("Line %d: quantity %s", item.Order, err)
	}
	if err := CheckAmount(item.UnitPrice); err != nil {
		return validationError("Line %d: unit price %s", item.Order, err)
	}
	if !item.TaxRate.IsValid() {
		return validationError("Line %d: tax rate must be 0 or 10, got %d", item.Order, item.TaxRate)
	}
	return nil
}

// Compute derives the document totals from its lines and discount.
//
// Line base is quantity * unit price and tax is 10% of the base for GST
// lines. Subtotal and tax are the rounded sums of the unrounded line values,
// the discount is applied to subtotal + tax and the result is rounded and
// floored at zero. Compute has no side effects.
func Compute(items []LineItem, discountType DiscountType, discountValue decimal.Decimal) (Totals, error) {
	discount := Discount{Type: discountType, Value: discountValue}
	if err := discount.Validate(); err != nil {
		return Totals{}, err
	}

	baseSum := decimal.Zero
	taxSum := decimal.Zero
	lineTotals := make([]decimal.Decimal, len(items))

	for idx, item := range items {
		if err := validateItem(item); err != nil {
			return Totals{}, err
		}
		base, tax := lineAmounts(item)
		lineTotals[idx] = round2(base.Add(tax))
		if err := CheckAmount(lineTotals[idx]); err != nil {
			return Totals{}, validationError("Line %d: total %s", item.Order, err)
		}
		baseSum = baseSum.Add(base)
		taxSum = taxSum.Add(tax)
	}

	subtotal := round2(baseSum)
	taxAmount := round2(taxSum)
	if err := CheckAmount(subtotal.Add(taxAmount)); err != nil {
		return Totals{}, validationError("Document total %s", err)
	}
	total := round2(discount.apply(subtotal.Add(taxAmount)))
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{
		Subtotal:   subtotal,
		TaxAmount:  taxAmount,
		TotalPrice: total,
		LineTotals: lineTotals,
	}, nil
}

// ComputeWithDiscount is Compute taking a Discount value
func ComputeWithDiscount(items []LineItem, discount Discount) (Totals, error) {
	return Compute(items, discount.Type, discount.Value)
}
