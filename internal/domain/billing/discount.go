package billing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DiscountType selects how a discount value is applied to the pre-discount total
type DiscountType string

const (
	DiscountDollar  DiscountType = "DOLLAR"
	DiscountPercent DiscountType = "PERCENT"
)

// IsValid checks if the discount type is known
func (t DiscountType) IsValid() bool {
	return t == DiscountDollar || t == DiscountPercent
}

// ParseDiscountType parses a discount type. An empty string means DOLLAR.
func ParseDiscountType(s string) (DiscountType, error) {
	if strings.TrimSpace(s) == "" {
		return DiscountDollar, nil
	}
	t := DiscountType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", validationError("Unknown discount type %q", s)
	}
	return t, nil
}

// Discount is a document level discount
type Discount struct {
	Type  DiscountType
	Value decimal.Decimal
}

// NoDiscount returns a zero dollar discount
func NoDiscount() Discount {
	return Discount{Type: DiscountDollar, Value: decimal.Zero}
}

// NewDiscount creates a validated discount
func NewDiscount(t DiscountType, value decimal.Decimal) (Discount, error) {
	d := Discount{Type: t, Value: value}
	if err := d.Validate(); err != nil {
		return Discount{}, err
	}
	return d, nil
}

// Validate checks the discount type and that the value is a storable
// non-negative amount
func (d Discount) Validate() error {
	if !d.normalizedType().IsValid() {
		return validationError("Unknown discount type %q", d.Type)
	}
	if d.Value.IsNegative() {
		return validationError("Discount value cannot be negative")
	}
	if err := CheckAmount(d.Value); err != nil {
		return validationError("Discount value %s", err)
	}
	return nil
}

// IsZero reports whether the discount changes nothing
func (d Discount) IsZero() bool {
	return d.Value.IsZero()
}

// Equal reports whether two discounts are the same
func (d Discount) Equal(other Discount) bool {
	return d.normalizedType() == other.normalizedType() && d.Value.Equal(other.Value)
}

func (d Discount) normalizedType() DiscountType {
	if d.Type == "" {
		return DiscountDollar
	}
	return d.Type
}

// apply returns total reduced by the discount, unclamped and unrounded
func (d Discount) apply(total decimal.Decimal) decimal.Decimal {
	switch d.normalizedType() {
	case DiscountPercent:
		return total.Sub(total.Mul(d.Value).Div(hundred))
	default:
		return total.Sub(d.Value)
	}
}
