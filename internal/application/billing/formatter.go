package billing

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// AmountFormatter renders money amounts for display in one currency and locale,
// e.g. "$1,234.50" for AUD in en-AU
type AmountFormatter struct {
	unit    currency.Unit
	tag     language.Tag
	printer *message.Printer
}

// NewAmountFormatter creates a formatter for an ISO 4217 currency code and a
// BCP 47 locale
func NewAmountFormatter(currencyCode, locale string) (*AmountFormatter, error) {
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return nil, fmt.Errorf("invalid currency %q: %w", currencyCode, err)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	return &AmountFormatter{
		unit:    unit,
		tag:     tag,
		printer: message.NewPrinter(tag),
	}, nil
}

// Currency returns the ISO code of the formatter's currency
func (f *AmountFormatter) Currency() string {
	return f.unit.String()
}

// Locale returns the formatter's locale
func (f *AmountFormatter) Locale() string {
	return f.tag.String()
}

// Format renders amount with the local currency symbol and digit grouping
func (f *AmountFormatter) Format(amount decimal.Decimal) string {
	return f.render(f.printer.Sprint(currency.Symbol(f.unit)), amount)
}

// FormatISO renders amount with the ISO code, e.g. "AUD 1,234.50"
func (f *AmountFormatter) FormatISO(amount decimal.Decimal) string {
	return f.render(f.unit.String()+" ", amount)
}

func (f *AmountFormatter) render(prefix string, amount decimal.Decimal) string {
	rounded := amount.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	digits := f.printer.Sprint(number.Decimal(rounded.InexactFloat64(), number.Scale(2)))
	return sign + prefix + digits
}
