package billing

import (
	"fmt"
	"strings"
)

// NumberFormat renders sequence values as document numbers, e.g. Q-0042
type NumberFormat struct {
	QuotePrefix   string
	InvoicePrefix string
	// Width is the minimum number of digits; shorter values are zero padded
	Width int
}

// DefaultNumberFormat returns the Q-0001 / INV-0001 format
func DefaultNumberFormat() NumberFormat {
	return NumberFormat{QuotePrefix: "Q-", InvoicePrefix: "INV-", Width: 4}
}

// Prefix returns the number prefix of kind
func (f NumberFormat) Prefix(kind Kind) string {
	if kind == KindInvoice {
		return f.InvoicePrefix
	}
	return f.QuotePrefix
}

// Format renders seq for kind
func (f NumberFormat) Format(kind Kind, seq int64) string {
	width := f.Width
	if width < 1 {
		width = 1
	}
	return fmt.Sprintf("%s%0*d", f.Prefix(kind), width, seq)
}

// Matches reports whether number carries the prefix of kind
func (f NumberFormat) Matches(kind Kind, number string) bool {
	return strings.HasPrefix(number, f.Prefix(kind))
}
