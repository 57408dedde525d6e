package billing

import "strings"

// Kind discriminates the two document variants
type Kind string

const (
	KindQuote   Kind = "QUOTE"
	KindInvoice Kind = "INVOICE"
)

// IsValid checks if the kind is known
func (k Kind) IsValid() bool {
	return k == KindQuote || k == KindInvoice
}

// String returns the string representation of Kind
func (k Kind) String() string {
	return string(k)
}

// Label returns the lower case name used in messages
func (k Kind) Label() string {
	switch k {
	case KindQuote:
		return "quote"
	case KindInvoice:
		return "invoice"
	}
	return "document"
}

// ParseKind parses a kind, case-insensitively
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", validationError("Unknown document kind %q", s)
	}
	return k, nil
}
