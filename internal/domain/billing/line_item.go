package billing

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxRate is a per-line tax percentage
type TaxRate int

const (
	TaxRateNone TaxRate = 0
	TaxRateGST  TaxRate = 10
)

// IsValid checks if the rate is one of the supported percentages
func (r TaxRate) IsValid() bool {
	return r == TaxRateNone || r == TaxRateGST
}

// LineItem is one priced line of a document.
// ID is uuid.Nil for lines that have not been persisted yet.
type LineItem struct {
	ID          uuid.UUID
	Order       int
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxRate     TaxRate
	lineTotal   decimal.Decimal
}

// LineTotal returns the derived tax-inclusive line amount
func (i LineItem) LineTotal() decimal.Decimal {
	return i.lineTotal
}

// copyWithoutIdentity returns the line with its identity cleared so it is
// stored as a new row
func (i LineItem) copyWithoutIdentity() LineItem {
	i.ID = uuid.Nil
	return i
}

// LineItemInput is the caller-supplied shape of a line.
// Order is optional; when every input leaves it zero the slice position is used.
type LineItemInput struct {
	ID          uuid.UUID
	Order       int
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxRate     TaxRate
}

// buildLineItems validates inputs and returns lines numbered densely 1..N
func buildLineItems(inputs []LineItemInput) ([]LineItem, error) {
	if len(inputs) == 0 {
		return []LineItem{}, nil
	}

	explicit := 0
	seen := make(map[int]bool, len(inputs))
	for _, in := range inputs {
		if in.Order == 0 {
			continue
		}
		if in.Order < 0 {
			return nil, validationError("Line order must be positive, got %d", in.Order)
		}
		if seen[in.Order] {
			return nil, validationError("Line order %d is used more than once", in.Order)
		}
		seen[in.Order] = true
		explicit++
	}
	if explicit != 0 && explicit != len(inputs) {
		return nil, validationError("Line order must be given for every line or for none")
	}

	ordered := make([]LineItemInput, len(inputs))
	copy(ordered, inputs)
	if explicit > 0 {
		sort.SliceStable(ordered, func(a, b int) bool { return ordered[a].Order < ordered[b].Order })
	}

	items := make([]LineItem, len(ordered))
	for idx, in := range ordered {
		items[idx] = LineItem{
			ID:          in.ID,
			Order:       idx + 1,
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			TaxRate:     in.TaxRate,
		}
	}
	return items, nil
}

func cloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

func inputsFromItems(items []LineItem) []LineItemInput {
	out := make([]LineItemInput, len(items))
	for idx, it := range items {
		out[idx] = LineItemInput{
			ID:          it.ID,
			Order:       it.Order,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
		}
	}
	return out
}
