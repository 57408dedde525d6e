package billing

import "strings"

// Status is a document lifecycle state. Quotes and invoices draw from
// different subsets of these values; see MachineFor.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSent      Status = "SENT"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
)

// statusAliases maps legacy names onto the canonical vocabulary
var statusAliases = map[string]Status{
	"PENDING": StatusSent,
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// ParseStatus parses a status name, case-insensitively. PENDING is accepted
// as an alias of SENT.
func ParseStatus(s string) (Status, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if alias, ok := statusAliases[name]; ok {
		return alias, nil
	}
	switch st := Status(name); st {
	case StatusDraft, StatusSent, StatusAccepted, StatusRejected, StatusPaid, StatusCancelled:
		return st, nil
	}
	return "", validationError("Unknown document status %q", s)
}

// StatusMachine describes the legal lifecycle of one document kind
type StatusMachine interface {
	// Kind returns the document kind the machine governs
	Kind() Kind
	// Statuses returns the vocabulary of the kind in lifecycle order
	Statuses() []Status
	// Has reports whether s belongs to the kind's vocabulary
	Has(s Status) bool
	// CanTransition reports whether from -> to is a legal move
	CanTransition(from, to Status) bool
	// IsLocked reports whether items, discount and client are frozen in s
	IsLocked(s Status) bool
	// IsTerminal reports whether no transition leaves s
	IsTerminal(s Status) bool
}

type statusMachine struct {
	kind        Kind
	order       []Status
	transitions map[Status][]Status
	locked      map[Status]bool
}

var quoteMachine = &statusMachine{
	kind:  KindQuote,
	order: []Status{StatusDraft, StatusSent, StatusAccepted, StatusRejected, StatusCancelled},
	transitions: map[Status][]Status{
		StatusDraft:    {StatusSent, StatusCancelled},
		StatusSent:     {StatusAccepted, StatusRejected, StatusCancelled},
		StatusAccepted: {StatusCancelled},
		StatusRejected: {StatusCancelled},
	},
	locked: map[Status]bool{
		StatusSent:      true,
		StatusAccepted:  true,
		StatusRejected:  true,
		StatusCancelled: true,
	},
}

// Invoices have no accept/reject step. A sent invoice is corrected by
// cancelling it and issuing a new one.
var invoiceMachine = &statusMachine{
	kind:  KindInvoice,
	order: []Status{StatusDraft, StatusSent, StatusPaid, StatusCancelled},
	transitions: map[Status][]Status{
		StatusDraft: {StatusSent, StatusCancelled},
		StatusSent:  {StatusPaid, StatusCancelled},
	},
	locked: map[Status]bool{
		StatusSent:      true,
		StatusPaid:      true,
		StatusCancelled: true,
	},
}

// MachineFor returns the status machine of a document kind.
// It returns nil for an unknown kind.
func MachineFor(kind Kind) StatusMachine {
	switch kind {
	case KindQuote:
		return quoteMachine
	case KindInvoice:
		return invoiceMachine
	}
	return nil
}

func (m *statusMachine) Kind() Kind {
	return m.kind
}

func (m *statusMachine) Statuses() []Status {
	out := make([]Status, len(m.order))
	copy(out, m.order)
	return out
}

func (m *statusMachine) Has(s Status) bool {
	for _, st := range m.order {
		if st == s {
			return true
		}
	}
	return false
}

func (m *statusMachine) CanTransition(from, to Status) bool {
	for _, next := range m.transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (m *statusMachine) IsLocked(s Status) bool {
	return m.locked[s]
}

func (m *statusMachine) IsTerminal(s Status) bool {
	return m.Has(s) && len(m.transitions[s]) == 0
}

// ValidateTransition returns an InvalidTransition error unless from -> to is
// legal for kind
func ValidateTransition(kind Kind, from, to Status) error {
	m := MachineFor(kind)
	if m == nil {
		return validationError("Unknown document kind %q", kind)
	}
	if !m.Has(to) || !m.CanTransition(from, to) {
		return invalidTransition(kind, from, to)
	}
	return nil
}
