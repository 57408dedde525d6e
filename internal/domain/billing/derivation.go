package billing

import (
	"fmt"

	"github.com/quick-ledger/ottero/internal/domain/shared"
)

// revisableQuoteStatuses are the statuses a quote can be revised from.
// A draft is edited in place and a cancelled quote is closed.
var revisableQuoteStatuses = map[Status]bool{
	StatusSent:     true,
	StatusAccepted: true,
	StatusRejected: true,
}

// CanRevise reports whether Revise would accept the document
func CanRevise(d *Document) bool {
	return d.kind == KindQuote && !d.superseded && revisableQuoteStatuses[d.status]
}

// Revise derives the next revision of a sent, accepted or rejected quote.
// The new document keeps the number, increments the revision, starts as a
// DRAFT and points back at d. d itself is not modified.
func Revise(d *Document) (*Document, error) {
	if d == nil {
		return nil, validationError("Document is required")
	}
	if d.kind != KindQuote {
		return nil, unsupported("Cannot revise %s %s: only quotes have revisions", d.kind.Label(), d.documentNumber)
	}
	if d.superseded {
		return nil, documentLocked(d, "revision")
	}
	if !revisableQuoteStatuses[d.status] {
		return nil, shared.NewDomainError(shared.CodeInvalidTransition,
			fmt.Sprintf("Cannot revise quote in %s status", d.status))
	}
	if !d.HasNumber() {
		return nil, validationError("Cannot revise a quote without a document number")
	}

	next, err := derive(d, KindQuote)
	if err != nil {
		return nil, err
	}
	previous := d.ID
	next.documentNumber = d.documentNumber
	next.revision = d.revision + 1
	next.previousRevisionID = &previous
	next.notes = d.notes
	next.issueDate = d.issueDate
	next.dueDate = d.dueDate

	next.AddDomainEvent(NewDocumentRevisedEvent(next, previous))
	return next, nil
}

// Duplicate derives an independent DRAFT copy of any document. The copy has
// no number, revision 0 and no links to other documents.
func Duplicate(d *Document) (*Document, error) {
	if d == nil {
		return nil, validationError("Document is required")
	}
	next, err := derive(d, d.kind)
	if err != nil {
		return nil, err
	}
	next.notes = d.notes

	next.AddDomainEvent(NewDocumentDuplicatedEvent(next, d.ID))
	return next, nil
}

// CanConvert reports whether ConvertToInvoice would accept the document
func CanConvert(d *Document) bool {
	return d.kind == KindQuote && d.status == StatusAccepted
}

// ConvertToInvoice derives a DRAFT invoice from an accepted quote. Client,
// lines and discount are carried over and the invoice links back to the
// quote. The invoice number comes from the invoice sequence, not the quote.
func ConvertToInvoice(quote *Document) (*Document, error) {
	if quote == nil {
		return nil, validationError("Quote is required")
	}
	if quote.kind != KindQuote {
		return nil, unsupported("Cannot convert %s %s: only quotes convert to invoices", quote.kind.Label(), quote.documentNumber)
	}
	if quote.status != StatusAccepted {
		return nil, shared.NewDomainError(shared.CodeInvalidTransition,
			fmt.Sprintf("Cannot convert quote in %s status; it must be ACCEPTED", quote.status))
	}

	invoice, err := derive(quote, KindInvoice)
	if err != nil {
		return nil, err
	}
	source := quote.ID
	invoice.sourceDocumentID = &source
	invoice.notes = quote.notes

	invoice.AddDomainEvent(NewQuoteConvertedEvent(invoice, source))
	return invoice, nil
}

// derive copies client, lines and discount into a fresh draft of kind.
// Line identities are cleared so the lines are stored as new rows.
func derive(d *Document, kind Kind) (*Document, error) {
	items := make([]LineItem, len(d.items))
	for idx, item := range d.items {
		items[idx] = item.copyWithoutIdentity()
	}
	return newDraft(d.CompanyID, kind, d.client, items, d.discount)
}
