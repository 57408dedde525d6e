package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quick-ledger/ottero/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeDocument is the aggregate type name used in events
const AggregateTypeDocument = "Document"

// Document is a quote or an invoice.
//
// Totals are derived from the lines and discount on every structural change
// and cannot be set directly. Items, discount and client can only change
// while the document is a DRAFT and is the latest revision of its number.
type Document struct {
	shared.CompanyAggregateRoot
	kind               Kind
	documentNumber     string
	revision           int
	status             Status
	client             ClientRef
	items              []LineItem
	discount           Discount
	totals             Totals
	notes              string
	issueDate          *time.Time
	dueDate            *time.Time
	sourceDocumentID   *uuid.UUID
	previousRevisionID *uuid.UUID
	superseded         bool
}

// DraftInput carries the editable content of a draft
type DraftInput struct {
	Client    ClientRef
	Items     []LineItemInput
	Discount  Discount
	Notes     string
	IssueDate *time.Time
	DueDate   *time.Time
}

// NewDocument creates a DRAFT document at revision 0 without a number.
// The number is assigned when the document is first saved.
func NewDocument(companyID uuid.UUID, kind Kind, input DraftInput) (*Document, error) {
	if companyID == uuid.Nil {
		return nil, validationError("Company ID cannot be empty")
	}
	if !kind.IsValid() {
		return nil, validationError("Unknown document kind %q", kind)
	}
	items, err := buildLineItems(input.Items)
	if err != nil {
		return nil, err
	}
	if err := validateDates(input.IssueDate, input.DueDate); err != nil {
		return nil, err
	}

	doc, err := newDraft(companyID, kind, input.Client, items, input.Discount)
	if err != nil {
		return nil, err
	}
	doc.notes = input.Notes
	doc.issueDate = input.IssueDate
	doc.dueDate = input.DueDate

	doc.AddDomainEvent(NewDocumentCreatedEvent(doc))
	return doc, nil
}

// NewQuote creates a draft quote
func NewQuote(companyID uuid.UUID, input DraftInput) (*Document, error) {
	return NewDocument(companyID, KindQuote, input)
}

// NewInvoice creates a draft invoice
func NewInvoice(companyID uuid.UUID, input DraftInput) (*Document, error) {
	return NewDocument(companyID, KindInvoice, input)
}

// newDraft builds a draft from already validated lines and computes totals
func newDraft(companyID uuid.UUID, kind Kind, client ClientRef, items []LineItem, discount Discount) (*Document, error) {
	if discount.Type == "" {
		discount.Type = DiscountDollar
	}
	totals, err := ComputeWithDiscount(items, discount)
	if err != nil {
		return nil, err
	}
	doc := &Document{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		kind:                 kind,
		status:               StatusDraft,
		client:               client,
		discount:             discount,
	}
	doc.setLines(items, totals)
	return doc, nil
}

func validateDates(issue, due *time.Time) error {
	if issue != nil && due != nil && due.Before(*issue) {
		return validationError("Due date cannot be before issue date")
	}
	return nil
}

// ===== Accessors =====

// Kind returns the document variant
func (d *Document) Kind() Kind { return d.kind }

// DocumentNumber returns the lineage number, empty until assigned
func (d *Document) DocumentNumber() string { return d.documentNumber }

// Revision returns the revision counter within the document number
func (d *Document) Revision() int { return d.revision }

// Status returns the lifecycle status
func (d *Document) Status() Status { return d.status }

// Client returns the client snapshot
func (d *Document) Client() ClientRef { return d.client }

// Items returns a copy of the lines in display order
func (d *Document) Items() []LineItem { return cloneItems(d.items) }

// ItemCount returns the number of lines
func (d *Document) ItemCount() int { return len(d.items) }

// Discount returns the document discount
func (d *Document) Discount() Discount { return d.discount }

// Subtotal returns the tax-exclusive sum of the lines
func (d *Document) Subtotal() decimal.Decimal { return d.totals.Subtotal }

// TaxAmount returns the summed line tax
func (d *Document) TaxAmount() decimal.Decimal { return d.totals.TaxAmount }

// TotalPrice returns the discounted total, never negative
func (d *Document) TotalPrice() decimal.Decimal { return d.totals.TotalPrice }

// Totals returns all derived amounts
func (d *Document) Totals() Totals {
	t := d.totals
	t.LineTotals = append([]decimal.Decimal(nil), d.totals.LineTotals...)
	return t
}

// Notes returns the free text notes
func (d *Document) Notes() string { return d.notes }

// IssueDate returns the issue date if set
func (d *Document) IssueDate() *time.Time { return d.issueDate }

// DueDate returns the due date (invoice) or expiry date (quote) if set
func (d *Document) DueDate() *time.Time { return d.dueDate }

// SourceDocumentID returns the quote an invoice was converted from
func (d *Document) SourceDocumentID() *uuid.UUID { return d.sourceDocumentID }

// PreviousRevisionID returns the prior revision in the same lineage
func (d *Document) PreviousRevisionID() *uuid.UUID { return d.previousRevisionID }

// IsSuperseded reports whether a later revision of the same number exists
func (d *Document) IsSuperseded() bool { return d.superseded }

// IsLatestRevision reports whether this is the current revision of its number
func (d *Document) IsLatestRevision() bool { return !d.superseded }

// Machine returns the status machine governing the document
func (d *Document) Machine() StatusMachine { return MachineFor(d.kind) }

// IsDraft returns true if the document is a draft
func (d *Document) IsDraft() bool { return d.status == StatusDraft }

// IsLocked returns true if items, discount and client are frozen
func (d *Document) IsLocked() bool {
	return d.superseded || d.Machine().IsLocked(d.status)
}

// IsTerminal returns true if no further status change is possible
func (d *Document) IsTerminal() bool { return d.Machine().IsTerminal(d.status) }

// IsQuote returns true for quotes
func (d *Document) IsQuote() bool { return d.kind == KindQuote }

// IsInvoice returns true for invoices
func (d *Document) IsInvoice() bool { return d.kind == KindInvoice }

// GetItem returns the line with the given order
func (d *Document) GetItem(order int) *LineItem {
	for idx := range d.items {
		if d.items[idx].Order == order {
			item := d.items[idx]
			return &item
		}
	}
	return nil
}

// ===== Numbering =====

// AssignNumber sets the lineage number. A number can be assigned only once.
func (d *Document) AssignNumber(number string) error {
	number = strings.TrimSpace(number)
	if number == "" {
		return validationError("Document number cannot be empty")
	}
	if d.documentNumber != "" && d.documentNumber != number {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Document already numbered %s", d.documentNumber))
	}
	d.documentNumber = number
	for _, event := range d.GetDomainEvents() {
		if pending, ok := event.(interface{ assignNumber(string) }); ok {
			pending.assignNumber(number)
		}
	}
	return nil
}

// HasNumber reports whether a number has been assigned
func (d *Document) HasNumber() bool {
	return d.documentNumber != ""
}

// ===== Draft mutation =====

func (d *Document) ensureEditable(field string) error {
	if d.IsLocked() {
		return documentLocked(d, field)
	}
	return nil
}

// UpdateDraft replaces client, lines, discount and dates in one step.
// Notes are replaced as well. Nothing changes when an error is returned.
func (d *Document) UpdateDraft(input DraftInput) error {
	if err := d.ensureEditable("content"); err != nil {
		return err
	}
	items, err := buildLineItems(input.Items)
	if err != nil {
		return err
	}
	if err := validateDates(input.IssueDate, input.DueDate); err != nil {
		return err
	}
	discount := input.Discount
	if discount.Type == "" {
		discount.Type = DiscountDollar
	}
	totals, err := ComputeWithDiscount(items, discount)
	if err != nil {
		return err
	}

	d.client = input.Client
	d.discount = discount
	d.notes = input.Notes
	d.issueDate = input.IssueDate
	d.dueDate = input.DueDate
	d.setLines(items, totals)
	d.changed()
	return nil
}

// SetClient replaces the client snapshot
func (d *Document) SetClient(client ClientRef) error {
	if err := d.ensureEditable("client"); err != nil {
		return err
	}
	d.client = client
	d.changed()
	return nil
}

// ReplaceItems replaces every line
func (d *Document) ReplaceItems(inputs []LineItemInput) error {
	if err := d.ensureEditable("items"); err != nil {
		return err
	}
	items, err := buildLineItems(inputs)
	if err != nil {
		return err
	}
	return d.applyLines(items, d.discount)
}

// AddItem appends a line at the end of the document
func (d *Document) AddItem(input LineItemInput) error {
	if err := d.ensureEditable("items"); err != nil {
		return err
	}
	inputs := inputsFromItems(d.items)
	input.Order = len(inputs) + 1
	items, err := buildLineItems(append(inputs, input))
	if err != nil {
		return err
	}
	return d.applyLines(items, d.discount)
}

// RemoveItem removes the line with the given order and renumbers the rest
func (d *Document) RemoveItem(order int) error {
	if err := d.ensureEditable("items"); err != nil {
		return err
	}
	inputs := make([]LineItemInput, 0, len(d.items))
	found := false
	for _, in := range inputsFromItems(d.items) {
		if in.Order == order {
			found = true
			continue
		}
		in.Order = 0
		inputs = append(inputs, in)
	}
	if !found {
		return shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Line %d not found", order))
	}
	items, err := buildLineItems(inputs)
	if err != nil {
		return err
	}
	return d.applyLines(items, d.discount)
}

// SetDiscount replaces the document discount
func (d *Document) SetDiscount(discount Discount) error {
	if err := d.ensureEditable("discount"); err != nil {
		return err
	}
	if discount.Type == "" {
		discount.Type = DiscountDollar
	}
	return d.applyLines(d.items, discount)
}

// SetDates sets the issue and due dates
func (d *Document) SetDates(issue, due *time.Time) error {
	if err := d.ensureEditable("dates"); err != nil {
		return err
	}
	if err := validateDates(issue, due); err != nil {
		return err
	}
	d.issueDate = issue
	d.dueDate = due
	d.changed()
	return nil
}

// SetNotes replaces the notes. Notes stay editable in every status but not
// on a superseded revision.
func (d *Document) SetNotes(notes string) error {
	if d.superseded {
		return documentLocked(d, "notes")
	}
	d.notes = notes
	d.changed()
	return nil
}

// Recalculate recomputes the totals from the current lines and reports
// whether the stored totals differed
func (d *Document) Recalculate() (bool, error) {
	totals, err := ComputeWithDiscount(d.items, d.discount)
	if err != nil {
		return false, err
	}
	changed := !totals.Equal(d.totals)
	d.setLines(d.items, totals)
	return changed, nil
}

func (d *Document) applyLines(items []LineItem, discount Discount) error {
	totals, err := ComputeWithDiscount(items, discount)
	if err != nil {
		return err
	}
	d.discount = discount
	d.setLines(items, totals)
	d.changed()
	return nil
}

func (d *Document) setLines(items []LineItem, totals Totals) {
	d.items = cloneItems(items)
	for idx := range d.items {
		d.items[idx].lineTotal = totals.LineTotals[idx]
	}
	d.totals = totals
}

func (d *Document) changed() {
	d.Touch()
	d.AddDomainEvent(NewDocumentUpdatedEvent(d))
}

// ===== Status transitions =====

// TransitionTo moves the document to target if the kind's machine allows it.
// Sending requires a number, a resolved client and at least one described line.
func (d *Document) TransitionTo(target Status) error {
	if d.superseded {
		return documentLocked(d, "status")
	}
	if err := ValidateTransition(d.kind, d.status, target); err != nil {
		return err
	}
	if target == StatusSent {
		if err := d.validateForSend(); err != nil {
			return err
		}
	}

	from := d.status
	d.status = target
	d.Touch()
	d.AddDomainEvent(NewDocumentStatusChangedEvent(d, from))
	return nil
}

func (d *Document) validateForSend() error {
	if !d.HasNumber() {
		return validationError("Cannot send %s without a document number", d.kind.Label())
	}
	if !d.client.IsResolved() {
		return validationError("Cannot send %s without a client", d.kind.Label())
	}
	if len(d.items) == 0 {
		return validationError("Cannot send %s without line items", d.kind.Label())
	}
	for _, item := range d.items {
		if strings.TrimSpace(item.Description) == "" {
			return validationError("Line %d needs a description before sending", item.Order)
		}
	}
	return nil
}

// Send marks the document as sent to the client
func (d *Document) Send() error { return d.TransitionTo(StatusSent) }

// Accept records the client's acceptance of a quote
func (d *Document) Accept() error { return d.TransitionTo(StatusAccepted) }

// Reject records the client's rejection of a quote
func (d *Document) Reject() error { return d.TransitionTo(StatusRejected) }

// Cancel cancels the document. Cancellation is irreversible.
func (d *Document) Cancel() error { return d.TransitionTo(StatusCancelled) }

// MarkPaid records payment of an invoice
func (d *Document) MarkPaid() error { return d.TransitionTo(StatusPaid) }

// ===== Deletion =====

// Delete checks that the document may be removed and records the event.
// Only drafts can be deleted.
func (d *Document) Delete() error {
	if d.status != StatusDraft {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			fmt.Sprintf("Cannot delete %s in %s status", d.kind.Label(), d.status))
	}
	d.AddDomainEvent(NewDocumentDeletedEvent(d))
	return nil
}

// ===== Persistence =====

// IdentifyLines gives every line without an ID a fresh one.
// Repositories call it before writing so stored lines keep a stable identity.
func (d *Document) IdentifyLines() {
	for idx := range d.items {
		if d.items[idx].ID == uuid.Nil {
			d.items[idx].ID = uuid.New()
		}
	}
}

// MarkSuperseded freezes the document after a later revision was written
func (d *Document) MarkSuperseded() {
	d.superseded = true
}

// Snapshot is the flat persisted form of a document
type Snapshot struct {
	ID                 uuid.UUID
	CompanyID          uuid.UUID
	Version            int
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Kind               Kind
	DocumentNumber     string
	Revision           int
	Status             Status
	Client             ClientRef
	Items              []LineItemInput
	Discount           Discount
	Notes              string
	IssueDate          *time.Time
	DueDate            *time.Time
	SourceDocumentID   *uuid.UUID
	PreviousRevisionID *uuid.UUID
	Superseded         bool
}

// Snapshot returns the persisted form of the document
func (d *Document) Snapshot() Snapshot {
	return Snapshot{
		ID:                 d.ID,
		CompanyID:          d.CompanyID,
		Version:            d.Version,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
		Kind:               d.kind,
		DocumentNumber:     d.documentNumber,
		Revision:           d.revision,
		Status:             d.status,
		Client:             d.client,
		Items:              inputsFromItems(d.items),
		Discount:           d.discount,
		Notes:              d.notes,
		IssueDate:          d.issueDate,
		DueDate:            d.dueDate,
		SourceDocumentID:   d.sourceDocumentID,
		PreviousRevisionID: d.previousRevisionID,
		Superseded:         d.superseded,
	}
}

// Reconstitute rebuilds a document from its persisted form. Totals are
// recomputed from the lines; stored totals are never trusted.
func Reconstitute(s Snapshot) (*Document, error) {
	if !s.Kind.IsValid() {
		return nil, validationError("Unknown document kind %q", s.Kind)
	}
	if !MachineFor(s.Kind).Has(s.Status) {
		return nil, validationError("Status %s is not valid for a %s", s.Status, s.Kind.Label())
	}
	if s.Revision < 0 {
		return nil, validationError("Revision cannot be negative")
	}
	if s.Revision == 0 && s.PreviousRevisionID != nil {
		return nil, validationError("Revision 0 cannot reference a previous revision")
	}
	items, err := buildLineItems(s.Items)
	if err != nil {
		return nil, err
	}
	discount := s.Discount
	if discount.Type == "" {
		discount.Type = DiscountDollar
	}
	totals, err := ComputeWithDiscount(items, discount)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		CompanyAggregateRoot: shared.CompanyAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        s.ID,
					CreatedAt: s.CreatedAt,
					UpdatedAt: s.UpdatedAt,
				},
				Version: s.Version,
			},
			CompanyID: s.CompanyID,
		},
		kind:               s.Kind,
		documentNumber:     s.DocumentNumber,
		revision:           s.Revision,
		status:             s.Status,
		client:             s.Client,
		discount:           discount,
		notes:              s.Notes,
		issueDate:          s.IssueDate,
		dueDate:            s.DueDate,
		sourceDocumentID:   s.SourceDocumentID,
		previousRevisionID: s.PreviousRevisionID,
		superseded:         s.Superseded,
	}
	doc.setLines(items, totals)
	return doc, nil
}
