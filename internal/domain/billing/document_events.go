package billing

import (
	"github.com/google/uuid"
	"github.com/quick-ledger/ottero/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventTypeDocumentCreated       = "DocumentCreated"
	EventTypeDocumentUpdated       = "DocumentUpdated"
	EventTypeDocumentStatusChanged = "DocumentStatusChanged"
	EventTypeDocumentRevised       = "DocumentRevised"
	EventTypeDocumentDuplicated    = "DocumentDuplicated"
	EventTypeQuoteConverted        = "QuoteConverted"
	EventTypeDocumentDeleted       = "DocumentDeleted"
)

// AllEventTypes lists every event raised by documents
var AllEventTypes = []string{
	EventTypeDocumentCreated,
	EventTypeDocumentUpdated,
	EventTypeDocumentStatusChanged,
	EventTypeDocumentRevised,
	EventTypeDocumentDuplicated,
	EventTypeQuoteConverted,
	EventTypeDocumentDeleted,
}

// DocumentEvent is implemented by every document event
type DocumentEvent interface {
	shared.DomainEvent
	DocumentKind() Kind
	Document() EventDocument
}

// EventDocument is the document state recorded when an event was raised
type EventDocument struct {
	ID         uuid.UUID
	Kind       Kind
	Number     string
	Revision   int
	Status     Status
	TotalPrice decimal.Decimal
}

// documentEventBase carries the fields shared by document events.
// DocumentNumber may be empty when the event is raised before numbering.
type documentEventBase struct {
	shared.BaseDomainEvent
	DocumentID     uuid.UUID       `json:"document_id"`
	Kind           Kind            `json:"kind"`
	DocumentNumber string          `json:"document_number"`
	Revision       int             `json:"revision"`
	Status         Status          `json:"status"`
	TotalPrice     decimal.Decimal `json:"total_price"`
}

func newDocumentEventBase(eventType string, d *Document) documentEventBase {
	return documentEventBase{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeDocument, d.ID, d.CompanyID),
		DocumentID:      d.ID,
		Kind:            d.kind,
		DocumentNumber:  d.documentNumber,
		Revision:        d.revision,
		Status:          d.status,
		TotalPrice:      d.totals.TotalPrice,
	}
}

// assignNumber fills in the number of events raised before numbering
func (e *documentEventBase) assignNumber(number string) {
	if e.DocumentNumber == "" {
		e.DocumentNumber = number
	}
}

// DocumentKind returns the kind of the document that raised the event
func (e *documentEventBase) DocumentKind() Kind {
	return e.Kind
}

// Document returns the recorded document state
func (e *documentEventBase) Document() EventDocument {
	return EventDocument{
		ID:         e.DocumentID,
		Kind:       e.Kind,
		Number:     e.DocumentNumber,
		Revision:   e.Revision,
		Status:     e.Status,
		TotalPrice: e.TotalPrice,
	}
}

// DocumentCreatedEvent is raised when a new draft is created
type DocumentCreatedEvent struct {
	documentEventBase
	ClientID uuid.UUID `json:"client_id"`
}

// NewDocumentCreatedEvent creates a new DocumentCreatedEvent
func NewDocumentCreatedEvent(d *Document) *DocumentCreatedEvent {
	return &DocumentCreatedEvent{
		documentEventBase: newDocumentEventBase(EventTypeDocumentCreated, d),
		ClientID:          d.client.ID,
	}
}

// EventType returns the event type name
func (e *DocumentCreatedEvent) EventType() string {
	return EventTypeDocumentCreated
}

// DocumentUpdatedEvent is raised when draft content or notes change
type DocumentUpdatedEvent struct {
	documentEventBase
	ItemCount int `json:"item_count"`
}

// NewDocumentUpdatedEvent creates a new DocumentUpdatedEvent
func NewDocumentUpdatedEvent(d *Document) *DocumentUpdatedEvent {
	return &DocumentUpdatedEvent{
		documentEventBase: newDocumentEventBase(EventTypeDocumentUpdated, d),
		ItemCount:         len(d.items),
	}
}

// EventType returns the event type name
func (e *DocumentUpdatedEvent) EventType() string {
	return EventTypeDocumentUpdated
}

// DocumentStatusChangedEvent is raised on every status transition
type DocumentStatusChangedEvent struct {
	documentEventBase
	FromStatus Status `json:"from_status"`
}

// NewDocumentStatusChangedEvent creates a new DocumentStatusChangedEvent
func NewDocumentStatusChangedEvent(d *Document, from Status) *DocumentStatusChangedEvent {
	return &DocumentStatusChangedEvent{
		documentEventBase: newDocumentEventBase(EventTypeDocumentStatusChanged, d),
		FromStatus:        from,
	}
}

// EventType returns the event type name
func (e *DocumentStatusChangedEvent) EventType() string {
	return EventTypeDocumentStatusChanged
}

// DocumentRevisedEvent is raised on the new revision of a quote
type DocumentRevisedEvent struct {
	documentEventBase
	PreviousRevisionID uuid.UUID `json:"previous_revision_id"`
}

// NewDocumentRevisedEvent creates a new DocumentRevisedEvent
func NewDocumentRevisedEvent(d *Document, previous uuid.UUID) *DocumentRevisedEvent {
	return &DocumentRevisedEvent{
		documentEventBase:  newDocumentEventBase(EventTypeDocumentRevised, d),
		PreviousRevisionID: previous,
	}
}

// EventType returns the event type name
func (e *DocumentRevisedEvent) EventType() string {
	return EventTypeDocumentRevised
}

// DocumentDuplicatedEvent is raised on a copy made from another document
type DocumentDuplicatedEvent struct {
	documentEventBase
	TemplateID uuid.UUID `json:"template_id"`
}

// NewDocumentDuplicatedEvent creates a new DocumentDuplicatedEvent
func NewDocumentDuplicatedEvent(d *Document, template uuid.UUID) *DocumentDuplicatedEvent {
	return &DocumentDuplicatedEvent{
		documentEventBase: newDocumentEventBase(EventTypeDocumentDuplicated, d),
		TemplateID:        template,
	}
}

// EventType returns the event type name
func (e *DocumentDuplicatedEvent) EventType() string {
	return EventTypeDocumentDuplicated
}

// QuoteConvertedEvent is raised on an invoice converted from a quote
type QuoteConvertedEvent struct {
	documentEventBase
	QuoteID uuid.UUID `json:"quote_id"`
}

// NewQuoteConvertedEvent creates a new QuoteConvertedEvent
func NewQuoteConvertedEvent(invoice *Document, quote uuid.UUID) *QuoteConvertedEvent {
	return &QuoteConvertedEvent{
		documentEventBase: newDocumentEventBase(EventTypeQuoteConverted, invoice),
		QuoteID:           quote,
	}
}

// EventType returns the event type name
func (e *QuoteConvertedEvent) EventType() string {
	return EventTypeQuoteConverted
}

// DocumentDeletedEvent is raised when a draft is removed
type DocumentDeletedEvent struct {
	documentEventBase
}

// NewDocumentDeletedEvent creates a new DocumentDeletedEvent
func NewDocumentDeletedEvent(d *Document) *DocumentDeletedEvent {
	return &DocumentDeletedEvent{documentEventBase: newDocumentEventBase(EventTypeDocumentDeleted, d)}
}

// EventType returns the event type name
func (e *DocumentDeletedEvent) EventType() string {
	return EventTypeDocumentDeleted
}
