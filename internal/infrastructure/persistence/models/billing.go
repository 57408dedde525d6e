package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/quick-ledger/ottero/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// DocumentModel is the persistence model for the Document aggregate root.
// Totals are stored for reporting queries only; loading always recomputes them.
type DocumentModel struct {
	AggregateModel
	CompanyID          uuid.UUID           `gorm:"type:uuid;not null;index;uniqueIndex:idx_billing_document_revision,priority:1"`
	Kind               billing.Kind        `gorm:"type:varchar(10);not null;index"`
	DocumentNumber     string              `gorm:"type:varchar(50);not null;uniqueIndex:idx_billing_document_revision,priority:2"`
	Revision           int                 `gorm:"not null;default:0;uniqueIndex:idx_billing_document_revision,priority:3"`
	Status             billing.Status      `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	ClientID           *uuid.UUID          `gorm:"type:uuid;index"`
	ClientName         string              `gorm:"type:varchar(200)"`
	ClientEmail        string              `gorm:"type:varchar(200)"`
	ClientPhone        string              `gorm:"type:varchar(50)"`
	ClientAddress      string              `gorm:"type:varchar(500)"`
	DiscountType       string              `gorm:"type:varchar(10);not null;default:'DOLLAR'"`
	DiscountValue      decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Subtotal           decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount          decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	TotalPrice         decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Notes              string              `gorm:"type:text"`
	IssueDate          *time.Time          `gorm:"type:date"`
	DueDate            *time.Time          `gorm:"type:date"`
	SourceDocumentID   *uuid.UUID          `gorm:"type:uuid;index"`
	PreviousRevisionID *uuid.UUID          `gorm:"type:uuid"`
	Items              []DocumentItemModel `gorm:"foreignKey:DocumentID;references:ID"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "billing_documents"
}

// ToDomain rebuilds the aggregate. superseded is computed by the repository
// from the other revisions of the same number.
func (m *DocumentModel) ToDomain(superseded bool) (*billing.Document, error) {
	snap := billing.Snapshot{
		ID:             m.ID,
		CompanyID:      m.CompanyID,
		Version:        m.Version,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
		Kind:           m.Kind,
		DocumentNumber: m.DocumentNumber,
		Revision:       m.Revision,
		Status:         m.Status,
		Client: billing.ClientRef{
			Name:    m.ClientName,
			Email:   m.ClientEmail,
			Phone:   m.ClientPhone,
			Address: m.ClientAddress,
		},
		Items: make([]billing.LineItemInput, len(m.Items)),
		Discount: billing.Discount{
			Type:  billing.DiscountType(m.DiscountType),
			Value: m.DiscountValue,
		},
		Notes:              m.Notes,
		IssueDate:          m.IssueDate,
		DueDate:            m.DueDate,
		SourceDocumentID:   m.SourceDocumentID,
		PreviousRevisionID: m.PreviousRevisionID,
		Superseded:         superseded,
	}
	if m.ClientID != nil {
		snap.Client.ID = *m.ClientID
	}
	for i, item := range m.Items {
		snap.Items[i] = item.ToDomain()
	}
	return billing.Reconstitute(snap)
}

// FromDomain populates the persistence model from a domain Document
func (m *DocumentModel) FromDomain(d *billing.Document) {
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	m.CompanyID = d.CompanyID
	m.Kind = d.Kind()
	m.DocumentNumber = d.DocumentNumber()
	m.Revision = d.Revision()
	m.Status = d.Status()

	client := d.Client()
	m.ClientID = nil
	if client.ID != uuid.Nil {
		id := client.ID
		m.ClientID = &id
	}
	m.ClientName = client.Name
	m.ClientEmail = client.Email
	m.ClientPhone = client.Phone
	m.ClientAddress = client.Address

	discount := d.Discount()
	m.DiscountType = string(discount.Type)
	m.DiscountValue = discount.Value
	m.Subtotal = d.Subtotal()
	m.TaxAmount = d.TaxAmount()
	m.TotalPrice = d.TotalPrice()
	m.Notes = d.Notes()
	m.IssueDate = d.IssueDate()
	m.DueDate = d.DueDate()
	m.SourceDocumentID = d.SourceDocumentID()
	m.PreviousRevisionID = d.PreviousRevisionID()

	items := d.Items()
	m.Items = make([]DocumentItemModel, len(items))
	for i, item := range items {
		m.Items[i] = DocumentItemModelFromDomain(d.ID, item, d.UpdatedAt)
	}
}

// DocumentModelFromDomain creates a new persistence model from a domain Document
func DocumentModelFromDomain(d *billing.Document) *DocumentModel {
	m := &DocumentModel{}
	m.FromDomain(d)
	return m
}

// UpdateColumns returns the mutable columns written by an optimistic update
func (m *DocumentModel) UpdateColumns() map[string]interface{} {
	return map[string]interface{}{
		"status":         m.Status,
		"client_id":      m.ClientID,
		"client_name":    m.ClientName,
		"client_email":   m.ClientEmail,
		"client_phone":   m.ClientPhone,
		"client_address": m.ClientAddress,
		"discount_type":  m.DiscountType,
		"discount_value": m.DiscountValue,
		"subtotal":       m.Subtotal,
		"tax_amount":     m.TaxAmount,
		"total_price":    m.TotalPrice,
		"notes":          m.Notes,
		"issue_date":     m.IssueDate,
		"due_date":       m.DueDate,
		"updated_at":     m.UpdatedAt,
	}
}

// DocumentItemModel is the persistence model for a document line
type DocumentItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	DocumentID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineOrder   int             `gorm:"not null"`
	Description string          `gorm:"type:varchar(1000)"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TaxRate     int             `gorm:"not null;default:0"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentItemModel) TableName() string {
	return "billing_document_items"
}

// ToDomain converts the row to a domain line input
func (m *DocumentItemModel) ToDomain() billing.LineItemInput {
	return billing.LineItemInput{
		ID:          m.ID,
		Order:       m.LineOrder,
		Description: m.Description,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		TaxRate:     billing.TaxRate(m.TaxRate),
	}
}

// DocumentItemModelFromDomain creates a line row for documentID
func DocumentItemModelFromDomain(documentID uuid.UUID, item billing.LineItem, at time.Time) DocumentItemModel {
	return DocumentItemModel{
		ID:          item.ID,
		DocumentID:  documentID,
		LineOrder:   item.Order,
		Description: item.Description,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		TaxRate:     int(item.TaxRate),
		LineTotal:   item.LineTotal(),
		CreatedAt:   at,
		UpdatedAt:   at,
	}
}

// DocumentSequenceModel holds the last issued number per company and kind
type DocumentSequenceModel struct {
	CompanyID uuid.UUID    `gorm:"type:uuid;primaryKey"`
	Kind      billing.Kind `gorm:"type:varchar(10);primaryKey"`
	LastValue int64        `gorm:"not null;default:0"`
	UpdatedAt time.Time    `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentSequenceModel) TableName() string {
	return "document_sequences"
}
