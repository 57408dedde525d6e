package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/quick-ledger/ottero/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// ==================== Request DTOs ====================

// ClientInput is the client snapshot supplied with a draft
type ClientInput struct {
	ID      *uuid.UUID `json:"id"`
	Name    string     `json:"name" binding:"max=200"`
	Email   string     `json:"email" binding:"omitempty,email,max=200"`
	Phone   string     `json:"phone" binding:"max=50"`
	Address string     `json:"address" binding:"max=500"`
}

// LineItemInput is one line in a create or update request
type LineItemInput struct {
	Description string          `json:"description" binding:"max=1000"`
	Quantity    decimal.Decimal `json:"quantity" binding:"decimal_gte0,amount"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"amount"`
	TaxRate     int             `json:"tax_rate" binding:"tax_rate"`
}

// DiscountInput is a document level discount
type DiscountInput struct {
	Type  string          `json:"type" binding:"omitempty,oneof=DOLLAR PERCENT dollar percent"`
	Value decimal.Decimal `json:"value" binding:"decimal_gte0,amount"`
}

// CreateDocumentRequest represents a request to create a draft quote or invoice
type CreateDocumentRequest struct {
	Kind      string          `json:"kind" binding:"required,oneof=QUOTE INVOICE quote invoice"`
	Client    *ClientInput    `json:"client"`
	Items     []LineItemInput `json:"items" binding:"omitempty,dive"`
	Discount  *DiscountInput  `json:"discount"`
	Notes     string          `json:"notes" binding:"max=10000"`
	IssueDate *time.Time      `json:"issue_date"`
	DueDate   *time.Time      `json:"due_date"`
}

// UpdateDocumentRequest changes a draft. Nil fields are left unchanged;
// Items replaces every line when present.
type UpdateDocumentRequest struct {
	Client    *ClientInput     `json:"client"`
	Items     *[]LineItemInput `json:"items" binding:"omitempty,dive"`
	Discount  *DiscountInput   `json:"discount"`
	Notes     *string          `json:"notes" binding:"omitempty,max=10000"`
	IssueDate *time.Time       `json:"issue_date"`
	DueDate   *time.Time       `json:"due_date"`
}

// touchesContent reports whether the request changes more than notes
func (r UpdateDocumentRequest) touchesContent() bool {
	return r.Client != nil || r.Items != nil || r.Discount != nil || r.IssueDate != nil || r.DueDate != nil
}

// UpdateNotesRequest replaces the notes of a document in any status
type UpdateNotesRequest struct {
	Notes string `json:"notes" binding:"max=10000"`
}

// TransitionRequest moves a document to another status
type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}

// CalculateRequest is a dry-run of the calculator
type CalculateRequest struct {
	Items    []LineItemInput `json:"items" binding:"omitempty,dive"`
	Discount *DiscountInput  `json:"discount"`
}

// DocumentListFilter represents filter options for the document list
type DocumentListFilter struct {
	Search         string     `form:"search"`
	Kind           string     `form:"kind"`
	Status         string     `form:"status"`
	ClientID       string     `form:"client_id" binding:"omitempty,uuid"`
	DocumentNumber string     `form:"document_number"`
	LatestOnly     bool       `form:"latest_only"`
	Page           int        `form:"page" binding:"omitempty,min=1"`
	PageSize       int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy        string     `form:"order_by"`
	OrderDir       string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ==================== Response DTOs ====================

// ClientResponse is the client snapshot stored on a document
type ClientResponse struct {
	ID      *uuid.UUID `json:"id,omitempty"`
	Name    string     `json:"name"`
	Email   string     `json:"email,omitempty"`
	Phone   string     `json:"phone,omitempty"`
	Address string     `json:"address,omitempty"`
}

// LineItemResponse represents a document line in API responses
type LineItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	Order       int             `json:"order"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     int             `json:"tax_rate"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// DocumentResponse represents a quote or invoice in API responses
type DocumentResponse struct {
	ID                 uuid.UUID          `json:"id"`
	CompanyID          uuid.UUID          `json:"company_id"`
	Kind               string             `json:"kind"`
	DocumentNumber     string             `json:"document_number"`
	Revision           int                `json:"revision"`
	Status             string             `json:"status"`
	Client             ClientResponse     `json:"client"`
	Items              []LineItemResponse `json:"items"`
	DiscountType       string             `json:"discount_type"`
	DiscountValue      decimal.Decimal    `json:"discount_value"`
	Subtotal           decimal.Decimal    `json:"subtotal"`
	TaxAmount          decimal.Decimal    `json:"tax_amount"`
	TotalPrice         decimal.Decimal    `json:"total_price"`
	TotalDisplay       string             `json:"total_display,omitempty"`
	Notes              string             `json:"notes"`
	IssueDate          *time.Time         `json:"issue_date,omitempty"`
	DueDate            *time.Time         `json:"due_date,omitempty"`
	SourceDocumentID   *uuid.UUID         `json:"source_document_id,omitempty"`
	PreviousRevisionID *uuid.UUID         `json:"previous_revision_id,omitempty"`
	IsLatestRevision   bool               `json:"is_latest_revision"`
	IsLocked           bool               `json:"is_locked"`
	AllowedTransitions []string           `json:"allowed_transitions"`
	Version            int                `json:"version"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// ConversionResponse is the result of converting a quote
type ConversionResponse struct {
	Invoice DocumentResponse `json:"invoice"`
	// PreviousInvoiceCount is the number of invoices the quote had before this one
	PreviousInvoiceCount int64 `json:"previous_invoice_count"`
}

// CalculationResponse is the result of a dry-run calculation
type CalculationResponse struct {
	Subtotal     decimal.Decimal   `json:"subtotal"`
	TaxAmount    decimal.Decimal   `json:"tax_amount"`
	TotalPrice   decimal.Decimal   `json:"total_price"`
	TotalDisplay string            `json:"total_display,omitempty"`
	LineTotals   []decimal.Decimal `json:"line_totals"`
}

// StatusCountResponse holds the per status counts of one kind
type StatusCountResponse struct {
	Kind   string           `json:"kind"`
	Counts map[string]int64 `json:"counts"`
	Total  int64            `json:"total"`
}

// ==================== Mapping ====================

func (c *ClientInput) toDomain() billing.ClientRef {
	if c == nil {
		return billing.ClientRef{}
	}
	ref := billing.ClientRef{
		Name:    c.Name,
		Email:   c.Email,
		Phone:   c.Phone,
		Address: c.Address,
	}
	if c.ID != nil {
		ref.ID = *c.ID
	}
	return ref
}

func toLineInputs(items []LineItemInput) []billing.LineItemInput {
	inputs := make([]billing.LineItemInput, len(items))
	for i, item := range items {
		inputs[i] = billing.LineItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TaxRate:     billing.TaxRate(item.TaxRate),
		}
	}
	return inputs
}

// toLineItems builds unsaved lines for a dry-run calculation
func toLineItems(items []LineItemInput) []billing.LineItem {
	lines := make([]billing.LineItem, len(items))
	for i, item := range items {
		lines[i] = billing.LineItem{
			Order:       i + 1,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TaxRate:     billing.TaxRate(item.TaxRate),
		}
	}
	return lines
}

func (d *DiscountInput) toDomain() (billing.Discount, error) {
	if d == nil {
		return billing.NoDiscount(), nil
	}
	t, err := billing.ParseDiscountType(d.Type)
	if err != nil {
		return billing.Discount{}, err
	}
	return billing.NewDiscount(t, d.Value)
}

// ToDocumentResponse converts a domain Document to a DocumentResponse.
// formatter may be nil, in which case TotalDisplay is left empty.
func ToDocumentResponse(d *billing.Document, formatter *AmountFormatter) DocumentResponse {
	client := d.Client()
	clientResp := ClientResponse{
		Name:    client.Name,
		Email:   client.Email,
		Phone:   client.Phone,
		Address: client.Address,
	}
	if client.ID != uuid.Nil {
		id := client.ID
		clientResp.ID = &id
	}

	items := d.Items()
	itemResps := make([]LineItemResponse, len(items))
	for i, item := range items {
		itemResps[i] = LineItemResponse{
			ID:          item.ID,
			Order:       item.Order,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TaxRate:     int(item.TaxRate),
			LineTotal:   item.LineTotal(),
		}
	}

	discount := d.Discount()
	discountType := string(discount.Type)
	if discountType == "" {
		discountType = string(billing.DiscountDollar)
	}

	resp := DocumentResponse{
		ID:                 d.ID,
		CompanyID:          d.CompanyID,
		Kind:               string(d.Kind()),
		DocumentNumber:     d.DocumentNumber(),
		Revision:           d.Revision(),
		Status:             string(d.Status()),
		Client:             clientResp,
		Items:              itemResps,
		DiscountType:       discountType,
		DiscountValue:      discount.Value,
		Subtotal:           d.Subtotal(),
		TaxAmount:          d.TaxAmount(),
		TotalPrice:         d.TotalPrice(),
		Notes:              d.Notes(),
		IssueDate:          d.IssueDate(),
		DueDate:            d.DueDate(),
		SourceDocumentID:   d.SourceDocumentID(),
		PreviousRevisionID: d.PreviousRevisionID(),
		IsLatestRevision:   d.IsLatestRevision(),
		IsLocked:           d.IsLocked(),
		AllowedTransitions: allowedTransitions(d),
		Version:            d.GetVersion(),
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
	if formatter != nil {
		resp.TotalDisplay = formatter.Format(d.TotalPrice())
	}
	return resp
}

// ToDocumentResponses converts a slice of documents
func ToDocumentResponses(docs []*billing.Document, formatter *AmountFormatter) []DocumentResponse {
	responses := make([]DocumentResponse, len(docs))
	for i, d := range docs {
		responses[i] = ToDocumentResponse(d, formatter)
	}
	return responses
}

func allowedTransitions(d *billing.Document) []string {
	allowed := []string{}
	if d.IsSuperseded() {
		return allowed
	}
	machine := d.Machine()
	for _, s := range machine.Statuses() {
		if machine.CanTransition(d.Status(), s) {
			allowed = append(allowed, string(s))
		}
	}
	return allowed
}
