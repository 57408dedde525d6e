package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/quick-ledger/ottero/internal/application/billing"
	"github.com/quick-ledger/ottero/internal/interfaces/http/router"
)

// Pagination defaults for list endpoints
const (
	DefaultPage     = 1
	DefaultPageSize = 20
)

// DocumentService is the application surface the document endpoints call
type DocumentService interface {
	GetByID(ctx context.Context, companyID, id uuid.UUID) (*billingapp.DocumentResponse, error)
	List(ctx context.Context, companyID uuid.UUID, filter billingapp.DocumentListFilter) ([]billingapp.DocumentResponse, int64, error)
	RevisionHistory(ctx context.Context, companyID uuid.UUID, number string) ([]billingapp.DocumentResponse, error)
	LinkedInvoices(ctx context.Context, companyID, quoteID uuid.UUID) ([]billingapp.DocumentResponse, error)
	CountByStatus(ctx context.Context, companyID uuid.UUID, kind string) (*billingapp.StatusCountResponse, error)
	Calculate(ctx context.Context, req billingapp.CalculateRequest) (*billingapp.CalculationResponse, error)

	Create(ctx context.Context, companyID uuid.UUID, req billingapp.CreateDocumentRequest) (*billingapp.DocumentResponse, error)
	Update(ctx context.Context, companyID, id uuid.UUID, req billingapp.UpdateDocumentRequest) (*billingapp.DocumentResponse, error)
	UpdateNotes(ctx context.Context, companyID, id uuid.UUID, req billingapp.UpdateNotesRequest) (*billingapp.DocumentResponse, error)
	Transition(ctx context.Context, companyID, id uuid.UUID, req billingapp.TransitionRequest) (*billingapp.DocumentResponse, error)
	Send(ctx context.Context, companyID, id uuid.UUID) (*billingapp.DocumentResponse, error)
	Accept(ctx context.Context, companyID, id uuid.UUID) (*billingapp.DocumentResponse, error)
	Reject(ctx context.Context, companyID, id uuid.UUID) (*billingapp.DocumentResponse, error)
	Cancel(ctx context.Context, companyID, id uuid.UUID) (*billingapp.DocumentResponse, error)
	MarkPaid(ctx context.Context, companyID, id uuid.UUID) (*billingapp.DocumentResponse, error)
	Delete(ctx context.Context, companyID, id uuid.UUID) error
	Revise(ctx context.Context, companyID, id uuid.UUID) (*billingapp.DocumentResponse, error)
	Duplicate(ctx context.Context, companyID, id uuid.UUID) (*billingapp.DocumentResponse, error)
	Convert(ctx context.Context, companyID, quoteID uuid.UUID, confirm bool) (*billingapp.ConversionResponse, error)
}

var _ DocumentService = (*billingapp.DocumentService)(nil)

// DocumentHandler handles quote and invoice endpoints
type DocumentHandler struct {
	BaseHandler
	service DocumentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(service DocumentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// Routes returns the billing route group. middlewares run before every
// billing handler, typically the company scope.
func (h *DocumentHandler) Routes(middlewares ...gin.HandlerFunc) *router.DomainGroup {
	g := router.NewDomainGroup("billing", "/billing").Use(middlewares...)

	g.POST("/calculate", h.Calculate)

	g.POST("/documents", h.Create)
	g.GET("/documents", h.List)
	g.GET("/documents/stats/count", h.CountByStatus)
	g.GET("/documents/number/:number/revisions", h.RevisionHistory)
	g.GET("/documents/:id", h.GetByID)
	g.PUT("/documents/:id", h.Update)
	g.PATCH("/documents/:id/notes", h.UpdateNotes)
	g.DELETE("/documents/:id", h.Delete)

	g.POST("/documents/:id/transitions", h.Transition)
	g.POST("/documents/:id/send", h.named(h.service.Send))
	g.POST("/documents/:id/accept", h.named(h.service.Accept))
	g.POST("/documents/:id/reject", h.named(h.service.Reject))
	g.POST("/documents/:id/cancel", h.named(h.service.Cancel))
	g.POST("/documents/:id/pay", h.named(h.service.MarkPaid))

	g.POST("/documents/:id/revise", h.Revise)
	g.POST("/documents/:id/duplicate", h.Duplicate)
	g.POST("/documents/:id/convert", h.Convert)
	g.GET("/documents/:id/invoices", h.LinkedInvoices)
	return g
}

// Create handles POST /billing/documents
// Creates a numbered draft quote or invoice from the client, lines and
// discount in the body. Responds 201 with the document, 400 on invalid input.
func (h *DocumentHandler) Create(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	var req billingapp.CreateDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.Create(c.Request.Context(), companyID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}

// GetByID handles GET /billing/documents/:id
// Responds 404 when the document does not belong to the caller's company.
func (h *DocumentHandler) GetByID(c *gin.Context) {
	companyID, id, ok := h.target(c)
	if !ok {
		return
	}
	doc, err := h.service.GetByID(c.Request.Context(), companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// List handles GET /billing/documents
// Filters by kind, status, client_id, document_number and search text.
// Pagination defaults to page 1 with 20 rows; totals are in meta.
func (h *DocumentHandler) List(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	var filter billingapp.DocumentListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	if filter.Page <= 0 {
		filter.Page = DefaultPage
	}
	if filter.PageSize <= 0 {
		filter.PageSize = DefaultPageSize
	}

	docs, total, err := h.service.List(c.Request.Context(), companyID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, docs, total, filter.Page, filter.PageSize)
}

// Update handles PUT /billing/documents/:id
// Replaces the given fields of a draft. A body with only notes is accepted
// in any status. Responds 422 when content is locked, 409 on a stale write.
func (h *DocumentHandler) Update(c *gin.Context) {
	companyID, id, ok := h.target(c)
	if !ok {
		return
	}
	var req billingapp.UpdateDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.Update(c.Request.Context(), companyID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// UpdateNotes handles PATCH /billing/documents/:id/notes
// Notes stay editable after a document is sent.
func (h *DocumentHandler) UpdateNotes(c *gin.Context) {
	companyID, id, ok := h.target(c)
	if !ok {
		return
	}
	var req billingapp.UpdateNotesRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.UpdateNotes(c.Request.Context(), companyID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Delete handles DELETE /billing/documents/:id
// Only drafts are removed. Responds 204, 422 for other statuses and 409
// when the draft changed since it was read.
func (h *DocumentHandler) Delete(c *gin.Context) {
	companyID, id, ok := h.target(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), companyID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Transition handles POST /billing/documents/:id/transitions
// Body {"status": "SENT"}. Responds 422 for a move the status machine rejects.
func (h *DocumentHandler) Transition(c *gin.Context) {
	companyID, id, ok := h.target(c)
	if !ok {
		return
	}
	var req billingapp.TransitionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.Transition(c.Request.Context(), companyID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

type transitionFunc func(ctx context.Context, companyID, id uuid.UUID) (*billingapp.DocumentResponse, error)

// named wraps a fixed-target transition such as send or accept
func (h *DocumentHandler) named(fn transitionFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID, id, ok := h.target(c)
		if !ok {
			return
		}
		doc, err := fn(c.Request.Context(), companyID, id)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, doc)
	}
}

// Revise handles POST /billing/documents/:id/revise
// Creates the next revision as a draft under the same number and freezes
// the prior one. Responds 201.
func (h *DocumentHandler) Revise(c *gin.Context) {
	companyID, id, ok := h.target(c)
	if !ok {
		return
	}
	doc, err := h.service.Revise(c.Request.Context(), companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}

// Duplicate handles POST /billing/documents/:id/duplicate
// Copies lines, client and discount into a new numbered draft. Responds 201.
func (h *DocumentHandler) Duplicate(c *gin.Context) {
	companyID, id, ok := h.target(c)
	if !ok {
		return
	}
	doc, err := h.service.Duplicate(c.Request.Context(), companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}

// Convert handles POST /billing/documents/:id/convert?confirm=true
// Creates a draft invoice from an accepted quote. A quote that already has
// invoices needs confirm=true, otherwise the response is 409.
func (h *DocumentHandler) Convert(c *gin.Context) {
	companyID, id, ok := h.target(c)
	if !ok {
		return
	}
	confirm := false
	if raw := c.Query("confirm"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			h.BadRequest(c, "Invalid confirm: must be a boolean")
			return
		}
		confirm = v
	}

	result, err := h.service.Convert(c.Request.Context(), companyID, id, confirm)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// LinkedInvoices handles GET /billing/documents/:id/invoices
func (h *DocumentHandler) LinkedInvoices(c *gin.Context) {
	companyID, id, ok := h.target(c)
	if !ok {
		return
	}
	invoices, err := h.service.LinkedInvoices(c.Request.Context(), companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoices)
}

// RevisionHistory handles GET /billing/documents/number/:number/revisions
func (h *DocumentHandler) RevisionHistory(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	revisions, err := h.service.RevisionHistory(c.Request.Context(), companyID, c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, revisions)
}

// CountByStatus handles GET /billing/documents/stats/count?kind=QUOTE
// Counts latest revisions only.
func (h *DocumentHandler) CountByStatus(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	counts, err := h.service.CountByStatus(c.Request.Context(), companyID, c.Query("kind"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, counts)
}

// Calculate handles POST /billing/calculate
// Returns totals for unsaved lines; nothing is stored.
func (h *DocumentHandler) Calculate(c *gin.Context) {
	var req billingapp.CalculateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.service.Calculate(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *DocumentHandler) target(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	companyID, ok := h.companyID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return companyID, id, true
}
