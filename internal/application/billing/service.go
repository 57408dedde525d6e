package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/quick-ledger/ottero/internal/domain/billing"
	"github.com/quick-ledger/ottero/internal/domain/shared"
	"github.com/quick-ledger/ottero/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ErrConversionConfirmationRequired is returned by Convert when the quote
// already has invoices and the caller did not confirm another conversion
var ErrConversionConfirmationRequired = shared.NewDomainError(
	shared.CodeConfirmationRequired, "Quote already converted; confirmation required")

// maxNumberAttempts bounds how many sequence values Create skips when a
// number is already taken by imported data
const maxNumberAttempts = 5

// DocumentService handles quote and invoice operations. Every method takes
// the owning company explicitly.
type DocumentService struct {
	repo           billing.DocumentRepository
	sequence       billing.NumberSequence
	numberFormat   billing.NumberFormat
	formatter      *AmountFormatter
	maxRetries     int
	logger         *zap.Logger
	eventPublisher shared.EventPublisher
}

// ServiceOption configures a DocumentService
type ServiceOption func(*DocumentService)

// WithNumberFormat sets the document number format
func WithNumberFormat(format billing.NumberFormat) ServiceOption {
	return func(s *DocumentService) {
		s.numberFormat = format
	}
}

// WithConflictRetries sets how many times an operation is re-run against a
// freshly loaded document after a concurrency conflict
func WithConflictRetries(n int) ServiceOption {
	return func(s *DocumentService) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithAmountFormatter adds formatted totals to responses
func WithAmountFormatter(f *AmountFormatter) ServiceOption {
	return func(s *DocumentService) {
		s.formatter = f
	}
}

// WithLogger sets the fallback logger used when the context carries none
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *DocumentService) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(repo billing.DocumentRepository, sequence billing.NumberSequence, opts ...ServiceOption) *DocumentService {
	s := &DocumentService{
		repo:         repo,
		sequence:     sequence,
		numberFormat: billing.DefaultNumberFormat(),
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetEventPublisher sets the event publisher for document events
func (s *DocumentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// ==================== Queries ====================

// GetByID retrieves a document by ID
func (s *DocumentService) GetByID(ctx context.Context, companyID, id uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.repo.FindByIDForCompany(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return s.respond(doc), nil
}

// List retrieves documents with filtering and pagination
func (s *DocumentService) List(ctx context.Context, companyID uuid.UUID, filter DocumentListFilter) ([]DocumentResponse, int64, error) {
	domainFilter, err := toDomainFilter(filter)
	if err != nil {
		return nil, 0, err
	}

	docs, err := s.repo.FindAllForCompany(ctx, companyID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountForCompany(ctx, companyID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToDocumentResponses(docs, s.formatter), total, nil
}

// RevisionHistory lists every revision of a document number, oldest first
func (s *DocumentService) RevisionHistory(ctx context.Context, companyID uuid.UUID, number string) ([]DocumentResponse, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Document number is required")
	}
	docs, err := s.repo.FindRevisions(ctx, companyID, number)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Document %s not found", number))
	}
	return ToDocumentResponses(docs, s.formatter), nil
}

// LinkedInvoices lists the invoices converted from a quote
func (s *DocumentService) LinkedInvoices(ctx context.Context, companyID, quoteID uuid.UUID) ([]DocumentResponse, error) {
	quote, err := s.repo.FindByIDForCompany(ctx, companyID, quoteID)
	if err != nil {
		return nil, err
	}
	if !quote.IsQuote() {
		return nil, shared.NewDomainError(shared.CodeUnsupportedOperation,
			fmt.Sprintf("Document %s is not a quote", quote.DocumentNumber()))
	}
	invoices, err := s.repo.FindBySourceDocument(ctx, companyID, quoteID)
	if err != nil {
		return nil, err
	}
	return ToDocumentResponses(invoices, s.formatter), nil
}

// CountByStatus counts the latest revisions of a kind per status
func (s *DocumentService) CountByStatus(ctx context.Context, companyID uuid.UUID, kind string) (*StatusCountResponse, error) {
	k, err := billing.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.CountByStatus(ctx, companyID, k)
	if err != nil {
		return nil, err
	}

	resp := &StatusCountResponse{Kind: string(k), Counts: make(map[string]int64, len(counts))}
	for status, n := range counts {
		resp.Counts[string(status)] = n
		resp.Total += n
	}
	return resp, nil
}

// Calculate computes totals for unsaved lines and discount. Nothing is stored.
func (s *DocumentService) Calculate(ctx context.Context, req CalculateRequest) (*CalculationResponse, error) {
	discount, err := req.Discount.toDomain()
	if err != nil {
		return nil, err
	}
	totals, err := billing.ComputeWithDiscount(toLineItems(req.Items), discount)
	if err != nil {
		return nil, err
	}

	resp := &CalculationResponse{
		Subtotal:   totals.Subtotal,
		TaxAmount:  totals.TaxAmount,
		TotalPrice: totals.TotalPrice,
		LineTotals: totals.LineTotals,
	}
	if s.formatter != nil {
		resp.TotalDisplay = s.formatter.Format(totals.TotalPrice)
	}
	return resp, nil
}

// ==================== Commands ====================

// Create creates a numbered draft quote or invoice
func (s *DocumentService) Create(ctx context.Context, companyID uuid.UUID, req CreateDocumentRequest) (*DocumentResponse, error) {
	kind, err := billing.ParseKind(req.Kind)
	if err != nil {
		return nil, err
	}
	discount, err := req.Discount.toDomain()
	if err != nil {
		return nil, err
	}

	doc, err := billing.NewDocument(companyID, kind, billing.DraftInput{
		Client:    req.Client.toDomain(),
		Items:     toLineInputs(req.Items),
		Discount:  discount,
		Notes:     req.Notes,
		IssueDate: req.IssueDate,
		DueDate:   req.DueDate,
	})
	if err != nil {
		return nil, err
	}

	if err := s.createNumbered(ctx, doc); err != nil {
		return nil, err
	}

	s.log(ctx).Info("Document created",
		zap.String("document_id", doc.ID.String()),
		zap.String("company_id", companyID.String()),
		zap.String("kind", string(kind)),
		zap.String("document_number", doc.DocumentNumber()),
	)
	return s.respond(doc), nil
}

// Update changes a draft. A request that only carries notes is accepted in
// any status, like UpdateNotes.
func (s *DocumentService) Update(ctx context.Context, companyID, id uuid.UUID, req UpdateDocumentRequest) (*DocumentResponse, error) {
	var discount *billing.Discount
	if req.Discount != nil {
		d, err := req.Discount.toDomain()
		if err != nil {
			return nil, err
		}
		discount = &d
	}

	doc, err := s.mutate(ctx, companyID, id, func(doc *billing.Document) error {
		if !req.touchesContent() {
			if req.Notes == nil {
				return nil
			}
			return doc.SetNotes(*req.Notes)
		}
		return doc.UpdateDraft(mergeDraft(doc, req, discount))
	})
	if err != nil {
		return nil, err
	}
	return s.respond(doc), nil
}

// UpdateNotes replaces the notes of a document in any status
func (s *DocumentService) UpdateNotes(ctx context.Context, companyID, id uuid.UUID, req UpdateNotesRequest) (*DocumentResponse, error) {
	doc, err := s.mutate(ctx, companyID, id, func(doc *billing.Document) error {
		return doc.SetNotes(req.Notes)
	})
	if err != nil {
		return nil, err
	}
	return s.respond(doc), nil
}

// Transition moves a document to the requested status
func (s *DocumentService) Transition(ctx context.Context, companyID, id uuid.UUID, req TransitionRequest) (*DocumentResponse, error) {
	target, err := billing.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, companyID, id, target)
}

// Send marks a document as sent
func (s *DocumentService) Send(ctx context.Context, companyID, id uuid.UUID) (*DocumentResponse, error) {
	return s.transition(ctx, companyID, id, billing.StatusSent)
}

// Accept records acceptance of a quote
func (s *DocumentService) Accept(ctx context.Context, companyID, id uuid.UUID) (*DocumentResponse, error) {
	return s.transition(ctx, companyID, id, billing.StatusAccepted)
}

// Reject records rejection of a quote
func (s *DocumentService) Reject(ctx context.Context, companyID, id uuid.UUID) (*DocumentResponse, error) {
	return s.transition(ctx, companyID, id, billing.StatusRejected)
}

// Cancel cancels a document
func (s *DocumentService) Cancel(ctx context.Context, companyID, id uuid.UUID) (*DocumentResponse, error) {
	return s.transition(ctx, companyID, id, billing.StatusCancelled)
}

// MarkPaid records payment of an invoice
func (s *DocumentService) MarkPaid(ctx context.Context, companyID, id uuid.UUID) (*DocumentResponse, error) {
	return s.transition(ctx, companyID, id, billing.StatusPaid)
}

func (s *DocumentService) transition(ctx context.Context, companyID, id uuid.UUID, target billing.Status) (*DocumentResponse, error) {
	var from billing.Status
	doc, err := s.mutate(ctx, companyID, id, func(doc *billing.Document) error {
		from = doc.Status()
		return doc.TransitionTo(target)
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("Document status changed",
		zap.String("document_id", doc.ID.String()),
		zap.String("company_id", companyID.String()),
		zap.String("document_number", doc.DocumentNumber()),
		zap.String("from_status", string(from)),
		zap.String("status", string(doc.Status())),
	)
	return s.respond(doc), nil
}

// Delete removes a draft
func (s *DocumentService) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	doc, err := s.repo.FindByIDForCompany(ctx, companyID, id)
	if err != nil {
		return err
	}
	if err := doc.Delete(); err != nil {
		return err
	}
	if err := s.repo.DeleteForCompany(ctx, companyID, id, doc.Version); err != nil {
		return err
	}
	s.publishEvents(ctx, doc)
	return nil
}

// Revise creates the next revision of a sent, accepted or rejected quote.
// The prior revision becomes read-only.
func (s *DocumentService) Revise(ctx context.Context, companyID, id uuid.UUID) (*DocumentResponse, error) {
	var next *billing.Document
	err := s.withRetry(ctx, func() error {
		prior, err := s.repo.FindByIDForCompany(ctx, companyID, id)
		if err != nil {
			return err
		}
		candidate, err := billing.Revise(prior)
		if err != nil {
			return err
		}
		if err := s.repo.CreateRevision(ctx, prior, candidate); err != nil {
			return err
		}
		next = candidate
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, next)

	s.log(ctx).Info("Quote revised",
		zap.String("document_id", next.ID.String()),
		zap.String("company_id", companyID.String()),
		zap.String("document_number", next.DocumentNumber()),
		zap.Int("revision", next.Revision()),
	)
	return s.respond(next), nil
}

// Duplicate copies a document into a new numbered draft of the same kind
func (s *DocumentService) Duplicate(ctx context.Context, companyID, id uuid.UUID) (*DocumentResponse, error) {
	source, err := s.repo.FindByIDForCompany(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	copied, err := billing.Duplicate(source)
	if err != nil {
		return nil, err
	}
	if err := s.createNumbered(ctx, copied); err != nil {
		return nil, err
	}
	return s.respond(copied), nil
}

// Convert creates a draft invoice from an accepted quote. When the quote
// already has invoices the call fails with ErrConversionConfirmationRequired
// unless confirm is set.
func (s *DocumentService) Convert(ctx context.Context, companyID, quoteID uuid.UUID, confirm bool) (*ConversionResponse, error) {
	quote, err := s.repo.FindByIDForCompany(ctx, companyID, quoteID)
	if err != nil {
		return nil, err
	}
	invoice, err := billing.ConvertToInvoice(quote)
	if err != nil {
		return nil, err
	}

	linked, err := s.repo.FindBySourceDocument(ctx, companyID, quoteID)
	if err != nil {
		return nil, err
	}
	if len(linked) > 0 && !confirm {
		numbers := make([]string, len(linked))
		for i, inv := range linked {
			numbers[i] = inv.DocumentNumber()
		}
		return nil, shared.NewDomainError(shared.CodeConfirmationRequired,
			fmt.Sprintf("Quote %s already has %d invoice(s): %s; confirm to create another",
				quote.DocumentNumber(), len(linked), strings.Join(numbers, ", ")))
	}

	if err := s.createNumbered(ctx, invoice); err != nil {
		return nil, err
	}

	s.log(ctx).Info("Quote converted",
		zap.String("quote_id", quoteID.String()),
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("company_id", companyID.String()),
		zap.String("invoice_number", invoice.DocumentNumber()),
		zap.Int("previous_invoices", len(linked)),
	)
	return &ConversionResponse{
		Invoice:              ToDocumentResponse(invoice, s.formatter),
		PreviousInvoiceCount: int64(len(linked)),
	}, nil
}

// ==================== Helpers ====================

// mutate loads the document, applies fn and saves it with the version check.
// A conflict re-runs the whole sequence against a fresh copy.
func (s *DocumentService) mutate(ctx context.Context, companyID, id uuid.UUID, fn func(*billing.Document) error) (*billing.Document, error) {
	var doc *billing.Document
	err := s.withRetry(ctx, func() error {
		loaded, err := s.repo.FindByIDForCompany(ctx, companyID, id)
		if err != nil {
			return err
		}
		if err := fn(loaded); err != nil {
			return err
		}
		if len(loaded.GetDomainEvents()) == 0 {
			doc = loaded
			return nil
		}
		if err := s.repo.SaveWithLock(ctx, loaded); err != nil {
			return err
		}
		doc = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, doc)
	return doc, nil
}

func (s *DocumentService) withRetry(ctx context.Context, op func() error) error {
	for attempt := 0; ; attempt++ {
		err := op()
		if err == nil || !errors.Is(err, shared.ErrConcurrencyConflict) || attempt >= s.maxRetries {
			return err
		}
		s.log(ctx).Warn("Concurrency conflict, retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", s.maxRetries),
		)
	}
}

// createNumbered assigns the next number of the document's kind and inserts it
func (s *DocumentService) createNumbered(ctx context.Context, doc *billing.Document) error {
	for attempt := 1; ; attempt++ {
		seq, err := s.sequence.Next(ctx, doc.CompanyID, doc.Kind())
		if err != nil {
			return err
		}
		number := s.numberFormat.Format(doc.Kind(), seq)
		taken, err := s.repo.ExistsByDocumentNumber(ctx, doc.CompanyID, number)
		if err != nil {
			return err
		}
		if taken {
			if attempt >= maxNumberAttempts {
				return shared.NewDomainError(shared.CodeAlreadyExists,
					fmt.Sprintf("No free %s number after %d attempts", doc.Kind().Label(), attempt))
			}
			s.log(ctx).Warn("Document number already used, skipping", zap.String("document_number", number))
			continue
		}
		if err := doc.AssignNumber(number); err != nil {
			return err
		}
		break
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		return err
	}
	s.publishEvents(ctx, doc)
	return nil
}

// publishEvents hands pending events to the publisher and clears them.
// Publishing failures never undo a committed write.
func (s *DocumentService) publishEvents(ctx context.Context, doc *billing.Document) {
	if n, err := shared.PublishPending(ctx, s.eventPublisher, doc); err != nil {
		s.log(ctx).Warn("Failed to publish document events",
			zap.String("document_id", doc.ID.String()),
			zap.Int("event_count", n),
			zap.Error(err),
		)
	}
}

func (s *DocumentService) respond(doc *billing.Document) *DocumentResponse {
	resp := ToDocumentResponse(doc, s.formatter)
	return &resp
}

func (s *DocumentService) log(ctx context.Context) *zap.Logger {
	if l := logger.FromContext(ctx); l != nil && l.Core().Enabled(zap.FatalLevel) {
		return l
	}
	return s.logger
}

// mergeDraft overlays the request on the current content of doc
func mergeDraft(doc *billing.Document, req UpdateDocumentRequest, discount *billing.Discount) billing.DraftInput {
	input := billing.DraftInput{
		Client:    doc.Client(),
		Discount:  doc.Discount(),
		Notes:     doc.Notes(),
		IssueDate: doc.IssueDate(),
		DueDate:   doc.DueDate(),
	}
	for _, item := range doc.Items() {
		input.Items = append(input.Items, billing.LineItemInput{
			ID:          item.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TaxRate:     item.TaxRate,
		})
	}

	if req.Client != nil {
		input.Client = req.Client.toDomain()
	}
	if req.Items != nil {
		input.Items = toLineInputs(*req.Items)
	}
	if discount != nil {
		input.Discount = *discount
	}
	if req.Notes != nil {
		input.Notes = *req.Notes
	}
	if req.IssueDate != nil {
		input.IssueDate = req.IssueDate
	}
	if req.DueDate != nil {
		input.DueDate = req.DueDate
	}
	return input
}

func toDomainFilter(filter DocumentListFilter) (shared.Filter, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}

	if filter.Kind != "" {
		kind, err := billing.ParseKind(filter.Kind)
		if err != nil {
			return shared.Filter{}, err
		}
		domainFilter.Filters[billing.FilterKind] = kind
	}
	if filter.Status != "" {
		var statuses []billing.Status
		for _, raw := range strings.Split(filter.Status, ",") {
			status, err := billing.ParseStatus(raw)
			if err != nil {
				return shared.Filter{}, err
			}
			statuses = append(statuses, status)
		}
		domainFilter.Filters[billing.FilterStatus] = statuses
	}
	if filter.ClientID != "" {
		clientID, err := uuid.Parse(filter.ClientID)
		if err != nil {
			return shared.Filter{}, shared.NewDomainError(shared.CodeValidation, "client_id must be a UUID")
		}
		domainFilter.Filters[billing.FilterClientID] = clientID
	}
	if filter.DocumentNumber != "" {
		domainFilter.Filters[billing.FilterDocumentNumber] = strings.TrimSpace(filter.DocumentNumber)
	}
	if filter.LatestOnly {
		domainFilter.Filters[billing.FilterLatestOnly] = true
	}
	return domainFilter, nil
}
