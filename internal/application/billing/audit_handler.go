package billing

import (
	"context"
	"fmt"

	"github.com/quick-ledger/ottero/internal/domain/billing"
	"github.com/quick-ledger/ottero/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditLogHandler writes one structured log entry per document event
type AuditLogHandler struct {
	logger    *zap.Logger
	formatter *AmountFormatter
}

// AuditLogHandlerOption is a functional option for configuring the handler
type AuditLogHandlerOption func(*AuditLogHandler)

// WithAuditFormatter adds a formatted total to each entry
func WithAuditFormatter(f *AmountFormatter) AuditLogHandlerOption {
	return func(h *AuditLogHandler) {
		h.formatter = f
	}
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(logger *zap.Logger, opts ...AuditLogHandlerOption) *AuditLogHandler {
	h := &AuditLogHandler{logger: logger.Named("audit")}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *AuditLogHandler) EventTypes() []string {
	return billing.AllEventTypes
}

// Handle logs a document event
func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	docEvent, ok := event.(billing.DocumentEvent)
	if !ok {
		h.logger.Error("unexpected event type", zap.String("actual", event.EventType()))
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	doc := docEvent.Document()
	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
		zap.String("company_id", event.CompanyID().String()),
		zap.String("document_id", doc.ID.String()),
		zap.String("kind", string(doc.Kind)),
		zap.String("document_number", doc.Number),
		zap.Int("revision", doc.Revision),
		zap.String("status", string(doc.Status)),
		zap.String("total_price", doc.TotalPrice.StringFixed(2)),
		zap.Time("occurred_at", event.OccurredAt()),
	}
	if h.formatter != nil {
		fields = append(fields, zap.String("total_display", h.formatter.Format(doc.TotalPrice)))
	}

	switch e := event.(type) {
	case *billing.DocumentUpdatedEvent:
		fields = append(fields, zap.Int("item_count", e.ItemCount))
	case *billing.DocumentStatusChangedEvent:
		fields = append(fields, zap.String("from_status", string(e.FromStatus)))
	case *billing.DocumentRevisedEvent:
		fields = append(fields, zap.String("previous_revision_id", e.PreviousRevisionID.String()))
	case *billing.DocumentDuplicatedEvent:
		fields = append(fields, zap.String("template_id", e.TemplateID.String()))
	case *billing.QuoteConvertedEvent:
		fields = append(fields, zap.String("quote_id", e.QuoteID.String()))
	}

	h.logger.Info("document event", fields...)
	return nil
}
