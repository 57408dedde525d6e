package telemetry

import (
	"context"
	"fmt"

	"github.com/quick-ledger/ottero/internal/domain/billing"
	"github.com/quick-ledger/ottero/internal/domain/shared"
	"go.opentelemetry.io/otel/metric"
)

// DocumentMetrics records document lifecycle metrics from domain events
type DocumentMetrics struct {
	events      *Counter
	transitions *Counter
	conversions *Counter
	totals      *Histogram
}

// NewDocumentMetrics creates the billing instruments on meter
func NewDocumentMetrics(meter metric.Meter) (*DocumentMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	events, err := NewCounter(meter, "billing.document.events", "Document events by kind and type", "{event}")
	if err != nil {
		return nil, err
	}
	transitions, err := NewCounter(meter, "billing.document.transitions", "Document status transitions", "{transition}")
	if err != nil {
		return nil, err
	}
	conversions, err := NewCounter(meter, "billing.quote.conversions", "Quotes converted to invoices", "{conversion}")
	if err != nil {
		return nil, err
	}
	totals, err := NewHistogram(meter, HistogramOpts{
		Name:        "billing.document.total",
		Description: "Document total at each status transition",
		Unit:        "{currency}",
		Boundaries:  AmountBuckets,
	})
	if err != nil {
		return nil, err
	}

	return &DocumentMetrics{
		events:      events,
		transitions: transitions,
		conversions: conversions,
		totals:      totals,
	}, nil
}

// EventTypes returns the event types this handler is interested in
func (m *DocumentMetrics) EventTypes() []string {
	return billing.AllEventTypes
}

// Handle records one document event
func (m *DocumentMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	docEvent, ok := event.(billing.DocumentEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}
	doc := docEvent.Document()
	kind := AttrKind.String(string(doc.Kind))

	m.events.Inc(ctx, kind, AttrEventType.String(event.EventType()))

	switch e := event.(type) {
	case *billing.DocumentStatusChangedEvent:
		status := AttrStatus.String(string(doc.Status))
		m.transitions.Inc(ctx, kind, AttrFromStatus.String(string(e.FromStatus)), status)
		m.totals.Record(ctx, doc.TotalPrice.InexactFloat64(), kind, status)
	case *billing.QuoteConvertedEvent:
		m.conversions.Inc(ctx)
	}
	return nil
}

var _ shared.EventHandler = (*DocumentMetrics)(nil)
