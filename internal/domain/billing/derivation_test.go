package billing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sentQuote(t *testing.T, number string) *Document {
	t.Helper()
	doc, err := NewQuote(uuid.New(), DraftInput{
		Client:   testClient(),
		Items:    []LineItemInput{{ID: uuid.New(), Description: "Audit", Quantity: dec("1"), UnitPrice: dec("200"), TaxRate: TaxRateGST}},
		Discount: NoDiscount(),
		Notes:    "Valid for 30 days",
	})
	require.NoError(t, err)
	require.NoError(t, doc.AssignNumber(number))
	require.NoError(t, doc.Send())
	doc.ClearDomainEvents()
	return doc
}

func assertLinesCopied(t *testing.T, from, to *Document) {
	t.Helper()
	src := from.Items()
	dst := to.Items()
	require.Len(t, dst, len(src))
	for i := range src {
		assert.Equal(t, uuid.Nil, dst[i].ID, "line identity must be cleared")
		assert.Equal(t, src[i].Order, dst[i].Order)
		assert.Equal(t, src[i].Description, dst[i].Description)
		assert.True(t, src[i].Quantity.Equal(dst[i].Quantity))
		assert.True(t, src[i].UnitPrice.Equal(dst[i].UnitPrice))
		assert.Equal(t, src[i].TaxRate, dst[i].TaxRate)
		assert.True(t, src[i].LineTotal().Equal(dst[i].LineTotal()))
	}
}

// ===== Revise Tests =====

func TestRevise_SentQuote(t *testing.T) {
	quote := sentQuote(t, "Q-0042")
	before := quote.Snapshot()

	next, err := Revise(quote)
	require.NoError(t, err)

	assert.Equal(t, "Q-0042", next.DocumentNumber())
	assert.Equal(t, 1, next.Revision())
	assert.Equal(t, StatusDraft, next.Status())
	assert.Equal(t, KindQuote, next.Kind())
	require.NotNil(t, next.PreviousRevisionID())
	assert.Equal(t, quote.ID, *next.PreviousRevisionID())
	assert.NotEqual(t, quote.ID, next.ID)
	assert.Equal(t, quote.CompanyID, next.CompanyID)
	assert.Equal(t, quote.Client(), next.Client())
	assert.Nil(t, next.SourceDocumentID())
	assert.True(t, quote.Totals().Equal(next.Totals()))
	assertLinesCopied(t, quote, next)

	assert.Equal(t, before, quote.Snapshot(), "prior revision must be untouched")
	assert.Empty(t, quote.GetDomainEvents())

	events := next.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeDocumentRevised, events[0].EventType())
}

func TestRevise_AllowedStatuses(t *testing.T) {
	for _, path := range [][]Status{{}, {StatusAccepted}, {StatusRejected}} {
		quote := sentQuote(t, "Q-0007")
		moveTo(t, quote, path...)
		t.Run(string(quote.Status()), func(t *testing.T) {
			assert.True(t, CanRevise(quote))
			next, err := Revise(quote)
			require.NoError(t, err)
			assert.Equal(t, quote.Revision()+1, next.Revision())
		})
	}
}

func TestRevise_Lineage(t *testing.T) {
	quote := sentQuote(t, "Q-0100")
	current := quote
	for i := 1; i <= 3; i++ {
		next, err := Revise(current)
		require.NoError(t, err)
		assert.Equal(t, current.DocumentNumber(), next.DocumentNumber())
		assert.Equal(t, current.Revision()+1, next.Revision())
		require.NoError(t, next.Send())
		current = next
	}
	assert.Equal(t, 3, current.Revision())
}

func TestRevise_Rejected(t *testing.T) {
	t.Run("draft quote", func(t *testing.T) {
		doc := createTestDocument(t, KindQuote)
		_, err := Revise(doc)
		assert.True(t, IsInvalidTransition(err))
		assert.False(t, CanRevise(doc))
	})

	t.Run("cancelled quote", func(t *testing.T) {
		doc := sentQuote(t, "Q-0001")
		moveTo(t, doc, StatusCancelled)
		_, err := Revise(doc)
		assert.True(t, IsInvalidTransition(err))
	})

	t.Run("invoice", func(t *testing.T) {
		doc := createTestDocument(t, KindInvoice)
		moveTo(t, doc, StatusSent)
		_, err := Revise(doc)
		assert.True(t, IsUnsupportedOperation(err))
	})

	t.Run("nil", func(t *testing.T) {
		_, err := Revise(nil)
		assert.True(t, IsValidationError(err))
	})
}

// ===== Duplicate Tests =====

func TestDuplicate(t *testing.T) {
	sources := map[string]func(t *testing.T) *Document{
		"sent quote": func(t *testing.T) *Document { return sentQuote(t, "Q-0050") },
		"paid invoice": func(t *testing.T) *Document {
			doc := createTestDocument(t, KindInvoice)
			moveTo(t, doc, StatusSent, StatusPaid)
			return doc
		},
		"cancelled quote": func(t *testing.T) *Document {
			doc := sentQuote(t, "Q-0051")
			moveTo(t, doc, StatusCancelled)
			return doc
		},
		"draft invoice": func(t *testing.T) *Document { return createTestDocument(t, KindInvoice) },
	}

	for name, build := range sources {
		t.Run(name, func(t *testing.T) {
			src := build(t)
			src.ClearDomainEvents()
			dup, err := Duplicate(src)
			require.NoError(t, err)

			assert.Equal(t, src.Kind(), dup.Kind())
			assert.Empty(t, dup.DocumentNumber())
			assert.Equal(t, 0, dup.Revision())
			assert.Equal(t, StatusDraft, dup.Status())
			assert.Nil(t, dup.PreviousRevisionID())
			assert.Nil(t, dup.SourceDocumentID())
			assert.NotEqual(t, src.ID, dup.ID)
			assert.Equal(t, src.Client(), dup.Client())
			assert.True(t, src.Discount().Equal(dup.Discount()))
			assert.True(t, src.Totals().Equal(dup.Totals()))
			assertLinesCopied(t, src, dup)
			assert.False(t, dup.IsLocked())

			events := dup.GetDomainEvents()
			require.Len(t, events, 1)
			dupEvent, ok := events[0].(*DocumentDuplicatedEvent)
			require.True(t, ok)
			assert.Equal(t, src.ID, dupEvent.TemplateID)
		})
	}
}

// ===== Convert Tests =====

func TestConvertToInvoice(t *testing.T) {
	quote := sentQuote(t, "Q-0042")
	require.NoError(t, quote.SetNotes("Deposit required"))
	require.NoError(t, quote.Accept())
	require.Equal(t, "220.00", quote.TotalPrice().StringFixed(2))
	assert.True(t, CanConvert(quote))

	invoice, err := ConvertToInvoice(quote)
	require.NoError(t, err)

	assert.Equal(t, KindInvoice, invoice.Kind())
	assert.Equal(t, StatusDraft, invoice.Status())
	assert.Equal(t, 0, invoice.Revision())
	assert.Empty(t, invoice.DocumentNumber())
	require.NotNil(t, invoice.SourceDocumentID())
	assert.Equal(t, quote.ID, *invoice.SourceDocumentID())
	assert.Nil(t, invoice.PreviousRevisionID())
	assert.Equal(t, quote.Client(), invoice.Client())
	assert.True(t, quote.Discount().Equal(invoice.Discount()))
	assert.Equal(t, "220.00", invoice.TotalPrice().StringFixed(2))
	assert.Equal(t, "Deposit required", invoice.Notes())
	assertLinesCopied(t, quote, invoice)
	assert.Equal(t, StatusAccepted, quote.Status())

	events := invoice.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeQuoteConverted, events[0].EventType())
}

func TestConvertToInvoice_SecondConversionAllowed(t *testing.T) {
	quote := sentQuote(t, "Q-0043")
	require.NoError(t, quote.Accept())

	first, err := ConvertToInvoice(quote)
	require.NoError(t, err)
	second, err := ConvertToInvoice(quote)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestConvertToInvoice_Rejected(t *testing.T) {
	t.Run("sent quote", func(t *testing.T) {
		_, err := ConvertToInvoice(sentQuote(t, "Q-0001"))
		assert.True(t, IsInvalidTransition(err))
	})

	t.Run("rejected quote", func(t *testing.T) {
		quote := sentQuote(t, "Q-0002")
		require.NoError(t, quote.Reject())
		_, err := ConvertToInvoice(quote)
		assert.True(t, IsInvalidTransition(err))
		assert.False(t, CanConvert(quote))
	})

	t.Run("invoice source", func(t *testing.T) {
		_, err := ConvertToInvoice(createTestDocument(t, KindInvoice))
		assert.True(t, IsUnsupportedOperation(err))
	})
}

func TestNumberFormat(t *testing.T) {
	f := DefaultNumberFormat()
	assert.Equal(t, "Q-0042", f.Format(KindQuote, 42))
	assert.Equal(t, "INV-0042", f.Format(KindInvoice, 42))
	assert.Equal(t, "Q-123456", f.Format(KindQuote, 123456))
	assert.True(t, f.Matches(KindInvoice, "INV-0001"))
	assert.False(t, f.Matches(KindQuote, "INV-0001"))

	narrow := NumberFormat{QuotePrefix: "EST", InvoicePrefix: "TAX", Width: 0}
	assert.Equal(t, "EST7", narrow.Format(KindQuote, 7))
}
