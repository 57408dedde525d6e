package event

import (
	"testing"

	"github.com/quick-ledger/ottero/internal/domain/billing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_RoundTrip(t *testing.T) {
	doc, events := sentQuoteEvents(t)
	changed := events[1]

	env, err := NewEnvelope(changed)
	require.NoError(t, err)
	data, err := env.Marshal()
	require.NoError(t, err)

	decoded, err := DecodeEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, EnvelopeVersion, decoded.Version)
	assert.Equal(t, changed.EventID(), decoded.EventID)
	assert.Equal(t, billing.EventTypeDocumentStatusChanged, decoded.EventType)
	assert.Equal(t, billing.AggregateTypeDocument, decoded.AggregateType)
	assert.Equal(t, doc.ID, decoded.AggregateID)
	assert.Equal(t, doc.CompanyID, decoded.CompanyID)
	assert.True(t, changed.OccurredAt().Equal(decoded.OccurredAt))

	var payload billing.DocumentStatusChangedEvent
	require.NoError(t, decoded.DecodePayload(&payload))
	assert.Equal(t, billing.StatusDraft, payload.FromStatus)
	assert.Equal(t, billing.StatusSent, payload.Status)
	assert.Equal(t, "Q-0300", payload.DocumentNumber)
	assert.True(t, payload.TotalPrice.Equal(doc.TotalPrice()))
}

func TestDecodeEnvelope_Invalid(t *testing.T) {
	_, err := DecodeEnvelope([]byte("{not json"))
	assert.Error(t, err)

	_, err = DecodeEnvelope([]byte(`{"version":99,"event_type":"DocumentCreated"}`))
	assert.ErrorContains(t, err, "unsupported envelope version")

	_, err = DecodeEnvelope([]byte(`{"version":1}`))
	assert.ErrorContains(t, err, "without event type")
}
