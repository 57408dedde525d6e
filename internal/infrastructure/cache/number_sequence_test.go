package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/quick-ledger/ottero/internal/domain/billing"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisNumberSequence_Key(t *testing.T) {
	companyID := uuid.MustParse("3f1c2a9e-6a43-4d6c-9a52-0c3f0b9a7e11")

	s := NewRedisNumberSequence(nil, "")
	assert.Equal(t, "ottero:seq:3f1c2a9e-6a43-4d6c-9a52-0c3f0b9a7e11:QUOTE", s.Key(companyID, billing.KindQuote))

	s = NewRedisNumberSequence(nil, "test:")
	assert.Equal(t, "test:3f1c2a9e-6a43-4d6c-9a52-0c3f0b9a7e11:INVOICE", s.Key(companyID, billing.KindInvoice))
}

func TestRedisNumberSequence_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	defer client.Close()
	s := NewRedisNumberSequence(client, "")

	_, err := s.Next(context.Background(), uuid.New(), billing.KindQuote)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "next QUOTE sequence")
}

// TestRedisNumberSequence_Live runs against the server in OTTERO_TEST_REDIS_ADDR
func TestRedisNumberSequence_Live(t *testing.T) {
	addr := os.Getenv("OTTERO_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("OTTERO_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	ctx := context.Background()
	prefix := "ottero:test:" + uuid.NewString() + ":"
	s := NewRedisNumberSequence(client, prefix)
	companyID := uuid.New()
	t.Cleanup(func() {
		client.Del(ctx, s.Key(companyID, billing.KindQuote), s.Key(companyID, billing.KindInvoice))
	})

	first, err := s.Next(ctx, companyID, billing.KindQuote)
	require.NoError(t, err)
	second, err := s.Next(ctx, companyID, billing.KindQuote)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)

	invoice, err := s.Next(ctx, companyID, billing.KindInvoice)
	require.NoError(t, err)
	assert.Equal(t, int64(1), invoice)

	raised, err := s.RaiseTo(ctx, companyID, billing.KindQuote, 40)
	require.NoError(t, err)
	assert.Equal(t, int64(40), raised)
	raised, err = s.RaiseTo(ctx, companyID, billing.KindQuote, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(40), raised)

	next, err := s.Next(ctx, companyID, billing.KindQuote)
	require.NoError(t, err)
	assert.Equal(t, int64(41), next)

	seeded, err := SeedSequences(ctx, staticSource{values: []billing.SequenceValue{
		{CompanyID: companyID, Kind: billing.KindInvoice, Last: 20},
	}}, s)
	require.NoError(t, err)
	assert.Equal(t, 1, seeded)
	next, err = s.Next(ctx, companyID, billing.KindInvoice)
	require.NoError(t, err)
	assert.Equal(t, int64(21), next)
}
