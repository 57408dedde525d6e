package cache

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/quick-ledger/ottero/internal/domain/billing"
)

// SequenceSource lists the last values issued by another sequence backend
type SequenceSource interface {
	LastValues(ctx context.Context) ([]billing.SequenceValue, error)
}

// SequenceRaiser moves a counter up to a known last value
type SequenceRaiser interface {
	RaiseTo(ctx context.Context, companyID uuid.UUID, kind billing.Kind, last int64) (int64, error)
}

// SeedSequences raises every counter in target to at least the value source
// issued, so switching backends never hands out a number twice. It returns
// how many counters were checked.
func SeedSequences(ctx context.Context, source SequenceSource, target SequenceRaiser) (int, error) {
	values, err := source.LastValues(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed sequences: %w", err)
	}
	for i, v := range values {
		if v.Last <= 0 {
			continue
		}
		if _, err := target.RaiseTo(ctx, v.CompanyID, v.Kind, v.Last); err != nil {
			return i, fmt.Errorf("seed sequences: %w", err)
		}
	}
	return len(values), nil
}

var _ SequenceRaiser = (*RedisNumberSequence)(nil)
