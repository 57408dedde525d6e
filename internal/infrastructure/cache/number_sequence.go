package cache

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/quick-ledger/ottero/internal/domain/billing"
	"github.com/redis/go-redis/v9"
)

// DefaultSequenceKeyPrefix prefixes every sequence key
const DefaultSequenceKeyPrefix = "ottero:seq:"

// raiseScript sets the counter to ARGV[1] unless it is already higher
var raiseScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local target = tonumber(ARGV[1])
if target > current then
  redis.call('SET', KEYS[1], target)
  return target
end
return current
`)

// RedisNumberSequence issues document sequence values with INCR on one key
// per company and kind
type RedisNumberSequence struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisNumberSequence creates a sequence backed by client. An empty
// prefix selects DefaultSequenceKeyPrefix.
func NewRedisNumberSequence(client redis.UniversalClient, keyPrefix string) *RedisNumberSequence {
	if keyPrefix == "" {
		keyPrefix = DefaultSequenceKeyPrefix
	}
	return &RedisNumberSequence{client: client, keyPrefix: keyPrefix}
}

// Key returns the Redis key of a company and kind
func (s *RedisNumberSequence) Key(companyID uuid.UUID, kind billing.Kind) string {
	return fmt.Sprintf("%s%s:%s", s.keyPrefix, companyID, kind)
}

// Next increments and returns the counter
func (s *RedisNumberSequence) Next(ctx context.Context, companyID uuid.UUID, kind billing.Kind) (int64, error) {
	v, err := s.client.Incr(ctx, s.Key(companyID, kind)).Result()
	if err != nil {
		return 0, fmt.Errorf("next %s sequence for company %s: %w", kind, companyID, err)
	}
	return v, nil
}

// RaiseTo moves the counter up to last so the next value is last+1. Use it
// when switching from the database sequence; a higher counter is left alone.
func (s *RedisNumberSequence) RaiseTo(ctx context.Context, companyID uuid.UUID, kind billing.Kind, last int64) (int64, error) {
	v, err := raiseScript.Run(ctx, s.client, []string{s.Key(companyID, kind)}, last).Int64()
	if err != nil {
		return 0, fmt.Errorf("raise %s sequence for company %s: %w", kind, companyID, err)
	}
	return v, nil
}

var _ billing.NumberSequence = (*RedisNumberSequence)(nil)
