package event

import (
	"context"
	"fmt"
	"time"

	"github.com/quick-ledger/ottero/internal/domain/billing"
	"github.com/quick-ledger/ottero/internal/domain/shared"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Kafka header names set on every forwarded message
const (
	HeaderEventType = "event_type"
	HeaderCompanyID = "company_id"
	HeaderVersion   = "envelope_version"
)

// MessageWriter is the part of *kafka.Writer the forwarder uses
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaWriterConfig configures NewKafkaWriter
type KafkaWriterConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// NewKafkaWriter creates a synchronous writer. Messages with the same key go
// to the same partition, so events of one document stay ordered.
func NewKafkaWriter(cfg KafkaWriterConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           cfg.WriteTimeout,
		AllowAutoTopicCreation: true,
	}
}

// KafkaForwarder publishes document events to a Kafka topic as envelopes
type KafkaForwarder struct {
	writer  MessageWriter
	timeout time.Duration
	logger  *zap.Logger
}

// KafkaForwarderOption is a functional option for configuring the forwarder
type KafkaForwarderOption func(*KafkaForwarder)

// WithWriteTimeout bounds each write independently of the caller's context
func WithWriteTimeout(d time.Duration) KafkaForwarderOption {
	return func(f *KafkaForwarder) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// NewKafkaForwarder creates a new KafkaForwarder
func NewKafkaForwarder(writer MessageWriter, logger *zap.Logger, opts ...KafkaForwarderOption) *KafkaForwarder {
	f := &KafkaForwarder{
		writer:  writer,
		timeout: 5 * time.Second,
		logger:  logger.Named("kafka_forwarder"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// EventTypes returns the event types this handler is interested in
func (f *KafkaForwarder) EventTypes() []string {
	return billing.AllEventTypes
}

// Handle writes the event to the topic keyed by aggregate ID
func (f *KafkaForwarder) Handle(ctx context.Context, event shared.DomainEvent) error {
	msg, err := toMessage(event)
	if err != nil {
		return err
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
	defer cancel()

	if err := f.writer.WriteMessages(writeCtx, msg); err != nil {
		return fmt.Errorf("forward %s %s: %w", event.EventType(), event.EventID(), err)
	}
	f.logger.Debug("event forwarded",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
	)
	return nil
}

// Close flushes and closes the writer
func (f *KafkaForwarder) Close() error {
	return f.writer.Close()
}

func toMessage(event shared.DomainEvent) (kafka.Message, error) {
	env, err := NewEnvelope(event)
	if err != nil {
		return kafka.Message{}, err
	}
	value, err := env.Marshal()
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal envelope: %w", err)
	}
	return kafka.Message{
		Key:   []byte(event.AggregateID().String()),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(env.EventType)},
			{Key: HeaderCompanyID, Value: []byte(env.CompanyID.String())},
			{Key: HeaderVersion, Value: []byte(fmt.Sprint(EnvelopeVersion))},
		},
	}, nil
}
