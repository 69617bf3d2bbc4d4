// Package events publishes domain events about completed searches to Kafka.
package events

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/helixir/research-paper-finder/internal/domain"
)

const (
	// DefaultTopic is the topic search events are written to.
	DefaultTopic = "events.paper_finder.searches"

	// ServiceName identifies the producing service in message headers.
	ServiceName = "research-paper-finder"

	defaultBatchSize    = 100
	defaultBatchTimeout = time.Second
)

// Message header keys.
const (
	HeaderEventID      = "event_id"
	HeaderEventType    = "event_type"
	HeaderEventVersion = "event_version"
	HeaderSource       = "source"
)

// Publisher delivers events to a broker.
type Publisher interface {
	Publish(ctx context.Context, event *domain.Event) error
	Close() error
}

// messageWriter is the subset of *kafka.Writer used by KafkaPublisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config holds Kafka publisher settings.
type Config struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
}

// KafkaPublisher writes events as JSON payloads keyed by aggregate id.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger zerolog.Logger
}

// NewKafkaPublisher creates a publisher backed by a kafka.Writer.
func NewKafkaPublisher(cfg Config, logger zerolog.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = defaultBatchTimeout
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	return newKafkaPublisher(writer, cfg.Topic, logger), nil
}

func newKafkaPublisher(writer messageWriter, topic string, logger zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: writer,
		topic:  topic,
		logger: logger.With().Str("component", "event_publisher").Str("topic", topic).Logger(),
	}
}

// Publish writes event synchronously.
func (p *KafkaPublisher) Publish(ctx context.Context, event *domain.Event) error {
	if event == nil {
		return fmt.Errorf("publish: nil event")
	}

	msg := kafka.Message{
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Time:  event.CreatedAt,
		Headers: []kafka.Header{
			{Key: HeaderEventID, Value: []byte(event.EventID)},
			{Key: HeaderEventType, Value: []byte(event.EventType)},
			{Key: HeaderEventVersion, Value: []byte(strconv.Itoa(event.EventVersion))},
			{Key: HeaderSource, Value: []byte(ServiceName)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s event %s: %w", event.EventType, event.EventID, err)
	}

	p.logger.Debug().
		Str("event_id", event.EventID).
		Str("event_type", event.EventType).
		Str("aggregate_id", event.AggregateID).
		Msg("event published")
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	p.logger.Info().Msg("closing event publisher")
	return p.writer.Close()
}

// NoopPublisher discards every event. It is used when Kafka is disabled.
type NoopPublisher struct{}

// Publish implements Publisher.
func (NoopPublisher) Publish(context.Context, *domain.Event) error { return nil }

// Close implements Publisher.
func (NoopPublisher) Close() error { return nil }

var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = NoopPublisher{}
)
