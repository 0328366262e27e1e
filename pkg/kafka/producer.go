package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/searchlite/searchlite/pkg/config"
	"github.com/segmentio/kafka-go"
)

// Writer tuning. Small batches with a short linger keep ingest latency low
// while still coalescing bursts.
const (
	producerBatchSize   = 100
	producerBatchLinger = 10 * time.Millisecond
	producerMaxAttempts = 3
)

// Event is a single record destined for Kafka. Key selects the partition via
// hashing so events for the same document land on the same partition; Value
// is serialised to JSON on publish.
type Event struct {
	Key   string
	Value any
}

// Producer publishes JSON-encoded events to a single Kafka topic.
type Producer struct {
	writer *kafka.Writer
	log    *slog.Logger
}

// NewProducer creates a Producer for the given topic. Writes are synchronous
// and require acknowledgement from all in-sync replicas.
func NewProducer(cfg config.KafkaConfig, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchSize:    producerBatchSize,
			BatchTimeout: producerBatchLinger,
			MaxAttempts:  producerMaxAttempts,
			RequiredAcks: kafka.RequireAll,
			Async:        false,
		},
		log: slog.Default().With("component", "kafka-producer", "topic", topic),
	}
}

func encodeEvent(event Event) (kafka.Message, error) {
	value, err := json.Marshal(event.Value)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshaling event value: %w", err)
	}
	return kafka.Message{Key: []byte(event.Key), Value: value}, nil
}

// Publish serialises one event and writes it to Kafka, blocking until the
// broker acknowledges or ctx is cancelled.
func (p *Producer) Publish(ctx context.Context, event Event) error {
	msg, err := encodeEvent(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("publish failed", "key", event.Key, "error", err)
		return fmt.Errorf("publishing to kafka: %w", err)
	}
	p.log.Debug("event published", "key", event.Key, "value_size", len(msg.Value))
	return nil
}

// PublishBatch serialises and writes a slice of events in one broker
// round-trip. Serialisation failure of any event aborts the whole batch
// before anything is written.
func (p *Producer) PublishBatch(ctx context.Context, events []Event) error {
	msgs := make([]kafka.Message, len(events))
	for i, event := range events {
		msg, err := encodeEvent(event)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.log.Error("batch publish failed", "count", len(msgs), "error", err)
		return fmt.Errorf("publishing batch to kafka: %w", err)
	}
	p.log.Debug("batch published", "count", len(msgs))
	return nil
}

// Close flushes any buffered messages and releases the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
