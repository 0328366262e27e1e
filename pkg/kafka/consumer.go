// Package kafka wraps segmentio/kafka-go with the small producer/consumer
// surface the services need: JSON-encoded events going out, handler-dispatched
// messages coming in.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/searchlite/searchlite/pkg/config"
	"github.com/segmentio/kafka-go"
)

// Consumer fetch window sizes.
const (
	consumerMinBytes = 1e3
	consumerMaxBytes = 10e6
)

// MessageHandler processes one Kafka message. A non-nil error leaves the
// message uncommitted so the group can redeliver it.
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// Consumer reads a topic as part of a consumer group, handing each message to
// a MessageHandler and committing offsets only after successful handling.
type Consumer struct {
	reader  *kafka.Reader
	log     *slog.Logger
	handler MessageHandler
}

// NewConsumer creates a Consumer for the given topic and handler. Consumption
// starts from the latest offset for new group members.
func NewConsumer(cfg config.KafkaConfig, topic string, handler MessageHandler) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.Brokers,
			Topic:       topic,
			GroupID:     cfg.ConsumerGroup,
			MinBytes:    consumerMinBytes,
			MaxBytes:    consumerMaxBytes,
			StartOffset: kafka.LastOffset,
		}),
		log:     slog.Default().With("component", "kafka-consumer", "topic", topic),
		handler: handler,
	}
}

// Start runs the fetch/handle/commit loop until ctx is cancelled. Handler and
// commit errors are logged and skipped; only cancellation ends the loop.
func (c *Consumer) Start(ctx context.Context) error {
	c.log.Info("consumer started")
	for ctx.Err() == nil {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				break
			}
			c.log.Error("fetch failed", "error", err)
			continue
		}
		c.log.Debug("message received",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"value_size", len(msg.Value),
		)
		if err := c.handler(ctx, msg.Key, msg.Value); err != nil {
			c.log.Error("handler failed",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Error("commit failed",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}
	}
	c.log.Info("consumer stopping", "reason", ctx.Err())
	return c.reader.Close()
}

// Close releases the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}

// DecodeJSON unmarshals a Kafka message value into T.
func DecodeJSON[T any](value []byte) (T, error) {
	var result T
	if err := json.Unmarshal(value, &result); err != nil {
		return result, fmt.Errorf("decoding kafka message: %w", err)
	}
	return result, nil
}
