package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/segmentio/kafka-go"
)

// Publisher publishes messages to the bus. Messages are keyed so that all
// events about the same aggregate land on the same partition.
type Publisher struct {
	writer *kafka.Writer
}

// MustNewPublisher creates a new Publisher from the KAFKA_BROKERS env var.
func MustNewPublisher() *Publisher {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		panic("KAFKA_BROKERS is not set")
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(strings.Split(brokers, ",")...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}

	slog.Info("Kafka publisher connected", "brokers", brokers)

	return &Publisher{writer: writer}
}

// Publish marshals payload as JSON and writes it to topic under key.
func (p *Publisher) Publish(ctx context.Context, topic, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event for topic %s: %w", topic, err)
	}

	return p.PublishRaw(ctx, topic, key, value)
}

// PublishRaw writes an already-encoded message to topic under key.
func (p *Publisher) PublishRaw(ctx context.Context, topic, key string, value []byte) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	return nil
}

// Close closes the underlying writer for graceful shutdown.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
