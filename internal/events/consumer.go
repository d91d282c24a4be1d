package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"
)

// Handler processes a single message. Returning an error leaves the message
// uncommitted so the consumer group redelivers it (at-least-once).
type Handler func(ctx context.Context, msg kafka.Message) error

// ConsumerConfig configures a group consumer for one topic.
type ConsumerConfig struct {
	Topic       string
	GroupID     string
	Concurrency int
}

// Consumer reads one topic within a consumer group. Concurrency is achieved
// by running several group readers in parallel; ordering holds only within
// a partition.
type Consumer struct {
	topic       string
	groupID     string
	concurrency int
	brokers     []string
	readers     []*kafka.Reader
}

// MustNewConsumer creates a new Consumer from the KAFKA_BROKERS env var.
func MustNewConsumer(cfg ConsumerConfig) *Consumer {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		panic("KAFKA_BROKERS is not set")
	}
	if cfg.Topic == "" {
		panic("consumer topic is not set")
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	return &Consumer{
		topic:       cfg.Topic,
		groupID:     cfg.GroupID,
		concurrency: cfg.Concurrency,
		brokers:     strings.Split(brokers, ","),
	}
}

// Run consumes messages until ctx is cancelled. Each reader loops
// fetch, handle, commit; a failed handler leaves the offset uncommitted.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	g, gctx := errgroup.WithContext(ctx)

	slog.Info("Consumer started", "topic", c.topic, "group_id", c.groupID, "concurrency", c.concurrency)

	for i := 0; i < c.concurrency; i++ {
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:  c.brokers,
			GroupID:  c.groupID,
			Topic:    c.topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		})
		c.readers = append(c.readers, reader)

		g.Go(func() error {
			for {
				msg, err := reader.FetchMessage(gctx)
				if err != nil {
					if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
						return nil
					}

					return err
				}

				if err := handler(gctx, msg); err != nil {
					slog.Error("Failed to process message, leaving uncommitted",
						"topic", c.topic,
						"partition", msg.Partition,
						"offset", msg.Offset,
						"error", err,
					)

					continue
				}

				if err := reader.CommitMessages(gctx, msg); err != nil {
					slog.Error("Failed to commit message", "topic", c.topic, "error", err)
				}
			}
		})
	}

	return g.Wait()
}

// Close closes all readers for graceful shutdown.
func (c *Consumer) Close() error {
	var firstErr error
	for _, reader := range c.readers {
		if err := reader.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
