// Package consumer feeds the payment ledger from the payment request topic.
package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/marketly/fulfillment/internal/events"
	"github.com/segmentio/kafka-go"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
)

const groupID = "payment-svc"

// service is an interface for the service layer.
type service interface {
	ProcessPaymentRequested(ctx context.Context, evt events.OrderPaymentRequested) error
}

// Transport consumes order payment requests.
type Transport struct {
	service  service
	consumer *events.Consumer
}

// option is a function that configures the Transport.
type option func(*Transport)

// MustNewTransport creates the payment request consumer.
func MustNewTransport(opts ...option) *Transport {
	t := &Transport{}
	for _, opt := range opts {
		opt(t)
	}

	t.consumer = events.MustNewConsumer(events.ConsumerConfig{
		Topic:       events.TopicOrderPaymentRequested,
		GroupID:     groupID,
		Concurrency: viper.GetInt("kafka.consumer.concurrency"),
	})

	return t
}

// WithService sets the payment service for the Transport.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithService(svc service) option {
	return func(t *Transport) {
		t.service = svc
	}
}

// Run consumes payment requests until ctx is cancelled.
func (t *Transport) Run(ctx context.Context) error {
	return t.consumer.Run(ctx, t.processMessage)
}

// Close closes the consumer for graceful shutdown.
func (t *Transport) Close() error {
	return t.consumer.Close()
}

// processMessage records one payment request. Malformed payloads are logged
// and dropped so they do not wedge the partition; repository errors are
// returned so the message stays uncommitted and is redelivered.
func (t *Transport) processMessage(ctx context.Context, msg kafka.Message) error {
	ctx, span := otel.Tracer("consumer").Start(ctx, "Consumer.processMessage")
	defer span.End()

	var evt events.OrderPaymentRequested
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		slog.Error("Failed to unmarshal payment request, skipping",
			"offset", msg.Offset, "error", err)

		return nil
	}

	return t.service.ProcessPaymentRequested(ctx, evt)
}
