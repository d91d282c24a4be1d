// Package consumer feeds the notification dispatcher from the order and
// user event topics.
package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/marketly/fulfillment/internal/events"
	"github.com/segmentio/kafka-go"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

const (
	orderEventsGroupID = "notification-svc-order-events"
	userEventsGroupID  = "notification-svc-user-events"
)

// service is an interface for the service layer.
type service interface {
	ProcessOrderEvent(ctx context.Context, evt events.OrderEvent) error
	ProcessUserEvent(ctx context.Context, evt events.UserEvent) error
}

// Transport consumes order and user events.
type Transport struct {
	service       service
	orderConsumer *events.Consumer
	userConsumer  *events.Consumer
}

// option is a function that configures the Transport.
type option func(*Transport)

// MustNewTransport creates the order and user event consumers.
func MustNewTransport(opts ...option) *Transport {
	t := &Transport{}
	for _, opt := range opts {
		opt(t)
	}

	concurrency := viper.GetInt("kafka.consumer.concurrency")
	if concurrency == 0 {
		concurrency = 3
	}

	t.orderConsumer = events.MustNewConsumer(events.ConsumerConfig{
		Topic:       events.TopicOrderEvents,
		GroupID:     orderEventsGroupID,
		Concurrency: concurrency,
	})
	t.userConsumer = events.MustNewConsumer(events.ConsumerConfig{
		Topic:       events.TopicUserEvents,
		GroupID:     userEventsGroupID,
		Concurrency: concurrency,
	})

	return t
}

// WithService sets the notification service for the Transport.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithService(svc service) option {
	return func(t *Transport) {
		t.service = svc
	}
}

// Run consumes both topics until ctx is cancelled.
func (t *Transport) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return t.orderConsumer.Run(gctx, t.processOrderMessage)
	})
	g.Go(func() error {
		return t.userConsumer.Run(gctx, t.processUserMessage)
	})

	return g.Wait()
}

// Close closes both consumers for graceful shutdown.
func (t *Transport) Close() error {
	orderErr := t.orderConsumer.Close()
	if err := t.userConsumer.Close(); err != nil && orderErr == nil {
		orderErr = err
	}

	return orderErr
}

func (t *Transport) processOrderMessage(ctx context.Context, msg kafka.Message) error {
	ctx, span := otel.Tracer("consumer").Start(ctx, "Consumer.processOrderMessage")
	defer span.End()

	var evt events.OrderEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		slog.Error("Failed to unmarshal order event, skipping",
			"offset", msg.Offset, "error", err)

		return nil
	}

	return t.service.ProcessOrderEvent(ctx, evt)
}

func (t *Transport) processUserMessage(ctx context.Context, msg kafka.Message) error {
	ctx, span := otel.Tracer("consumer").Start(ctx, "Consumer.processUserMessage")
	defer span.End()

	var evt events.UserEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		slog.Error("Failed to unmarshal user event, skipping",
			"offset", msg.Offset, "error", err)

		return nil
	}

	return t.service.ProcessUserEvent(ctx, evt)
}
