// Package consumer keeps the order service's user profile cache in sync
// with user lifecycle topics.
package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/marketly/fulfillment/internal/events"
	"github.com/marketly/fulfillment/internal/order/usercache"
	"github.com/segmentio/kafka-go"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

const groupID = "order-svc"

// Transport consumes user lifecycle events and mirrors them into the user
// profile cache.
type Transport struct {
	cache     *usercache.Cache
	consumers []*events.Consumer
}

// option is a function that configures the Transport.
type option func(*Transport)

// MustNewTransport creates consumers for the user lifecycle topics.
func MustNewTransport(opts ...option) *Transport {
	t := &Transport{}
	for _, opt := range opts {
		opt(t)
	}

	concurrency := viper.GetInt("kafka.consumer.concurrency")

	for _, topic := range []string{
		events.TopicUserCreated,
		events.TopicUserUpdated,
		events.TopicUserDeleted,
	} {
		t.consumers = append(t.consumers, events.MustNewConsumer(events.ConsumerConfig{
			Topic:       topic,
			GroupID:     groupID,
			Concurrency: concurrency,
		}))
	}

	return t
}

// WithUserCache sets the user profile cache for the Transport.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUserCache(cache *usercache.Cache) option {
	return func(t *Transport) {
		t.cache = cache
	}
}

// Run consumes all user lifecycle topics until ctx is cancelled.
func (t *Transport) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, c := range t.consumers {
		c := c
		g.Go(func() error {
			return c.Run(gctx, t.processMessage)
		})
	}

	return g.Wait()
}

// Close closes all consumers for graceful shutdown.
func (t *Transport) Close() error {
	var firstErr error
	for _, c := range t.consumers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// processMessage applies one user lifecycle event to the cache. Malformed
// payloads are logged and dropped so they do not wedge the partition.
func (t *Transport) processMessage(ctx context.Context, msg kafka.Message) error {
	ctx, span := otel.Tracer("consumer").Start(ctx, "Consumer.processMessage")
	defer span.End()

	var evt events.UserProfileEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		slog.Error("Failed to unmarshal user event, skipping",
			"topic", msg.Topic, "offset", msg.Offset, "error", err)

		return nil
	}

	switch msg.Topic {
	case events.TopicUserDeleted:
		if err := t.cache.Delete(ctx, evt.UserID); err != nil {
			return err
		}
	default:
		profile := usercache.Profile{
			Email:    evt.Email,
			FullName: evt.FullName,
			Active:   true,
		}
		if err := t.cache.Put(ctx, evt.UserID, profile); err != nil {
			return err
		}
	}

	slog.Info("User profile cache updated", "topic", msg.Topic, "user_id", evt.UserID)

	return nil
}
