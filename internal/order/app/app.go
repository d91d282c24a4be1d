package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marketly/fulfillment/internal/events"
	"github.com/marketly/fulfillment/internal/order/dal/uow"
	"github.com/marketly/fulfillment/internal/order/gateway/cart"
	"github.com/marketly/fulfillment/internal/order/gateway/inventory"
	"github.com/marketly/fulfillment/internal/order/service/services/ordersvc"
	"github.com/marketly/fulfillment/internal/order/transport/consumer"
	httptransport "github.com/marketly/fulfillment/internal/order/transport/http"
	"github.com/marketly/fulfillment/internal/order/usercache"
	"github.com/marketly/fulfillment/internal/order/worker/outbox"
	"github.com/marketly/fulfillment/internal/pkg/otel"
	"github.com/marketly/fulfillment/internal/pkg/postgres"
)

// App represents the order service application.
type App struct {
	orderSvc       *ordersvc.OrderService
	transport      *httptransport.HTTPTransport
	consumer       *consumer.Transport
	outboxWorker   *outbox.Worker
	publisher      *events.Publisher
	userCache      *usercache.Cache
	postgresClient *postgres.Client
	otelController *otel.OtelController
}

// MustNewApp creates a new order service application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel("order-svc")

	postgresClient := postgres.MustNewClient("ORDER")
	userCache := usercache.MustNewCache()
	publisher := events.MustNewPublisher()

	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithPostgresClient(postgresClient),
		ordersvc.WithCartGateway(cart.NewClient()),
		ordersvc.WithInventoryGateway(inventory.NewClient()),
		ordersvc.WithUserCache(userCache),
	)

	transport := httptransport.NewHTTPTransport(orderSvc)
	transport.RegisterRoutes()

	consumerTransport := consumer.MustNewTransport(
		consumer.WithUserCache(userCache),
	)

	outboxWorker := outbox.NewWorker(
		uow.NewUnitOfWork(postgresClient).OutboxRepository(),
		publisher,
	)

	return &App{
		orderSvc:       orderSvc,
		transport:      transport,
		consumer:       consumerTransport,
		outboxWorker:   outboxWorker,
		publisher:      publisher,
		userCache:      userCache,
		postgresClient: postgresClient,
		otelController: otelController,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		slog.Info("Starting HTTP server")
		if err := a.transport.Run(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	go func() {
		slog.Info("Starting user event consumer")
		if err := a.consumer.Run(runCtx); err != nil {
			slog.Error("User event consumer error", "error", err)
		}
	}()

	go a.outboxWorker.Start(runCtx)

	<-stop
	slog.Info("Shutdown signal received")
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	a.outboxWorker.Stop()

	if err := a.consumer.Close(); err != nil {
		slog.Error("Consumer close error", "error", err)
	} else {
		slog.Info("Consumer closed gracefully")
	}

	if err := a.publisher.Close(); err != nil {
		slog.Error("Publisher close error", "error", err)
	} else {
		slog.Info("Publisher closed gracefully")
	}

	if err := a.userCache.Close(); err != nil {
		slog.Error("User cache close error", "error", err)
	}

	a.postgresClient.Close()
	slog.Info("Database connection closed gracefully")

	if err := a.otelController.Shutdown(); err != nil {
		slog.Error("Tracing shutdown error", "error", err)
	}

	slog.Info("Application shutdown complete")
}
