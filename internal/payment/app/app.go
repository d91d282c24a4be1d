package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	postgresrepo "github.com/marketly/fulfillment/internal/payment/dal/repositories/payment/postgres"
	"github.com/marketly/fulfillment/internal/payment/service/services/paymentsvc"
	"github.com/marketly/fulfillment/internal/payment/transport/consumer"
	httptransport "github.com/marketly/fulfillment/internal/payment/transport/http"
	"github.com/marketly/fulfillment/internal/pkg/otel"
	"github.com/marketly/fulfillment/internal/pkg/postgres"
)

// App represents the payment service application.
type App struct {
	paymentSvc     *paymentsvc.PaymentService
	transport      *httptransport.HTTPTransport
	consumer       *consumer.Transport
	postgresClient *postgres.Client
	otelController *otel.OtelController
}

// MustNewApp creates a new payment service application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel("payment-svc")

	postgresClient := postgres.MustNewClient("PAYMENT")

	paymentSvc := paymentsvc.MustNewPaymentService(
		paymentsvc.WithPaymentRepository(postgresrepo.NewPaymentRepository(postgresClient.Pool())),
	)

	transport := httptransport.NewHTTPTransport(paymentSvc)
	transport.RegisterRoutes()

	consumerTransport := consumer.MustNewTransport(
		consumer.WithService(paymentSvc),
	)

	return &App{
		paymentSvc:     paymentSvc,
		transport:      transport,
		consumer:       consumerTransport,
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
		slog.Info("Starting payment request consumer")
		if err := a.consumer.Run(runCtx); err != nil {
			slog.Error("Payment request consumer error", "error", err)
		}
	}()

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

	if err := a.consumer.Close(); err != nil {
		slog.Error("Consumer close error", "error", err)
	} else {
		slog.Info("Consumer closed gracefully")
	}

	a.postgresClient.Close()
	slog.Info("Database connection closed gracefully")

	if err := a.otelController.Shutdown(); err != nil {
		slog.Error("Tracing shutdown error", "error", err)
	}

	slog.Info("Application shutdown complete")
}
