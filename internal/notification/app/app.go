package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marketly/fulfillment/internal/notification/channel"
	"github.com/marketly/fulfillment/internal/notification/channel/email"
	"github.com/marketly/fulfillment/internal/notification/channel/sms"
	postgresrepo "github.com/marketly/fulfillment/internal/notification/dal/repositories/notification/postgres"
	"github.com/marketly/fulfillment/internal/notification/service/models/notification"
	"github.com/marketly/fulfillment/internal/notification/service/services/notificationsvc"
	"github.com/marketly/fulfillment/internal/notification/transport/consumer"
	httptransport "github.com/marketly/fulfillment/internal/notification/transport/http"
	"github.com/marketly/fulfillment/internal/notification/worker/cleanup"
	"github.com/marketly/fulfillment/internal/notification/worker/retry"
	"github.com/marketly/fulfillment/internal/pkg/otel"
	"github.com/marketly/fulfillment/internal/pkg/postgres"
	"github.com/spf13/viper"
)

// App represents the notification service application.
type App struct {
	notificationSvc *notificationsvc.NotificationService
	transport       *httptransport.HTTPTransport
	consumer        *consumer.Transport
	retryWorker     *retry.Worker
	cleanupWorker   *cleanup.Worker
	postgresClient  *postgres.Client
	otelController  *otel.OtelController
}

// MustNewApp creates a new notification service application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel("notification-svc")

	postgresClient := postgres.MustNewClient("NOTIFICATION")

	registry := channel.NewRegistry(
		email.NewProvider(),
		sms.NewProvider(),
	)

	maxAttempts := viper.GetInt("notification.retry.max_attempts")
	if maxAttempts == 0 {
		maxAttempts = notification.MaxRetries
	}

	notificationSvc := notificationsvc.MustNewNotificationService(
		notificationsvc.WithNotificationRepository(
			postgresrepo.NewNotificationRepository(postgresClient.Pool()),
		),
		notificationsvc.WithChannelRegistry(registry),
		notificationsvc.WithMaxRetries(maxAttempts),
	)

	transport := httptransport.NewHTTPTransport(notificationSvc)
	transport.RegisterRoutes()

	consumerTransport := consumer.MustNewTransport(
		consumer.WithService(notificationSvc),
	)

	return &App{
		notificationSvc: notificationSvc,
		transport:       transport,
		consumer:        consumerTransport,
		retryWorker:     retry.NewWorker(notificationSvc),
		cleanupWorker:   cleanup.NewWorker(notificationSvc),
		postgresClient:  postgresClient,
		otelController:  otelController,
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
		slog.Info("Starting event consumers")
		if err := a.consumer.Run(runCtx); err != nil {
			slog.Error("Event consumer error", "error", err)
		}
	}()

	go a.retryWorker.Start(runCtx)

	if err := a.cleanupWorker.Start(runCtx); err != nil {
		slog.Error("Failed to start cleanup worker", "error", err)
	}

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

	a.retryWorker.Stop()
	a.cleanupWorker.Stop()

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
