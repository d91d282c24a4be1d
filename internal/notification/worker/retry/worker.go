// Package retry sweeps FAILED notifications and re-attempts delivery.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/viper"
)

// service is an interface for the service layer.
type service interface {
	RetryFailed(ctx context.Context) error
}

// Worker periodically retries failed notifications.
type Worker struct {
	service  service
	interval time.Duration
	stopCh   chan struct{}
}

// NewWorker creates a new retry worker.
func NewWorker(svc service) *Worker {
	intervalSeconds := viper.GetInt("notification.retry.interval_seconds")
	if intervalSeconds == 0 {
		intervalSeconds = 300
	}

	return &Worker{
		service:  svc,
		interval: time.Duration(intervalSeconds) * time.Second,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the retry sweep loop.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.Info("Notification retry worker started", "interval", w.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Notification retry worker shutting down")

			return
		case <-w.stopCh:
			slog.Info("Notification retry worker stopped")

			return
		case <-ticker.C:
			if err := w.service.RetryFailed(ctx); err != nil {
				slog.Error("Notification retry sweep failed", "error", err)
			}
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	close(w.stopCh)
}
