// Package cleanup deletes delivered notifications past the retention
// period on a cron schedule.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// service is an interface for the service layer.
type service interface {
	CleanupOld(ctx context.Context, retention time.Duration) error
}

// Worker runs the retention cleanup on a cron schedule.
type Worker struct {
	service   service
	cron      *cron.Cron
	schedule  string
	retention time.Duration
}

// NewWorker creates a new cleanup worker.
func NewWorker(svc service) *Worker {
	schedule := viper.GetString("notification.cleanup.cron")
	if schedule == "" {
		schedule = "0 2 * * *"
	}

	retentionDays := viper.GetInt("notification.cleanup.retention_days")
	if retentionDays == 0 {
		retentionDays = 30
	}

	return &Worker{
		service:   svc,
		cron:      cron.New(),
		schedule:  schedule,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
	}
}

// Start schedules the cleanup job and starts the cron runner.
func (w *Worker) Start(ctx context.Context) error {
	_, err := w.cron.AddFunc(w.schedule, func() {
		if err := w.service.CleanupOld(ctx, w.retention); err != nil {
			slog.Error("Notification cleanup failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	w.cron.Start()
	slog.Info("Notification cleanup worker started", "schedule", w.schedule, "retention", w.retention)

	return nil
}

// Stop stops the cron runner, waiting for a running job to finish.
func (w *Worker) Stop() {
	stopCtx := w.cron.Stop()
	<-stopCtx.Done()
	slog.Info("Notification cleanup worker stopped")
}
