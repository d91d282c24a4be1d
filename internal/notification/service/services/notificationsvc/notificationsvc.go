package notificationsvc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/marketly/fulfillment/internal/events"
	"github.com/marketly/fulfillment/internal/notification/channel"
	"github.com/marketly/fulfillment/internal/notification/dal/interfaces/inotificationrepo"
	"github.com/marketly/fulfillment/internal/notification/service/models/notification"
	"github.com/marketly/fulfillment/internal/notification/service/template"
	"go.opentelemetry.io/otel"
)

const retryBatchSize = 100

// NotificationService owns the notification lifecycle: creation from bus
// events or API calls, delivery through the channel providers, the retry
// sweep and retention cleanup.
type NotificationService struct {
	notificationRepo inotificationrepo.INotificationRepository
	registry         *channel.Registry
	maxRetries       int
}

// option is a function that configures the NotificationService.
type option func(*NotificationService)

// MustNewNotificationService creates a new NotificationService.
func MustNewNotificationService(opts ...option) *NotificationService {
	s := &NotificationService{maxRetries: notification.MaxRetries}
	for _, opt := range opts {
		opt(s)
	}

	if s.notificationRepo == nil {
		panic("notificationsvc: no notification repository configured")
	}
	if s.registry == nil {
		panic("notificationsvc: no channel registry configured")
	}

	return s
}

// WithNotificationRepository sets the repository for the service.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithNotificationRepository(repo inotificationrepo.INotificationRepository) option {
	return func(s *NotificationService) {
		s.notificationRepo = repo
	}
}

// WithChannelRegistry sets the channel registry for the service.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithChannelRegistry(registry *channel.Registry) option {
	return func(s *NotificationService) {
		s.registry = registry
	}
}

// WithMaxRetries overrides the delivery attempt budget.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithMaxRetries(maxRetries int) option {
	return func(s *NotificationService) {
		s.maxRetries = maxRetries
	}
}

// CreateNotificationRequest carries the fields of a new notification.
// Subject and TemplateName fall back to the defaults of the type.
type CreateNotificationRequest struct {
	Type         notification.Type
	Channel      notification.Channel
	Recipient    string
	Subject      string
	Content      string
	TemplateName string
	UserID       int64
}

// CreateNotification persists a PENDING notification.
func (s *NotificationService) CreateNotification(
	ctx context.Context,
	req CreateNotificationRequest,
) (*notification.Notification, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "Service.CreateNotification")
	defer span.End()

	subject := req.Subject
	if subject == "" {
		subject = template.Subject(req.Type)
	}
	templateName := req.TemplateName
	if templateName == "" {
		templateName = template.Name(req.Type)
	}

	now := time.Now()
	n := notification.Notification{
		ID:           uuid.New(),
		Type:         req.Type,
		Channel:      req.Channel,
		Status:       notification.StatusPending,
		Recipient:    req.Recipient,
		Subject:      subject,
		Content:      req.Content,
		TemplateName: templateName,
		UserID:       req.UserID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.notificationRepo.Insert(ctx, n); err != nil {
		return nil, err
	}

	return &n, nil
}

// SendNotification delivers the notification through its channel provider
// and records the outcome. A missing or unavailable provider marks the
// notification FAILED without spending retry budget; a delivery error marks
// it FAILED and spends one attempt.
func (s *NotificationService) SendNotification(
	ctx context.Context,
	n *notification.Notification,
) error {
	ctx, span := otel.Tracer("service").Start(ctx, "Service.SendNotification")
	defer span.End()

	provider, ok := s.registry.Get(n.Channel)
	if !ok {
		return s.markFailed(ctx, n, fmt.Sprintf("no provider for channel %s", n.Channel), false)
	}
	if !provider.IsAvailable() {
		return s.markFailed(ctx, n, fmt.Sprintf("provider for channel %s is unavailable", n.Channel), false)
	}

	if err := provider.Send(ctx, n); err != nil {
		slog.Error("Failed to send notification",
			"notification_id", n.ID,
			"channel", n.Channel,
			"error", err)

		return s.markFailed(ctx, n, err.Error(), true)
	}

	now := time.Now()
	n.Status = notification.StatusSent
	n.ErrorMessage = ""
	n.SentAt = &now
	n.UpdatedAt = now

	if err := s.notificationRepo.Update(ctx, *n); err != nil {
		return err
	}

	slog.Info("Notification sent", "notification_id", n.ID, "channel", n.Channel)

	return nil
}

func (s *NotificationService) markFailed(
	ctx context.Context,
	n *notification.Notification,
	reason string,
	spendAttempt bool,
) error {
	n.Status = notification.StatusFailed
	n.ErrorMessage = reason
	n.UpdatedAt = time.Now()
	if spendAttempt {
		n.RetryCount++
	}

	if err := s.notificationRepo.Update(ctx, *n); err != nil {
		return err
	}

	slog.Warn("Notification marked failed",
		"notification_id", n.ID,
		"retry_count", n.RetryCount,
		"reason", reason)

	return nil
}

// ProcessOrderEvent turns an order lifecycle event into an email
// notification and attempts delivery. An event carrying both a previous and
// a new status is a status update, cancellations included; everything else
// is a creation. A failed delivery is not an error here, the notification
// stays FAILED for the retry sweep.
func (s *NotificationService) ProcessOrderEvent(ctx context.Context, evt events.OrderEvent) error {
	ctx, span := otel.Tracer("service").Start(ctx, "Service.ProcessOrderEvent")
	defer span.End()

	typ := notification.TypeOrderCreated
	if evt.PreviousStatus != "" && evt.NewStatus != "" {
		typ = notification.TypeOrderStatusUpdated
	}

	content, err := template.Render(template.Name(typ), map[string]any{
		"UserName":       evt.UserName,
		"OrderNumber":    evt.OrderNumber,
		"TotalAmount":    evt.TotalAmount,
		"PreviousStatus": evt.PreviousStatus,
		"NewStatus":      evt.NewStatus,
	})
	if err != nil {
		return err
	}

	n, err := s.CreateNotification(ctx, CreateNotificationRequest{
		Type:      typ,
		Channel:   notification.ChannelEmail,
		Recipient: evt.UserEmail,
		Content:   content,
		UserID:    evt.UserID,
	})
	if err != nil {
		return err
	}

	if err := s.SendNotification(ctx, n); err != nil {
		slog.Error("Failed to record notification delivery state",
			"notification_id", n.ID, "error", err)
	}

	return nil
}

// ProcessUserEvent turns a user lifecycle event into an email notification
// and attempts delivery. Unknown event tags fall back to USER_REGISTERED.
func (s *NotificationService) ProcessUserEvent(ctx context.Context, evt events.UserEvent) error {
	ctx, span := otel.Tracer("service").Start(ctx, "Service.ProcessUserEvent")
	defer span.End()

	typ := notification.Type(evt.EventType)
	switch typ {
	case notification.TypeUserRegistered,
		notification.TypeUserEmailVerified,
		notification.TypePasswordReset,
		notification.TypeAccountLocked:
	default:
		slog.Warn("Unknown user event type, defaulting to USER_REGISTERED",
			"event_type", evt.EventType, "user_id", evt.UserID)
		typ = notification.TypeUserRegistered
	}

	content, err := template.Render(template.Name(typ), map[string]any{
		"UserName": evt.UserName,
		"Reason":   evt.Reason,
	})
	if err != nil {
		return err
	}

	n, err := s.CreateNotification(ctx, CreateNotificationRequest{
		Type:      typ,
		Channel:   notification.ChannelEmail,
		Recipient: evt.UserEmail,
		Content:   content,
		UserID:    evt.UserID,
	})
	if err != nil {
		return err
	}

	if err := s.SendNotification(ctx, n); err != nil {
		slog.Error("Failed to record notification delivery state",
			"notification_id", n.ID, "error", err)
	}

	return nil
}

// RetryNotification re-attempts delivery of one FAILED notification that
// still has retry budget.
func (s *NotificationService) RetryNotification(ctx context.Context, id uuid.UUID) (*notification.Notification, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "Service.RetryNotification")
	defer span.End()

	n, err := s.notificationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Status != notification.StatusFailed || n.RetryCount >= s.maxRetries {
		return nil, notification.ErrNotificationNotRetryable
	}

	if err := s.SendNotification(ctx, n); err != nil {
		return nil, err
	}

	return n, nil
}

// RetryFailed re-attempts every FAILED notification with remaining retry
// budget. Called by the periodic sweep.
func (s *NotificationService) RetryFailed(ctx context.Context) error {
	ctx, span := otel.Tracer("service").Start(ctx, "Service.RetryFailed")
	defer span.End()

	candidates, err := s.notificationRepo.ListForRetry(ctx, s.maxRetries, retryBatchSize)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return nil
	}

	slog.Info("Retrying failed notifications", "count", len(candidates))

	for i := range candidates {
		if err := s.SendNotification(ctx, &candidates[i]); err != nil {
			slog.Error("Failed to retry notification",
				"notification_id", candidates[i].ID, "error", err)
		}
	}

	return nil
}

// CleanupOld deletes SENT notifications older than the retention period.
func (s *NotificationService) CleanupOld(ctx context.Context, retention time.Duration) error {
	ctx, span := otel.Tracer("service").Start(ctx, "Service.CleanupOld")
	defer span.End()

	cutoff := time.Now().Add(-retention)
	candidates, err := s.notificationRepo.ListByStatusOlderThan(ctx, notification.StatusSent, cutoff)
	if err != nil {
		return err
	}

	deleted := 0
	for _, n := range candidates {
		if n.Status != notification.StatusSent || !n.CreatedAt.Before(cutoff) {
			continue
		}
		if err := s.notificationRepo.Delete(ctx, n.ID); err != nil {
			slog.Error("Failed to delete old notification", "notification_id", n.ID, "error", err)

			continue
		}
		deleted++
	}

	slog.Info("Old notifications cleaned up", "deleted", deleted, "cutoff", cutoff)

	return nil
}
