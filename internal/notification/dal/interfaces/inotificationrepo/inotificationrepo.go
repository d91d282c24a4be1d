package inotificationrepo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/marketly/fulfillment/internal/notification/service/models/notification"
)

// INotificationRepository defines the interface for notification persistence.
type INotificationRepository interface {
	// Insert adds a new notification row.
	Insert(ctx context.Context, n notification.Notification) error

	// GetByID retrieves a notification by id.
	GetByID(ctx context.Context, id uuid.UUID) (*notification.Notification, error)

	// Update persists the delivery state of a notification.
	Update(ctx context.Context, n notification.Notification) error

	// ListForRetry retrieves FAILED notifications that still have retry
	// budget left.
	ListForRetry(ctx context.Context, maxRetries int, limit int) ([]notification.Notification, error)

	// ListByStatusOlderThan retrieves notifications in the given status
	// created before the cutoff.
	ListByStatusOlderThan(ctx context.Context, status notification.Status, cutoff time.Time) ([]notification.Notification, error)

	// Delete removes a notification row.
	Delete(ctx context.Context, id uuid.UUID) error
}
