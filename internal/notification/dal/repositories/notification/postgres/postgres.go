package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/marketly/fulfillment/internal/notification/service/models/notification"
	"github.com/marketly/fulfillment/internal/pkg/postgres"
)

var notificationColumns = []string{
	"id",
	"type",
	"channel",
	"status",
	"recipient",
	"subject",
	"content",
	"template_name",
	"user_id",
	"retry_count",
	"error_message",
	"created_at",
	"updated_at",
	"sent_at",
}

// NotificationRepository implements the notification repository for
// PostgreSQL.
type NotificationRepository struct {
	conn postgres.Querier
}

// NewNotificationRepository creates a new notification repository.
func NewNotificationRepository(conn postgres.Querier) *NotificationRepository {
	return &NotificationRepository{
		conn: conn,
	}
}

// Insert adds a new notification row.
func (r *NotificationRepository) Insert(ctx context.Context, n notification.Notification) error {
	query, args, err := sq.Insert("notifications").
		Columns(notificationColumns...).
		Values(
			n.ID,
			string(n.Type),
			string(n.Channel),
			string(n.Status),
			n.Recipient,
			n.Subject,
			n.Content,
			n.TemplateName,
			n.UserID,
			n.RetryCount,
			n.ErrorMessage,
			n.CreatedAt,
			n.UpdatedAt,
			n.SentAt,
		).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}

	return nil
}

// GetByID retrieves a notification by id.
func (r *NotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*notification.Notification, error) {
	query, args, err := sq.Select(notificationColumns...).
		From("notifications").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	n, err := scanNotification(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notification.ErrNotificationNotFound
		}

		return nil, fmt.Errorf("failed to query notification: %w", err)
	}

	return n, nil
}

// Update persists the delivery state of a notification.
func (r *NotificationRepository) Update(ctx context.Context, n notification.Notification) error {
	query, args, err := sq.Update("notifications").
		Set("status", string(n.Status)).
		Set("retry_count", n.RetryCount).
		Set("error_message", n.ErrorMessage).
		Set("updated_at", n.UpdatedAt).
		Set("sent_at", n.SentAt).
		Where(sq.Eq{"id": n.ID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notification.ErrNotificationNotFound
	}

	return nil
}

// ListForRetry retrieves FAILED notifications that still have retry budget
// left, oldest first.
func (r *NotificationRepository) ListForRetry(ctx context.Context, maxRetries int, limit int) ([]notification.Notification, error) {
	query, args, err := sq.Select(notificationColumns...).
		From("notifications").
		Where(sq.Eq{"status": string(notification.StatusFailed)}).
		Where(sq.Lt{"retry_count": maxRetries}).
		OrderBy("created_at ASC").
		Limit(uint64(limit)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	return r.queryMany(ctx, query, args)
}

// ListByStatusOlderThan retrieves notifications in the given status created
// before the cutoff.
func (r *NotificationRepository) ListByStatusOlderThan(
	ctx context.Context,
	status notification.Status,
	cutoff time.Time,
) ([]notification.Notification, error) {
	query, args, err := sq.Select(notificationColumns...).
		From("notifications").
		Where(sq.Eq{"status": string(status)}).
		Where(sq.Lt{"created_at": cutoff}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	return r.queryMany(ctx, query, args)
}

// Delete removes a notification row.
func (r *NotificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query, args, err := sq.Delete("notifications").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}

	return nil
}

func (r *NotificationRepository) queryMany(ctx context.Context, query string, args []any) ([]notification.Notification, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]notification.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, *n)
	}

	return notifications, rows.Err()
}

type row interface {
	Scan(dest ...any) error
}

func scanNotification(r row) (*notification.Notification, error) {
	var n notification.Notification
	var typ, channel, status string

	err := r.Scan(
		&n.ID,
		&typ,
		&channel,
		&status,
		&n.Recipient,
		&n.Subject,
		&n.Content,
		&n.TemplateName,
		&n.UserID,
		&n.RetryCount,
		&n.ErrorMessage,
		&n.CreatedAt,
		&n.UpdatedAt,
		&n.SentAt,
	)
	if err != nil {
		return nil, err
	}
	n.Type = notification.Type(typ)
	n.Channel = notification.Channel(channel)
	n.Status = notification.Status(status)

	return &n, nil
}
