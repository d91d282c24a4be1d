package notificationsvc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marketly/fulfillment/internal/events"
	"github.com/marketly/fulfillment/internal/notification/channel"
	"github.com/marketly/fulfillment/internal/notification/service/models/notification"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotificationRepo struct {
	rows map[uuid.UUID]notification.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{rows: make(map[uuid.UUID]notification.Notification)}
}

func (r *fakeNotificationRepo) Insert(_ context.Context, n notification.Notification) error {
	r.rows[n.ID] = n

	return nil
}

func (r *fakeNotificationRepo) GetByID(_ context.Context, id uuid.UUID) (*notification.Notification, error) {
	n, ok := r.rows[id]
	if !ok {
		return nil, notification.ErrNotificationNotFound
	}

	return &n, nil
}

func (r *fakeNotificationRepo) Update(_ context.Context, n notification.Notification) error {
	if _, ok := r.rows[n.ID]; !ok {
		return notification.ErrNotificationNotFound
	}
	r.rows[n.ID] = n

	return nil
}

func (r *fakeNotificationRepo) ListForRetry(_ context.Context, maxRetries int, limit int) ([]notification.Notification, error) {
	var result []notification.Notification
	for _, n := range r.rows {
		if n.Status == notification.StatusFailed && n.RetryCount < maxRetries {
			result = append(result, n)
		}
		if len(result) == limit {
			break
		}
	}

	return result, nil
}

func (r *fakeNotificationRepo) ListByStatusOlderThan(_ context.Context, status notification.Status, cutoff time.Time) ([]notification.Notification, error) {
	var result []notification.Notification
	for _, n := range r.rows {
		if n.Status == status && n.CreatedAt.Before(cutoff) {
			result = append(result, n)
		}
	}

	return result, nil
}

func (r *fakeNotificationRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.rows, id)

	return nil
}

type fakeProvider struct {
	channel   notification.Channel
	available bool
	sendErr   error
	sent      []uuid.UUID
}

func (p *fakeProvider) Send(_ context.Context, n *notification.Notification) error {
	if p.sendErr != nil {
		return p.sendErr
	}
	p.sent = append(p.sent, n.ID)

	return nil
}

func (p *fakeProvider) ChannelType() notification.Channel { return p.channel }
func (p *fakeProvider) IsAvailable() bool                 { return p.available }

func newTestService(repo *fakeNotificationRepo, providers ...channel.Provider) *NotificationService {
	return MustNewNotificationService(
		WithNotificationRepository(repo),
		WithChannelRegistry(channel.NewRegistry(providers...)),
	)
}

func emailProvider() *fakeProvider {
	return &fakeProvider{channel: notification.ChannelEmail, available: true}
}

func TestSendNotificationSuccess(t *testing.T) {
	repo := newFakeNotificationRepo()
	provider := emailProvider()
	svc := newTestService(repo, provider)

	n, err := svc.CreateNotification(context.Background(), CreateNotificationRequest{
		Type:      notification.TypeOrderCreated,
		Channel:   notification.ChannelEmail,
		Recipient: "jane@example.com",
		Content:   "hello",
		UserID:    42,
	})
	require.NoError(t, err)
	require.NoError(t, svc.SendNotification(context.Background(), n))

	stored := repo.rows[n.ID]
	assert.Equal(t, notification.StatusSent, stored.Status)
	require.NotNil(t, stored.SentAt)
	assert.Equal(t, 0, stored.RetryCount)
	assert.Len(t, provider.sent, 1)
}

func TestSendNotificationMissingProviderDoesNotSpendBudget(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := newTestService(repo, emailProvider())

	n, err := svc.CreateNotification(context.Background(), CreateNotificationRequest{
		Type:      notification.TypeOrderCreated,
		Channel:   notification.ChannelSMS,
		Recipient: "+15550000",
		Content:   "hello",
	})
	require.NoError(t, err)
	require.NoError(t, svc.SendNotification(context.Background(), n))

	stored := repo.rows[n.ID]
	assert.Equal(t, notification.StatusFailed, stored.Status)
	assert.Equal(t, 0, stored.RetryCount, "a configuration gap is not a delivery attempt")
	assert.NotEmpty(t, stored.ErrorMessage)
}

func TestSendNotificationUnavailableProviderDoesNotSpendBudget(t *testing.T) {
	repo := newFakeNotificationRepo()
	provider := emailProvider()
	provider.available = false
	svc := newTestService(repo, provider)

	n, err := svc.CreateNotification(context.Background(), CreateNotificationRequest{
		Type:      notification.TypeOrderCreated,
		Channel:   notification.ChannelEmail,
		Recipient: "jane@example.com",
		Content:   "hello",
	})
	require.NoError(t, err)
	require.NoError(t, svc.SendNotification(context.Background(), n))

	stored := repo.rows[n.ID]
	assert.Equal(t, notification.StatusFailed, stored.Status)
	assert.Equal(t, 0, stored.RetryCount)
}

func TestSendNotificationDeliveryErrorSpendsBudget(t *testing.T) {
	repo := newFakeNotificationRepo()
	provider := emailProvider()
	provider.sendErr = errors.New("smtp timeout")
	svc := newTestService(repo, provider)

	n, err := svc.CreateNotification(context.Background(), CreateNotificationRequest{
		Type:      notification.TypeOrderCreated,
		Channel:   notification.ChannelEmail,
		Recipient: "jane@example.com",
		Content:   "hello",
	})
	require.NoError(t, err)
	require.NoError(t, svc.SendNotification(context.Background(), n))

	stored := repo.rows[n.ID]
	assert.Equal(t, notification.StatusFailed, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	assert.Contains(t, stored.ErrorMessage, "smtp timeout")
}

func TestCreateNotificationDefaultsSubjectAndTemplate(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := newTestService(repo, emailProvider())

	n, err := svc.CreateNotification(context.Background(), CreateNotificationRequest{
		Type:      notification.TypeOrderCreated,
		Channel:   notification.ChannelEmail,
		Recipient: "jane@example.com",
		Content:   "hello",
	})
	require.NoError(t, err)

	assert.Equal(t, "Your order has been created", n.Subject)
	assert.Equal(t, "order-created", n.TemplateName)
	assert.Equal(t, notification.StatusPending, n.Status)
}

func TestProcessOrderEventClassification(t *testing.T) {
	tests := []struct {
		name     string
		previous string
		next     string
		want     notification.Type
	}{
		{"creation", "", "", notification.TypeOrderCreated},
		{"status update", "CREATED", "SHIPPED", notification.TypeOrderStatusUpdated},
		{"cancellation is a status update", "CREATED", "CANCELLED", notification.TypeOrderStatusUpdated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeNotificationRepo()
			svc := newTestService(repo, emailProvider())

			err := svc.ProcessOrderEvent(context.Background(), events.OrderEvent{
				OrderID:        uuid.New(),
				UserID:         42,
				UserEmail:      "jane@example.com",
				UserName:       "Jane",
				OrderNumber:    "ORD-1",
				OrderStatus:    "CREATED",
				TotalAmount:    decimal.NewFromInt(25),
				PreviousStatus: tt.previous,
				NewStatus:      tt.next,
			})
			require.NoError(t, err)

			require.Len(t, repo.rows, 1)
			for _, n := range repo.rows {
				assert.Equal(t, tt.want, n.Type)
				assert.Equal(t, "jane@example.com", n.Recipient)
			}
		})
	}
}

func TestProcessOrderEventFailedSendIsNotAnError(t *testing.T) {
	repo := newFakeNotificationRepo()
	provider := emailProvider()
	provider.sendErr = errors.New("smtp down")
	svc := newTestService(repo, provider)

	err := svc.ProcessOrderEvent(context.Background(), events.OrderEvent{
		OrderID:     uuid.New(),
		UserID:      42,
		UserEmail:   "jane@example.com",
		UserName:    "Jane",
		OrderNumber: "ORD-1",
		TotalAmount: decimal.NewFromInt(25),
	})

	require.NoError(t, err, "the notification is recorded FAILED for the sweep, not redelivered")
	require.Len(t, repo.rows, 1)
	for _, n := range repo.rows {
		assert.Equal(t, notification.StatusFailed, n.Status)
	}
}

func TestProcessUserEventUnknownTagDefaults(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := newTestService(repo, emailProvider())

	err := svc.ProcessUserEvent(context.Background(), events.UserEvent{
		UserID:    42,
		UserEmail: "jane@example.com",
		UserName:  "Jane",
		EventType: "LOYALTY_TIER_CHANGED",
	})
	require.NoError(t, err)

	require.Len(t, repo.rows, 1)
	for _, n := range repo.rows {
		assert.Equal(t, notification.TypeUserRegistered, n.Type)
	}
}

func TestProcessUserEventKnownTags(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := newTestService(repo, emailProvider())

	err := svc.ProcessUserEvent(context.Background(), events.UserEvent{
		UserID:    42,
		UserEmail: "jane@example.com",
		UserName:  "Jane",
		EventType: "ACCOUNT_LOCKED",
		Reason:    "too many login attempts",
	})
	require.NoError(t, err)

	for _, n := range repo.rows {
		assert.Equal(t, notification.TypeAccountLocked, n.Type)
		assert.Contains(t, n.Content, "too many login attempts")
	}
}

func TestRetryNotificationEnforcesBudget(t *testing.T) {
	repo := newFakeNotificationRepo()
	provider := emailProvider()
	svc := newTestService(repo, provider)

	n, err := svc.CreateNotification(context.Background(), CreateNotificationRequest{
		Type:      notification.TypeOrderCreated,
		Channel:   notification.ChannelEmail,
		Recipient: "jane@example.com",
		Content:   "hello",
	})
	require.NoError(t, err)

	stored := repo.rows[n.ID]
	stored.Status = notification.StatusFailed
	stored.RetryCount = notification.MaxRetries
	repo.rows[n.ID] = stored

	_, err = svc.RetryNotification(context.Background(), n.ID)
	assert.ErrorIs(t, err, notification.ErrNotificationNotRetryable)

	stored.RetryCount = notification.MaxRetries - 1
	repo.rows[n.ID] = stored

	retried, err := svc.RetryNotification(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, notification.StatusSent, retried.Status)
}

func TestWithMaxRetriesOverridesBudget(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := MustNewNotificationService(
		WithNotificationRepository(repo),
		WithChannelRegistry(channel.NewRegistry(emailProvider())),
		WithMaxRetries(1),
	)

	n := notification.Notification{
		ID:         uuid.New(),
		Type:       notification.TypeOrderCreated,
		Channel:    notification.ChannelEmail,
		Status:     notification.StatusFailed,
		Recipient:  "jane@example.com",
		RetryCount: 1,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, repo.Insert(context.Background(), n))

	_, err := svc.RetryNotification(context.Background(), n.ID)
	assert.ErrorIs(t, err, notification.ErrNotificationNotRetryable)

	require.NoError(t, svc.RetryFailed(context.Background()))
	assert.Equal(t, notification.StatusFailed, repo.rows[n.ID].Status)
}

func TestRetryNotificationRequiresFailedStatus(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := newTestService(repo, emailProvider())

	n, err := svc.CreateNotification(context.Background(), CreateNotificationRequest{
		Type:      notification.TypeOrderCreated,
		Channel:   notification.ChannelEmail,
		Recipient: "jane@example.com",
		Content:   "hello",
	})
	require.NoError(t, err)

	_, err = svc.RetryNotification(context.Background(), n.ID)
	assert.ErrorIs(t, err, notification.ErrNotificationNotRetryable)
}

func TestRetryFailedSweepSkipsExhausted(t *testing.T) {
	repo := newFakeNotificationRepo()
	provider := emailProvider()
	svc := newTestService(repo, provider)

	retryable := notification.Notification{
		ID:        uuid.New(),
		Type:      notification.TypeOrderCreated,
		Channel:   notification.ChannelEmail,
		Status:    notification.StatusFailed,
		Recipient: "a@example.com",
		CreatedAt: time.Now(),
	}
	exhausted := notification.Notification{
		ID:         uuid.New(),
		Type:       notification.TypeOrderCreated,
		Channel:    notification.ChannelEmail,
		Status:     notification.StatusFailed,
		Recipient:  "b@example.com",
		RetryCount: notification.MaxRetries,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, repo.Insert(context.Background(), retryable))
	require.NoError(t, repo.Insert(context.Background(), exhausted))

	require.NoError(t, svc.RetryFailed(context.Background()))

	assert.Equal(t, []uuid.UUID{retryable.ID}, provider.sent)
	assert.Equal(t, notification.StatusSent, repo.rows[retryable.ID].Status)
	assert.Equal(t, notification.StatusFailed, repo.rows[exhausted.ID].Status)
}

func TestCleanupOldDeletesOnlyOldSent(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := newTestService(repo, emailProvider())

	oldSent := notification.Notification{
		ID:        uuid.New(),
		Status:    notification.StatusSent,
		CreatedAt: time.Now().Add(-40 * 24 * time.Hour),
	}
	freshSent := notification.Notification{
		ID:        uuid.New(),
		Status:    notification.StatusSent,
		CreatedAt: time.Now().Add(-1 * 24 * time.Hour),
	}
	oldFailed := notification.Notification{
		ID:        uuid.New(),
		Status:    notification.StatusFailed,
		CreatedAt: time.Now().Add(-40 * 24 * time.Hour),
	}
	for _, n := range []notification.Notification{oldSent, freshSent, oldFailed} {
		require.NoError(t, repo.Insert(context.Background(), n))
	}

	require.NoError(t, svc.CleanupOld(context.Background(), 30*24*time.Hour))

	assert.NotContains(t, repo.rows, oldSent.ID)
	assert.Contains(t, repo.rows, freshSent.ID, "recent rows survive")
	assert.Contains(t, repo.rows, oldFailed.ID, "non-SENT rows survive regardless of age")
}
